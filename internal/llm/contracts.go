package llm

import "context"

// PageImage is one rendered page sent to a vision-capable model.
type PageImage struct {
	Page     int
	MimeType string
	Data     []byte
}

// Request is one extraction call. Exactly one of Text or Image is set.
// APIKey and Model come from the run's configuration, not from process state.
type Request struct {
	CourseName string
	Text       string
	Image      *PageImage
	APIKey     string
	Model      string
}

// IsVision reports whether the request carries a page image.
func (r Request) IsVision() bool { return r.Image != nil }

// ResponseExtractor is what the pipeline depends on. It returns loosely typed
// candidates (one per participant found) and the raw model content.
type ResponseExtractor interface {
	ExtractResponses(ctx context.Context, req Request) ([]map[string]any, []byte, error)
}
