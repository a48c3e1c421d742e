package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

// HTTPSource downloads http:// and https:// references.
type HTTPSource struct {
	scheme string
	client *http.Client
}

// NewHTTPSources returns one source per scheme sharing a client.
func NewHTTPSources(timeout time.Duration) []Source {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &http.Client{Timeout: timeout}
	return []Source{&HTTPSource{scheme: "http", client: c}, &HTTPSource{scheme: "https", client: c}}
}

func (h *HTTPSource) Scheme() string { return h.scheme }

func (h *HTTPSource) Get(ctx context.Context, ref *url.URL, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", ref.Redacted(), common.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s: status code %d", ref.Redacted(), resp.StatusCode)
	case maxBytes > 0 && resp.ContentLength > maxBytes:
		return nil, ErrTooLarge
	}
	return readLimited(resp.Body, maxBytes)
}
