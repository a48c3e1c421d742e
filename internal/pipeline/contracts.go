package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/ocr"
	"github.com/joseph-ayodele/survey-extractor/internal/render"
	"github.com/joseph-ayodele/survey-extractor/internal/segment"
	"github.com/joseph-ayodele/survey-extractor/internal/storage"
	"github.com/joseph-ayodele/survey-extractor/internal/textextract"
)

// The collaborators below are satisfied by the concrete packages; tests swap
// in fakes.

type JobStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, from ...constants.JobStatus) (*entity.ExtractionJob, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, totalForms, processedForms int, method constants.Method) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

type ResponseStore interface {
	ReplaceForJob(ctx context.Context, jobID uuid.UUID, responses []entity.SurveyResponse) error
}

type SettingsStore interface {
	GetByOwner(ctx context.Context, ownerID string) (*entity.ExtractionSettings, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*storage.Document, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte) textextract.Result
}

type PageRenderer interface {
	Render(ctx context.Context, data []byte, format, ext string) ([]render.Page, error)
}

type Segmenter interface {
	Segment(text string) []segment.Section
}

type CandidateExtractor interface {
	ExtractCandidates(sections []segment.Section) []map[string]any
}

type PageOCR interface {
	Recognize(ctx context.Context, pages []render.Page) (ocr.Result, error)
}
