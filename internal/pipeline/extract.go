package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/detect"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/llm"
	"github.com/joseph-ayodele/survey-extractor/internal/metrics"
	"github.com/joseph-ayodele/survey-extractor/internal/render"
	"github.com/joseph-ayodele/survey-extractor/internal/storage"
	"github.com/joseph-ayodele/survey-extractor/internal/survey"
)

// Path names the route a run took through the extraction chain.
type Path string

const (
	PathLLMText   Path = "llm-text"
	PathLLMVision Path = "llm-vision"
	PathHeuristic Path = "heuristic"
)

// Fallback reasons recorded in logs and metrics.
const (
	reasonDisabled  = "llm_disabled"
	reasonLLMError  = "llm_error"
	reasonLLMEmpty  = "llm_empty"
	reasonNoPages   = "vision_no_pages"
	reasonAllFailed = "vision_all_pages_failed"
)

var errAllPagesFailed = errors.New("every page failed vision extraction")

// Outcome is the result of extracting one document. Responses is never empty:
// when nothing meaningful was found it holds the placeholder.
type Outcome struct {
	Responses  []entity.SurveyResponse
	Candidates int // raw candidates seen on the path that produced Responses
	Method     constants.Method
	Path       Path
	Scanned    bool
	TextChars  int
}

// Extractor runs the extraction chain for one document. It holds no per-run
// state; the run's LLM configuration is passed into Extract.
type Extractor struct {
	Text      TextExtractor
	Renderer  PageRenderer
	Segmenter Segmenter
	Heuristic CandidateExtractor
	LLM       llm.ResponseExtractor
	OCR       PageOCR // optional; reads scanned pages when no model result is usable
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Extract never fails: every degradation ends in heuristics and, at worst,
// the placeholder.
func (e *Extractor) Extract(ctx context.Context, doc *storage.Document, jobID uuid.UUID, courseName string, cfg entity.ExtractionConfig) Outcome {
	log := e.logger().With("job_id", jobID)
	d := survey.Defaults{JobID: jobID, CourseName: courseName, Date: time.Now().UTC()}

	var (
		text    string
		scanned = true
		out     Outcome
		pages   = &pageCache{}
	)
	if doc.Format == constants.PDF {
		res := e.Text.Extract(ctx, doc.Data)
		text = res.Text
		report := detect.Analyze(text)
		scanned = report.Scanned
		if info, err := detect.Inspect(doc.Data); err != nil {
			log.Debug("pipeline.inspect.failed", "error", err)
		} else {
			log.Info("pipeline.inspect", "pages", info.Pages, "encrypted", info.Encrypted, "has_images", info.HasImages)
			if info.Encrypted && !report.HasActualWords {
				scanned = true
			}
		}
		log.Info("pipeline.text",
			"strategy", res.Strategy,
			"chars", len(text),
			"readable_ratio", report.ReadableRatio,
			"actual_words", report.ActualWords,
			"scanned", scanned,
		)
	}
	out.Scanned = scanned
	out.TextChars = len(text)

	if cfg.LLMEnabled() {
		var (
			cands []map[string]any
			src   constants.ResponseSource
			path  Path
			err   error
		)
		if scanned {
			path, src = PathLLMVision, constants.SourceVision
			cands, err = e.vision(ctx, log, doc, pages, courseName, cfg)
		} else {
			path, src = PathLLMText, constants.SourceText
			cands, err = e.text(ctx, courseName, text, cfg)
		}
		if err == nil {
			if rs := survey.NormalizeAll(cands, d, constants.MethodLLM, src); len(rs) > 0 {
				log.Info("pipeline.llm.ok", "path", path, "candidates", len(cands), "responses", len(rs))
				out.Responses, out.Candidates, out.Method, out.Path = rs, len(cands), constants.MethodLLM, path
				return out
			}
			e.fallback(log, reasonLLMEmpty, path, nil)
		} else {
			reason := reasonLLMError
			switch {
			case errors.Is(err, errAllPagesFailed):
				reason = reasonAllFailed
			case errors.Is(err, errNoPages):
				reason = reasonNoPages
			}
			e.fallback(log, reason, path, err)
		}
	} else {
		e.fallback(log, reasonDisabled, PathHeuristic, nil)
	}

	out.Method, out.Path = constants.MethodHeuristic, PathHeuristic
	if scanned && e.OCR != nil {
		if t := e.localOCR(ctx, log, doc, pages); t != "" {
			text = t
		}
	}
	if text != "" {
		sections := e.Segmenter.Segment(text)
		cands := e.Heuristic.ExtractCandidates(sections)
		out.Candidates = len(cands)
		out.Responses = survey.NormalizeAll(cands, d, constants.MethodHeuristic, constants.SourceHeuristic)
		log.Info("pipeline.heuristic", "sections", len(sections), "candidates", len(cands), "responses", len(out.Responses))
	}
	if len(out.Responses) == 0 {
		log.Warn("pipeline.placeholder", "reason", "no meaningful responses")
		out.Responses = []entity.SurveyResponse{survey.Placeholder(d)}
	}
	return out
}

func (e *Extractor) text(ctx context.Context, courseName, text string, cfg entity.ExtractionConfig) ([]map[string]any, error) {
	if text == "" {
		return nil, errors.New("no text to send")
	}
	items, _, err := e.LLM.ExtractResponses(ctx, llm.Request{
		CourseName: courseName,
		Text:       text,
		APIKey:     cfg.APIKey,
		Model:      cfg.ModelName,
	})
	return items, err
}

var errNoPages = errors.New("document rendered no pages")

// vision calls the model once per page, in page order. A failed page is
// logged and skipped.
func (e *Extractor) vision(ctx context.Context, log *slog.Logger, doc *storage.Document, cache *pageCache, courseName string, cfg entity.ExtractionConfig) ([]map[string]any, error) {
	pages, err := cache.get(ctx, e.Renderer, doc)
	if err != nil {
		return nil, err
	}

	var (
		all    []map[string]any
		failed int
	)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, _, err := e.LLM.ExtractResponses(ctx, llm.Request{
			CourseName: courseName,
			Image:      &llm.PageImage{Page: p.Number, MimeType: p.MimeType, Data: p.Data},
			APIKey:     cfg.APIKey,
			Model:      cfg.ModelName,
		})
		if err != nil {
			failed++
			e.Metrics.VisionPage("error")
			log.Warn("pipeline.vision.page_failed", "page", p.Number, "error", err)
			continue
		}
		e.Metrics.VisionPage("ok")
		log.Info("pipeline.vision.page", "page", p.Number, "candidates", len(items))
		all = append(all, items...)
	}
	if failed == len(pages) {
		return nil, errAllPagesFailed
	}
	return all, nil
}

// localOCR reads the rendered pages with the OCR engine. Any failure leaves
// the text as it was.
func (e *Extractor) localOCR(ctx context.Context, log *slog.Logger, doc *storage.Document, cache *pageCache) string {
	pages, err := cache.get(ctx, e.Renderer, doc)
	if err != nil {
		log.Warn("pipeline.ocr.skipped", "error", err)
		return ""
	}
	res, err := e.OCR.Recognize(ctx, pages)
	if err != nil {
		log.Warn("pipeline.ocr.failed", "error", err, "warnings", len(res.Warnings))
		return ""
	}
	log.Info("pipeline.ocr", "pages", len(res.Pages), "chars", len(res.Text))
	return res.Text
}

// pageCache renders a document at most once per run.
type pageCache struct {
	pages []render.Page
	err   error
	done  bool
}

func (c *pageCache) get(ctx context.Context, r PageRenderer, doc *storage.Document) ([]render.Page, error) {
	if c.done {
		return c.pages, c.err
	}
	c.done = true
	c.pages, c.err = r.Render(ctx, doc.Data, doc.Format, doc.Ext)
	switch {
	case c.err != nil:
		c.err = fmt.Errorf("%w: %v", errNoPages, c.err)
	case len(c.pages) == 0:
		c.err = errNoPages
	}
	return c.pages, c.err
}

func (e *Extractor) fallback(log *slog.Logger, reason string, from Path, err error) {
	e.Metrics.Fallback(reason)
	if err != nil {
		log.Warn("pipeline.fallback", "from", from, "reason", reason, "error", err)
		return
	}
	log.Info("pipeline.fallback", "from", from, "reason", reason)
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
