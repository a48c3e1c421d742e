package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// structural reads text the way a PDF viewer would: font-aware page text
// first, then text objects of the decoded content streams, then text
// objects found directly in the file bytes (uncompressed streams).
type structural struct {
	enough int
	logger *slog.Logger
}

func (structural) Name() constants.TextStrategy { return constants.StrategyStructural }

func (s structural) Extract(ctx context.Context, data []byte) ([]TextSpan, error) {
	passes := []struct {
		name string
		run  func([]byte) ([]TextSpan, error)
	}{
		{"plain-text", plainTextPages},
		{"content-streams", contentStreamPages},
		{"raw-text-objects", rawTextObjects},
	}

	var best []TextSpan
	var errs []error
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		spans, err := guard(p.run, data)
		if err != nil {
			s.logger.Debug("textextract.structural.pass_failed", "pass", p.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
			continue
		}
		n := spanChars(spans)
		s.logger.Debug("textextract.structural.pass", "pass", p.name, "chars", n)
		if n > spanChars(best) {
			best = spans
		}
		if spanChars(best) >= s.enough {
			return best, nil
		}
	}
	if len(best) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return best, nil
}

// guard converts a panic inside a third-party parser into an error.
func guard(fn func([]byte) ([]TextSpan, error), data []byte) (spans []TextSpan, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn(data)
}

func plainTextPages(data []byte) ([]TextSpan, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	var spans []TextSpan
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			spans = append(spans, TextSpan{Strategy: constants.StrategyStructural, Page: i, Text: text})
		}
	}
	return spans, nil
}

func contentStreamPages(data []byte) ([]TextSpan, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("pdfcpu page count: %w", err)
	}
	var spans []TextSpan
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil || len(content) == 0 {
			continue
		}
		if frags := scanTextObjects(content); len(frags) > 0 {
			spans = append(spans, TextSpan{Strategy: constants.StrategyStructural, Page: pageNr, Text: strings.Join(frags, "\n")})
		}
	}
	return spans, nil
}

func rawTextObjects(data []byte) ([]TextSpan, error) {
	frags := scanTextObjects(data)
	if len(frags) == 0 {
		return nil, nil
	}
	return []TextSpan{{Strategy: constants.StrategyStructural, Text: strings.Join(frags, "\n")}}, nil
}
