// Package ocr reads text from rendered page images with a local tesseract
// binary. It is the fallback for scanned documents when no model can be used.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/render"
	"github.com/joseph-ayodele/survey-extractor/internal/textextract"
)

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for a uniform block of text; 0 = tesseract default
	// Confidence runs a second TSV pass per page to measure mean word confidence.
	Confidence bool
}

// PageText is what tesseract read from one page.
type PageText struct {
	Page       int
	Text       string
	Confidence float32 // 0..1, 0 when not measured
}

// Result joins all pages in page order.
type Result struct {
	Text     string
	Pages    []PageText
	Warnings []string
	Duration time.Duration
}

type Tesseract struct {
	cfg    Config
	runner render.Runner
	log    *slog.Logger
}

func New(cfg Config, runner render.Runner, logger *slog.Logger) *Tesseract {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = render.ExecRunner{Logger: logger}
	}
	return &Tesseract{cfg: cfg, runner: runner, log: logger}
}

var ErrNoText = errors.New("ocr produced no text")

// Recognize runs tesseract over each page. A failed page is recorded as a
// warning; the call fails only when no page yields text.
func (t *Tesseract) Recognize(ctx context.Context, pages []render.Page) (Result, error) {
	start := time.Now()
	var res Result

	tmpDir, err := os.MkdirTemp("", "survey-ocr-*")
	if err != nil {
		return res, fmt.Errorf("mkdir temp: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(tmpDir, fmt.Sprintf("page-%d.%s", p.Number, extFor(p.MimeType)))
		if err := os.WriteFile(path, p.Data, 0o600); err != nil {
			return res, fmt.Errorf("write page %d: %w", p.Number, err)
		}

		txt, err := t.page(ctx, path)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", p.Number, err))
			continue
		}
		pt := PageText{Page: p.Number, Text: txt}
		if t.cfg.Confidence {
			if c, err := t.confidence(ctx, path); err == nil {
				pt.Confidence = c
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf("page %d confidence: %v", p.Number, err))
			}
		}
		res.Pages = append(res.Pages, pt)
		if txt != "" {
			texts = append(texts, txt)
		}
	}
	res.Text = strings.Join(texts, "\n\n")
	res.Duration = time.Since(start)

	t.log.Info("ocr.done",
		"pages", len(pages),
		"pages_read", len(res.Pages),
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	if res.Text == "" {
		return res, ErrNoText
	}
	return res, nil
}

func (t *Tesseract) args(path string) []string {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

func (t *Tesseract) page(ctx context.Context, path string) (string, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.args(path)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return textextract.Normalize(string(out)), nil
}

// confidence runs tesseract in TSV mode and returns the mean word confidence in 0..1.
func (t *Tesseract) confidence(ctx context.Context, path string) (float32, error) {
	out, _, err := t.runner.Run(ctx, t.cfg.Tesseract, append(t.args(path), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}
	return MeanConfidence(string(out)), nil
}

// MeanConfidence averages the conf column of tesseract TSV output, skipping
// the header and non-word rows (conf -1).
func MeanConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil || v < 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100)
}

func extFor(mime string) string {
	switch mime {
	case constants.MimeFromExt("jpg"):
		return "jpg"
	case constants.MimeFromExt("webp"):
		return "webp"
	case constants.MimeFromExt("gif"):
		return "gif"
	}
	return "png"
}
