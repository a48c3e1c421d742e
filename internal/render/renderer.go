package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// ErrNoPages means the document produced no page images.
var ErrNoPages = errors.New("no pages rendered")

// Page is one page image ready for a vision model.
type Page struct {
	Number   int
	MimeType string
	Data     []byte
}

type Config struct {
	Pdftoppm string // binary name or path
	DPI      int
	MaxPages int // 0 = all pages
	// HEICConverter turns phone photos into PNG: heif-convert | magick | sips.
	HEICConverter string
}

func DefaultConfig() Config {
	return Config{Pdftoppm: "pdftoppm", DPI: 200, MaxPages: 10, HEICConverter: "heif-convert"}
}

// Renderer turns a source document into page images.
type Renderer struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

func New(cfg Config, runner Runner, logger *slog.Logger) *Renderer {
	def := DefaultConfig()
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = def.Pdftoppm
	}
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if cfg.HEICConverter == "" {
		cfg.HEICConverter = def.HEICConverter
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Renderer{cfg: cfg, runner: runner, log: logger}
}

// Render returns pages in page order. Images come back as a single page;
// ext is the source extension and picks the image content type.
func (r *Renderer) Render(ctx context.Context, data []byte, format, ext string) ([]Page, error) {
	switch format {
	case constants.IMAGE:
		if len(data) == 0 {
			return nil, ErrNoPages
		}
		if constants.IsHEIC(ext) {
			png, err := r.convertHEIC(ctx, data)
			if err != nil {
				return nil, err
			}
			return []Page{{Number: 1, MimeType: "image/png", Data: png}}, nil
		}
		return []Page{{Number: 1, MimeType: constants.MimeFromExt(ext), Data: data}}, nil
	case constants.PDF:
		return r.renderPDF(ctx, data)
	}
	return nil, fmt.Errorf("render: unsupported format %q", format)
}

func (r *Renderer) renderPDF(ctx context.Context, data []byte) ([]Page, error) {
	tmpDir, err := os.MkdirTemp("", "survey-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.log.Warn("render.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 200 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(r.cfg.DPI), "-png"}
	if r.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}

	// pdftoppm names pages prefix-1.png or zero-padded prefix-01.png
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, ErrNoPages
	}

	pages := make([]Page, 0, len(matches))
	for i, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page image: %w", err)
		}
		pages = append(pages, Page{Number: i + 1, MimeType: "image/png", Data: b})
	}
	r.log.Debug("render.pdf.ok", "pages", len(pages), "dpi", r.cfg.DPI)
	return pages, nil
}

func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	i := strings.LastIndexByte(base, '-')
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}
