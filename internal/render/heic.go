package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// convertHEIC turns a HEIC/HEIF photo into PNG bytes with the configured
// converter. Vision models and tesseract do not read HEIC.
func (r *Renderer) convertHEIC(ctx context.Context, data []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "survey-heic-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "in.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp heic: %w", err)
	}

	var args []string
	switch r.cfg.HEICConverter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return nil, fmt.Errorf("render: HEIC not supported by converter %q (use heif-convert, magick or sips)", r.cfg.HEICConverter)
	}
	if _, errb, err := r.runner.Run(ctx, r.cfg.HEICConverter, args...); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", r.cfg.HEICConverter, err, strings.TrimSpace(truncate(string(errb), 512)))
	}

	b, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	if len(b) == 0 {
		return nil, ErrNoPages
	}
	r.log.Debug("render.heic.ok", "converter", r.cfg.HEICConverter, "bytes", len(b))
	return b, nil
}
