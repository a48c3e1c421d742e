// Package textextract recovers plain text from PDF bytes with a cascade of
// progressively more desperate strategies.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// TextSpan is text attributed to the strategy (and page, when known) that produced it.
type TextSpan struct {
	Strategy constants.TextStrategy `json:"strategy"`
	Page     int                    `json:"page,omitempty"`
	Text     string                 `json:"text"`
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy constants.TextStrategy
	Chars    int
	Err      error
}

// Result is the best plain-text reconstruction found.
type Result struct {
	Text     string
	Strategy constants.TextStrategy
	Spans    []TextSpan
	Attempts []Attempt
}

// Strategy is one way of recovering text.
type Strategy interface {
	Name() constants.TextStrategy
	Extract(ctx context.Context, data []byte) ([]TextSpan, error)
}

// Config holds the thresholds that gate each fallback.
type Config struct {
	// PatternScanBelow: pattern scanning runs when structural output is shorter.
	PatternScanBelow int
	// RawDecodeBelow: raw decoding runs when pattern-scan output is shorter.
	RawDecodeBelow int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{PatternScanBelow: 100, RawDecodeBelow: 50}
}

// Step pairs a strategy with its gate: it runs only when the previous step
// produced fewer than RunBelow characters. The first step always runs.
type Step struct {
	Strategy Strategy
	RunBelow int
}

// Extractor runs structural, pattern-scan and raw-decode in order.
type Extractor struct {
	steps  []Step
	logger *slog.Logger
}

// NewExtractor builds the standard cascade.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.PatternScanBelow <= 0 {
		cfg.PatternScanBelow = def.PatternScanBelow
	}
	if cfg.RawDecodeBelow <= 0 {
		cfg.RawDecodeBelow = def.RawDecodeBelow
	}
	return NewExtractorWith(logger,
		Step{Strategy: structural{enough: cfg.PatternScanBelow, logger: logger}},
		Step{Strategy: patternScan{}, RunBelow: cfg.PatternScanBelow},
		Step{Strategy: rawDecode{}, RunBelow: cfg.RawDecodeBelow},
	)
}

// NewExtractorWith assembles a custom cascade.
func NewExtractorWith(logger *slog.Logger, steps ...Step) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{steps: steps, logger: logger}
}

// Extract never fails: every strategy error or panic is logged and treated as
// empty output. The longest normalized text among the attempted strategies wins.
func (e *Extractor) Extract(ctx context.Context, data []byte) Result {
	start := time.Now()
	var res Result
	prev := -1
	for i, st := range e.steps {
		if i > 0 && prev >= st.RunBelow {
			break
		}
		spans, err := e.run(ctx, st.Strategy, data)
		text := joinSpans(spans)
		n := utf8.RuneCountInString(text)
		res.Attempts = append(res.Attempts, Attempt{Strategy: st.Strategy.Name(), Chars: n, Err: err})
		e.logger.Debug("textextract.attempt",
			"strategy", st.Strategy.Name(),
			"chars", n,
			"error", err,
		)
		if n > utf8.RuneCountInString(res.Text) {
			res.Text = text
			res.Strategy = st.Strategy.Name()
			res.Spans = spans
		}
		prev = n
		if ctx.Err() != nil {
			break
		}
	}
	e.logger.Info("textextract.done",
		"strategy", res.Strategy,
		"chars", utf8.RuneCountInString(res.Text),
		"attempts", len(res.Attempts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (e *Extractor) run(ctx context.Context, s Strategy, data []byte) (spans []TextSpan, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans, err = nil, fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	spans, err = s.Extract(ctx, data)
	for i := range spans {
		spans[i].Text = Normalize(spans[i].Text)
	}
	return spans, err
}

func joinSpans(spans []TextSpan) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func spanChars(spans []TextSpan) int {
	n := 0
	for _, s := range spans {
		n += utf8.RuneCountInString(strings.TrimSpace(s.Text))
	}
	return n
}
