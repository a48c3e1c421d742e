// Package segment splits the text of a multi-participant document into one
// section per filled-in form.
package segment

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Section is an ordered, non-overlapping slice of the source text.
type Section struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Config bounds segmentation.
type Config struct {
	MinFragment int // fragments this short or shorter are dropped from a split
	MaxSections int // hard cap on the output
	MergeAbove  int // more sections than this triggers merging
	MergeTarget int // merged blocks grow until at least this many chars
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{MinFragment: 50, MaxSections: 50, MergeAbove: 15, MergeTarget: 1500}
}

type span struct{ start, end int }

// Segmenter applies its rules as a left fold: each rule splits every current
// section, and the split is kept only if it increases the section count
// without exceeding MaxSections.
type Segmenter struct {
	rules  []Rule
	cfg    Config
	logger *slog.Logger
}

// New returns a segmenter with the default rules.
func New(cfg Config, logger *slog.Logger) *Segmenter {
	return NewWithRules(DefaultRules(), cfg, logger)
}

// NewWithRules returns a segmenter with a custom ordered rule list.
func NewWithRules(rules []Rule, cfg Config, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.MinFragment <= 0 {
		cfg.MinFragment = def.MinFragment
	}
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = def.MaxSections
	}
	if cfg.MergeAbove <= 0 {
		cfg.MergeAbove = def.MergeAbove
	}
	if cfg.MergeTarget <= 0 {
		cfg.MergeTarget = def.MergeTarget
	}
	return &Segmenter{rules: rules, cfg: cfg, logger: logger}
}

// Segment never returns an empty slice for text with any non-space content.
func (s *Segmenter) Segment(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	spans := []span{{0, len(text)}}
	for _, r := range s.rules {
		next := s.applyRule(text, spans, r)
		if len(next) > len(spans) && len(next) <= s.cfg.MaxSections {
			s.logger.Debug("segment.rule.accepted", "rule", r.Name, "from", len(spans), "to", len(next))
			spans = next
		}
	}
	if len(spans) > s.cfg.MergeAbove {
		before := len(spans)
		spans = s.merge(text, spans)
		s.logger.Debug("segment.merged", "from", before, "to", len(spans))
	}
	if len(spans) > s.cfg.MaxSections {
		last := s.cfg.MaxSections - 1
		spans[last].end = spans[len(spans)-1].end
		spans = spans[:s.cfg.MaxSections]
	}

	out := make([]Section, 0, len(spans))
	for _, sp := range spans {
		out = append(out, Section{Index: len(out), Start: sp.start, End: sp.end, Text: strings.TrimSpace(text[sp.start:sp.end])})
	}
	s.logger.Info("segment.done", "sections", len(out), "chars", len(text))
	return out
}

// applyRule splits each span at every match of rule and keeps only the
// fragments longer than MinFragment. Text in a dropped fragment is lost only
// if the caller accepts the split.
func (s *Segmenter) applyRule(text string, spans []span, r Rule) []span {
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		matches := r.Pattern.FindAllStringIndex(text[sp.start:sp.end], -1)
		if len(matches) == 0 {
			out = append(out, sp)
			continue
		}
		cuts := make([]int, 0, len(matches)+2)
		cuts = append(cuts, sp.start)
		for _, m := range matches {
			if at := sp.start + m[0]; at > cuts[len(cuts)-1] {
				cuts = append(cuts, at)
			}
		}
		cuts = append(cuts, sp.end)

		for i := 0; i+1 < len(cuts); i++ {
			f := span{cuts[i], cuts[i+1]}
			if s.long(text, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

func (s *Segmenter) long(text string, f span) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text[f.start:f.end])) > s.cfg.MinFragment
}

// merge joins adjacent spans until each block reaches MergeTarget chars.
func (s *Segmenter) merge(text string, spans []span) []span {
	var out []span
	acc := spans[0]
	for _, sp := range spans[1:] {
		if len(strings.TrimSpace(text[acc.start:acc.end])) < s.cfg.MergeTarget {
			acc.end = sp.end
			continue
		}
		out = append(out, acc)
		acc = sp
	}
	return append(out, acc)
}
