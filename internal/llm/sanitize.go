package llm

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/survey-extractor/internal/survey"
)

var fieldKinds = func() map[string]survey.Kind {
	m := make(map[string]survey.Kind, len(survey.Fields))
	for _, f := range survey.Fields {
		m[f.Key] = f.Kind
	}
	return m
}()

// SanitizeItems makes model output fit the response schema without losing
// the usable parts:
// - renames synonyms to catalog keys
// - drops unknown keys, nulls and empty strings
// - turns integral numbers (or numeric strings) into ints for rating fields
// - turns numbers into strings for text fields
// It returns the cleaned items and the list of dropped entries.
func SanitizeItems(items []map[string]any, logger *slog.Logger) ([]map[string]any, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	var dropped []string
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		clean := make(map[string]any, len(item))
		for k, v := range survey.Canonicalize(item) {
			kind, known := fieldKinds[k]
			if !known {
				dropped = append(dropped, strconv.Itoa(i)+"."+k+"(unknown)")
				continue
			}
			cv, ok := coerce(kind, v)
			if !ok {
				dropped = append(dropped, strconv.Itoa(i)+"."+k+"(type)")
				continue
			}
			if cv != nil {
				clean[k] = cv
			}
		}
		out = append(out, clean)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped
}

// coerce returns (nil, true) for values that mean "absent".
func coerce(kind survey.Kind, v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	switch kind {
	case survey.KindLikert, survey.KindScore:
		var f float64
		switch t := v.(type) {
		case json.Number:
			n, err := t.Float64()
			if err != nil {
				return nil, false
			}
			f = n
		case float64:
			f = t
		case int:
			return t, true
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
				return nil, true
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, false
			}
			f = n
		default:
			return nil, false
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, false
		}
		return int(f), true
	default:
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
				return nil, true
			}
			return s, true
		case json.Number:
			return t.String(), true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		}
		return nil, false
	}
}
