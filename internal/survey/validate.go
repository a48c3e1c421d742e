package survey

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

// MaxTextLen bounds every free-text answer, in characters.
const MaxTextLen = 1000

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var dateLayouts = []string{
	entity.DateLayout,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ValidateRating returns the value as an int when it is an integral number
// within [lo, hi]. Numeric strings are accepted; anything else yields nil.
// Likert answers and the recommendation score are whole points on the form,
// so an in-range fraction such as 3.5 is not a valid answer and yields nil.
func ValidateRating(v any, lo, hi int) *int {
	f, ok := toNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < float64(lo) || f > float64(hi) {
		return nil
	}
	n := int(f)
	return &n
}

// ValidateText trims a string answer and keeps it when 1..MaxTextLen characters
// long. Invalid UTF-8 bytes are dropped first.
func ValidateText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if n := utf8.RuneCountInString(s); n < 1 || n > MaxTextLen {
		return nil
	}
	return &s
}

// ValidateEmail accepts local@domain.tld and returns it lowercased.
func ValidateEmail(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if !reEmail.MatchString(s) {
		return nil
	}
	s = strings.ToLower(s)
	return &s
}

// ValidateDate parses the common date spellings found on paper forms.
func ValidateDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
