// Package heuristic pulls survey answers out of plain text with labelled-field
// and numbered-question patterns. It is the fallback when no model is usable.
package heuristic

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/survey-extractor/internal/segment"
	"github.com/joseph-ayodele/survey-extractor/internal/survey"
)

var (
	reQuestion   = regexp.MustCompile(`(?i)\bQ(?:uestion)?\s*([1-9])\b`)
	reScaleHint  = regexp.MustCompile(`(?i)\(?\b(?:rate\s+|scale\s+(?:of\s+)?)?\d{1,2}\s*(?:-|to|–)\s*\d{1,2}\b\)?`)
	reNumber     = regexp.MustCompile(`\b(\d{1,2})\b`)
	reRecommend  = regexp.MustCompile(`(?i)\b(?:recommend\w*|nps)\b`)
	reEmailAny   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reNamedScore = regexp.MustCompile(`(?i)\b(relevan\w*|materials?|knowledge\w*|clarity|engag\w*|pace|facilit\w*|venue|overall\s+satisfaction)\b[^\n\d]{0,40}?\b([1-5])\b`)
)

// likertWords maps verbal answers to scores; longer phrases are checked first.
var likertWords = []struct {
	re    *regexp.Regexp
	score int
}{
	{regexp.MustCompile(`(?i)\bstrongly\s+disagree\b`), 1},
	{regexp.MustCompile(`(?i)\bstrongly\s+agree\b`), 5},
	{regexp.MustCompile(`(?i)\bvery\s+poor\b`), 1},
	{regexp.MustCompile(`(?i)\bvery\s+good\b`), 4},
	{regexp.MustCompile(`(?i)\bdisagree\b`), 2},
	{regexp.MustCompile(`(?i)\bagree\b`), 4},
	{regexp.MustCompile(`(?i)\bneutral\b`), 3},
	{regexp.MustCompile(`(?i)\bexcellent\b`), 5},
	{regexp.MustCompile(`(?i)\bgood\b`), 3},
	{regexp.MustCompile(`(?i)\bfair\b`), 2},
	{regexp.MustCompile(`(?i)\bpoor\b`), 1},
}

var namedScoreKeys = map[string]int{
	"relevan": 0, "material": 2, "knowledge": 3, "clarity": 4,
	"engag": 5, "pace": 6, "facilit": 7, "venue": 7, "overall": 8,
}

type label struct {
	key string
	re  *regexp.Regexp
}

// labels are "Label: value" fields; the value runs to the end of the line or
// to the next label on the same line.
var labels = []label{
	{"participant_name", regexp.MustCompile(`(?i)\b(?:participant(?:'s)?\s+|full\s+)?name\s*[:\-]\s*`)},
	{"company", regexp.MustCompile(`(?i)\b(?:company|organi[sz]ation|employer)\s*[:\-]\s*`)},
	{"email", regexp.MustCompile(`(?i)\be-?mail(?:\s+address)?\s*[:\-]\s*`)},
	{"phone", regexp.MustCompile(`(?i)\b(?:phone|tel(?:ephone)?|mobile|cell)(?:\s+(?:no\.?|number))?\s*[:\-]\s*`)},
	{"response_date", regexp.MustCompile(`(?i)\bdate\s*[:\-]\s*`)},
	{"overall_rating", regexp.MustCompile(`(?i)\boverall\s+rating\s*[:\-]\s*`)},
	{"overall_rating_comment", regexp.MustCompile(`(?i)\b(?:reason|why)\s*[:\-]\s*`)},
	{"suggestions", regexp.MustCompile(`(?i)\bsuggestions?(?:\s+for\s+improvement)?\s*[:\-]\s*`)},
	{"comments", regexp.MustCompile(`(?i)\b(?:additional\s+|other\s+)?comments?\s*[:\-]\s*`)},
	{"future_interest", regexp.MustCompile(`(?i)\b(?:future\s+)?(?:topics?\s+of\s+)?interest(?:ed\s+in)?\s*[:\-]\s*`)},
}

var reLearned = regexp.MustCompile(`(?i)\b(?:what\s+(?:did\s+)?you\s+learn\w*\s*(?:\?|[:\-])|(?:learn(?:ed|t|ing)|takeaway)\s*\d?\s*[:\-])\s*`)

// Extractor turns sections into loosely typed candidates for survey.Normalize.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractCandidates returns one candidate per section that yielded any field.
func (e *Extractor) ExtractCandidates(sections []segment.Section) []map[string]any {
	out := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		c := Candidate(s.Text)
		if len(c) == 0 {
			e.logger.Debug("heuristic.section.empty", "index", s.Index, "chars", len(s.Text))
			continue
		}
		out = append(out, c)
	}
	e.logger.Info("heuristic.extract.done", "sections", len(sections), "candidates", len(out))
	return out
}

// Candidate parses one section's text.
func Candidate(text string) map[string]any {
	c := map[string]any{}
	keys := survey.LikertKeys()

	for _, m := range reQuestion.FindAllStringSubmatchIndex(text, -1) {
		q, _ := strconv.Atoi(text[m[2]:m[3]])
		if q < 1 || q > len(keys) {
			continue
		}
		window := questionWindow(text, m[1])
		if v, ok := answer(window); ok {
			if _, seen := c[keys[q-1]]; !seen {
				c[keys[q-1]] = v
			}
		}
	}

	for _, m := range reNamedScore.FindAllStringSubmatch(text, -1) {
		idx := namedIndex(m[1])
		if idx < 0 {
			continue
		}
		if _, seen := c[keys[idx]]; seen {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		c[keys[idx]] = n
	}

	if loc := reRecommend.FindStringIndex(text); loc != nil {
		window := lineFrom(text, loc[1], 80)
		window = reScaleHint.ReplaceAllString(window, " ")
		if nums := reNumber.FindAllStringSubmatch(window, -1); len(nums) > 0 {
			n, _ := strconv.Atoi(nums[len(nums)-1][1])
			c["recommendation_score"] = n
		}
	}

	for _, l := range labels {
		if v := labelValue(text, l.re); v != "" {
			c[l.key] = v
		}
	}
	if _, ok := c["email"]; !ok {
		if m := reEmailAny.FindString(text); m != "" {
			c["email"] = m
		}
	}

	learned := 0
	for _, m := range reLearned.FindAllStringIndex(text, -1) {
		if learned == 3 {
			break
		}
		if v := valueAt(text, m[1]); v != "" {
			learned++
			c["learned_"+strconv.Itoa(learned)] = v
		}
	}
	return c
}

// questionWindow is the text after a question marker up to the next marker
// or the end of the line.
func questionWindow(text string, from int) string {
	w := lineFrom(text, from, 160)
	if loc := reQuestion.FindStringIndex(w); loc != nil {
		w = w[:loc[0]]
	}
	return w
}

// answer reads the score from a question's window: the last number after
// scale hints are removed, else a verbal Likert answer.
func answer(window string) (int, bool) {
	cleaned := reScaleHint.ReplaceAllString(window, " ")
	if nums := reNumber.FindAllStringSubmatch(cleaned, -1); len(nums) > 0 {
		n, err := strconv.Atoi(nums[len(nums)-1][1])
		return n, err == nil
	}
	for _, w := range likertWords {
		if w.re.MatchString(cleaned) {
			return w.score, true
		}
	}
	return 0, false
}

func namedIndex(word string) int {
	w := strings.ToLower(word)
	for prefix, idx := range namedScoreKeys {
		if strings.HasPrefix(w, prefix) {
			return idx
		}
	}
	return -1
}

func labelValue(text string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return valueAt(text, loc[1])
}

// valueAt reads a field value starting at from, stopping at the end of the
// line, at the next label, or at the next question marker.
func valueAt(text string, from int) string {
	v := lineFrom(text, from, survey.MaxTextLen)
	cut := len(v)
	stops := []*regexp.Regexp{reQuestion, reLearned}
	for _, l := range labels {
		stops = append(stops, l.re)
	}
	for _, re := range stops {
		if loc := re.FindStringIndex(v); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	v = strings.TrimSpace(v[:cut])
	return strings.Trim(v, " _.,;|")
}

func lineFrom(text string, from, max int) string {
	if from >= len(text) {
		return ""
	}
	rest := text[from:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return truncateRunes(rest, max)
}

// truncateRunes keeps at most max characters of s.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
