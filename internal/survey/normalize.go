package survey

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

// Defaults fill in what a candidate cannot provide.
type Defaults struct {
	JobID      uuid.UUID
	CourseName string
	Date       time.Time
}

// aliases maps keys models and forms commonly use onto catalog keys.
var aliases = map[string]string{
	"name":                  "participant_name",
	"participant":           "participant_name",
	"full_name":             "participant_name",
	"organization":          "company",
	"organisation":          "company",
	"employer":              "company",
	"e-mail":                "email",
	"email_address":         "email",
	"phone_number":          "phone",
	"telephone":             "phone",
	"recommendation":        "recommendation_score",
	"recommend":             "recommendation_score",
	"nps":                   "recommendation_score",
	"date":                  "response_date",
	"suggestion":            "suggestions",
	"comment":               "comments",
	"additional_comments":   "comments",
	"interest":              "future_interest",
	"future_topics":         "future_interest",
	"overall":               "overall_rating",
	"overall_comment":       "overall_rating_comment",
	"overall_rating_reason": "overall_rating_comment",
}

// Canonicalize renames known synonyms (q1..q9, rating_1..rating_9 and the
// aliases above) to catalog keys. Existing catalog keys win over synonyms.
func Canonicalize(candidate map[string]any) map[string]any {
	out := make(map[string]any, len(candidate))
	likert := LikertKeys()
	for k, v := range candidate {
		key := strings.ToLower(strings.TrimSpace(k))
		key = strings.ReplaceAll(key, " ", "_")
		if to, ok := aliases[key]; ok {
			key = to
		} else if i := questionIndex(key); i > 0 && i <= len(likert) {
			key = likert[i-1]
		}
		if _, exists := out[key]; exists && key != k {
			continue
		}
		out[key] = v
	}
	return out
}

func questionIndex(key string) int {
	for _, prefix := range []string{"q", "question_", "question", "rating_"} {
		if rest, ok := strings.CutPrefix(key, prefix); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
			return int(rest[0] - '0')
		}
	}
	return 0
}

// Normalize validates every known field of candidate independently. Invalid
// values become nil, unknown keys are ignored. The course name always comes
// from the job; the date falls back to d.Date.
func Normalize(candidate map[string]any, d Defaults) entity.SurveyResponse {
	c := Canonicalize(candidate)
	r := entity.SurveyResponse{
		ID:         uuid.New(),
		JobID:      d.JobID,
		CourseName: d.CourseName,
		CreatedAt:  time.Now().UTC(),
	}
	for _, f := range Fields {
		if v, ok := c[f.Key]; ok {
			f.set(&r, v)
		}
	}
	if r.ResponseDate == nil && !d.Date.IsZero() {
		day := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, time.UTC)
		r.ResponseDate = &day
	}
	return r
}

// HasMeaningfulSurveyData is true when a response carries at least one rating,
// a text answer longer than five characters, or any contact field.
func HasMeaningfulSurveyData(r *entity.SurveyResponse) bool {
	if r == nil {
		return false
	}
	if r.RecommendationScore != nil {
		return true
	}
	for _, v := range r.Ratings() {
		if v != nil {
			return true
		}
	}
	for _, v := range r.TextAnswers() {
		if v != nil && len([]rune(strings.TrimSpace(*v))) > 5 {
			return true
		}
	}
	for _, v := range r.Contact() {
		if v != nil {
			return true
		}
	}
	return false
}

// NormalizeAll normalizes candidates, keeps the meaningful ones and tags each
// with its provenance.
func NormalizeAll(candidates []map[string]any, d Defaults, method constants.Method, source constants.ResponseSource) []entity.SurveyResponse {
	out := make([]entity.SurveyResponse, 0, len(candidates))
	for _, c := range candidates {
		r := Normalize(c, d)
		if !HasMeaningfulSurveyData(&r) {
			continue
		}
		r.Method = method
		r.Source = source
		out = append(out, r)
	}
	return out
}

// Placeholder is the single response persisted when nothing meaningful was
// recovered, so a completed job always has at least one row.
func Placeholder(d Defaults) entity.SurveyResponse {
	r := Normalize(nil, d)
	r.Method = constants.MethodPlaceholder
	r.Source = constants.SourceHeuristic
	return r
}
