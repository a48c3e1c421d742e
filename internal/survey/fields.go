// Package survey owns the survey response field catalog and the rules that
// turn loosely typed candidates (from a model or from text heuristics) into
// validated responses.
package survey

import "github.com/joseph-ayodele/survey-extractor/internal/entity"

// Kind is the validation rule a field goes through.
type Kind int

const (
	KindLikert Kind = iota // integer 1..5
	KindScore              // integer 0..10
	KindText               // trimmed text, 1..1000 chars
	KindEmail
	KindDate
)

// Field describes one answer a response can carry.
type Field struct {
	Key         string
	Kind        Kind
	Description string

	set func(r *entity.SurveyResponse, v any)
}

const (
	LikertMin = 1
	LikertMax = 5
	ScoreMin  = 0
	ScoreMax  = 10
)

// Fields is the catalog in form order. The first nine entries are Q1..Q9.
var Fields = []Field{
	likert("rating_content_relevance", "Q1: relevance of the course content", func(r *entity.SurveyResponse, v *int) { r.RatingContentRelevance = v }),
	likert("rating_content_organization", "Q2: organization of the content", func(r *entity.SurveyResponse, v *int) { r.RatingContentOrganization = v }),
	likert("rating_materials_quality", "Q3: quality of the materials", func(r *entity.SurveyResponse, v *int) { r.RatingMaterialsQuality = v }),
	likert("rating_instructor_knowledge", "Q4: instructor knowledge", func(r *entity.SurveyResponse, v *int) { r.RatingInstructorKnowledge = v }),
	likert("rating_instructor_clarity", "Q5: clarity of the instructor", func(r *entity.SurveyResponse, v *int) { r.RatingInstructorClarity = v }),
	likert("rating_engagement", "Q6: engagement and interaction", func(r *entity.SurveyResponse, v *int) { r.RatingEngagement = v }),
	likert("rating_pace", "Q7: pace of the course", func(r *entity.SurveyResponse, v *int) { r.RatingPace = v }),
	likert("rating_facilities", "Q8: venue and facilities", func(r *entity.SurveyResponse, v *int) { r.RatingFacilities = v }),
	likert("rating_overall_satisfaction", "Q9: overall satisfaction", func(r *entity.SurveyResponse, v *int) { r.RatingOverallSatisfaction = v }),
	{
		Key: "recommendation_score", Kind: KindScore, Description: "likelihood to recommend, 0-10",
		set: func(r *entity.SurveyResponse, v any) { r.RecommendationScore = ValidateRating(v, ScoreMin, ScoreMax) },
	},
	text("overall_rating", "overall rating in words", func(r *entity.SurveyResponse, v *string) { r.OverallRating = v }),
	text("overall_rating_comment", "reason given for the overall rating", func(r *entity.SurveyResponse, v *string) { r.OverallRatingComment = v }),
	text("learned_1", "first thing the participant learned", func(r *entity.SurveyResponse, v *string) { r.Learned1 = v }),
	text("learned_2", "second thing the participant learned", func(r *entity.SurveyResponse, v *string) { r.Learned2 = v }),
	text("learned_3", "third thing the participant learned", func(r *entity.SurveyResponse, v *string) { r.Learned3 = v }),
	text("suggestions", "suggestions for improvement", func(r *entity.SurveyResponse, v *string) { r.Suggestions = v }),
	text("comments", "additional comments", func(r *entity.SurveyResponse, v *string) { r.Comments = v }),
	text("future_interest", "topics of interest for future courses", func(r *entity.SurveyResponse, v *string) { r.FutureInterest = v }),
	text("participant_name", "participant full name", func(r *entity.SurveyResponse, v *string) { r.ParticipantName = v }),
	text("company", "participant company or organization", func(r *entity.SurveyResponse, v *string) { r.Company = v }),
	{
		Key: "email", Kind: KindEmail, Description: "participant email address",
		set: func(r *entity.SurveyResponse, v any) { r.Email = ValidateEmail(v) },
	},
	text("phone", "participant phone number", func(r *entity.SurveyResponse, v *string) { r.Phone = v }),
	{
		Key: "response_date", Kind: KindDate, Description: "date on the form, YYYY-MM-DD",
		set: func(r *entity.SurveyResponse, v any) { r.ResponseDate = ValidateDate(v) },
	},
}

// LikertKeys returns the Q1..Q9 keys in order.
func LikertKeys() []string {
	keys := make([]string, 0, 9)
	for _, f := range Fields {
		if f.Kind == KindLikert {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Keys returns every catalog key.
func Keys() []string {
	keys := make([]string, len(Fields))
	for i, f := range Fields {
		keys[i] = f.Key
	}
	return keys
}

func likert(key, desc string, assign func(*entity.SurveyResponse, *int)) Field {
	return Field{Key: key, Kind: KindLikert, Description: desc, set: func(r *entity.SurveyResponse, v any) {
		assign(r, ValidateRating(v, LikertMin, LikertMax))
	}}
}

func text(key, desc string, assign func(*entity.SurveyResponse, *string)) Field {
	return Field{Key: key, Kind: KindText, Description: desc, set: func(r *entity.SurveyResponse, v any) {
		assign(r, ValidateText(v))
	}}
}
