package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// DateLayout is the wire and storage format of ResponseDate.
const DateLayout = "2006-01-02"

// SurveyResponse is one participant's normalized answers. Every answer field
// is optional; nil means absent or invalid.
type SurveyResponse struct {
	ID           uuid.UUID  `json:"id"`
	JobID        uuid.UUID  `json:"job_id"`
	CourseName   string     `json:"course_name"`
	ResponseDate *time.Time `json:"response_date,omitempty"`

	// Likert items Q1..Q9, each 1..5.
	RatingContentRelevance    *int `json:"rating_content_relevance,omitempty"`
	RatingContentOrganization *int `json:"rating_content_organization,omitempty"`
	RatingMaterialsQuality    *int `json:"rating_materials_quality,omitempty"`
	RatingInstructorKnowledge *int `json:"rating_instructor_knowledge,omitempty"`
	RatingInstructorClarity   *int `json:"rating_instructor_clarity,omitempty"`
	RatingEngagement          *int `json:"rating_engagement,omitempty"`
	RatingPace                *int `json:"rating_pace,omitempty"`
	RatingFacilities          *int `json:"rating_facilities,omitempty"`
	RatingOverallSatisfaction *int `json:"rating_overall_satisfaction,omitempty"`
	RecommendationScore       *int `json:"recommendation_score,omitempty"` // 0..10

	OverallRating        *string `json:"overall_rating,omitempty"`
	OverallRatingComment *string `json:"overall_rating_comment,omitempty"`
	Learned1             *string `json:"learned_1,omitempty"`
	Learned2             *string `json:"learned_2,omitempty"`
	Learned3             *string `json:"learned_3,omitempty"`
	Suggestions          *string `json:"suggestions,omitempty"`
	Comments             *string `json:"comments,omitempty"`
	FutureInterest       *string `json:"future_interest,omitempty"`

	ParticipantName *string `json:"participant_name,omitempty"`
	Company         *string `json:"company,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`

	Method    constants.Method         `json:"method"`
	Source    constants.ResponseSource `json:"source"`
	CreatedAt time.Time                `json:"created_at"`
}

// Ratings returns the nine Likert items in question order.
func (r *SurveyResponse) Ratings() []*int {
	return []*int{
		r.RatingContentRelevance,
		r.RatingContentOrganization,
		r.RatingMaterialsQuality,
		r.RatingInstructorKnowledge,
		r.RatingInstructorClarity,
		r.RatingEngagement,
		r.RatingPace,
		r.RatingFacilities,
		r.RatingOverallSatisfaction,
	}
}

// TextAnswers returns the free-text answers.
func (r *SurveyResponse) TextAnswers() []*string {
	return []*string{
		r.OverallRating,
		r.OverallRatingComment,
		r.Learned1,
		r.Learned2,
		r.Learned3,
		r.Suggestions,
		r.Comments,
		r.FutureInterest,
	}
}

// Contact returns name, company, email and phone.
func (r *SurveyResponse) Contact() []*string {
	return []*string{r.ParticipantName, r.Company, r.Email, r.Phone}
}
