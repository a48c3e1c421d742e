package survey

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

func defaults() Defaults {
	return Defaults{
		JobID:      uuid.New(),
		CourseName: "Safety Basics",
		Date:       time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC),
	}
}

func TestNormalize_InvalidFieldsBecomeNil(t *testing.T) {
	d := defaults()
	r := Normalize(map[string]any{
		"rating_content_relevance": 7,
		"email":                    "not-an-email",
		"recommendation_score":     11,
		"comments":                 "Useful day",
		"unknown_key":              "ignored",
	}, d)

	assert.Nil(t, r.RatingContentRelevance)
	assert.Nil(t, r.Email)
	assert.Nil(t, r.RecommendationScore)
	require.NotNil(t, r.Comments)
	assert.Equal(t, "Useful day", *r.Comments)
	assert.Equal(t, "Safety Basics", r.CourseName)
	assert.Equal(t, d.JobID, r.JobID)
	require.NotNil(t, r.ResponseDate)
	assert.Equal(t, "2024-05-01", r.ResponseDate.Format(entity.DateLayout))
}

func TestNormalize_Aliases(t *testing.T) {
	r := Normalize(map[string]any{
		"Q1":             "4",
		"q9":             5,
		"rating_3":       2,
		"name":           "Jane Doe",
		"organization":   "Acme",
		"recommendation": 9,
		"date":           "2024-02-29",
	}, defaults())

	require.NotNil(t, r.RatingContentRelevance)
	assert.Equal(t, 4, *r.RatingContentRelevance)
	require.NotNil(t, r.RatingOverallSatisfaction)
	assert.Equal(t, 5, *r.RatingOverallSatisfaction)
	require.NotNil(t, r.RatingMaterialsQuality)
	assert.Equal(t, 2, *r.RatingMaterialsQuality)
	require.NotNil(t, r.ParticipantName)
	assert.Equal(t, "Jane Doe", *r.ParticipantName)
	require.NotNil(t, r.Company)
	assert.Equal(t, "Acme", *r.Company)
	require.NotNil(t, r.RecommendationScore)
	assert.Equal(t, 9, *r.RecommendationScore)
	require.NotNil(t, r.ResponseDate)
	assert.Equal(t, "2024-02-29", r.ResponseDate.Format(entity.DateLayout))
}

func TestCanonicalize_CatalogKeyWins(t *testing.T) {
	c := Canonicalize(map[string]any{"participant_name": "Jane", "name": "J."})
	assert.Equal(t, "Jane", c["participant_name"])
}

func TestHasMeaningfulSurveyData(t *testing.T) {
	d := defaults()

	empty := Normalize(map[string]any{"comments": "ok"}, d)
	assert.False(t, HasMeaningfulSurveyData(&empty), "short text alone is not meaningful")

	rating := Normalize(map[string]any{"rating_pace": 3}, d)
	assert.True(t, HasMeaningfulSurveyData(&rating))

	score := Normalize(map[string]any{"recommendation_score": 0}, d)
	assert.True(t, HasMeaningfulSurveyData(&score))

	longText := Normalize(map[string]any{"suggestions": "More breaks"}, d)
	assert.True(t, HasMeaningfulSurveyData(&longText))

	contact := Normalize(map[string]any{"phone": "555"}, d)
	assert.True(t, HasMeaningfulSurveyData(&contact))

	assert.False(t, HasMeaningfulSurveyData(nil))
}

func TestNormalizeAll_AllInvalidYieldsNothing(t *testing.T) {
	got := NormalizeAll([]map[string]any{
		{"rating_content_relevance": 7, "email": "not-an-email"},
		{"recommendation_score": -1},
	}, defaults(), constants.MethodLLM, constants.SourceText)
	assert.Empty(t, got)
}

func TestNormalizeAll_TagsProvenance(t *testing.T) {
	got := NormalizeAll([]map[string]any{
		{"rating_content_relevance": 3, "email": "JANE@X.COM"},
	}, defaults(), constants.MethodLLM, constants.SourceVision)
	require.Len(t, got, 1)
	assert.Equal(t, constants.MethodLLM, got[0].Method)
	assert.Equal(t, constants.SourceVision, got[0].Source)
	require.NotNil(t, got[0].Email)
	assert.Equal(t, "jane@x.com", *got[0].Email)
}

func TestPlaceholder(t *testing.T) {
	d := defaults()
	p := Placeholder(d)
	assert.Equal(t, constants.MethodPlaceholder, p.Method)
	assert.Equal(t, d.CourseName, p.CourseName)
	assert.False(t, HasMeaningfulSurveyData(&p))
	require.NotNil(t, p.ResponseDate)
}

func TestLikertKeys(t *testing.T) {
	keys := LikertKeys()
	require.Len(t, keys, 9)
	assert.Equal(t, "rating_content_relevance", keys[0])
	assert.Equal(t, "rating_overall_satisfaction", keys[8])
}
