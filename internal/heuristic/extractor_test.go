package heuristic

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/segment"
	"github.com/joseph-ayodele/survey-extractor/internal/survey"
)

const threeForms = `Name: Jane Doe
Email: JANE@X.COM
Q1: 3
Q2: 4
Q3: 5
Q4: 4
Q5: 5
Q6: 3
Q7: 4
Q8: 5
Q9: 4
How likely to recommend (0-10)? 9

Name: John Smith
Company: Acme Ltd
Q1: 5
Q2: 5
Q3: 4
Q4: 5
Q5: 5
Q6: 4
Q7: 5
Q8: 5
Q9: 5
Suggestions: More hands-on exercises

Name: Ana Lopez
Phone: +1 555 010 2030
Q1: 2
Q2: 3
Q3: 3
Q4: 4
Q5: 2
Q6: 3
Q7: 4
Q8: 3
Q9: 3
Comments: The venue was too cold
`

func TestCandidate_LabelsAndQuestions(t *testing.T) {
	c := Candidate("Name: Jane Doe Company: Acme\nQ1 (1-5): 4\nQ2: Strongly Agree\nQ3: 9\nDate: 2024-03-05\nWhat did you learn? Risk assessment basics\n")

	assert.Equal(t, "Jane Doe", c["participant_name"])
	assert.Equal(t, "Acme", c["company"])
	assert.Equal(t, 4, c["rating_content_relevance"])
	assert.Equal(t, 5, c["rating_content_organization"])
	assert.Equal(t, 9, c["rating_materials_quality"], "out-of-range values are left for the validator")
	assert.Equal(t, "2024-03-05", c["response_date"])
	assert.Equal(t, "Risk assessment basics", c["learned_1"])
}

func TestCandidate_NamedScoresAndEmailFallback(t *testing.T) {
	c := Candidate("Content relevance: 5\nPace of delivery 2\nreach me at jane@x.com")
	assert.Equal(t, 5, c["rating_content_relevance"])
	assert.Equal(t, 2, c["rating_pace"])
	assert.Equal(t, "jane@x.com", c["email"])
}

func TestCandidate_Nothing(t *testing.T) {
	assert.Empty(t, Candidate("lorem ipsum dolor sit amet"))
}

func TestThreeFormsEndToEnd(t *testing.T) {
	sections := segment.New(segment.DefaultConfig(), nil).Segment(threeForms)
	require.Len(t, sections, 3)

	candidates := New(nil).ExtractCandidates(sections)
	responses := survey.NormalizeAll(candidates, survey.Defaults{
		JobID:      uuid.New(),
		CourseName: "First Aid",
		Date:       time.Now(),
	}, constants.MethodHeuristic, constants.SourceHeuristic)

	require.Len(t, responses, 3)

	first := responses[0]
	require.NotNil(t, first.ParticipantName)
	assert.Equal(t, "Jane Doe", *first.ParticipantName)
	require.NotNil(t, first.Email)
	assert.Equal(t, "jane@x.com", *first.Email)
	want := []int{3, 4, 5, 4, 5, 3, 4, 5, 4}
	for i, r := range first.Ratings() {
		require.NotNil(t, r, "Q%d", i+1)
		assert.Equal(t, want[i], *r, "Q%d", i+1)
	}
	require.NotNil(t, first.RecommendationScore)
	assert.Equal(t, 9, *first.RecommendationScore)

	require.NotNil(t, responses[1].Company)
	assert.Equal(t, "Acme Ltd", *responses[1].Company)
	require.NotNil(t, responses[1].Suggestions)
	assert.Equal(t, "More hands-on exercises", *responses[1].Suggestions)

	require.NotNil(t, responses[2].Phone)
	assert.Equal(t, "+1 555 010 2030", *responses[2].Phone)
	for _, r := range responses {
		assert.Equal(t, constants.MethodHeuristic, r.Method)
		assert.Equal(t, "First Aid", r.CourseName)
	}
}

func TestCandidate_LongMultibyteValueStaysValidUTF8(t *testing.T) {
	for _, n := range []int{700, 1500} {
		c := Candidate("Name: Zoé Martin Comments: x" + strings.Repeat("é", n))

		comments, ok := c["comments"].(string)
		require.True(t, ok, "n=%d", n)
		assert.True(t, utf8.ValidString(comments), "n=%d", n)
		assert.LessOrEqual(t, utf8.RuneCountInString(comments), survey.MaxTextLen)

		rs := survey.NormalizeAll([]map[string]any{c}, survey.Defaults{JobID: uuid.New(), CourseName: "First Aid", Date: time.Now()},
			constants.MethodHeuristic, constants.SourceHeuristic)
		require.Len(t, rs, 1)
		r := rs[0]
		require.NotNil(t, r.Comments)
		assert.True(t, utf8.ValidString(*r.Comments))
		require.NotNil(t, r.ParticipantName)
		assert.Equal(t, "Zoé Martin", *r.ParticipantName)
	}
}
