package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt_ListsEveryField(t *testing.T) {
	p := BuildSystemPrompt()
	for _, k := range []string{"rating_content_relevance", "rating_overall_satisfaction", "recommendation_score", "email", "learned_3"} {
		assert.Contains(t, p, k)
	}
	assert.Contains(t, p, `{"responses": [ ... ]}`)
}

func TestBuildTextPrompt_Truncates(t *testing.T) {
	p := BuildTextPrompt("Course A", strings.Repeat("é", 50), 10)
	assert.Contains(t, p, "Course: Course A")
	assert.Equal(t, 10, strings.Count(p, "é"))
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL("image/png", []byte{1, 2}))
}
