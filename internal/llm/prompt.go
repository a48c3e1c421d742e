package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/survey-extractor/internal/survey"
)

// DefaultMaxInputChars caps the document text placed in a text prompt.
const DefaultMaxInputChars = 24000

// BuildSystemPrompt describes the task and the output contract.
func BuildSystemPrompt() string {
	var fields strings.Builder
	for _, f := range survey.Fields {
		fmt.Fprintf(&fields, "- %s: %s\n", f.Key, f.Description)
	}
	parts := []string{
		"You extract course evaluation survey responses from documents.",
		"A document may contain many filled-in forms. Split aggressively: every distinct participant " +
			"(a new name, a new form header, question numbering that restarts) is a separate response.",
		`Return ONLY a JSON object of the form {"responses": [ ... ]} with one object per participant.`,
		"Ratings Q1-Q9 are integers from 1 to 5. recommendation_score is an integer from 0 to 10.",
		"Dates use YYYY-MM-DD. Copy free text as written; do not summarize or invent answers.",
		"Use null for any field that is not present or not legible.",
		"Fields:\n" + fields.String(),
	}
	return strings.Join(parts, "\n")
}

// BuildTextPrompt frames extracted document text.
func BuildTextPrompt(courseName, text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	var b strings.Builder
	b.WriteString("Course: ")
	b.WriteString(courseName)
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(truncateRunes(text, maxChars))
	return b.String()
}

// BuildVisionPrompt frames one rendered page.
func BuildVisionPrompt(courseName string, page int) string {
	return fmt.Sprintf("Course: %s\nThis image is page %d of a scanned survey document. "+
		"Extract every filled-in form visible on this page, reading handwriting and ticked boxes carefully.",
		courseName, page)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
