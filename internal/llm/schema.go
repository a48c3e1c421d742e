package llm

import "github.com/joseph-ayodele/survey-extractor/internal/survey"

// BuildResponseSchema returns the JSON Schema for the {"responses": [...]}
// envelope. It checks types only; ranges and formats are enforced by the
// survey validators so one bad value never discards a whole response.
func BuildResponseSchema() map[string]any {
	props := make(map[string]any, len(survey.Fields))
	for _, f := range survey.Fields {
		switch f.Kind {
		case survey.KindLikert, survey.KindScore:
			props[f.Key] = map[string]any{"type": []string{"integer", "null"}}
		default:
			props[f.Key] = map[string]any{"type": []string{"string", "null"}}
		}
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"responses"},
		"properties": map[string]any{
			"responses": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           props,
				},
			},
		},
	}
}
