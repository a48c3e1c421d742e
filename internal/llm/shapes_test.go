package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponses_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
		count int
	}{
		{"bare array", `[{"comments":"a"},{"comments":"b"}]`, ShapeArray, 2},
		{"responses envelope", `{"responses":[{"comments":"a"}]}`, ShapeResponses, 1},
		{"surveys envelope", `{"surveys":[{"comments":"a"},{"comments":"b"},{"comments":"c"}]}`, ShapeSurveys, 3},
		{"single object", `{"comments":"only one"}`, ShapeObject, 1},
		{"empty responses", `{"responses":[]}`, ShapeResponses, 0},
		{"null responses", `{"responses":null}`, ShapeResponses, 0},
		{"fenced", "```json\n{\"responses\":[{\"email\":\"a@b.co\"}]}\n```", ShapeResponses, 1},
		{"chatter around", "Here you go:\n[{\"comments\":\"x\"}]\nThanks!", ShapeArray, 1},
		{"non-object elements skipped", `[1,"two",{"comments":"x"}]`, ShapeArray, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecodeResponses([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, d.Shape)
			assert.Len(t, d.Items, tt.count)
		})
	}
}

func TestDecodeResponses_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"responses":"nope"}`, `"just a string"`} {
		_, err := DecodeResponses([]byte(raw))
		assert.ErrorIs(t, err, ErrUnparseable, raw)
	}
}

func TestDecodeResponses_KeepsNumbersExact(t *testing.T) {
	d, err := DecodeResponses([]byte(`[{"rating_content_relevance":4}]`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("4"), d.Items[0]["rating_content_relevance"])
}

func TestEnvelope(t *testing.T) {
	b, err := Envelope(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"responses":[]}`, string(b))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(StripCodeFences([]byte("```\n{\"a\":1}\n```"))))
	assert.Equal(t, `[1]`, string(StripCodeFences([]byte("  [1]  "))))
}
