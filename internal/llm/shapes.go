package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Shape names the top-level layout a model answered with.
type Shape string

const (
	ShapeArray     Shape = "array"     // [ {...}, {...} ]
	ShapeResponses Shape = "responses" // {"responses": [...]}
	ShapeSurveys   Shape = "surveys"   // {"surveys": [...]}
	ShapeObject    Shape = "object"    // a single bare response
)

// Decoded is a model answer reduced to its list of candidates.
type Decoded struct {
	Shape Shape
	Items []map[string]any
}

// ErrUnparseable means the content is not JSON of any accepted shape.
var ErrUnparseable = errors.New("model output is not a recognized JSON shape")

// DecodeResponses accepts the four answer shapes models produce and returns
// the candidate list. Non-object array elements are skipped.
func DecodeResponses(raw []byte) (Decoded, error) {
	raw = StripCodeFences(raw)
	if len(raw) == 0 {
		return Decoded{}, fmt.Errorf("%w: empty content", ErrUnparseable)
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	switch t := v.(type) {
	case []any:
		return Decoded{Shape: ShapeArray, Items: objects(t)}, nil
	case map[string]any:
		for _, key := range []string{"responses", "surveys"} {
			inner, ok := t[key]
			if !ok {
				continue
			}
			arr, ok := inner.([]any)
			if !ok {
				if inner == nil {
					arr = nil
				} else {
					return Decoded{}, fmt.Errorf("%w: %q is %T, want array", ErrUnparseable, key, inner)
				}
			}
			return Decoded{Shape: Shape(key), Items: objects(arr)}, nil
		}
		return Decoded{Shape: ShapeObject, Items: []map[string]any{t}}, nil
	}
	return Decoded{}, fmt.Errorf("%w: top-level %T", ErrUnparseable, v)
}

func objects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Envelope re-encodes items as {"responses": [...]} for schema validation.
func Envelope(items []map[string]any) ([]byte, error) {
	if items == nil {
		items = []map[string]any{}
	}
	return json.Marshal(map[string]any{"responses": items})
}
