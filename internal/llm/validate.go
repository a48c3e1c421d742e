package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiled caches schemas by their JSON encoding; the response schema is
// the same for every call.
var compiled sync.Map

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)
	if s, ok := compiled.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("survey_responses.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := c.Compile("survey_responses.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled.Store(key, s)
	return s, nil
}

// ValidateJSONAgainstSchema checks data against schemaMap. A mismatch is
// reported as the list of failing instance locations.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	s, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	err = s.Validate(v)
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("json does not match schema: %s", strings.Join(leafErrors(ve, nil), "; "))
	}
	return err
}

func leafErrors(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, loc+": "+ve.Message)
	}
	for _, c := range ve.Causes {
		out = leafErrors(c, out)
	}
	return out
}
