package backend

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var stringList = map[string]any{
	"type":  []any{"array", "null"},
	"items": map[string]any{"type": "string"},
}

// issueEnvelopeSchema describes the exercise-issuing endpoint's response.
// Completeness of the exercise is checked later by exercise.Validate.
var issueEnvelopeSchema = mustCompile("issue-envelope", map[string]any{
	"type":     "object",
	"required": []any{"success"},
	"properties": map[string]any{
		"success": map[string]any{"type": "boolean"},
		"error":   map[string]any{"type": "string"},
		"exercise": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"exercise_id":     map[string]any{"type": "string"},
				"initial_strings": stringList,
				"middle_strings":  stringList,
				"final_strings":   stringList,
			},
		},
	},
})

// submitEnvelopeSchema describes the answer-submission endpoint's response.
// The message payload is opaque.
var submitEnvelopeSchema = mustCompile("submit-envelope", map[string]any{
	"type":     "object",
	"required": []any{"success"},
	"properties": map[string]any{
		"success": map[string]any{"type": "boolean"},
		"error":   map[string]any{"type": "string"},
		"correct": map[string]any{"type": []any{"boolean", "null"}},
	},
})

// rateEnvelopeSchema describes the rating endpoint's response.
var rateEnvelopeSchema = mustCompile("rate-envelope", map[string]any{
	"type":     "object",
	"required": []any{"success"},
	"properties": map[string]any{
		"success": map[string]any{"type": "boolean"},
		"error":   map[string]any{"type": "string"},
	},
})

func mustCompile(name string, def map[string]any) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, def); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return s
}

// validateEnvelope parses raw and checks it against schema.
func validateEnvelope(schema *jsonschema.Schema, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
