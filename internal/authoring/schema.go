package authoring

import "github.com/repeticio/repeticio/internal/llm"

// ExerciseSchema is the structured output requested from the LLM.
var ExerciseSchema = &llm.Schema{
	Name:        "one-blank-exercise",
	Description: "A multiple-choice sentence with one blank",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"word_values": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "The target words the exercise practices",
			},
			"initial_strings": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
				"description": "The sentence, with ___ where the answer goes",
			},
			"middle_strings": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
				"description": "A one-line instruction",
			},
			"final_strings": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    minChoices,
				"maxItems":    maxChoices,
				"description": "Labelled answer choices, e.g. \"a) vamos\"",
			},
			"criteria": map[string]any{
				"type":        "string",
				"enum":        []any{"a", "b", "c", "d", "e"},
				"description": "Letter of the correct choice",
			},
		},
		"required":             []any{"word_values", "initial_strings", "middle_strings", "final_strings", "criteria"},
		"additionalProperties": false,
	},
}
