package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":        "object",
		"description": "an exercise",
		"properties": map[string]any{
			"initial_strings": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"criteria": map[string]any{"type": "string", "enum": []string{"A", "B", "C"}},
			"weight":   map[string]any{"type": "integer"},
		},
		"required": []any{"initial_strings", "criteria"},
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", s.Type)
	}
	if s.Description != "an exercise" {
		t.Errorf("description = %q", s.Description)
	}
	if len(s.Properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(s.Properties))
	}
	strs := s.Properties["initial_strings"]
	if strs.Type != genai.TypeArray || strs.Items == nil || strs.Items.Type != genai.TypeString {
		t.Errorf("initial_strings = %+v", strs)
	}
	if got := s.Properties["criteria"].Enum; len(got) != 3 || got[2] != "C" {
		t.Errorf("criteria enum = %v", got)
	}
	if s.Properties["weight"].Type != genai.TypeInteger {
		t.Errorf("weight type = %s", s.Properties["weight"].Type)
	}
	if len(s.Required) != 2 {
		t.Errorf("required = %v", s.Required)
	}
}

func TestGeminiSchema_UnknownTypeFallsBackToString(t *testing.T) {
	s := geminiSchema(map[string]any{"type": "null"})
	if s.Type != genai.TypeString {
		t.Errorf("type = %s, want STRING", s.Type)
	}
}
