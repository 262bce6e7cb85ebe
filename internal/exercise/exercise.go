package exercise

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrIncomplete is returned when one of the three string groups is
	// missing or empty.
	ErrIncomplete = errors.New("exercise is incomplete")

	// ErrMissingID is returned when an exercise carries no identifier.
	ErrMissingID = errors.New("exercise has no id")
)

// Exercise is one unit of learning content issued by the backend.
// Treat it as immutable once decoded; use Clone before handing it to
// code that might retain it.
type Exercise struct {
	// ID is the opaque identifier of this issued exercise.
	ID string `json:"exercise_id"`

	// InitialStrings is the prompt, e.g. a sentence with a blank.
	InitialStrings []string `json:"initial_strings"`

	// MiddleStrings is the scaffold, usually a one-line instruction.
	MiddleStrings []string `json:"middle_strings"`

	// FinalStrings are the selectable answer choices. The position of a
	// choice in this slice is its answer index.
	FinalStrings []string `json:"final_strings"`
}

// Validate reports whether the exercise may be committed into session
// state: it needs an id and three non-empty string groups.
func (e *Exercise) Validate() error {
	if e == nil {
		return ErrIncomplete
	}
	if e.ID == "" {
		return ErrMissingID
	}
	switch {
	case len(e.InitialStrings) == 0:
		return fmt.Errorf("%w: no initial strings", ErrIncomplete)
	case len(e.MiddleStrings) == 0:
		return fmt.Errorf("%w: no middle strings", ErrIncomplete)
	case len(e.FinalStrings) == 0:
		return fmt.Errorf("%w: no final strings", ErrIncomplete)
	}
	return nil
}

// Choices returns one answer descriptor per final string.
func (e *Exercise) Choices() []Choice {
	if e == nil {
		return nil
	}
	out := make([]Choice, len(e.FinalStrings))
	for i, s := range e.FinalStrings {
		out[i] = Choice{Index: i, Text: s}
	}
	return out
}

// HasChoice reports whether index addresses one of the final strings.
func (e *Exercise) HasChoice(index int) bool {
	return e != nil && index >= 0 && index < len(e.FinalStrings)
}

// Clone returns a deep copy.
func (e *Exercise) Clone() *Exercise {
	if e == nil {
		return nil
	}
	return &Exercise{
		ID:             e.ID,
		InitialStrings: append([]string(nil), e.InitialStrings...),
		MiddleStrings:  append([]string(nil), e.MiddleStrings...),
		FinalStrings:   append([]string(nil), e.FinalStrings...),
	}
}

// Choice describes a single selectable answer.
type Choice struct {
	Index int
	Text  string
}

// Result is the outcome payload of a successful submission.
type Result struct {
	// Message is the human-readable form of the backend's message field.
	Message string `json:"message"`

	// Correct is set when the backend reports whether the answer was right.
	Correct *bool `json:"correct,omitempty"`

	// Raw holds the undecoded message payload.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// NewResult builds a Result from a raw message payload. String payloads
// are unquoted; anything else keeps its JSON text as the message.
func NewResult(raw json.RawMessage, correct *bool) *Result {
	r := &Result{Correct: correct, Raw: raw}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		r.Message = s
	} else {
		r.Message = string(raw)
	}
	return r
}
