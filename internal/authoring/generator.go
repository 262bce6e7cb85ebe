// Package authoring produces fill-in-the-blank exercises for the practice
// backend, either from a built-in bank or from an LLM.
package authoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/repeticio/repeticio/internal/exercise"
)

// Generator produces one exercise together with its answer key.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Item, error)
}

// Level is a CEFR-style proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
)

// ParseLevel accepts "a1", "A2", etc.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelA1, LevelA2, LevelB1:
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q (want A1, A2 or B1)", s)
}

// Request is the context for one Generate call.
type Request struct {
	Level Level

	// Words to build the exercise around. Empty means the generator picks.
	Words []string

	// Prior holds the initial strings of exercises already served to this
	// learner, most recent last.
	Prior []string
}

// Item is an authored exercise and its answer key. It carries no id; the
// backend assigns one when it issues the item.
type Item struct {
	Words          []string
	InitialStrings []string
	MiddleStrings  []string
	FinalStrings   []string

	// Answer is the index into FinalStrings of the correct choice.
	Answer int
}

// Exercise returns the learner-facing part of the item under id.
func (it *Item) Exercise(id string) *exercise.Exercise {
	return &exercise.Exercise{
		ID:             id,
		InitialStrings: append([]string(nil), it.InitialStrings...),
		MiddleStrings:  append([]string(nil), it.MiddleStrings...),
		FinalStrings:   append([]string(nil), it.FinalStrings...),
	}
}

// AnswerText is the text of the correct choice.
func (it *Item) AnswerText() string {
	if it.Answer < 0 || it.Answer >= len(it.FinalStrings) {
		return ""
	}
	return it.FinalStrings[it.Answer]
}

// Prompt is the first initial string, used to avoid repeats.
func (it *Item) Prompt() string {
	if len(it.InitialStrings) == 0 {
		return ""
	}
	return it.InitialStrings[0]
}

func (it *Item) clone() *Item {
	return &Item{
		Words:          append([]string(nil), it.Words...),
		InitialStrings: append([]string(nil), it.InitialStrings...),
		MiddleStrings:  append([]string(nil), it.MiddleStrings...),
		FinalStrings:   append([]string(nil), it.FinalStrings...),
		Answer:         it.Answer,
	}
}
