// Package render binds session data to terminal views. The view structs
// are plain data so screens and tests can inspect them before styling.
package render

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/repeticio/repeticio/internal/exercise"
	"github.com/repeticio/repeticio/internal/session"
	"github.com/repeticio/repeticio/internal/ui/theme"
)

// MaxKeyedChoices is how many answers can be chosen with a digit key.
const MaxKeyedChoices = 9

// ExerciseView is the display form of an exercise.
type ExerciseView struct {
	ID      string
	Initial []string
	Middle  []string
	Answers []exercise.Choice
}

// NewExerciseView binds e. A nil exercise yields an empty view.
func NewExerciseView(e *exercise.Exercise) ExerciseView {
	if e == nil {
		return ExerciseView{}
	}
	return ExerciseView{
		ID:      e.ID,
		Initial: append([]string(nil), e.InitialStrings...),
		Middle:  append([]string(nil), e.MiddleStrings...),
		Answers: e.Choices(),
	}
}

// Empty reports whether there is nothing to show.
func (v ExerciseView) Empty() bool { return v.ID == "" && len(v.Answers) == 0 }

// KeyFor is the key that selects c: "1" for the first answer.
func KeyFor(c exercise.Choice) string {
	if c.Index < 0 || c.Index >= MaxKeyedChoices {
		return ""
	}
	return strconv.Itoa(c.Index + 1)
}

// ChoiceForKey returns the answer bound to key.
func (v ExerciseView) ChoiceForKey(key string) (exercise.Choice, bool) {
	for _, c := range v.Answers {
		if k := KeyFor(c); k != "" && k == key {
			return c, true
		}
	}
	return exercise.Choice{}, false
}

// Render draws the exercise. highlight marks the chosen answer while a
// submission is in flight; pass -1 for none.
func (v ExerciseView) Render(width, highlight int) string {
	if v.Empty() {
		return ""
	}
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	for _, s := range v.Initial {
		b.WriteString(center.Foreground(theme.Text).Bold(true).Render(s))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, s := range v.Middle {
		b.WriteString(center.Foreground(theme.TextDim).Render(s))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var answers strings.Builder
	for _, c := range v.Answers {
		key := KeyFor(c)
		if key == "" {
			key = " "
		}
		line := "[" + key + "]  " + c.Text
		style := theme.Unselected
		if c.Index == highlight {
			style = theme.Selected
		}
		answers.WriteString(style.Render(line))
		answers.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, answers.String()))
	return b.String()
}

// ResultView summarizes the last resolved exercise.
type ResultView struct {
	ExerciseID string
	Prompt     string
	Message    string
	Correct    *bool
	Rating     *bool
}

// NewResultView binds the last result of s. ok is false when nothing has
// been resolved yet.
func NewResultView(s session.State) (ResultView, bool) {
	if s.LastResult == nil {
		return ResultView{}, false
	}
	rv := ResultView{
		ExerciseID: s.LastID,
		Message:    s.LastResult.Message,
		Correct:    s.LastResult.Correct,
		Rating:     s.LastRating,
	}
	if s.Last != nil && len(s.Last.InitialStrings) > 0 {
		rv.Prompt = s.Last.InitialStrings[0]
	}
	return rv, true
}

// Verdict is the one-word headline for the result.
func (r ResultView) Verdict() string {
	switch {
	case r.Correct == nil:
		return "Answer recorded"
	case *r.Correct:
		return "Correct!"
	default:
		return "Not quite"
	}
}

// RatingLabel describes the rating given to the exercise, if any.
func (r ResultView) RatingLabel() string {
	switch {
	case r.Rating == nil:
		return ""
	case *r.Rating:
		return "You rated this exercise: thumbs up"
	default:
		return "You rated this exercise: thumbs down"
	}
}

// Render draws the result.
func (r ResultView) Render(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	headline := center.Foreground(theme.Secondary).Bold(true)
	if r.Correct != nil {
		if *r.Correct {
			headline = center.Inherit(theme.Correct)
		} else {
			headline = center.Inherit(theme.Incorrect)
		}
	}

	var b strings.Builder
	b.WriteString(headline.Render(r.Verdict()))
	b.WriteString("\n\n")
	if r.Prompt != "" {
		b.WriteString(center.Foreground(theme.TextDim).Render(r.Prompt))
		b.WriteString("\n")
	}
	if r.Message != "" {
		b.WriteString(center.Foreground(theme.Text).Render(r.Message))
		b.WriteString("\n")
	}
	if label := r.RatingLabel(); label != "" {
		b.WriteString(center.Foreground(theme.TextDim).Render(label))
		b.WriteString("\n")
	}
	return b.String()
}
