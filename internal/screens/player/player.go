// Package player is the practice screen: it shows the active exercise,
// takes an answer by digit key, shows the result and takes a thumbs up or
// down for it.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/render"
	"github.com/repeticio/repeticio/internal/router"
	"github.com/repeticio/repeticio/internal/screen"
	"github.com/repeticio/repeticio/internal/session"
	"github.com/repeticio/repeticio/internal/ui/layout"
	"github.com/repeticio/repeticio/internal/ui/theme"
)

// outcomeMsg carries a finished request back to the event loop.
type outcomeMsg struct {
	outcome session.Outcome
}

// PlayerScreen drives one practice session.
type PlayerScreen struct {
	machine *session.Machine
	ctx     context.Context
	cancel  context.CancelFunc

	exercise  render.ExerciseView
	result    render.ResultView
	hasResult bool
	highlight int

	spinner spinner.Model
	busy    bool
	busyOp  string
	leaving bool // esc pressed while busy; pop once the outcome lands
	status  string

	// retry target after a failed request
	failedOp       string
	failedAnswer   int
	failedPositive bool

	answered int
	correct  int
}

var _ screen.Screen = (*PlayerScreen)(nil)
var _ screen.KeyHintProvider = (*PlayerScreen)(nil)
var _ screen.StatusProvider = (*PlayerScreen)(nil)

// New creates a player bound to m.
func New(m *session.Machine) *PlayerScreen {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PlayerScreen{
		machine:   m,
		ctx:       ctx,
		cancel:    cancel,
		highlight: -1,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	s.sync()
	return s
}

// Init fetches an exercise unless a restored one is already active.
func (s *PlayerScreen) Init() tea.Cmd {
	if st := s.machine.State(); st.HasActive() || st.InFlight {
		return nil
	}
	return s.start(s.machine.BeginFetch())
}

func (s *PlayerScreen) Title() string {
	return "Practice"
}

// HeaderStatus shows the running score of this screen's answers.
func (s *PlayerScreen) HeaderStatus() string {
	if s.answered == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d correct  ", s.correct, s.answered)
}

func (s *PlayerScreen) KeyHints() []layout.KeyHint {
	st := s.machine.State()
	switch {
	case s.busy:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	case s.failedOp != "":
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case st.HasActive():
		return []layout.KeyHint{
			{Key: "1-" + fmt.Sprint(min(len(s.exercise.Answers), render.MaxKeyedChoices)), Description: "Answer"},
			{Key: "s", Description: "Skip"},
			{Key: "Esc", Description: "Back"},
		}
	default:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Next exercise"}}
		if st.CanRate() {
			hints = append(hints, layout.KeyHint{Key: "+/-", Description: "Rate"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
}

// start dispatches t, or reports why the guard refused it.
func (s *PlayerScreen) start(t *session.Ticket, err error) tea.Cmd {
	if err != nil {
		s.status = render.Status(err)
		return nil
	}
	s.busy = true
	s.busyOp = t.Op()
	s.status = ""
	s.failedOp = ""
	return tea.Batch(s.spinner.Tick, s.dispatch(t))
}

// dispatch runs the request off the UI loop. The outcome is applied in
// Update.
func (s *PlayerScreen) dispatch(t *session.Ticket) tea.Cmd {
	m, ctx := s.machine, s.ctx
	return func() tea.Msg {
		return outcomeMsg{outcome: m.Dispatch(ctx, t)}
	}
}

// sync rebinds the views from the machine state.
func (s *PlayerScreen) sync() {
	st := s.machine.State()
	s.exercise = render.NewExerciseView(st.Active)
	s.result, s.hasResult = render.NewResultView(st)
	if !st.HasActive() {
		s.highlight = -1
	}
}

func (s *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case outcomeMsg:
		err := s.machine.Complete(msg.outcome)
		if errors.Is(err, session.ErrStaleOutcome) {
			return s, nil
		}
		s.busy = false
		s.sync()
		if s.leaving {
			return s, pop
		}

		t := msg.outcome.Ticket
		if err != nil {
			s.status = render.Status(err)
			if t.Op() == backend.OpSubmit {
				s.highlight = -1
			}
			// Nothing to retry once the backend dropped the exercise.
			if !errors.Is(err, backend.ErrNotPending) {
				s.failedOp, s.failedAnswer, s.failedPositive = t.Op(), t.Answer(), t.Positive()
			}
			return s, nil
		}
		if t.Op() == backend.OpSubmit {
			s.answered++
			if c := s.result.Correct; c != nil && *c {
				s.correct++
			}
		}
		return s, nil

	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

func pop() tea.Msg { return router.PopScreenMsg{} }

func (s *PlayerScreen) handleKey(key string) (screen.Screen, tea.Cmd) {
	if s.leaving {
		return s, nil
	}
	switch key {
	case "esc":
		s.cancel()
		if s.busy {
			s.leaving = true
			return s, nil
		}
		return s, pop

	case "enter", "n":
		return s, s.start(s.machine.BeginFetch())

	case "r":
		switch s.failedOp {
		case backend.OpSubmit:
			answer := s.failedAnswer
			t, err := s.machine.BeginSubmit(answer)
			if err == nil {
				s.highlight = answer
			}
			return s, s.start(t, err)
		case backend.OpFetch:
			return s, s.start(s.machine.BeginFetch())
		case backend.OpRate:
			return s, s.start(s.machine.BeginRate(s.failedPositive))
		}
		return s, nil

	case "s":
		if err := s.machine.Discard(); err != nil {
			s.status = render.Status(err)
			return s, nil
		}
		s.sync()
		return s, s.start(s.machine.BeginFetch())

	case "+", "-":
		return s, s.start(s.machine.BeginRate(key == "+"))

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		answer := int(key[0] - '1')
		if c, ok := s.exercise.ChoiceForKey(key); ok {
			answer = c.Index
		}
		t, err := s.machine.BeginSubmit(answer)
		if err == nil {
			s.highlight = answer
		}
		return s, s.start(t, err)
	}
	return s, nil
}

func (s *PlayerScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	st := s.machine.State()
	switch {
	case st.HasActive():
		b.WriteString(s.exercise.Render(width, s.highlight))
	case s.hasResult:
		b.WriteString(s.result.Render(width))
		b.WriteString("\n")
		b.WriteString(layout.CenterMessage("Press Enter for the next exercise", width, theme.Hint))
	case !s.busy:
		b.WriteString(layout.CenterMessage("Press Enter to get an exercise", width, theme.Hint))
	}

	b.WriteString("\n\n")
	line := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.busy:
		label := "Loading exercise..."
		switch {
		case s.leaving:
			label = "Cancelling..."
		case s.busyOp == backend.OpSubmit:
			label = "Checking answer..."
		case s.busyOp == backend.OpRate:
			label = "Sending rating..."
		}
		b.WriteString(line.Foreground(theme.TextDim).Render(s.spinner.View() + " " + label))
	case s.status != "":
		b.WriteString(line.Inherit(theme.StatusError).Render(s.status))
	}
	return b.String()
}
