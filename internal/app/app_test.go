package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/exercise"
	"github.com/repeticio/repeticio/internal/router"
	"github.com/repeticio/repeticio/internal/screen"
	"github.com/repeticio/repeticio/internal/session"
)

type nopClient struct{}

func (nopClient) IssueExercise(context.Context) (*exercise.Exercise, error) { return nil, nil }
func (nopClient) SubmitAnswer(context.Context, backend.SubmitRequest) (*exercise.Result, error) {
	return nil, nil
}
func (nopClient) Rate(context.Context, backend.RateRequest) error { return nil }

func newTestModel() AppModel {
	return New(Options{Machine: session.NewMachine(session.Options{Client: nopClient{}})})
}

func TestApp_CtrlCQuits(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestApp_QOnlyQuitsFromHome(t *testing.T) {
	m := newTestModel()
	m.router.Push(&stubScreen{})

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("q must not quit below the home screen")
		}
	}

	m.router.Pop()
	_, cmd = m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd == nil {
		t.Fatal("expected quit command on home")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestApp_ViewHasHeaderAndHints(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	frame := updated.(AppModel).render()
	if !strings.Contains(frame, "Repeticio") {
		t.Error("expected app name in header")
	}
	if !strings.Contains(frame, "Navigate") {
		t.Error("expected default footer hints")
	}
}

func TestApp_TooSmall(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	if frame := updated.(AppModel).render(); !strings.Contains(frame, "Terminal too small") {
		t.Error("expected min size message")
	}
}

func TestApp_PopMessageRoutes(t *testing.T) {
	m := newTestModel()
	m.router.Push(&stubScreen{})
	m.Update(router.PopScreenMsg{})
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d, want 1", m.router.Depth())
	}
}

type stubScreen struct{}

func (*stubScreen) Init() tea.Cmd                             { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (*stubScreen) View(int, int) string                      { return "stub" }
func (*stubScreen) Title() string                             { return "Stub" }
