package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/repeticio/repeticio/internal/router"
	"github.com/repeticio/repeticio/internal/screen"
	"github.com/repeticio/repeticio/internal/store"
	"github.com/repeticio/repeticio/internal/ui/components"
	"github.com/repeticio/repeticio/internal/ui/layout"
	"github.com/repeticio/repeticio/internal/ui/theme"
)

// pageSize is how many attempts are loaded.
const pageSize = 50

type historyLoadedMsg struct {
	Attempts []store.AttemptRecord
	Stats    store.AttemptStats
	Err      error
}

// HistoryScreen lists past answers, newest first.
type HistoryScreen struct {
	eventRepo store.EventRepo
	attempts  []store.AttemptRecord
	stats     store.AttemptStats
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		ctx := context.Background()

		attempts, err := repo.QueryAttempts(ctx, store.QueryOpts{Limit: pageSize})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		stats, err := repo.AttemptStats(ctx)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		return historyLoadedMsg{Attempts: attempts, Stats: stats}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
			s.stats = msg.Stats
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.CenterMessage("Error: "+s.errMsg, width, lipgloss.NewStyle().Foreground(theme.Error))
	}
	if !s.loaded {
		return layout.CenterMessage("Loading history...", width, lipgloss.NewStyle().Foreground(theme.TextDim))
	}
	if len(s.attempts) == 0 {
		return layout.CenterMessage("No answers yet. Start practicing!", width, theme.Hint)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.summary(width)))
	b.WriteString("\n\n")

	for i, a := range s.attempts {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %-10s  %s",
			prefix, a.Timestamp.Format("Jan 02 15:04"), verdict(a.Correct), a.AnswerText)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			dim := lipgloss.NewStyle().Foreground(theme.TextDim)
			for _, detail := range []string{a.Prompt, a.ResultMessage, "exercise " + a.ExerciseID} {
				if detail == "" {
					continue
				}
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, dim.Render("    "+detail)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// summary renders totals and, when any answer was graded, an accuracy bar.
func (s *HistoryScreen) summary(width int) string {
	total := fmt.Sprintf("%d answers", s.stats.Total)
	if s.stats.Graded == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render(total)
	}
	bar := components.ProgressBar{
		Label:       total + ", accuracy",
		Ratio:       float64(s.stats.Correct) / float64(s.stats.Graded),
		ShowPercent: true,
		Width:       min(width-4, 60),
	}
	return bar.View()
}

func verdict(correct *bool) string {
	switch {
	case correct == nil:
		return "recorded"
	case *correct:
		return "correct"
	default:
		return "incorrect"
	}
}
