package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/repeticio/repeticio/internal/router"
	"github.com/repeticio/repeticio/internal/screen"
	"github.com/repeticio/repeticio/internal/screens/history"
	"github.com/repeticio/repeticio/internal/screens/player"
	"github.com/repeticio/repeticio/internal/session"
	"github.com/repeticio/repeticio/internal/store"
	"github.com/repeticio/repeticio/internal/ui/components"
	"github.com/repeticio/repeticio/internal/ui/theme"
)

const banner = "R E P E T I C I O"

type statsLoadedMsg struct {
	stats store.AttemptStats
	err   error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	menu      components.Menu
	eventRepo store.EventRepo
	stats     store.AttemptStats
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen. Practice is disabled without a machine and
// History without an event repo.
func New(machine *session.Machine, eventRepo store.EventRepo) *HomeScreen {
	practice := "Practice"
	if machine != nil && machine.State().HasActive() {
		practice = "Continue practice"
	}

	items := []components.MenuItem{
		{Label: practice, Disabled: machine == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: player.New(machine)}
			}
		}},
		{Label: "History", Disabled: eventRepo == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(eventRepo)}
			}
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		menu:      components.NewMenu(items),
		eventRepo: eventRepo,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Resume reloads the stats after a practice or history screen closes.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	if h.eventRepo == nil {
		return nil
	}
	repo := h.eventRepo
	return func() tea.Msg {
		st, err := repo.AttemptStats(context.Background())
		return statsLoadedMsg{stats: st, err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		if msg.err == nil {
			h.stats = msg.stats
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string
	sections = append(sections, "\n"+theme.Title.Width(width).Render(banner))
	sections = append(sections, theme.Subtitle.Width(width).Render("Spanish practice, one blank at a time"))
	sections = append(sections, theme.Subtitle.Width(width).Render(h.statsLine()))
	sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))
	return strings.Join(sections, "\n\n")
}

func (h *HomeScreen) statsLine() string {
	switch {
	case h.stats.Total == 0:
		return "No answers yet"
	case h.stats.Graded == 0:
		return fmt.Sprintf("%d answers", h.stats.Total)
	default:
		return fmt.Sprintf("%d answers  ·  %d of %d correct", h.stats.Total, h.stats.Correct, h.stats.Graded)
	}
}

func (h *HomeScreen) Title() string {
	return "Home"
}
