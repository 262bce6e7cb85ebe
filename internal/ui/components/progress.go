package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/repeticio/repeticio/internal/ui/theme"
)

// ProgressBar displays a horizontal ratio bar, e.g. answer accuracy.
type ProgressBar struct {
	Label       string
	Ratio       float64
	ShowPercent bool
	Width       int
}

// View renders the bar. Ratio is clamped to [0, 1].
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  ")
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}
	barWidth := max(p.Width-lipgloss.Width(b.String())-percentWidth, 4)

	ratio := min(max(p.Ratio, 0), 1)
	filled := int(float64(barWidth) * ratio)

	b.WriteString(lipgloss.NewStyle().Background(theme.Success).Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)))

	if p.ShowPercent {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d%%", int(ratio*100))))
	}
	return b.String()
}
