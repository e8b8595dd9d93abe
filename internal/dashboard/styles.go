package dashboard

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	errorColor  = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	warnColor   = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	okColor     = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	dimStyle     = lipgloss.NewStyle().Foreground(dimColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	okStyle      = lipgloss.NewStyle().Foreground(okColor)
	labelStyle   = lipgloss.NewStyle().Width(10).Foreground(dimColor)
	focusedLabel = labelStyle.Foreground(accentColor).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

// Frame returns the rounded border around the active view.
func Frame() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
}

// StatusBadge renders a campaign's active flag.
func StatusBadge(active bool) string {
	if active {
		return okStyle.Render("● active")
	}
	return dimStyle.Render("○ paused")
}

// Money formats an amount with two decimals.
func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// fieldLabel renders a form label, highlighted when its field has focus.
func fieldLabel(label string, focused bool) string {
	if focused {
		return focusedLabel.Render(label)
	}
	return labelStyle.Render(label)
}

// fieldError renders an inline validation message under a field.
func fieldError(msg string) string {
	if msg == "" {
		return ""
	}
	return "\n" + lipgloss.NewStyle().PaddingLeft(10).Render(errorStyle.Render("✗ "+msg))
}
