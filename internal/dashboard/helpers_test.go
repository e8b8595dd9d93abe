package dashboard

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// stripANSI returns s as the terminal would show it, without styling.
func stripANSI(s string) string {
	return ansi.Strip(s)
}

// containsPlainText reports whether the unstyled view contains want.
func containsPlainText(view, want string) bool {
	return strings.Contains(ansi.Strip(view), want)
}

// execBatch runs cmd once and returns what it produced, flattening
// batches. Spinner ticks are dropped so the caller never loops on them.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			msgs = append(msgs, execBatch(t, c)...)
		}
	case spinner.TickMsg:
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}
