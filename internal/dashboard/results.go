package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/router"
)

// updateResults handles the browse-all and search-results views. Both
// render the results slice, never the seller's own campaigns.
func (m Model) updateResults(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := ResultKeyMap()
	snap := m.orch.Snapshot()
	switch {
	case key.Matches(msg, keys.Up):
		if m.resultCursor > 0 {
			m.resultCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.resultCursor < len(snap.Results)-1 {
			m.resultCursor++
		}
	case key.Matches(msg, keys.Refresh):
		req := SearchRequest{Mode: SearchAll}
		if m.router.Current() == router.SearchResults {
			req = m.lastSearch
		}
		return m, m.fetchResults(req)
	case key.Matches(msg, keys.Back):
		m.clearStatus()
		if m.router.Current() == router.SearchResults && m.router.Previous() == router.Search {
			m.router.Back()
			return m, m.search.setFocus(m.search.focus)
		}
		return m.switchView(router.Home)
	}
	return m, nil
}

func (m Model) viewResults() string {
	snap := m.orch.Snapshot()
	var b strings.Builder

	label := snap.ResultsLabel
	if label == "" {
		label = m.router.Current().Title()
	}
	b.WriteString(titleStyle.Render(label))
	b.WriteString("\n\n")

	switch {
	case snap.ResultsLoading:
		b.WriteString(m.spinner.View() + " Searching...")
		return b.String()
	case snap.ResultsErr != nil:
		b.WriteString(errorStyle.Render(describe(snap.ResultsErr)))
		return b.String()
	case len(snap.Results) == 0:
		b.WriteString(dimStyle.Render("No campaigns found."))
		return b.String()
	}

	start, end := window(len(snap.Results), m.resultCursor, m.listHeight())
	for i := start; i < end; i++ {
		line := campaignLine(snap.Results[i], StatusBadge(snap.Results[i].Status))
		if i == m.resultCursor {
			b.WriteString(cursorStyle.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(pluralize(len(snap.Results), "campaign")))
	return b.String()
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
