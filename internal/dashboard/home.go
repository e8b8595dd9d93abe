package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/router"
)

// menuItem is one entry of the home menu. router.Login means log out.
type menuItem struct {
	label string
	view  router.View
}

var homeMenu = []menuItem{
	{"My campaigns", router.MyCampaigns},
	{"New campaign", router.Create},
	{"Browse all campaigns", router.AllCampaigns},
	{"Search campaigns", router.Search},
	{"Add funds", router.AddFunds},
	{"Log out", router.Login},
}

func (m Model) updateHome(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := MenuKeyMap()
	switch {
	case key.Matches(msg, keys.Up):
		m.menu = (m.menu - 1 + len(homeMenu)) % len(homeMenu)
	case key.Matches(msg, keys.Down):
		m.menu = (m.menu + 1) % len(homeMenu)
	case key.Matches(msg, keys.Refresh):
		return m, m.load()
	case key.Matches(msg, keys.Logout):
		return m.logout()
	case key.Matches(msg, keys.Enter):
		item := homeMenu[m.menu]
		if item.view == router.Login {
			return m.logout()
		}
		return m.switchView(item.view)
	default:
		if n := msg.String(); len(n) == 1 && n[0] >= '1' && n[0] <= byte('0'+len(homeMenu)) {
			m.menu = int(n[0] - '1')
			return m.updateHome(tea.KeyMsg{Type: tea.KeyEnter})
		}
	}
	return m, nil
}

func (m Model) viewHome() string {
	snap := m.orch.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome, " + m.sessions.Identity()))
	b.WriteString("\n\n")

	switch bal, ok := snap.Balance(); {
	case ok:
		fmt.Fprintf(&b, "  Balance:   %s\n", Money(bal))
	case snap.Loading:
		fmt.Fprintf(&b, "  Balance:   %s loading\n", m.spinner.View())
	default:
		b.WriteString("  Balance:   " + dimStyle.Render("unavailable") + "\n")
	}

	switch {
	case snap.OwnedErr != nil && len(snap.Owned) == 0:
		b.WriteString("  Campaigns: " + dimStyle.Render("unavailable") + "\n")
	case snap.Loading && len(snap.Owned) == 0:
		fmt.Fprintf(&b, "  Campaigns: %s loading\n", m.spinner.View())
	default:
		active := 0
		for _, c := range snap.Owned {
			if c.Status {
				active++
			}
		}
		fmt.Fprintf(&b, "  Campaigns: %d (%d active)\n", len(snap.Owned), active)
	}

	b.WriteString("\n")
	for i, item := range homeMenu {
		line := fmt.Sprintf("%d. %s", i+1, item.label)
		if i == m.menu {
			b.WriteString(cursorStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
