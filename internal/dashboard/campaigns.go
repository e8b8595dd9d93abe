package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/router"
)

func (m Model) updateOwned(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	keys := ListKeyMap()
	snap := m.orch.Snapshot()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(snap.Owned)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Refresh):
		return m, m.load()
	case key.Matches(msg, keys.New):
		return m.switchView(router.Create)
	case key.Matches(msg, keys.Back):
		return m.switchView(router.Home)
	}

	c, ok := m.selected(snap)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Toggle):
		return m.toggle(c.ID)
	case key.Matches(msg, keys.Edit):
		return m.openEdit(c.ID)
	case key.Matches(msg, keys.Delete):
		m.clearStatus()
		m.confirm = newConfirm(c)
	}
	return m, nil
}

func (m Model) selected(snap orchestrator.State) (campaign.Campaign, bool) {
	if m.cursor < 0 || m.cursor >= len(snap.Owned) {
		return campaign.Campaign{}, false
	}
	return snap.Owned[m.cursor], true
}

// toggle flips the status locally and sends it. The control reverts if
// the PATCH fails.
func (m Model) toggle(id int64) (Model, tea.Cmd) {
	if snap := m.orch.Snapshot(); snap.Toggling(id) {
		return m, nil
	}
	m.clearStatus()
	orch, epoch := m.orch, m.epoch
	return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		err := orch.Toggle(ctx, id)
		return toggledMsg{Epoch: epoch, ID: id, Err: err, State: orch.Snapshot()}
	}))
}

func (m Model) handleToggled(msg toggledMsg) (Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, orchestrator.ErrToggleBusy):
		return m, nil
	case msg.Err != nil:
		m.err = "status not changed: " + describe(msg.Err)
		return m, nil
	}
	return m.handleLoaded(msg.State)
}

func (m Model) openEdit(id int64) (Model, tea.Cmd) {
	m.clearStatus()
	if c, ok := m.details.Get(id); ok {
		return m.startEdit(c)
	}
	m.busy = true
	backend, epoch := m.backend, m.epoch
	return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		c, err := backend.GetCampaign(ctx, id)
		return detailMsg{Epoch: epoch, ID: id, Campaign: c, Err: err}
	}))
}

func (m Model) handleDetail(msg detailMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.Err != nil {
		m.err = "could not open campaign: " + describe(msg.Err)
		return m, nil
	}
	m.details.Set(msg.Campaign)
	if m.router.Current() != router.MyCampaigns {
		return m, nil
	}
	return m.startEdit(msg.Campaign)
}

func (m Model) startEdit(c campaign.Campaign) (Model, tea.Cmd) {
	m, cmd := m.switchView(router.Edit)
	m.form.load(c, m.orch.Snapshot().Cities)
	return m, tea.Batch(cmd, m.form.focusFirst())
}

func (m Model) updateConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := ConfirmKeyMap()
	switch {
	case key.Matches(msg, keys.Cancel):
		m.confirm = nil
	case key.Matches(msg, keys.Confirm):
		id := m.confirm.id
		m.confirm = nil
		m.busy = true
		backend, epoch := m.backend, m.epoch
		return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
			return mutatedMsg{Epoch: epoch, Op: mutDelete, Err: backend.DeleteCampaign(ctx, id)}
		}))
	}
	return m, nil
}

func (m Model) viewOwned() string {
	if m.confirm != nil {
		return m.confirm.View()
	}

	snap := m.orch.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("My campaigns"))
	b.WriteString("\n\n")

	switch {
	case snap.Loading && len(snap.Owned) == 0:
		b.WriteString(m.spinner.View() + " Loading campaigns...")
		return b.String()
	case snap.OwnedErr != nil && len(snap.Owned) == 0:
		b.WriteString(dimStyle.Render("Campaigns unavailable."))
		return b.String()
	case len(snap.Owned) == 0:
		b.WriteString(dimStyle.Render("No campaigns yet. Press n to create one."))
		return b.String()
	}

	start, end := window(len(snap.Owned), m.cursor, m.listHeight())
	for i := start; i < end; i++ {
		c := snap.Owned[i]
		status := StatusBadge(c.Status)
		if snap.Toggling(c.ID) {
			status += " " + m.spinner.View()
		}
		line := campaignLine(c, status)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// campaignLine renders one campaign as two lines: the headline and its
// targeting.
func campaignLine(c campaign.Campaign, status string) string {
	head := fmt.Sprintf("%-24s %s  bid %s  fund %s", truncate(c.Name, 24), status, Money(c.Price), Money(c.Fund))
	where := c.City
	if where == "" {
		where = "any city"
	}
	detail := fmt.Sprintf("%s, radius %s", where, c.RadiusLabel())
	if c.SellerName != "" {
		detail += ", by " + c.SellerName
	}
	if len(c.Keywords) > 0 {
		detail += " · " + strings.Join(c.Keywords, ", ")
	}
	return head + "\n    " + dimStyle.Render(detail)
}

// window returns the [start, end) range of n two-line rows to render so
// that cursor stays visible within height lines.
func window(n, cursor, height int) (start, end int) {
	rows := max(height/2, 1)
	if cursor >= rows {
		start = cursor - rows + 1
	}
	return start, min(start+rows, n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
