package dashboard

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/router"
)

func newFundsForm() fieldSet {
	return newFieldSet(newField("amount", "Amount", "0.00"))
}

func (m Model) updateFunds(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := FormKeyMap(key.Binding{})
	switch {
	case key.Matches(msg, keys.Cancel):
		m.clearStatus()
		return m.switchView(router.Home)
	case key.Matches(msg, keys.Submit):
		if m.busy {
			return m, nil
		}
		return m.submitFunds()
	}
	return m, m.funds.update(msg)
}

func (m Model) submitFunds() (Model, tea.Cmd) {
	m.clearStatus()
	m.funds.errs = nil

	amount, err := parseAmount("amount", m.funds.value("amount"))
	if err == nil {
		err = campaign.ValidateAmount(amount)
	}
	if err != nil {
		m.funds.errs, m.err = explain(err)
		return m, nil
	}

	m.busy = true
	backend, epoch := m.backend, m.epoch
	return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		_, err := backend.AddFunds(ctx, amount)
		return mutatedMsg{Epoch: epoch, Op: mutAddFunds, Err: err}
	}))
}

func (m Model) viewFunds() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add funds"))
	snap := m.orch.Snapshot()
	if bal, ok := snap.Balance(); ok {
		b.WriteString(dimStyle.Render("  current balance " + Money(bal)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.funds.View())
	return b.String()
}
