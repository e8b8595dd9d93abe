package dashboard

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/router"
)

func newLoginForm() fieldSet {
	return newFieldSet(
		newField("username", "Username", "seller name"),
		secretField("password", "Password"),
	)
}

func newRegisterForm() fieldSet {
	return newFieldSet(
		newField("username", "Username", "seller name"),
		newField("email", "Email", "you@example.com"),
		secretField("password", "Password"),
		newField("balance", "Balance", "0.00"),
	)
}

func loginKeys() formKeys {
	return FormKeyMap(key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "register"),
	))
}

func (m Model) updateLogin(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := loginKeys()
	switch {
	case key.Matches(msg, keys.Next):
		return m, m.login.next()
	case key.Matches(msg, keys.Prev):
		return m, m.login.prev()
	case key.Matches(msg, keys.Alt):
		m.clearStatus()
		m.router.Switch(router.Register)
		m.register.reset()
		return m, nil
	case key.Matches(msg, keys.Submit):
		if m.busy {
			return m, nil
		}
		identity := strings.TrimSpace(m.login.value("username"))
		secret := m.login.value("password")
		m.clearStatus()
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.signIn(identity, secret))
	}
	return m, m.login.update(msg)
}

func (m Model) signIn(identity, secret string) tea.Cmd {
	sessions := m.sessions
	return withTimeout(func(ctx context.Context) tea.Msg {
		p, err := sessions.Login(ctx, identity, secret)
		return signedInMsg{Identity: identity, Profile: p, Err: err}
	})
}

func (m Model) updateRegister(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := FormKeyMap(key.Binding{})
	switch {
	case key.Matches(msg, keys.Cancel):
		m.clearStatus()
		m.router.Switch(router.Login)
		return m, nil
	case key.Matches(msg, keys.Next):
		return m, m.register.next()
	case key.Matches(msg, keys.Prev):
		return m, m.register.prev()
	case key.Matches(msg, keys.Submit):
		if m.busy {
			return m, nil
		}
		return m.submitRegister()
	}
	return m, m.register.update(msg)
}

func (m Model) submitRegister() (Model, tea.Cmd) {
	m.clearStatus()
	m.register.errs = nil

	balance, err := parseAmount("balance", m.register.value("balance"))
	if err == nil {
		r := campaign.Registration{
			Username: strings.TrimSpace(m.register.value("username")),
			Email:    strings.TrimSpace(m.register.value("email")),
			Password: m.register.value("password"),
			Balance:  balance,
		}
		if err = campaign.ValidateRegistration(r); err == nil {
			m.busy = true
			backend := m.backend
			return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
				p, err := backend.Register(ctx, r)
				return registeredMsg{Profile: p, Err: err}
			}))
		}
	}
	m.register.errs, m.err = explain(err)
	return m, nil
}

func (m Model) handleSignedIn(msg signedInMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.Err != nil {
		m.login.errs, m.err = explain(msg.Err)
		return m, nil
	}
	m.login.reset()
	return m.enterSession(msg.Profile)
}

func (m Model) handleRestored(msg restoredMsg) (Model, tea.Cmd) {
	m.restoring = false
	if msg.Err != nil {
		if !isNoSession(msg.Err) {
			m.notice = "stored session not accepted: " + describe(msg.Err)
		}
		m.router.Reset(router.Login)
		return m, nil
	}
	return m.enterSession(msg.Profile)
}

func (m Model) handleRegistered(msg registeredMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.Err != nil {
		m.register.errs, m.err = explain(msg.Err)
		return m, nil
	}
	username := msg.Profile.Username
	if username == "" {
		username = strings.TrimSpace(m.register.value("username"))
	}
	m.register.reset()
	m.login.reset()
	m.login.setValue("username", username)
	m.login.setFocus(1)
	m.router.Reset(router.Login)
	m.flash = "registered " + username + "; sign in to continue"
	return m, nil
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.login.View())
	return b.String()
}

func (m Model) viewRegister() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Register a seller account"))
	b.WriteString("\n\n")
	b.WriteString(m.register.View())
	return b.String()
}
