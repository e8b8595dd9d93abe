package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/dashboard"
	"github.com/smileynet/campdesk/internal/session"
)

// sessionOps is the part of session.Manager the account commands use.
type sessionOps interface {
	Login(ctx context.Context, identity, secret string) (campaign.Profile, error)
	Restore(ctx context.Context) (campaign.Profile, error)
	Logout() error
}

// accountAPI is the part of the API client the account commands use.
type accountAPI interface {
	Register(ctx context.Context, r campaign.Registration) (campaign.Profile, error)
	AddFunds(ctx context.Context, amount float64) (campaign.Profile, error)
}

var _ sessionOps = (*session.Manager)(nil)

// --- Dashboard command ---

// DashboardCmd opens the interactive dashboard TUI.
type DashboardCmd struct {
	View string `help:"View to open after sign-in (home, my-campaigns, create, all-campaigns, search, add-funds)." placeholder:"VIEW"`
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the dashboard TUI.
func (d *DashboardCmd) Run(g *Globals) error {
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if !isTTY {
		return d.run(false, nil)
	}

	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	defer a.close()

	m := dashboard.NewModel(a.client, a.sessions, a.orch, a.dashboardOptions(d.View)...)
	return d.run(true, tea.NewProgram(m, tea.WithAltScreen()))
}

func (d *DashboardCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// --- Account commands ---

// LoginCmd verifies credentials and stores the session.
type LoginCmd struct {
	Username     string `arg:"" help:"Seller username."`
	PasswordFile string `help:"Read the password from a file instead of prompting." type:"path" placeholder:"PATH"`
}

// Run executes the login command.
func (l *LoginCmd) Run(g *Globals) error {
	password, err := readPassword(l.PasswordFile, os.Stderr)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return l.run(ctx, os.Stdout, a.sessions, password)
}

func (l *LoginCmd) run(ctx context.Context, w io.Writer, s sessionOps, password string) error {
	p, err := s.Login(ctx, l.Username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Signed in as %s (balance %s)\n", p.Username, dashboard.Money(p.Balance))
	return nil
}

// LogoutCmd clears the stored session.
type LogoutCmd struct{}

// Run executes the logout command.
func (l *LogoutCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer a.close()
	return l.run(os.Stdout, a.sessions)
}

func (l *LogoutCmd) run(w io.Writer, s sessionOps) error {
	if err := s.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	_, _ = fmt.Fprintln(w, "Signed out")
	return nil
}

// WhoamiCmd re-verifies the stored session and prints the profile.
type WhoamiCmd struct{}

// Run executes the whoami command.
func (c *WhoamiCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout, a.sessions)
}

func (c *WhoamiCmd) run(ctx context.Context, w io.Writer, s sessionOps) error {
	p, err := s.Restore(ctx)
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Username:  %s\n", p.Username)
	if p.Email != "" {
		_, _ = fmt.Fprintf(w, "Email:     %s\n", p.Email)
	}
	_, _ = fmt.Fprintf(w, "Balance:   %s\n", dashboard.Money(p.Balance))
	_, _ = fmt.Fprintf(w, "Campaigns: %d\n", len(p.Campaigns))
	return nil
}

// RegisterCmd creates a seller account.
type RegisterCmd struct {
	Username     string  `arg:"" help:"Seller username."`
	Email        string  `required:"" help:"Contact email."`
	Balance      float64 `help:"Opening balance." default:"0"`
	PasswordFile string  `help:"Read the password from a file instead of prompting." type:"path" placeholder:"PATH"`
}

// Run executes the register command.
func (r *RegisterCmd) Run(g *Globals) error {
	password, err := readPassword(r.PasswordFile, os.Stderr)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return r.run(ctx, os.Stdout, a.client, password)
}

func (r *RegisterCmd) run(ctx context.Context, w io.Writer, api accountAPI, password string) error {
	reg := campaign.Registration{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.TrimSpace(r.Email),
		Password: password,
		Balance:  r.Balance,
	}
	if err := campaign.ValidateRegistration(reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	p, err := api.Register(ctx, reg)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	name := p.Username
	if name == "" {
		name = reg.Username
	}
	_, _ = fmt.Fprintf(w, "Registered %s. Sign in with: campdesk login %s\n", name, name)
	return nil
}

// AddFundsCmd adds to the signed-in seller's balance.
type AddFundsCmd struct {
	Amount float64 `arg:"" help:"Amount to add."`
}

// Run executes the add-funds command.
func (c *AddFundsCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("add-funds: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout, a.sessions, a.client)
}

func (c *AddFundsCmd) run(ctx context.Context, w io.Writer, s sessionOps, api accountAPI) error {
	if err := campaign.ValidateAmount(c.Amount); err != nil {
		return fmt.Errorf("add-funds: %w", err)
	}
	if _, err := s.Restore(ctx); err != nil {
		return fmt.Errorf("add-funds: %w", err)
	}
	p, err := api.AddFunds(ctx, c.Amount)
	if err != nil {
		return fmt.Errorf("add-funds: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Added %s. Balance is now %s\n", dashboard.Money(c.Amount), dashboard.Money(p.Balance))
	return nil
}

// readPassword reads a password from file, or prompts on the terminal
// with echo off. The prompt goes to w.
func readPassword(file string, w io.Writer) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal to prompt for a password (use --password-file)")
	}
	_, _ = fmt.Fprint(w, "Password: ")
	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(secret), nil
}
