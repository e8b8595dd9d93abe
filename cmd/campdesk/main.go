package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/config"
	"github.com/smileynet/campdesk/internal/dashboard"
	"github.com/smileynet/campdesk/internal/logging"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/session"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `help:"Config file layered over the user and project config." type:"path" placeholder:"PATH"`
	BaseURL string `help:"Backend base URL, overriding config." name:"base-url" placeholder:"URL"`
}

// CLI is the top-level command structure for campdesk.
type CLI struct {
	Globals `embed:""`

	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard DashboardCmd     `cmd:"" default:"1" help:"Open interactive dashboard TUI."`
	Login     LoginCmd         `cmd:"" help:"Sign in and remember the session."`
	Logout    LogoutCmd        `cmd:"" help:"Forget the stored session."`
	Whoami    WhoamiCmd        `cmd:"" help:"Show the signed-in seller."`
	Register  RegisterCmd      `cmd:"" help:"Create a seller account."`
	AddFunds  AddFundsCmd      `cmd:"" name:"add-funds" help:"Add funds to the seller balance."`
	Overview  OverviewCmd      `cmd:"" help:"Print balance and owned campaigns."`
	Search    SearchCmd        `cmd:"" help:"Browse or search public campaigns."`
	Cities    CitiesCmd        `cmd:"" help:"List the cities campaigns can target."`
	Suggest   SuggestCmd       `cmd:"" help:"Show keyword suggestions for a prefix."`
}

// app holds the wired dependencies a command runs against.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *apiclient.Client
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
}

// loadConfig loads .env, the layered YAML config, environment overrides,
// and finally flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	paths := config.DefaultPaths()
	if g.Config != "" {
		paths = append(paths, g.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.BaseURL != "" {
		cfg.Backend.BaseURL = g.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp builds the client, session manager, and orchestrator from config.
func (g *Globals) newApp() (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	var sessions *session.Manager
	client, err := apiclient.New(cfg.Backend.BaseURL,
		apiclient.WithTimeout(cfg.Backend.Timeout),
		apiclient.WithLogger(logger),
		apiclient.WithBreaker(apiclient.BreakerSettings{
			MaxFailures: cfg.Backend.Breaker.MaxFailures,
			OpenTimeout: cfg.Backend.Breaker.OpenTimeout,
		}),
		apiclient.WithCredentialSource(apiclient.CredentialFunc(func() (apiclient.Credentials, bool) {
			return sessions.Credentials()
		})),
	)
	if err != nil {
		return nil, err
	}
	sessions = session.NewManager(session.NewFileStore(cfg.Session.File), client, session.WithLogger(logger))
	orch := orchestrator.New(client, orchestrator.WithLogger(logger))
	sessions.OnLogout(orch.Reset)

	logger.Debug("configured", zap.String("base_url", client.BaseURL()), zap.String("version", version))
	return &app{cfg: cfg, logger: logger, client: client, sessions: sessions, orch: orch}, nil
}

// dashboardOptions maps the ui config section onto dashboard options.
// A non-empty view overrides the configured start view.
func (a *app) dashboardOptions(view string) []dashboard.Option {
	if view == "" {
		view = a.cfg.UI.StartView
	}
	return []dashboard.Option{
		dashboard.WithLogger(a.logger),
		dashboard.WithSuggestMinLength(a.cfg.UI.SuggestMinLength),
		dashboard.WithSuggestHideDelay(a.cfg.UI.SuggestHideDelay),
		dashboard.WithKeywordGuard(a.cfg.UI.KeywordGuard),
		dashboard.WithStartView(view),
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// signalContext cancels on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// Exit codes.
const (
	exitSuccess = 0
	exitBackend = 1
	exitSetup   = 2
)

// exitCode maps an error to a process exit code. Backend and HTTP
// failures exit 1; setup, usage, and validation errors exit 2.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var he *apiclient.HTTPError
	if apiclient.IsConnection(err) || errors.As(err, &he) {
		return exitBackend
	}
	if errors.Is(err, session.ErrSessionExpired) {
		return exitBackend
	}
	return exitSetup
}

// newParser builds the kong parser. Tests pass writers and an exit hook.
func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("campdesk"),
		kong.Description("Terminal client for the campaign advertising backend."),
		kong.Vars{"version": version + " " + commit + " " + date},
	}
	return kong.New(cli, append(base, opts...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitSetup)
	}
	err = ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
