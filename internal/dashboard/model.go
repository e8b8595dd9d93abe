package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/keywords"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/router"
	"github.com/smileynet/campdesk/internal/session"
	"github.com/smileynet/campdesk/internal/typeahead"
)

// requestTimeout bounds every backend call the dashboard issues.
const requestTimeout = 15 * time.Second

// chromeHeight is the number of lines around a view's body: header,
// frame borders, view title, status line, and help bar.
const chromeHeight = 7

// options holds dashboard tuning.
type options struct {
	minSuggest   int
	hideDelay    time.Duration
	keywordGuard time.Duration
	clock        keywords.Clock
	startView    router.View
	logger       *zap.Logger
}

// Option configures the dashboard Model.
type Option func(*options)

// WithLogger sets the event logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSuggestMinLength sets how many characters trigger keyword suggestions.
func WithSuggestMinLength(n int) Option {
	return func(o *options) { o.minSuggest = n }
}

// WithSuggestHideDelay sets how long suggestions linger after a pick.
func WithSuggestHideDelay(d time.Duration) Option {
	return func(o *options) { o.hideDelay = d }
}

// WithKeywordGuard sets how long a just-picked keyword ignores removal.
func WithKeywordGuard(d time.Duration) Option {
	return func(o *options) { o.keywordGuard = d }
}

// WithClock sets the clock behind the keyword guard.
func WithClock(c keywords.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStartView names the view shown after sign-in. Unknown names and
// views that need context, such as edit, fall back to home.
func WithStartView(name string) Option {
	return func(o *options) {
		switch v := router.Parse(name); v {
		case router.MyCampaigns, router.Create, router.AllCampaigns, router.Search, router.AddFunds:
			o.startView = v
		default:
			o.startView = router.Home
		}
	}
}

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	backend  Backend
	sessions Sessions
	orch     *orchestrator.Orchestrator
	router   *router.Router
	details  *Cache
	logger   *zap.Logger
	opts     options

	login    fieldSet
	register fieldSet
	funds    fieldSet
	form     campaignForm
	search   searchForm
	confirm  *confirmState

	lastSearch   SearchRequest
	menu         int
	cursor       int
	resultCursor int

	spinner spinner.Model
	help    help.Model
	width   int
	height  int

	// epoch advances on every sign-out so replies to requests issued by
	// an earlier session are dropped.
	epoch          int
	signedIn       bool
	restoring      bool
	busy           bool
	citiesInFlight bool

	notice string
	flash  string
	err    string
}

// NewModel creates a dashboard that restores the stored session on
// start and shows the sign-in form when there is none.
func NewModel(b Backend, s Sessions, o *orchestrator.Orchestrator, opts ...Option) Model {
	cfg := options{
		minSuggest:   typeahead.DefaultMinLength,
		hideDelay:    typeahead.DefaultHideDelay,
		keywordGuard: keywords.DefaultGuard,
		clock:        time.Now,
		startView:    router.Home,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := router.New(router.Home)
	r.Reset(router.Login)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		backend:   b,
		sessions:  s,
		orch:      o,
		router:    r,
		details:   NewCache(),
		logger:    cfg.logger,
		opts:      cfg,
		login:     newLoginForm(),
		register:  newRegisterForm(),
		funds:     newFundsForm(),
		form:      newCampaignForm(b, cfg),
		search:    newSearchForm(b, cfg),
		spinner:   sp,
		help:      help.New(),
		restoring: true,
	}
	m.form.reset()
	m.search.reset()
	return m
}

// ActiveView returns the view being shown.
func (m Model) ActiveView() router.View { return m.router.Current() }

// Init restores the stored session.
func (m Model) Init() tea.Cmd {
	sessions := m.sessions
	return tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		p, err := sessions.Restore(ctx)
		return restoredMsg{Profile: p, Err: err}
	}))
}

// Update routes messages to the active view and applies fetch results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case restoredMsg:
		return m.handleRestored(msg)

	case signedInMsg:
		return m.handleSignedIn(msg)

	case registeredMsg:
		return m.handleRegistered(msg)

	case loadedMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		return m.handleLoaded(msg.State)

	case resultsMsg:
		m.orch.Update(func(s *orchestrator.State) { s.ApplyResults(msg.Token, msg.Campaigns, msg.Err) })
		return m, nil

	case citiesMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		m.citiesInFlight = false
		if msg.Err != nil {
			return m, nil
		}
		m.form.cities.setCities(msg.Cities)
		m.search.cities.setCities(msg.Cities)
		return m, nil

	case toggledMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		if m.expired(msg.Err) {
			return m.expire()
		}
		return m.handleToggled(msg)

	case detailMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		if m.expired(msg.Err) {
			return m.expire()
		}
		return m.handleDetail(msg)

	case mutatedMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		if m.expired(msg.Err) {
			return m.expire()
		}
		return m.handleMutated(msg)
	}

	// Suggestion results and hide timers belong to the keyword pickers.
	return m, tea.Batch(m.form.keywords.update(msg), m.search.keywords.update(msg))
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.restoring {
		return m, nil
	}
	if !m.typing() {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "?":
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	switch m.router.Current() {
	case router.Login:
		return m.updateLogin(msg)
	case router.Register:
		return m.updateRegister(msg)
	case router.Home:
		return m.updateHome(msg)
	case router.MyCampaigns:
		return m.updateOwned(msg)
	case router.Create, router.Edit:
		return m.updateEditor(msg)
	case router.AllCampaigns, router.SearchResults:
		return m.updateResults(msg)
	case router.Search:
		return m.updateSearch(msg)
	case router.AddFunds:
		return m.updateFunds(msg)
	}
	return m, nil
}

// typing reports whether the active view takes text input, where q and
// ? are ordinary characters.
func (m Model) typing() bool {
	switch m.router.Current() {
	case router.Login, router.Register, router.Create, router.Edit, router.Search, router.AddFunds:
		return true
	}
	return false
}

// switchView activates v and performs its entry effects.
func (m Model) switchView(v router.View) (Model, tea.Cmd) {
	effects := m.router.Switch(v)
	m.confirm = nil

	var cmds []tea.Cmd
	for _, e := range effects {
		switch e {
		case router.EffectResetCreateForm:
			m.form.reset()
		case router.EffectRefetchOwned:
			cmds = append(cmds, m.load())
		case router.EffectFetchAll:
			cmds = append(cmds, m.fetchResults(SearchRequest{Mode: SearchAll}))
		case router.EffectResetSearchForm:
			m.search.reset()
		}
	}

	switch m.router.Current() {
	case router.Create:
		cmds = append(cmds, m.form.focusFirst(), m.loadCities())
	case router.Edit:
		cmds = append(cmds, m.loadCities())
	case router.Search:
		cmds = append(cmds, m.loadCities())
	case router.AddFunds:
		m.funds.reset()
		cmds = append(cmds, m.funds.setFocus(0))
	}
	return m, tea.Batch(cmds...)
}

// load fetches the profile and owned campaigns. Each result lands in its
// own slice of state as it arrives.
func (m Model) load() tea.Cmd {
	orch, epoch := m.orch, m.epoch
	return tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		return loadedMsg{Epoch: epoch, State: orch.Load(ctx)}
	}))
}

// refresh reloads after a mutation so balances come from the server.
func (m Model) refresh() tea.Cmd {
	orch, epoch := m.orch, m.epoch
	return tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		return loadedMsg{Epoch: epoch, State: orch.Refresh(ctx)}
	}))
}

// handleLoaded expires the session when the backend refused either fetch
// and otherwise settles the list cursor.
func (m Model) handleLoaded(snap orchestrator.State) (Model, tea.Cmd) {
	if m.expired(snap.ProfileErr) || m.expired(snap.OwnedErr) {
		return m.expire()
	}
	if snap.OwnedErr == nil {
		m.details.Invalidate()
		m.cursor = max(min(m.cursor, len(snap.Owned)-1), 0)
	}
	return m, nil
}

// loadCities fetches the city dictionary unless it is cached or already
// on its way.
func (m *Model) loadCities() tea.Cmd {
	snap := m.orch.Snapshot()
	if !snap.NeedCities() {
		m.form.cities.setCities(snap.Cities)
		m.search.cities.setCities(snap.Cities)
		return nil
	}
	if m.citiesInFlight {
		return nil
	}
	m.citiesInFlight = true
	orch, epoch := m.orch, m.epoch
	return withTimeout(func(ctx context.Context) tea.Msg {
		cs, err := orch.LoadCities(ctx)
		return citiesMsg{Epoch: epoch, Cities: cs, Err: err}
	})
}

// enterSession starts a signed-in session with no state from any earlier
// one.
func (m Model) enterSession(p campaign.Profile) (Model, tea.Cmd) {
	m.logger.Info("signed in", zap.String("seller", p.Username))
	m.orch.Reset()
	m.details.Invalidate()
	m.signedIn = true
	m.notice = ""
	m.menu = 0
	m.router.Reset(router.Home)

	start := m.opts.startView
	if start == router.Home {
		return m, tea.Batch(m.load(), m.loadCities())
	}
	m, cmd := m.switchView(start)
	if start == router.MyCampaigns {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.load())
}

// signOut drops every trace of the session from the model.
func (m Model) signOut() Model {
	m.epoch++
	m.signedIn = false
	m.busy = false
	m.citiesInFlight = false
	m.orch.Reset()
	m.details.Invalidate()
	m.router.Reset(router.Login)
	m.form.reset()
	m.search.reset()
	m.funds.reset()
	m.login.reset()
	m.register.reset()
	m.confirm = nil
	m.lastSearch = SearchRequest{}
	m.menu, m.cursor, m.resultCursor = 0, 0, 0
	m.clearStatus()
	m.notice = ""
	return m
}

func (m Model) logout() (Model, tea.Cmd) {
	err := m.sessions.Logout()
	m = m.signOut()
	m.flash = "signed out"
	if err != nil {
		m.logger.Warn("clearing stored session", zap.Error(err))
		m.err = "could not clear stored session: " + err.Error()
	}
	return m, nil
}

// expired reports whether err means the backend stopped accepting the
// session.
func (m Model) expired(err error) bool {
	return m.signedIn && err != nil && m.orch.AuthFailure(err)
}

// expire forces a logout after the backend rejected the session.
func (m Model) expire() (Model, tea.Cmd) {
	err := m.sessions.Expire()
	m.logger.Info("session expired", zap.Error(err))
	m = m.signOut()
	m.notice = describe(session.ErrSessionExpired)
	return m, nil
}

func (m Model) handleMutated(msg mutatedMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.Err != nil {
		switch msg.Op {
		case mutCreate, mutEdit:
			m.form.errs, m.err = explain(msg.Err)
		case mutAddFunds:
			m.funds.errs, m.err = explain(msg.Err)
		default:
			m.err = "could not delete campaign: " + describe(msg.Err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch msg.Op {
	case mutCreate, mutEdit:
		m.form.reset()
		m, cmd = m.switchView(router.MyCampaigns)
	case mutDelete:
		cmd = m.refresh()
	case mutAddFunds:
		m, cmd = m.switchView(router.Home)
		cmd = tea.Batch(cmd, m.refresh())
	}
	m.flash = msg.Op.done()
	return m, cmd
}

func (m *Model) clearStatus() {
	m.err = ""
	m.flash = ""
}

// loading reports whether anything the spinner marks is in flight.
func (m Model) loading() bool {
	if m.restoring || m.busy {
		return true
	}
	snap := m.orch.Snapshot()
	if snap.Loading || snap.ResultsLoading {
		return true
	}
	for _, c := range snap.Owned {
		if snap.Toggling(c.ID) {
			return true
		}
	}
	return false
}

func (m Model) listHeight() int {
	return max(m.height-chromeHeight, 2)
}

// View renders the header, the active view in a frame, the status line,
// and the help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch {
	case m.restoring:
		body = m.spinner.View() + " Restoring session..."
	default:
		body = m.viewBody()
	}

	frame := Frame().Width(max(m.width-2, 10))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		frame.Render(body),
		m.viewStatus(),
		m.help.View(m.helpKeys()),
	)
}

func (m Model) viewBody() string {
	current := m.router.Current()
	if m.signedIn && (current == router.Home || current == router.MyCampaigns) {
		snap := m.orch.Snapshot()
		if blocking, _ := snap.Surface(); blocking != "" && !snap.Loading {
			return errorStyle.Render(blocking) + "\n\n" + dimStyle.Render("Press r to retry.")
		}
	}

	switch current {
	case router.Login:
		return m.viewLogin()
	case router.Register:
		return m.viewRegister()
	case router.Home:
		return m.viewHome()
	case router.MyCampaigns:
		return m.viewOwned()
	case router.Create, router.Edit:
		return m.viewEditor()
	case router.AllCampaigns, router.SearchResults:
		return m.viewResults()
	case router.Search:
		return m.viewSearch()
	case router.AddFunds:
		return m.viewFunds()
	}
	return ""
}

func (m Model) viewHeader() string {
	left := titleStyle.Render("campdesk") + dimStyle.Render(" · "+m.router.Current().Title())
	if !m.signedIn {
		return left
	}
	right := m.sessions.Identity()
	snap := m.orch.Snapshot()
	if bal, ok := snap.Balance(); ok {
		right += "  balance " + Money(bal)
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) viewStatus() string {
	switch {
	case m.err != "":
		return errorStyle.Render("✗ " + m.err)
	case m.notice != "":
		return warnStyle.Render("! " + m.notice)
	}
	if m.signedIn {
		snap := m.orch.Snapshot()
		if _, warning := snap.Surface(); warning != "" {
			return warnStyle.Render("! " + warning)
		}
	}
	if m.flash != "" {
		return okStyle.Render("✓ " + m.flash)
	}
	if m.busy {
		return m.spinner.View() + " Working..."
	}
	return ""
}

func (m Model) helpKeys() help.KeyMap {
	return HelpBindings(m.router.Current(), m.confirm != nil)
}

// withTimeout wraps a backend call in a command with a bounded context.
func withTimeout(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func isNoSession(err error) bool {
	return errors.Is(err, session.ErrNoSession)
}
