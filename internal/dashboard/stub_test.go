package dashboard

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/session"
)

// stubBackend records calls and serves canned data. Commands run on
// goroutines under teatest, so every field is guarded.
type stubBackend struct {
	mu sync.Mutex

	profile     campaign.Profile
	profileErr  error
	owned       []campaign.Campaign
	ownedErr    error
	results     []campaign.Campaign
	resultsErr  error
	cities      []campaign.City
	suggestions []string
	statusErr   error
	writeErr    error

	calls    map[string]int
	payloads []campaign.Payload
	queries  []apiclient.LocationQuery
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		profile: campaign.Profile{Username: "alice", Balance: 50},
		owned: []campaign.Campaign{
			{ID: 1, Name: "Spring sale", Keywords: []string{"shoes"}, Price: 2, Fund: 20, Status: true, City: "Krakow"},
			{ID: 2, Name: "Winter boots", Keywords: []string{"boots"}, Price: 1.5, Fund: 10, Status: false, City: "Gdansk"},
		},
		cities: []campaign.City{{ID: 1, Name: "Gdansk"}, {ID: 2, Name: "Krakow"}, {ID: 3, Name: "Warsaw"}},
		calls:  make(map[string]int),
	}
}

func (b *stubBackend) hit(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
}

func (b *stubBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *stubBackend) set(fn func(b *stubBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *stubBackend) Me(context.Context) (campaign.Profile, error) {
	b.hit("Me")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile, b.profileErr
}

func (b *stubBackend) ListCampaigns(context.Context, apiclient.OwnedFilter) ([]campaign.Campaign, error) {
	b.hit("ListCampaigns")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ownedErr != nil {
		return nil, b.ownedErr
	}
	return append([]campaign.Campaign(nil), b.owned...), nil
}

func (b *stubBackend) Cities(context.Context) ([]campaign.City, error) {
	b.hit("Cities")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cities, nil
}

func (b *stubBackend) SetStatus(_ context.Context, id int64, active bool) (campaign.Campaign, error) {
	b.hit("SetStatus")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statusErr != nil {
		return campaign.Campaign{}, b.statusErr
	}
	for i := range b.owned {
		if b.owned[i].ID == id {
			b.owned[i].Status = active
			return b.owned[i], nil
		}
	}
	return campaign.Campaign{}, notFound()
}

func (b *stubBackend) SuggestKeywords(context.Context, string) ([]string, error) {
	b.hit("SuggestKeywords")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suggestions, nil
}

func (b *stubBackend) Register(_ context.Context, r campaign.Registration) (campaign.Profile, error) {
	b.hit("Register")
	b.mu.Lock()
	defer b.mu.Unlock()
	return campaign.Profile{Username: r.Username, Email: r.Email, Balance: r.Balance}, b.writeErr
}

func (b *stubBackend) AddFunds(_ context.Context, amount float64) (campaign.Profile, error) {
	b.hit("AddFunds")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return campaign.Profile{}, b.writeErr
	}
	b.profile.Balance += amount
	return b.profile, nil
}

func (b *stubBackend) CreateCampaign(_ context.Context, p campaign.Payload) (campaign.Campaign, error) {
	b.hit("CreateCampaign")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, p)
	if b.writeErr != nil {
		return campaign.Campaign{}, b.writeErr
	}
	c := campaign.Campaign{ID: int64(len(b.owned) + 10), Name: p.Name, Keywords: p.Keywords, Price: p.Price, Fund: p.Fund, Status: p.Status, City: p.City}
	b.owned = append(b.owned, c)
	return c, nil
}

func (b *stubBackend) GetCampaign(_ context.Context, id int64) (campaign.Campaign, error) {
	b.hit("GetCampaign")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.owned {
		if c.ID == id {
			return c, nil
		}
	}
	return campaign.Campaign{}, notFound()
}

func (b *stubBackend) EditCampaign(_ context.Context, id int64, p campaign.Payload) (campaign.Campaign, error) {
	b.hit("EditCampaign")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, p)
	if b.writeErr != nil {
		return campaign.Campaign{}, b.writeErr
	}
	for i := range b.owned {
		if b.owned[i].ID == id {
			b.owned[i].Name = p.Name
			b.owned[i].Fund = p.Fund
			return b.owned[i], nil
		}
	}
	return campaign.Campaign{}, notFound()
}

func (b *stubBackend) DeleteCampaign(_ context.Context, id int64) error {
	b.hit("DeleteCampaign")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	for i := range b.owned {
		if b.owned[i].ID == id {
			b.owned = append(b.owned[:i], b.owned[i+1:]...)
			return nil
		}
	}
	return notFound()
}

func (b *stubBackend) search(name string) ([]campaign.Campaign, error) {
	b.hit(name)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results, b.resultsErr
}

func (b *stubBackend) AllCampaigns(context.Context) ([]campaign.Campaign, error) {
	return b.search("AllCampaigns")
}

func (b *stubBackend) CampaignByName(context.Context, string) ([]campaign.Campaign, error) {
	return b.search("CampaignByName")
}

func (b *stubBackend) CampaignsByCity(context.Context, string) ([]campaign.Campaign, error) {
	return b.search("CampaignsByCity")
}

func (b *stubBackend) SearchByLocation(_ context.Context, q apiclient.LocationQuery) ([]campaign.Campaign, error) {
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()
	return b.search("SearchByLocation")
}

func (b *stubBackend) SearchByLocationAndKeywords(_ context.Context, q apiclient.LocationQuery) ([]campaign.Campaign, error) {
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()
	return b.search("SearchByLocationAndKeywords")
}

// stubSessions signs in anyone whose password is "secret".
type stubSessions struct {
	mu         sync.Mutex
	identity   string
	backend    *stubBackend
	stored     string
	restoreErr error
	logouts    int
	expires    int
}

func (s *stubSessions) Login(ctx context.Context, identity, secret string) (campaign.Profile, error) {
	if identity == "" || secret == "" {
		return campaign.Profile{}, session.ErrMissingCredentials
	}
	if secret != "secret" {
		return campaign.Profile{}, session.ErrBadCredentials
	}
	p, err := s.backend.Me(ctx)
	if err != nil {
		return campaign.Profile{}, err
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return p, nil
}

func (s *stubSessions) Restore(ctx context.Context) (campaign.Profile, error) {
	s.mu.Lock()
	stored, restoreErr := s.stored, s.restoreErr
	s.mu.Unlock()
	if stored == "" {
		return campaign.Profile{}, session.ErrNoSession
	}
	if restoreErr != nil {
		return campaign.Profile{}, restoreErr
	}
	s.mu.Lock()
	s.identity = stored
	s.mu.Unlock()
	return s.backend.Me(ctx)
}

func (s *stubSessions) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	s.identity, s.stored = "", ""
	return nil
}

func (s *stubSessions) Expire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires++
	s.identity, s.stored = "", ""
	return session.ErrSessionExpired
}

func (s *stubSessions) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func notFound() error {
	return &apiclient.HTTPError{Status: http.StatusNotFound, StatusText: "Not Found"}
}

func unauthorized() error {
	return &apiclient.HTTPError{Status: http.StatusUnauthorized, StatusText: "Unauthorized"}
}

func unreachable() error {
	return &apiclient.ConnectionError{Op: "GET", URL: "http://localhost:8080/campaigns", Err: context.DeadlineExceeded}
}

// newTestModel builds a sized dashboard over fresh stubs.
func newTestModel(t *testing.T, opts ...Option) (Model, *stubBackend, *stubSessions) {
	t.Helper()
	b := newStubBackend()
	s := &stubSessions{backend: b}
	opts = append([]Option{WithSuggestHideDelay(time.Hour)}, opts...)
	m := NewModel(b, s, orchestrator.New(b), opts...)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), b, s
}

// signedInModel returns a dashboard already showing home for alice.
func signedInModel(t *testing.T, opts ...Option) (Model, *stubBackend, *stubSessions) {
	t.Helper()
	m, b, s := newTestModel(t, opts...)
	s.stored = "alice"
	m = drain(t, m, m.Init())
	if !m.signedIn {
		t.Fatalf("signedInModel: restore did not sign in, view:\n%s", stripANSI(m.View()))
	}
	return m, b, s
}

// drain runs cmd and feeds every message it produces back into m until no
// commands remain. Commands that block past settle, such as cursor
// blinks, spinner frames, and hide timers, are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	const settle = 50 * time.Millisecond

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("drain: commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		done := make(chan tea.Msg, 1)
		go func() { done <- c() }()
		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(settle):
			continue
		}

		switch msg := msg.(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		updated, next := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, next)
	}
	return m
}

// press sends one key and drains the resulting commands.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(k)
	return drain(t, updated.(Model), cmd)
}

// typeText sends s as typed runes and drains the resulting commands.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyBack  = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
)
