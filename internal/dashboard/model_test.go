package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/router"
)

func TestNewModel_StartsRestoring(t *testing.T) {
	m, _, _ := newTestModel(t)

	if !m.restoring {
		t.Error("restoring = false before Init ran, want true")
	}
	if !containsPlainText(m.View(), "Restoring session") {
		t.Errorf("view should show the restore spinner, got:\n%s", stripANSI(m.View()))
	}
}

func TestModel_InitRestoresSession(t *testing.T) {
	m, _, _ := newTestModel(t)

	msgs := execBatch(t, m.Init())

	var found bool
	for _, msg := range msgs {
		if r, ok := msg.(restoredMsg); ok {
			found = true
			if !isNoSession(r.Err) {
				t.Errorf("restore err = %v, want no session", r.Err)
			}
		}
	}
	if !found {
		t.Errorf("Init should restore the session, got %v", msgs)
	}
}

func TestModel_NoStoredSessionShowsLogin(t *testing.T) {
	// Given: nothing stored
	m, _, _ := newTestModel(t)

	// When: the restore finishes
	m = drain(t, m, m.Init())

	// Then: the sign-in form shows without a notice
	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if m.notice != "" {
		t.Errorf("notice = %q, want empty", m.notice)
	}
	if !containsPlainText(m.View(), "Sign in") {
		t.Errorf("view should show the sign-in form, got:\n%s", stripANSI(m.View()))
	}
}

func TestModel_RejectedStoredSessionShowsNotice(t *testing.T) {
	// Given: a stored session the backend no longer accepts
	m, _, s := newTestModel(t)
	s.stored = "alice"
	s.restoreErr = unauthorized()

	// When: the restore finishes
	m = drain(t, m, m.Init())

	// Then: the sign-in form explains why
	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if !containsPlainText(m.View(), "stored session not accepted") {
		t.Errorf("view should carry the restore notice, got:\n%s", stripANSI(m.View()))
	}
}

func TestModel_LoginLoadsDashboard(t *testing.T) {
	// Given: the sign-in form
	m, b, _ := newTestModel(t)
	m = drain(t, m, m.Init())

	// When: valid credentials are submitted
	m = typeText(t, m, "alice")
	m = press(t, m, keyTab)
	m = typeText(t, m, "secret")
	m = press(t, m, keyEnter)

	// Then: home shows the profile and campaign summary
	if got := m.ActiveView(); got != router.Home {
		t.Fatalf("view = %v, want home", got)
	}
	view := m.View()
	for _, want := range []string{"Welcome, alice", "50.00", "2 (1 active)"} {
		if !containsPlainText(view, want) {
			t.Errorf("home view missing %q:\n%s", want, stripANSI(view))
		}
	}
	if b.count("ListCampaigns") != 1 {
		t.Errorf("ListCampaigns calls = %d, want 1", b.count("ListCampaigns"))
	}
	if b.count("Cities") != 1 {
		t.Errorf("Cities calls = %d, want 1", b.count("Cities"))
	}
}

func TestModel_BadPasswordStaysOnLogin(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = drain(t, m, m.Init())

	m = typeText(t, m, "alice")
	m = press(t, m, keyTab)
	m = typeText(t, m, "wrong")
	m = press(t, m, keyEnter)

	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if !containsPlainText(m.View(), "invalid username or password") {
		t.Errorf("view should show the credential error, got:\n%s", stripANSI(m.View()))
	}
	if m.busy {
		t.Error("busy should clear after the failed attempt")
	}
}

func TestModel_QIsTextInForms(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = drain(t, m, m.Init())

	m = press(t, m, runeKey('q'))

	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if got := m.login.value("username"); got != "q" {
		t.Errorf("username = %q, want %q", got, "q")
	}
}

func TestModel_QQuitsOnHome(t *testing.T) {
	m, _, _ := signedInModel(t)

	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q on home should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q on home should quit")
	}
}

func TestModel_CtrlCQuits(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = drain(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestModel_WindowSizeMsg(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	m = updated.(Model)

	if m.width != 120 || m.height != 50 {
		t.Errorf("size = %dx%d, want 120x50", m.width, m.height)
	}
}

func TestModel_AuthFailureForcesLogout(t *testing.T) {
	// Given: a signed-in seller
	m, b, s := signedInModel(t)

	// When: a refresh comes back 401
	b.set(func(b *stubBackend) { b.ownedErr = unauthorized() })
	m = press(t, m, runeKey('r'))

	// Then: the session is expired and nothing of it remains
	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if s.expires != 1 {
		t.Errorf("Expire calls = %d, want 1", s.expires)
	}
	snap := m.orch.Snapshot()
	if snap.Profile != nil || len(snap.Owned) != 0 {
		t.Errorf("state should be cleared, got profile=%v owned=%d", snap.Profile, len(snap.Owned))
	}
	if !containsPlainText(m.View(), "session expired, please sign in again") {
		t.Errorf("view should explain the logout, got:\n%s", stripANSI(m.View()))
	}
}

func TestModel_ReplyFromEndedSessionIgnored(t *testing.T) {
	// Given: a seller who signed out while a toggle was in flight
	m, _, s := signedInModel(t)
	m = press(t, m, runeKey('L'))

	// When: the old toggle fails with 401
	updated, _ := m.Update(toggledMsg{Epoch: 0, ID: 1, Err: unauthorized()})
	m = updated.(Model)

	// Then: nothing happens
	if s.expires != 0 {
		t.Errorf("Expire calls = %d, want 0", s.expires)
	}
	if m.err != "" {
		t.Errorf("err = %q, want empty", m.err)
	}
}

func TestModel_LoadFromEndedSessionIgnored(t *testing.T) {
	// Given: a seller who signed out while a load was in flight
	m, _, s := signedInModel(t)
	m = press(t, m, runeKey('L'))

	// When: the old load reports a 401
	updated, _ := m.Update(loadedMsg{Epoch: 0, State: orchestrator.State{OwnedErr: unauthorized()}})
	m = updated.(Model)

	// Then: the sign-out stands without a second expiry
	if s.expires != 0 {
		t.Errorf("Expire calls = %d, want 0", s.expires)
	}
	if m.notice != "" {
		t.Errorf("notice = %q, want empty", m.notice)
	}
}

func TestModel_LogoutClearsState(t *testing.T) {
	m, _, s := signedInModel(t)
	m.flash = "campaign created"

	m = press(t, m, runeKey('L'))

	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if s.logouts != 1 {
		t.Errorf("Logout calls = %d, want 1", s.logouts)
	}
	if m.signedIn {
		t.Error("signedIn should be false after logout")
	}
	if snap := m.orch.Snapshot(); len(snap.Owned) != 0 || len(snap.Cities) != 0 {
		t.Errorf("state should be cleared, got owned=%d cities=%d", len(snap.Owned), len(snap.Cities))
	}
	if m.flash != "signed out" {
		t.Errorf("flash = %q, want %q", m.flash, "signed out")
	}
}

func TestModel_PartialFailureShowsWarning(t *testing.T) {
	// Given: the profile fetch fails but the campaign list loads
	m, b, _ := signedInModel(t)
	b.set(func(b *stubBackend) { b.profileErr = unreachable() })

	// When: the dashboard refreshes
	m = press(t, m, runeKey('r'))

	// Then: campaigns still show and a warning names the missing part
	view := m.View()
	if !containsPlainText(view, "2 (1 active)") {
		t.Errorf("campaign summary should survive a profile failure:\n%s", stripANSI(view))
	}
	if !containsPlainText(view, "balance unavailable") {
		t.Errorf("view should warn about the balance:\n%s", stripANSI(view))
	}
}

func TestModel_TotalFailureBlocks(t *testing.T) {
	m, b, _ := signedInModel(t)
	b.set(func(b *stubBackend) {
		b.profileErr = unreachable()
		b.ownedErr = unreachable()
	})

	m = press(t, m, runeKey('r'))

	view := m.View()
	if !containsPlainText(view, "could not load dashboard") {
		t.Errorf("view should block on a total failure:\n%s", stripANSI(view))
	}
	if !containsPlainText(view, "Press r to retry") {
		t.Errorf("view should offer a retry:\n%s", stripANSI(view))
	}
}

func TestModel_StartView(t *testing.T) {
	tests := []struct {
		name string
		want router.View
	}{
		{"my-campaigns", router.MyCampaigns},
		{"search", router.Search},
		{"edit", router.Home},
		{"login", router.Home},
		{"bogus", router.Home},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := signedInModel(t, WithStartView(tt.name))
			if got := m.ActiveView(); got != tt.want {
				t.Errorf("view = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModel_ResultsNeverMergeIntoOwned(t *testing.T) {
	// Given: a seller with two campaigns
	m, b, _ := signedInModel(t)
	b.set(func(b *stubBackend) {
		b.results = []campaign.Campaign{{ID: 99, Name: "Someone else", Price: 3, Fund: 30, Status: true, SellerName: "bob"}}
	})

	// When: they browse all campaigns
	m = press(t, m, runeKey('3'))

	// Then: results show in their own view and owned is untouched
	if got := m.ActiveView(); got != router.AllCampaigns {
		t.Fatalf("view = %v, want all-campaigns", got)
	}
	if !containsPlainText(m.View(), "Someone else") {
		t.Errorf("results view missing the result:\n%s", stripANSI(m.View()))
	}
	snap := m.orch.Snapshot()
	if len(snap.Owned) != 2 {
		t.Errorf("owned = %d campaigns, want 2", len(snap.Owned))
	}
	if _, found := snap.Find(99); found {
		t.Error("a browse result leaked into owned campaigns")
	}
}

func TestModel_HelpBarReflectsView(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		wantText string
	}{
		{"home", nil, "log out"},
		{"my campaigns", []tea.KeyMsg{runeKey('1')}, "toggle status"},
		{"results", []tea.KeyMsg{runeKey('3')}, "reload"},
		{"form", []tea.KeyMsg{runeKey('2')}, "next field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := signedInModel(t)
			for _, k := range tt.keys {
				m = press(t, m, k)
			}
			if !containsPlainText(m.View(), tt.wantText) {
				t.Errorf("help bar missing %q:\n%s", tt.wantText, stripANSI(m.View()))
			}
		})
	}
}

// TestModel_Teatest_SignInAndBrowse drives the program loop end to end.
func TestModel_Teatest_SignInAndBrowse(t *testing.T) {
	b := newStubBackend()
	b.results = []campaign.Campaign{{ID: 7, Name: "Public pick", Price: 2, Fund: 5, Status: true}}
	s := &stubSessions{backend: b, stored: "alice"}
	m := NewModel(b, s, orchestrator.New(b))

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return containsPlainText(string(out), "Welcome")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(runeKey('3'))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return containsPlainText(string(out), "Public pick")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(runeKey('q'))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if got := final.ActiveView(); got != router.AllCampaigns {
		t.Errorf("final view = %v, want all-campaigns", got)
	}
	if b.count("AllCampaigns") != 1 {
		t.Errorf("AllCampaigns calls = %d, want 1", b.count("AllCampaigns"))
	}
}
