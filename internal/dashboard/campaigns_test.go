package dashboard

import (
	"net/http"
	"testing"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/router"
)

// ownedModel returns a dashboard showing the seller's campaign list.
func ownedModel(t *testing.T) (Model, *stubBackend, *stubSessions) {
	t.Helper()
	m, b, s := signedInModel(t)
	m = press(t, m, runeKey('1'))
	if got := m.ActiveView(); got != router.MyCampaigns {
		t.Fatalf("view = %v, want my-campaigns", got)
	}
	return m, b, s
}

func TestOwned_ListsCampaigns(t *testing.T) {
	m, b, _ := ownedModel(t)

	view := m.View()
	for _, want := range []string{"Spring sale", "Winter boots", "● active", "○ paused", "Krakow", "shoes"} {
		if !containsPlainText(view, want) {
			t.Errorf("list missing %q:\n%s", want, stripANSI(view))
		}
	}
	// Entering the view refetches.
	if got := b.count("ListCampaigns"); got != 2 {
		t.Errorf("ListCampaigns calls = %d, want 2", got)
	}
}

func TestOwned_ToggleSucceeds(t *testing.T) {
	// Given: the active "Spring sale" under the cursor
	m, b, _ := ownedModel(t)

	// When: the seller toggles it
	m = press(t, m, keySpace)

	// Then: the PATCH was sent and the refreshed list shows it paused
	if got := b.count("SetStatus"); got != 1 {
		t.Fatalf("SetStatus calls = %d, want 1", got)
	}
	snap := m.orch.Snapshot()
	c, _ := snap.Find(1)
	if c.Status {
		t.Error("campaign 1 should be paused after the toggle")
	}
	if snap.Toggling(1) {
		t.Error("toggle should be settled")
	}
	if got := b.count("ListCampaigns"); got != 3 {
		t.Errorf("ListCampaigns calls = %d, want 3 (refresh after toggle)", got)
	}
}

func TestOwned_ToggleFailureReverts(t *testing.T) {
	// Given: a backend that rejects status changes
	m, b, _ := ownedModel(t)
	b.set(func(b *stubBackend) {
		b.statusErr = &apiclient.HTTPError{Status: http.StatusInternalServerError, StatusText: "Internal Server Error"}
	})

	// When: the seller toggles the active campaign
	m = press(t, m, keySpace)

	// Then: the control returns to its confirmed value with an error
	snap := m.orch.Snapshot()
	c, _ := snap.Find(1)
	if !c.Status {
		t.Error("campaign 1 should be active again after the failed toggle")
	}
	if !containsPlainText(m.View(), "status not changed") {
		t.Errorf("view should report the revert:\n%s", stripANSI(m.View()))
	}
}

func TestOwned_ToggleRefreshesBalance(t *testing.T) {
	// Given: the list, after the profile was fetched
	m, b, _ := ownedModel(t)
	before := b.count("Me")

	// When: a toggle succeeds
	m = press(t, m, keySpace)

	// Then: the profile is refetched along with the list
	if got := b.count("Me"); got != before+1 {
		t.Errorf("Me calls = %d, want %d", got, before+1)
	}
	if m.err != "" {
		t.Errorf("err = %q, want empty", m.err)
	}
}

func TestOwned_ToggleExpiredSessionLogsOut(t *testing.T) {
	m, b, s := ownedModel(t)
	b.set(func(b *stubBackend) { b.statusErr = unauthorized() })

	m = press(t, m, keySpace)

	if got := m.ActiveView(); got != router.Login {
		t.Fatalf("view = %v, want login", got)
	}
	if s.expires != 1 {
		t.Errorf("Expire calls = %d, want 1", s.expires)
	}
}

func TestOwned_DeleteAsksFirst(t *testing.T) {
	m, b, _ := ownedModel(t)

	m = press(t, m, runeKey('d'))
	if !containsPlainText(m.View(), `Delete campaign "Spring sale"?`) {
		t.Fatalf("view should ask for confirmation:\n%s", stripANSI(m.View()))
	}

	m = press(t, m, keyEsc)
	if m.confirm != nil {
		t.Error("esc should cancel the confirmation")
	}
	if got := b.count("DeleteCampaign"); got != 0 {
		t.Errorf("DeleteCampaign calls = %d, want 0 after cancel", got)
	}
}

func TestOwned_DeleteConfirmed(t *testing.T) {
	m, b, _ := ownedModel(t)

	m = press(t, m, runeKey('d'))
	m = press(t, m, keyEnter)

	if got := b.count("DeleteCampaign"); got != 1 {
		t.Fatalf("DeleteCampaign calls = %d, want 1", got)
	}
	if m.flash != "campaign deleted" {
		t.Errorf("flash = %q, want %q", m.flash, "campaign deleted")
	}
	snap := m.orch.Snapshot()
	if len(snap.Owned) != 1 {
		t.Errorf("owned = %d campaigns after delete, want 1", len(snap.Owned))
	}
}

func TestOwned_EditLoadsFreshCampaign(t *testing.T) {
	// Given: the list
	m, b, _ := ownedModel(t)

	// When: the seller opens the first campaign
	m = press(t, m, runeKey('e'))

	// Then: it was fetched and the form carries its values
	if got := m.ActiveView(); got != router.Edit {
		t.Fatalf("view = %v, want edit", got)
	}
	if got := b.count("GetCampaign"); got != 1 {
		t.Errorf("GetCampaign calls = %d, want 1", got)
	}
	if got := m.form.name.Value(); got != "Spring sale" {
		t.Errorf("name = %q, want %q", got, "Spring sale")
	}
	if got := m.form.cities.value(); got != "Krakow" {
		t.Errorf("city = %q, want %q", got, "Krakow")
	}
	if !m.form.keywords.sel.Contains("shoes") {
		t.Error("keywords should include shoes")
	}
}

func TestOwned_EditSubmitsChanges(t *testing.T) {
	m, b, _ := ownedModel(t)
	m = press(t, m, runeKey('e'))

	m.form.name.SetValue("Spring sale 2")
	m = press(t, m, keyCtrlS)

	if got := b.count("EditCampaign"); got != 1 {
		t.Fatalf("EditCampaign calls = %d, want 1", got)
	}
	if got := b.payloads[0].Name; got != "Spring sale 2" {
		t.Errorf("payload name = %q, want %q", got, "Spring sale 2")
	}
	if got := m.ActiveView(); got != router.MyCampaigns {
		t.Errorf("view = %v, want my-campaigns", got)
	}
	if m.flash != "campaign updated" {
		t.Errorf("flash = %q, want %q", m.flash, "campaign updated")
	}
	if !containsPlainText(m.View(), "Spring sale 2") {
		t.Errorf("refreshed list should show the new name:\n%s", stripANSI(m.View()))
	}
}

func TestOwned_EditMissingCampaign(t *testing.T) {
	// Given: a campaign deleted elsewhere after the list loaded
	m, b, _ := ownedModel(t)
	b.set(func(b *stubBackend) { b.owned = b.owned[1:] })

	// When: the seller opens it
	m = press(t, m, runeKey('e'))

	// Then: they stay on the list with an error
	if got := m.ActiveView(); got != router.MyCampaigns {
		t.Fatalf("view = %v, want my-campaigns", got)
	}
	if !containsPlainText(m.View(), "could not open campaign") {
		t.Errorf("view should report the failure:\n%s", stripANSI(m.View()))
	}
}

func TestOwned_EscGoesHome(t *testing.T) {
	m, _, _ := ownedModel(t)

	m = press(t, m, keyEsc)

	if got := m.ActiveView(); got != router.Home {
		t.Errorf("view = %v, want home", got)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		n, cursor, height  int
		wantStart, wantEnd int
	}{
		{"fits", 3, 0, 10, 0, 3},
		{"cursor at top", 10, 0, 6, 0, 3},
		{"cursor past window", 10, 5, 6, 3, 6},
		{"cursor at end", 10, 9, 6, 7, 10},
		{"tiny height", 4, 2, 1, 2, 3},
		{"empty", 0, 0, 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.n, tt.cursor, tt.height)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window(%d, %d, %d) = [%d, %d), want [%d, %d)",
					tt.n, tt.cursor, tt.height, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long campaign name", 8); got != "a very …" {
		t.Errorf("truncate(long) = %q, want %q", got, "a very …")
	}
}
