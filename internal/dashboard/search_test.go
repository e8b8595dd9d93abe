package dashboard

import (
	"errors"
	"testing"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/router"
)

func searchModel(t *testing.T) (Model, *stubBackend) {
	t.Helper()
	m, b, _ := signedInModel(t)
	b.set(func(b *stubBackend) {
		b.results = []campaign.Campaign{{ID: 40, Name: "Gdansk deal", Price: 1, Fund: 9, Status: true, City: "Gdansk"}}
	})
	m = press(t, m, runeKey('4'))
	if got := m.ActiveView(); got != router.Search {
		t.Fatalf("view = %v, want search", got)
	}
	return m, b
}

func TestSearch_ByCity(t *testing.T) {
	// Given: the search form
	m, b := searchModel(t)

	// When: the seller picks "By city", the first city, and submits
	m = press(t, m, keyRight)
	m = press(t, m, keyRight)
	m = press(t, m, keyTab)
	m = press(t, m, keyRight)
	m = press(t, m, keyEnter)

	// Then: the city endpoint ran and its results show
	if got := m.ActiveView(); got != router.SearchResults {
		t.Fatalf("view = %v, want search-results", got)
	}
	if got := b.count("CampaignsByCity"); got != 1 {
		t.Errorf("CampaignsByCity calls = %d, want 1", got)
	}
	if m.lastSearch.City != "Gdansk" {
		t.Errorf("last search city = %q, want Gdansk", m.lastSearch.City)
	}
	view := m.View()
	for _, want := range []string{"Campaigns in Gdansk", "Gdansk deal", "1 campaign"} {
		if !containsPlainText(view, want) {
			t.Errorf("results view missing %q:\n%s", want, stripANSI(view))
		}
	}
}

func TestSearch_LocationNeedsRadius(t *testing.T) {
	m, b := searchModel(t)
	m.search.mode = SearchByLocation
	m.search.cities.choose("Warsaw")

	m = press(t, m, keyEnter)

	if got := m.ActiveView(); got != router.Search {
		t.Fatalf("view = %v, want search", got)
	}
	if got := m.search.errs["radius"]; got == "" {
		t.Error("radius error missing")
	}
	if got := b.count("SearchByLocation"); got != 0 {
		t.Errorf("SearchByLocation calls = %d, want 0", got)
	}
}

func TestSearch_LocationAndKeywordsQuery(t *testing.T) {
	m, b := searchModel(t)
	m.search.mode = SearchByLocationAndKeywords
	m.search.cities.choose("Warsaw")
	m.search.radius.SetValue("12.5")
	m.search.keywords.sel.Set([]string{"shoes", "boots"})

	m = press(t, m, keyEnter)

	if got := b.count("SearchByLocationAndKeywords"); got != 1 {
		t.Fatalf("SearchByLocationAndKeywords calls = %d, want 1", got)
	}
	q := b.queries[0]
	if q.City != "Warsaw" || q.Radius != 12.5 || len(q.Keywords) != 2 {
		t.Errorf("query = %+v", q)
	}
}

func TestSearch_TabLeavesOpenSuggestions(t *testing.T) {
	// Given: keyword suggestions showing on a location and keywords search
	m, b := searchModel(t)
	b.set(func(b *stubBackend) { b.suggestions = []string{"shirts", "shoes"} })
	m.search.mode = SearchByLocationAndKeywords
	m.search.setFocus(focusSearchKeywords)
	m = typeText(t, m, "sh")
	if !m.search.keywords.suggesting() {
		t.Fatal("suggestions should show after typing")
	}

	// When: the seller tabs on
	m = press(t, m, keyTab)

	// Then: focus reaches the tags and the list closes
	if m.search.focus != focusSearchTags {
		t.Errorf("focus = %v, want tags", m.search.focus)
	}
	if m.search.keywords.suggesting() {
		t.Error("suggestions should close when focus leaves")
	}
}

func TestSearch_ResultsBackAndReload(t *testing.T) {
	m, b := searchModel(t)
	m.search.mode = SearchByName
	m.search.name.SetValue("Gdansk deal")
	m = press(t, m, keyEnter)

	// r repeats the last search.
	m = press(t, m, runeKey('r'))
	if got := b.count("CampaignByName"); got != 2 {
		t.Errorf("CampaignByName calls = %d, want 2", got)
	}

	// esc returns to the form with its inputs intact.
	m = press(t, m, keyEsc)
	if got := m.ActiveView(); got != router.Search {
		t.Fatalf("view = %v, want search", got)
	}
	if m.search.mode != SearchByName || m.search.name.Value() != "Gdansk deal" {
		t.Errorf("form lost its inputs: mode=%v name=%q", m.search.mode, m.search.name.Value())
	}

	m = press(t, m, keyEsc)
	if got := m.ActiveView(); got != router.Home {
		t.Errorf("view = %v, want home", got)
	}
}

func TestSearch_FailureShownInResults(t *testing.T) {
	m, b := searchModel(t)
	b.set(func(b *stubBackend) { b.resultsErr = unreachable() })

	m = press(t, m, keyEnter)

	if !containsPlainText(m.View(), "backend unreachable") {
		t.Errorf("results view should show the failure:\n%s", stripANSI(m.View()))
	}
	if snap := m.orch.Snapshot(); len(snap.Owned) != 2 {
		t.Errorf("owned = %d campaigns, want 2 after a failed search", len(snap.Owned))
	}
}

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       SearchRequest
		wantField string
	}{
		{"all", SearchRequest{Mode: SearchAll}, ""},
		{"name missing", SearchRequest{Mode: SearchByName}, "name"},
		{"name", SearchRequest{Mode: SearchByName, Name: "x"}, ""},
		{"city missing", SearchRequest{Mode: SearchByCity}, "city"},
		{"location radius", SearchRequest{Mode: SearchByLocation, City: "Gdansk"}, "radius"},
		{"location", SearchRequest{Mode: SearchByLocation, City: "Gdansk", Radius: 3}, ""},
		{"keywords missing", SearchRequest{Mode: SearchByLocationAndKeywords, City: "Gdansk", Radius: 3}, "keywordsNames"},
		{"keywords", SearchRequest{Mode: SearchByLocationAndKeywords, City: "Gdansk", Radius: 3, Keywords: []string{"a"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *campaign.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *campaign.ValidationError", err)
			}
			if ve.Message(tt.wantField) == "" {
				t.Errorf("no message for %q in %v", tt.wantField, ve.Fields)
			}
		})
	}
}

func TestSearchRequest_Label(t *testing.T) {
	tests := []struct {
		req  SearchRequest
		want string
	}{
		{SearchRequest{}, "All campaigns"},
		{SearchRequest{Mode: SearchByName, Name: "Promo"}, `Campaigns named "Promo"`},
		{SearchRequest{Mode: SearchByCity, City: "Gdansk"}, "Campaigns in Gdansk"},
		{SearchRequest{Mode: SearchByLocation, City: "Gdansk", Radius: 5}, "Campaigns within 5 km of Gdansk"},
		{SearchRequest{Mode: SearchByLocationAndKeywords, City: "Gdansk", Radius: 2.5, Keywords: []string{"a", "b"}},
			"Campaigns within 2.5 km of Gdansk matching a, b"},
	}
	for _, tt := range tests {
		if got := tt.req.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestSearchMode_String(t *testing.T) {
	for mode := SearchAll; mode < searchModeCount; mode++ {
		if mode.String() == "Unknown" {
			t.Errorf("mode %d has no name", mode)
		}
	}
	if got := searchModeCount.String(); got != "Unknown" {
		t.Errorf("out-of-range mode = %q, want Unknown", got)
	}
}
