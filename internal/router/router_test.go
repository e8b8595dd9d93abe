package router

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{"home", Home},
		{"my-campaigns", MyCampaigns},
		{" Create ", Create},
		{"all-campaigns", AllCampaigns},
		{"search", Search},
		{"search-results", SearchResults},
		{"add-funds", AddFunds},
		{"login", Login},
		{"", Home},
		{"admin", Home},
		{"<script>", Home},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSwitch_Effects(t *testing.T) {
	tests := []struct {
		view View
		want []Effect
	}{
		{Create, []Effect{EffectResetCreateForm}},
		{MyCampaigns, []Effect{EffectRefetchOwned}},
		{AllCampaigns, []Effect{EffectFetchAll}},
		{Search, []Effect{EffectResetSearchForm}},
		{Home, nil},
		{SearchResults, nil},
		{Edit, nil},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			r := New(Home)

			got := r.Switch(tt.view)

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Switch(%v) = %v, want %v", tt.view, got, tt.want)
			}
			if r.Current() != tt.view {
				t.Errorf("Current() = %v, want %v", r.Current(), tt.view)
			}
		})
	}
}

func TestSwitch_UnknownFallsBackToDefault(t *testing.T) {
	r := New(Home)
	r.Switch(Search)

	r.Switch(View(99))

	if r.Current() != Home {
		t.Errorf("Current() = %v, want home", r.Current())
	}
}

func TestSwitch_EffectsAreACopy(t *testing.T) {
	r := New(Home)
	got := r.Switch(Create)
	got[0] = EffectFetchAll

	if again := r.Switch(Create); again[0] != EffectResetCreateForm {
		t.Errorf("effect table mutated: %v", again)
	}
}

func TestBackAndReset(t *testing.T) {
	r := New(Home)
	r.Switch(Search)
	r.Switch(SearchResults)

	if got := r.Back(); got != Search {
		t.Errorf("Back() = %v, want search", got)
	}
	if r.Previous() != SearchResults {
		t.Errorf("Previous() = %v, want search-results", r.Previous())
	}

	r.Reset(Login)
	if r.Current() != Login || r.Previous() != Login {
		t.Errorf("after Reset: current=%v previous=%v", r.Current(), r.Previous())
	}
}

func TestBack_SkipsEntryEffects(t *testing.T) {
	// Given: the search form left for its results
	r := New(Home)
	r.Switch(Search)
	r.Switch(SearchResults)

	// When: going back, then entering search afresh
	r.Back()
	fresh := r.Switch(Search)

	// Then: only the fresh entry asks for a form reset
	if !reflect.DeepEqual(fresh, []Effect{EffectResetSearchForm}) {
		t.Errorf("Switch(Search) effects = %v", fresh)
	}
}

func TestPublicViews(t *testing.T) {
	for v := range viewNames {
		want := v == Login || v == Register
		if v.Public() != want {
			t.Errorf("%v.Public() = %v", v, v.Public())
		}
	}
}
