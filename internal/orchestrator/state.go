package orchestrator

import (
	"maps"
	"slices"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
)

// Token ties a fetch result to the load that issued it. Results carrying
// an older token are dropped.
type Token uint64

// State is the dashboard's data. Each resource has its own value and
// error so one failing fetch never blanks another.
type State struct {
	// Loading is set from BeginLoad until both the profile and owned
	// campaign results for that load have landed.
	Loading bool

	Profile    *campaign.Profile
	ProfileErr error

	Owned    []campaign.Campaign
	OwnedErr error

	// Results holds browse and search output. It is never mixed with Owned.
	Results        []campaign.Campaign
	ResultsErr     error
	ResultsLabel   string
	ResultsLoading bool

	Cities    []campaign.City
	CitiesErr error

	loadGen      Token
	profileDone  bool
	ownedDone    bool
	resultsGen   Token
	citiesLoaded bool

	// toggles maps a campaign ID to its status before an in-flight toggle.
	toggles map[int64]bool
}

// BeginLoad starts a combined profile and owned-campaigns load and
// returns the token both results must carry.
func (s *State) BeginLoad() Token {
	s.loadGen++
	s.Loading = true
	s.profileDone, s.ownedDone = false, false
	return s.loadGen
}

// ApplyProfile records the profile result for load t. On error the last
// good profile is kept alongside the error.
func (s *State) ApplyProfile(t Token, p campaign.Profile, err error) bool {
	if t != s.loadGen {
		return false
	}
	if err != nil {
		s.ProfileErr = err
	} else {
		s.Profile, s.ProfileErr = &p, nil
	}
	s.profileDone = true
	s.settle()
	return true
}

// ApplyOwned records the owned-campaigns result for load t.
func (s *State) ApplyOwned(t Token, cs []campaign.Campaign, err error) bool {
	if t != s.loadGen {
		return false
	}
	if err != nil {
		s.OwnedErr = err
	} else {
		s.Owned, s.OwnedErr = slices.Clone(cs), nil
		s.reapplyToggles()
	}
	s.ownedDone = true
	s.settle()
	return true
}

func (s *State) settle() {
	if s.profileDone && s.ownedDone {
		s.Loading = false
	}
}

// BeginResults starts a browse or search fetch labelled for display.
func (s *State) BeginResults(label string) Token {
	s.resultsGen++
	s.ResultsLabel = label
	s.ResultsLoading = true
	s.Results, s.ResultsErr = nil, nil
	return s.resultsGen
}

// ApplyResults records a browse or search result for fetch t.
func (s *State) ApplyResults(t Token, cs []campaign.Campaign, err error) bool {
	if t != s.resultsGen {
		return false
	}
	s.ResultsLoading = false
	if err != nil {
		s.Results, s.ResultsErr = nil, err
		return true
	}
	s.Results, s.ResultsErr = slices.Clone(cs), nil
	return true
}

// NeedCities reports whether the city list still has to be fetched.
func (s *State) NeedCities() bool { return !s.citiesLoaded }

// ApplyCities caches the city list. A failure leaves it fetchable again.
func (s *State) ApplyCities(cs []campaign.City, err error) {
	if err != nil {
		s.CitiesErr = err
		return
	}
	s.Cities, s.CitiesErr = slices.Clone(cs), nil
	s.citiesLoaded = true
}

// Surface combines the profile and owned-campaign errors. Both failing is
// blocking; one failing is a warning shown beside the data that did load.
func (s *State) Surface() (blocking, warning string) {
	switch {
	case s.ProfileErr != nil && s.OwnedErr != nil:
		return "could not load dashboard: profile: " + apiclient.Describe(s.ProfileErr) +
			"; campaigns: " + apiclient.Describe(s.OwnedErr), ""
	case s.ProfileErr != nil:
		return "", "balance unavailable: " + apiclient.Describe(s.ProfileErr)
	case s.OwnedErr != nil:
		return "", "campaigns unavailable: " + apiclient.Describe(s.OwnedErr)
	default:
		return "", ""
	}
}

// Balance returns the profile balance when the profile is known.
func (s *State) Balance() (float64, bool) {
	if s.Profile == nil {
		return 0, false
	}
	return s.Profile.Balance, true
}

// Find returns the owned campaign with id.
func (s *State) Find(id int64) (campaign.Campaign, bool) {
	for _, c := range s.Owned {
		if c.ID == id {
			return c, true
		}
	}
	return campaign.Campaign{}, false
}

// BeginToggle flips campaign id's status locally and remembers the prior
// value. It returns the status to send, or ok=false when the campaign is
// unknown or already toggling.
func (s *State) BeginToggle(id int64) (next bool, ok bool) {
	if _, busy := s.toggles[id]; busy {
		return false, false
	}
	i := s.index(id)
	if i < 0 {
		return false, false
	}
	if s.toggles == nil {
		s.toggles = make(map[int64]bool)
	}
	prior := s.Owned[i].Status
	s.toggles[id] = prior
	s.Owned[i].Status = !prior
	return !prior, true
}

// FinishToggle settles a toggle. On error the status reverts to its value
// before BeginToggle.
func (s *State) FinishToggle(id int64, err error) {
	prior, busy := s.toggles[id]
	if !busy {
		return
	}
	delete(s.toggles, id)
	if err == nil {
		return
	}
	if i := s.index(id); i >= 0 {
		s.Owned[i].Status = prior
	}
}

// Toggling reports whether campaign id has a toggle in flight.
func (s *State) Toggling(id int64) bool {
	_, busy := s.toggles[id]
	return busy
}

// reapplyToggles keeps the optimistic value visible for toggles still
// in flight when a fresh list arrives.
func (s *State) reapplyToggles() {
	for id, prior := range s.toggles {
		i := s.index(id)
		if i < 0 {
			delete(s.toggles, id)
			continue
		}
		s.Owned[i].Status = !prior
	}
}

func (s *State) index(id int64) int {
	for i, c := range s.Owned {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Reset clears every resource, including the cached cities, and orphans
// all in-flight results.
func (s *State) Reset() {
	*s = State{
		loadGen:    s.loadGen + 1,
		resultsGen: s.resultsGen + 1,
	}
}

// Clone returns a copy safe to read while s keeps changing.
func (s *State) Clone() State {
	c := *s
	if s.Profile != nil {
		p := *s.Profile
		c.Profile = &p
	}
	c.Owned = slices.Clone(s.Owned)
	c.Results = slices.Clone(s.Results)
	c.Cities = slices.Clone(s.Cities)
	c.toggles = maps.Clone(s.toggles)
	return c
}
