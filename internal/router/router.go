// Package router holds the active dashboard view and the side effects of
// entering each one.
package router

import "strings"

// View is one mutually exclusive screen.
type View int

const (
	Home View = iota
	MyCampaigns
	Create
	AllCampaigns
	Search
	SearchResults
	Edit
	AddFunds
	Login
	Register
)

var viewNames = map[View]string{
	Home:          "home",
	MyCampaigns:   "my-campaigns",
	Create:        "create",
	AllCampaigns:  "all-campaigns",
	Search:        "search",
	SearchResults: "search-results",
	Edit:          "edit",
	AddFunds:      "add-funds",
	Login:         "login",
	Register:      "register",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "unknown"
}

// Title is the heading shown for the view.
func (v View) Title() string {
	switch v {
	case Home:
		return "Home"
	case MyCampaigns:
		return "My campaigns"
	case Create:
		return "New campaign"
	case AllCampaigns:
		return "All campaigns"
	case Search:
		return "Search"
	case SearchResults:
		return "Search results"
	case Edit:
		return "Edit campaign"
	case AddFunds:
		return "Add funds"
	case Login:
		return "Sign in"
	case Register:
		return "Register"
	default:
		return ""
	}
}

// Public reports whether the view is reachable while signed out.
func (v View) Public() bool {
	return v == Login || v == Register
}

// Parse maps a view name to a View. Unknown names give Home.
func Parse(s string) View {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range viewNames {
		if name == s {
			return v
		}
	}
	return Home
}

// Effect is work the caller must do because a view was entered.
type Effect int

const (
	EffectResetCreateForm Effect = iota + 1
	EffectRefetchOwned
	EffectFetchAll
	EffectResetSearchForm
)

func (e Effect) String() string {
	switch e {
	case EffectResetCreateForm:
		return "reset-create-form"
	case EffectRefetchOwned:
		return "refetch-owned"
	case EffectFetchAll:
		return "fetch-all"
	case EffectResetSearchForm:
		return "reset-search-form"
	default:
		return "none"
	}
}

var entryEffects = map[View][]Effect{
	Create:       {EffectResetCreateForm},
	MyCampaigns:  {EffectRefetchOwned},
	AllCampaigns: {EffectFetchAll},
	Search:       {EffectResetSearchForm},
}

// Router is the single owner of the active view.
type Router struct {
	current  View
	previous View
	fallback View
}

// New returns a router showing def.
func New(def View) *Router {
	return &Router{current: def, previous: def, fallback: def}
}

// Current returns the active view.
func (r *Router) Current() View { return r.current }

// Previous returns the view active before the last switch.
func (r *Router) Previous() View { return r.previous }

// Switch activates v and returns the effects of entering it. Unknown
// views fall back to the default. Re-entering the active view still
// reports its effects.
func (r *Router) Switch(v View) []Effect {
	if _, ok := viewNames[v]; !ok {
		v = r.fallback
	}
	r.previous, r.current = r.current, v
	effects := entryEffects[v]
	return append([]Effect(nil), effects...)
}

// Back returns to the previous view without its entry effects, so a
// form left for its results keeps what was typed.
func (r *Router) Back() View {
	r.previous, r.current = r.current, r.previous
	return r.current
}

// Reset returns to v without effects and forgets history. It is used on
// logout and login.
func (r *Router) Reset(v View) {
	r.current, r.previous = v, v
}
