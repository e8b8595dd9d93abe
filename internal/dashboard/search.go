package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/router"
)

// SearchMode selects which public endpoint a search uses.
type SearchMode int

const (
	SearchAll SearchMode = iota
	SearchByName
	SearchByCity
	SearchByLocation
	SearchByLocationAndKeywords
	searchModeCount
)

func (s SearchMode) String() string {
	switch s {
	case SearchAll:
		return "All campaigns"
	case SearchByName:
		return "By exact name"
	case SearchByCity:
		return "By city"
	case SearchByLocation:
		return "By location"
	case SearchByLocationAndKeywords:
		return "By location and keywords"
	default:
		return "Unknown"
	}
}

// SearchRequest is a validated search ready to send.
type SearchRequest struct {
	Mode     SearchMode
	Name     string
	City     string
	Radius   float64
	Keywords []string
}

// Label describes the request above its results.
func (r SearchRequest) Label() string {
	switch r.Mode {
	case SearchByName:
		return fmt.Sprintf("Campaigns named %q", r.Name)
	case SearchByCity:
		return "Campaigns in " + r.City
	case SearchByLocation:
		return fmt.Sprintf("Campaigns within %g km of %s", r.Radius, r.City)
	case SearchByLocationAndKeywords:
		return fmt.Sprintf("Campaigns within %g km of %s matching %s", r.Radius, r.City, strings.Join(r.Keywords, ", "))
	default:
		return "All campaigns"
	}
}

// Run sends the request to the matching endpoint.
func (r SearchRequest) Run(ctx context.Context, b Searcher) ([]campaign.Campaign, error) {
	q := apiclient.LocationQuery{City: r.City, Radius: r.Radius, Keywords: r.Keywords}
	switch r.Mode {
	case SearchByName:
		return b.CampaignByName(ctx, r.Name)
	case SearchByCity:
		return b.CampaignsByCity(ctx, r.City)
	case SearchByLocation:
		return b.SearchByLocation(ctx, q)
	case SearchByLocationAndKeywords:
		return b.SearchByLocationAndKeywords(ctx, q)
	default:
		return b.AllCampaigns(ctx)
	}
}

// Validate checks that the inputs the mode needs are present.
func (r SearchRequest) Validate() error {
	var fields []campaign.FieldError
	add := func(field, msg string) {
		fields = append(fields, campaign.FieldError{Field: field, Message: msg})
	}
	switch r.Mode {
	case SearchByName:
		if r.Name == "" {
			add("name", "is required")
		}
	case SearchByCity:
		if r.City == "" {
			add("city", "is required")
		}
	case SearchByLocation, SearchByLocationAndKeywords:
		if r.City == "" {
			add("city", "is required")
		}
		if r.Radius <= 0 {
			add("radius", "must be greater than 0")
		}
		if r.Mode == SearchByLocationAndKeywords && len(r.Keywords) == 0 {
			add("keywordsNames", "select at least one keyword")
		}
	}
	if len(fields) > 0 {
		return &campaign.ValidationError{Fields: fields}
	}
	return nil
}

// searchFocus is the focused element of the search form.
type searchFocus int

const (
	focusMode searchFocus = iota
	focusSearchName
	focusSearchCity
	focusSearchRadius
	focusSearchKeywords
	focusSearchTags
)

// searchForm collects a SearchRequest.
type searchForm struct {
	mode     SearchMode
	name     textinput.Model
	radius   textinput.Model
	cities   cityPicker
	keywords keywordPicker
	focus    searchFocus
	errs     map[string]string
}

func newSearchForm(b Backend, o options) searchForm {
	return searchForm{
		name:     newField("name", "Name", "exact campaign name").input,
		radius:   newField("radius", "Radius", "km").input,
		keywords: newKeywordPicker(b, o),
	}
}

func (f *searchForm) reset() {
	f.mode = SearchAll
	f.name.Reset()
	f.radius.Reset()
	f.cities.choose("")
	f.keywords.reset()
	f.errs = nil
	f.setFocus(focusMode)
}

// elements lists the inputs the current mode shows, in focus order.
func (f searchForm) elements() []searchFocus {
	switch f.mode {
	case SearchByName:
		return []searchFocus{focusMode, focusSearchName}
	case SearchByCity:
		return []searchFocus{focusMode, focusSearchCity}
	case SearchByLocation:
		return []searchFocus{focusMode, focusSearchCity, focusSearchRadius}
	case SearchByLocationAndKeywords:
		return []searchFocus{focusMode, focusSearchCity, focusSearchRadius, focusSearchKeywords, focusSearchTags}
	default:
		return []searchFocus{focusMode}
	}
}

func (f *searchForm) step(delta int) tea.Cmd {
	els := f.elements()
	at := 0
	for i, e := range els {
		if e == f.focus {
			at = i
		}
	}
	return f.setFocus(els[(at+delta+len(els))%len(els)])
}

func (f *searchForm) setFocus(to searchFocus) tea.Cmd {
	f.name.Blur()
	f.radius.Blur()
	f.keywords.blur()
	f.focus = to
	switch to {
	case focusSearchName:
		return f.name.Focus()
	case focusSearchRadius:
		return f.radius.Focus()
	case focusSearchKeywords:
		return f.keywords.focus()
	}
	return nil
}

func (f searchForm) capturesCancel() bool {
	return f.focus == focusSearchKeywords && f.keywords.suggesting()
}

func (f *searchForm) handleKey(msg tea.KeyMsg, keys formKeys) (cmd tea.Cmd, submit bool) {
	switch {
	case key.Matches(msg, keys.Next):
		return f.step(1), false
	case key.Matches(msg, keys.Prev):
		return f.step(-1), false
	}
	if f.capturesCancel() {
		return f.keywords.update(msg), false
	}

	switch {
	case key.Matches(msg, keys.Submit):
		if f.focus == focusSearchKeywords && f.keywords.addTyped() {
			return nil, false
		}
		return nil, true
	}

	switch f.focus {
	case focusMode:
		switch {
		case key.Matches(msg, keys.Left):
			f.mode = (f.mode - 1 + searchModeCount) % searchModeCount
			f.errs = nil
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Space):
			f.mode = (f.mode + 1) % searchModeCount
			f.errs = nil
		}
	case focusSearchName:
		f.name, cmd = f.name.Update(msg)
	case focusSearchCity:
		switch {
		case key.Matches(msg, keys.Left):
			f.cities.move(-1)
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Space):
			f.cities.move(1)
		}
	case focusSearchRadius:
		f.radius, cmd = f.radius.Update(msg)
	case focusSearchKeywords:
		cmd = f.keywords.update(msg)
	case focusSearchTags:
		switch {
		case key.Matches(msg, keys.Left):
			f.keywords.sel.MoveCursor(-1)
		case key.Matches(msg, keys.Right):
			f.keywords.sel.MoveCursor(1)
		case key.Matches(msg, keys.Remove):
			f.keywords.sel.RemoveAtCursor()
		}
	}
	return cmd, false
}

// request reads and validates the form.
func (f searchForm) request() (SearchRequest, error) {
	r := SearchRequest{
		Mode:     f.mode,
		Name:     strings.TrimSpace(f.name.Value()),
		City:     f.cities.value(),
		Keywords: f.keywords.sel.Values(),
	}
	if s := strings.TrimSpace(f.radius.Value()); s != "" && (f.mode == SearchByLocation || f.mode == SearchByLocationAndKeywords) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return r, &campaign.ValidationError{Fields: []campaign.FieldError{{Field: "radius", Message: "must be a number"}}}
		}
		r.Radius = v
	}
	return r, r.Validate()
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := FormKeyMap(key.Binding{})
	if key.Matches(msg, keys.Cancel) && !m.search.capturesCancel() {
		m.clearStatus()
		return m.switchView(router.Home)
	}

	cmd, submit := m.search.handleKey(msg, keys)
	if !submit {
		return m, cmd
	}

	m.clearStatus()
	m.search.errs = nil
	req, err := m.search.request()
	if err != nil {
		m.search.errs, m.err = explain(err)
		return m, nil
	}
	m.lastSearch = req
	m, switched := m.switchView(router.SearchResults)
	return m, tea.Batch(switched, m.fetchResults(req))
}

// fetchResults starts a browse or search fetch into the results slice.
func (m *Model) fetchResults(req SearchRequest) tea.Cmd {
	var t orchestrator.Token
	m.orch.Update(func(s *orchestrator.State) { t = s.BeginResults(req.Label()) })
	m.resultCursor = 0
	backend := m.backend
	return tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		cs, err := req.Run(ctx, backend)
		return resultsMsg{Token: t, Campaigns: cs, Err: err}
	}))
}

func (m Model) viewSearch() string {
	f := m.search
	var b strings.Builder
	b.WriteString(titleStyle.Render("Search campaigns"))
	b.WriteString("\n\n")

	for _, el := range f.elements() {
		focused := f.focus == el
		switch el {
		case focusMode:
			mode := f.mode.String()
			if focused {
				mode = cursorStyle.Render("‹ ") + mode + cursorStyle.Render(" ›")
			}
			b.WriteString(fieldLabel("Mode", focused) + mode)
		case focusSearchName:
			b.WriteString(fieldLabel("Name", focused) + f.name.View() + fieldError(f.errs["name"]))
		case focusSearchCity:
			b.WriteString(fieldLabel("City", focused) + f.cities.View(focused) + fieldError(f.errs["city"]))
		case focusSearchRadius:
			b.WriteString(fieldLabel("Radius", focused) + f.radius.View() + fieldError(f.errs["radius"]))
		case focusSearchKeywords:
			b.WriteString(fieldLabel("Keywords", focused) + f.keywords.input.View())
		case focusSearchTags:
			b.WriteString(fieldLabel("", focused) + f.keywords.viewTags(focused) + fieldError(f.errs["keywordsNames"]))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
