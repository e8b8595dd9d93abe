package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/router"
)

// editorFocus is the focused element of the campaign form.
type editorFocus int

const (
	focusName editorFocus = iota
	focusKeywords
	focusTags
	focusPrice
	focusFund
	focusCity
	focusRadius
	focusActive
	editorFocusCount
)

// campaignForm backs both the create and edit views.
type campaignForm struct {
	editing  int64
	name     textinput.Model
	price    textinput.Model
	fund     textinput.Model
	radius   textinput.Model
	keywords keywordPicker
	cities   cityPicker
	active   bool
	focus    editorFocus
	errs     map[string]string
}

func newCampaignForm(b Backend, o options) campaignForm {
	f := campaignForm{
		name:     newField("name", "Name", "spring sale").input,
		price:    newField("price", "Bid", fmt.Sprintf("min %.2f", campaign.MinBid)).input,
		fund:     newField("fund", "Fund", "0.00").input,
		radius:   newField("radius", "Radius", "km, optional").input,
		keywords: newKeywordPicker(b, o),
		active:   true,
	}
	return f
}

func (f *campaignForm) reset() {
	f.editing = 0
	f.name.Reset()
	f.price.Reset()
	f.fund.Reset()
	f.radius.Reset()
	f.keywords.reset()
	f.cities.choose("")
	f.active = true
	f.errs = nil
	f.setFocus(focusName)
}

// load seeds the form from a confirmed campaign for editing.
func (f *campaignForm) load(c campaign.Campaign, cities []campaign.City) {
	f.reset()
	f.editing = c.ID
	d := campaign.DraftFrom(c)
	f.name.SetValue(d.Name)
	f.price.SetValue(Money(d.BidPrice))
	f.fund.SetValue(Money(d.Fund))
	if d.Radius != nil {
		f.radius.SetValue(strconv.Itoa(*d.Radius))
	}
	f.keywords.sel.Set(d.Keywords)
	f.cities.setCities(cities)
	f.cities.choose(d.City)
	f.active = d.Active
}

func (f *campaignForm) focusFirst() tea.Cmd { return f.setFocus(focusName) }

func (f *campaignForm) setFocus(to editorFocus) tea.Cmd {
	to = (to + editorFocusCount) % editorFocusCount
	f.name.Blur()
	f.price.Blur()
	f.fund.Blur()
	f.radius.Blur()
	f.keywords.blur()
	f.focus = to
	switch to {
	case focusName:
		return f.name.Focus()
	case focusKeywords:
		return f.keywords.focus()
	case focusPrice:
		return f.price.Focus()
	case focusFund:
		return f.fund.Focus()
	case focusRadius:
		return f.radius.Focus()
	}
	return nil
}

// capturesCancel reports whether esc belongs to the suggestion list
// rather than the form.
func (f campaignForm) capturesCancel() bool {
	return f.focus == focusKeywords && f.keywords.suggesting()
}

// handleKey processes a key. submit is true when the form should be sent.
func (f *campaignForm) handleKey(msg tea.KeyMsg, keys formKeys) (cmd tea.Cmd, submit bool) {
	switch {
	case key.Matches(msg, keys.Next):
		return f.setFocus(f.focus + 1), false
	case key.Matches(msg, keys.Prev):
		return f.setFocus(f.focus - 1), false
	}
	if f.capturesCancel() {
		return f.keywords.update(msg), false
	}

	switch {
	case msg.String() == "ctrl+s":
		return nil, true
	case key.Matches(msg, keys.Submit):
		if f.focus == focusKeywords && f.keywords.addTyped() {
			return nil, false
		}
		return nil, true
	}

	switch f.focus {
	case focusName:
		f.name, cmd = f.name.Update(msg)
	case focusKeywords:
		cmd = f.keywords.update(msg)
	case focusTags:
		switch {
		case key.Matches(msg, keys.Left):
			f.keywords.sel.MoveCursor(-1)
		case key.Matches(msg, keys.Right):
			f.keywords.sel.MoveCursor(1)
		case key.Matches(msg, keys.Remove):
			f.keywords.sel.RemoveAtCursor()
		}
	case focusPrice:
		f.price, cmd = f.price.Update(msg)
	case focusFund:
		f.fund, cmd = f.fund.Update(msg)
	case focusCity:
		switch {
		case key.Matches(msg, keys.Left):
			f.cities.move(-1)
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Space):
			f.cities.move(1)
		}
	case focusRadius:
		f.radius, cmd = f.radius.Update(msg)
	case focusActive:
		if key.Matches(msg, keys.Space) || key.Matches(msg, keys.Left) || key.Matches(msg, keys.Right) {
			f.active = !f.active
		}
	}
	return cmd, false
}

// draft reads the form. Unparseable numbers are reported as field errors.
func (f campaignForm) draft() (campaign.Draft, error) {
	d := campaign.Draft{
		Name:     f.name.Value(),
		Keywords: f.keywords.sel.Values(),
		Active:   f.active,
		City:     f.cities.value(),
	}
	var fields []campaign.FieldError
	var err error
	if d.BidPrice, err = parseAmount("price", f.price.Value()); err != nil {
		fields = append(fields, campaign.FieldError{Field: "price", Message: "must be a number"})
	}
	if d.Fund, err = parseAmount("fund", f.fund.Value()); err != nil {
		fields = append(fields, campaign.FieldError{Field: "fund", Message: "must be a number"})
	}
	if s := strings.TrimSpace(f.radius.Value()); s != "" {
		r, err := strconv.Atoi(s)
		if err != nil {
			fields = append(fields, campaign.FieldError{Field: "radius", Message: "must be a whole number of km"})
		} else {
			d.Radius = &r
		}
	}
	if len(fields) > 0 {
		return d, &campaign.ValidationError{Fields: fields}
	}
	return d, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := FormKeyMap(key.Binding{})
	if key.Matches(msg, keys.Cancel) && !m.form.capturesCancel() {
		m.clearStatus()
		if m.form.editing != 0 {
			return m.switchView(router.MyCampaigns)
		}
		return m.switchView(router.Home)
	}

	cmd, submit := m.form.handleKey(msg, keys)
	if !submit || m.busy {
		return m, cmd
	}
	return m.submitCampaign()
}

func (m Model) submitCampaign() (Model, tea.Cmd) {
	m.clearStatus()
	m.form.errs = nil

	d, err := m.form.draft()
	if err == nil {
		// Only a new campaign is checked against the known balance.
		var balance *float64
		if m.form.editing == 0 {
			snap := m.orch.Snapshot()
			if b, ok := snap.Balance(); ok {
				balance = &b
			}
		}
		err = campaign.Validate(d, balance)
	}
	if err != nil {
		m.form.errs, m.err = explain(err)
		return m, nil
	}

	m.busy = true
	payload := d.Payload()
	backend, id, epoch := m.backend, m.form.editing, m.epoch
	return m, tea.Batch(m.spinner.Tick, withTimeout(func(ctx context.Context) tea.Msg {
		if id == 0 {
			_, err := backend.CreateCampaign(ctx, payload)
			return mutatedMsg{Epoch: epoch, Op: mutCreate, Err: err}
		}
		_, err := backend.EditCampaign(ctx, id, payload)
		return mutatedMsg{Epoch: epoch, Op: mutEdit, Err: err}
	}))
}

func (m Model) viewEditor() string {
	f := m.form
	var b strings.Builder
	if f.editing != 0 {
		b.WriteString(titleStyle.Render("Edit campaign"))
	} else {
		b.WriteString(titleStyle.Render("New campaign"))
		snap := m.orch.Snapshot()
		if bal, ok := snap.Balance(); ok {
			b.WriteString(dimStyle.Render("  available " + Money(bal)))
		}
	}
	b.WriteString("\n\n")

	row := func(label string, focus editorFocus, body, errKey string) {
		b.WriteString(fieldLabel(label, f.focus == focus))
		b.WriteString(body)
		b.WriteString(fieldError(f.errs[errKey]))
		b.WriteString("\n")
	}
	row("Name", focusName, f.name.View(), "name")
	row("Keywords", focusKeywords, f.keywords.input.View(), "")
	row("", focusTags, f.keywords.viewTags(f.focus == focusTags), "keywordsNames")
	row("Bid", focusPrice, f.price.View(), "price")
	row("Fund", focusFund, f.fund.View(), "fund")
	row("City", focusCity, f.cities.View(f.focus == focusCity), "city")
	row("Radius", focusRadius, f.radius.View(), "radius")
	row("Status", focusActive, StatusBadge(f.active), "status")
	return strings.TrimRight(b.String(), "\n")
}
