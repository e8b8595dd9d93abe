package dashboard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/keywords"
	"github.com/smileynet/campdesk/internal/typeahead"
)

// keywordPicker pairs a suggestion input with the form's selected
// keywords. Picked suggestions land in the selection synchronously.
type keywordPicker struct {
	sel   *keywords.Selection
	input typeahead.Model
}

func newKeywordPicker(s typeahead.Suggester, o options) keywordPicker {
	sel := keywords.New(keywords.WithGuard(o.keywordGuard), keywords.WithClock(o.clock))
	input := typeahead.NewModel(s, func(k string) { sel.Select(k) },
		typeahead.WithHideDelay(o.hideDelay),
		typeahead.WithWidgetOptions(typeahead.WithMinLength(o.minSuggest)),
		typeahead.WithPlaceholder("type to search keywords"),
	)
	return keywordPicker{sel: sel, input: input}
}

// suggesting reports whether the suggestion list owns navigation keys.
func (p keywordPicker) suggesting() bool {
	return p.input.Widget().State() == typeahead.Showing
}

// update routes msg to the suggestion input. It also receives the
// input's own fetch results and hide timers.
func (p *keywordPicker) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// addTyped selects the typed text as a keyword when no suggestion is
// showing. It reports whether anything was added.
func (p *keywordPicker) addTyped() bool {
	v := strings.TrimSpace(p.input.Value())
	if v == "" || !p.sel.Select(v) {
		return false
	}
	p.input.Reset()
	return true
}

func (p *keywordPicker) focus() tea.Cmd { return p.input.Focus() }

func (p *keywordPicker) blur() { p.input.Blur() }

func (p *keywordPicker) reset() {
	p.sel.Reset()
	p.input.Reset()
}

func (p keywordPicker) viewTags(focused bool) string {
	tags := p.sel.Tags(focused)
	if len(tags) == 0 {
		return dimStyle.Render("none selected")
	}
	for i, t := range tags {
		if focused && i == p.sel.Cursor() {
			tags[i] = cursorStyle.Render(t)
		}
	}
	out := strings.Join(tags, "  ")
	if p.sel.Guarded() {
		out += " " + dimStyle.Render("(adding…)")
	}
	return out
}
