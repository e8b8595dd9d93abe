package typeahead

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// DefaultHideDelay is how long suggestions stay up after a selection.
	DefaultHideDelay = 100 * time.Millisecond

	fetchTimeout = 5 * time.Second
)

var lastID int64

func nextID() int { return int(atomic.AddInt64(&lastID, 1)) }

// Suggester fetches keyword completions.
type Suggester interface {
	SuggestKeywords(ctx context.Context, query string) ([]string, error)
}

// SuggestionsMsg carries a fetch result back to the model that issued it.
type SuggestionsMsg struct {
	ID int
	Response
}

type hideMsg struct {
	id    int
	token uint64
}

// KeyMap holds the bindings the model handles while suggestions show.
type KeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Accept  key.Binding
	Dismiss key.Binding
	Leave   key.Binding
}

// DefaultKeyMap returns the standard suggestion bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:    key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next suggestion")),
		Prev:    key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "prev suggestion")),
		Accept:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add keyword")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Leave:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "leave field")),
	}
}

var (
	suggestionStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})
	activeSuggestionStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	pendingStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
)

// Model is a text input with a suggestion list beneath it.
type Model struct {
	id        int
	input     textinput.Model
	widget    *Widget
	suggester Suggester
	hideDelay time.Duration
	keys      KeyMap
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithHideDelay sets how long suggestions linger after a selection.
func WithHideDelay(d time.Duration) ModelOption {
	return func(m *Model) { m.hideDelay = d }
}

// WithWidgetOptions passes options through to the underlying Widget.
func WithWidgetOptions(opts ...WidgetOption) ModelOption {
	return func(m *Model) {
		for _, opt := range opts {
			opt(m.widget)
		}
	}
}

// WithPlaceholder sets the input placeholder.
func WithPlaceholder(p string) ModelOption {
	return func(m *Model) { m.input.Placeholder = p }
}

// NewModel creates a model that fetches through s and calls onSelect
// synchronously for every picked suggestion.
func NewModel(s Suggester, onSelect func(string), opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 64

	m := Model{
		id:        nextID(),
		input:     ti,
		widget:    NewWidget(onSelect),
		suggester: s,
		hideDelay: DefaultHideDelay,
		keys:      DefaultKeyMap(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// ID identifies the model's messages.
func (m Model) ID() int { return m.id }

// Widget exposes the underlying state machine.
func (m Model) Widget() *Widget { return m.widget }

// Value returns the current input text.
func (m Model) Value() string { return m.input.Value() }

// Visible reports whether suggestions are on screen. Enter is only
// consumed by the model while this is true.
func (m Model) Visible() bool { return m.widget.Visible() }

// Focused reports whether the input has focus.
func (m Model) Focused() bool { return m.input.Focused() }

// Focus gives the input keyboard focus.
func (m *Model) Focus() tea.Cmd { return m.input.Focus() }

// Blur removes focus and hides suggestions.
func (m *Model) Blur() {
	m.input.Blur()
	m.widget.Blur()
}

// Reset clears the input and suggestions.
func (m *Model) Reset() {
	m.input.SetValue("")
	m.widget.Reset()
}

// KeyMap returns the suggestion bindings for help rendering.
func (m Model) KeyMap() KeyMap { return m.keys }

// Update handles fetch results, hide timers, and keys while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SuggestionsMsg:
		if msg.ID == m.id {
			m.widget.Apply(msg.Response)
		}
		return m, nil

	case hideMsg:
		if msg.id == m.id && m.widget.Hide(msg.token) {
			m.input.SetValue("")
		}
		return m, nil

	case tea.KeyMsg:
		if !m.input.Focused() {
			return m, nil
		}
		if m.widget.State() == Showing {
			switch {
			case key.Matches(msg, m.keys.Next):
				m.widget.Next()
				return m, nil
			case key.Matches(msg, m.keys.Prev):
				m.widget.Prev()
				return m, nil
			case key.Matches(msg, m.keys.Accept):
				return m, m.accept()
			}
		}
		switch {
		case key.Matches(msg, m.keys.Leave):
			m.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Dismiss):
			m.widget.Blur()
			return m, nil
		}
		return m.edit(msg)
	}
	return m, nil
}

func (m Model) edit(msg tea.KeyMsg) (Model, tea.Cmd) {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	req, ok := m.widget.Input(m.input.Value())
	if !ok {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.fetch(req))
}

// accept hands the highlighted suggestion to onSelect and schedules the
// list to hide.
func (m Model) accept() tea.Cmd {
	token, ok := m.widget.SelectCurrent()
	if !ok {
		return nil
	}
	id := m.id
	return tea.Tick(m.hideDelay, func(time.Time) tea.Msg { return hideMsg{id: id, token: token} })
}

func (m Model) fetch(req Request) tea.Cmd {
	s, id := m.suggester, m.id
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		got, err := s.SuggestKeywords(ctx, req.Query)
		return SuggestionsMsg{ID: id, Response: Response{
			Seq:         req.Seq,
			Query:       req.Query,
			Suggestions: got,
			Err:         err,
		}}
	}
}

// View renders the input and, when visible, the suggestion list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())

	switch {
	case m.widget.State() == Fetching:
		b.WriteString("\n" + pendingStyle.Render("…"))
	case m.widget.Visible():
		for i, s := range m.widget.Suggestions() {
			b.WriteString("\n")
			if i == m.widget.Cursor() {
				b.WriteString(activeSuggestionStyle.Render("▸ " + s))
			} else {
				b.WriteString(suggestionStyle.Render(s))
			}
		}
	}
	return b.String()
}
