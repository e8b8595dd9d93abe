// Package typeahead implements keyword suggestions as you type. Widget is
// the state machine; Model adapts it to Bubble Tea.
package typeahead

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the shortest trimmed query that triggers a fetch.
const DefaultMinLength = 2

// State is the widget's position in its lifecycle.
type State int

const (
	Idle      State = iota // No suggestions shown, nothing in flight.
	Fetching               // A request for the current query is outstanding.
	Showing                // Suggestions for the current query are visible.
	Selecting              // A suggestion was picked; waiting to hide.
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Showing:
		return "showing"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// Request is a fetch the caller must perform. Seq identifies it when the
// answer comes back.
type Request struct {
	Seq   uint64
	Query string
}

// Response is the answer to a Request.
type Response struct {
	Seq         uint64
	Query       string
	Suggestions []string
	Err         error
}

// Widget tracks one suggestion input. Only the response to the most
// recently issued request can change what is shown.
type Widget struct {
	minLen      int
	onSelect    func(string)
	state       State
	query       string
	suggestions []string
	cursor      int

	// seq is the newest issued request token. Bumping it orphans any
	// response still in flight.
	seq uint64
	// activity bumps on every input, selection, or blur; hide tokens
	// compare against it.
	activity uint64
}

// WidgetOption configures a Widget.
type WidgetOption func(*Widget)

// WithMinLength sets the shortest query that triggers a fetch.
func WithMinLength(n int) WidgetOption {
	return func(w *Widget) {
		if n > 0 {
			w.minLen = n
		}
	}
}

// NewWidget creates a widget. onSelect is called synchronously with the
// picked suggestion and may be nil.
func NewWidget(onSelect func(string), opts ...WidgetOption) *Widget {
	w := &Widget{minLen: DefaultMinLength, onSelect: onSelect}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Widget) State() State { return w.state }

// Query returns the raw input text.
func (w *Widget) Query() string { return w.query }

// Cursor returns the highlighted suggestion index.
func (w *Widget) Cursor() int { return w.cursor }

// Visible reports whether suggestions are on screen.
func (w *Widget) Visible() bool {
	return (w.state == Showing || w.state == Selecting) && len(w.suggestions) > 0
}

// Suggestions returns a copy of the visible suggestions.
func (w *Widget) Suggestions() []string {
	if !w.Visible() {
		return nil
	}
	return append([]string(nil), w.suggestions...)
}

// Input records new input text. It returns a request to perform when the
// trimmed query is long enough; otherwise suggestions are cleared.
func (w *Widget) Input(q string) (Request, bool) {
	w.activity++
	w.seq++
	w.query = q
	w.cursor = 0

	trimmed := strings.TrimSpace(q)
	if utf8.RuneCountInString(trimmed) < w.minLen {
		w.suggestions = nil
		w.state = Idle
		return Request{}, false
	}
	w.state = Fetching
	return Request{Seq: w.seq, Query: trimmed}, true
}

// Apply installs a response. It returns false and changes nothing when
// the response is not for the latest request.
func (w *Widget) Apply(r Response) bool {
	if r.Seq != w.seq || w.state != Fetching {
		return false
	}
	w.cursor = 0
	if r.Err != nil || len(r.Suggestions) == 0 {
		w.suggestions = nil
		w.state = Idle
		return true
	}
	w.suggestions = append([]string(nil), r.Suggestions...)
	w.state = Showing
	return true
}

// Next moves the highlight down, wrapping.
func (w *Widget) Next() {
	if n := len(w.suggestions); w.state == Showing && n > 0 {
		w.cursor = (w.cursor + 1) % n
	}
}

// Prev moves the highlight up, wrapping.
func (w *Widget) Prev() {
	if n := len(w.suggestions); w.state == Showing && n > 0 {
		w.cursor = (w.cursor - 1 + n) % n
	}
}

// Select picks suggestion i. The callback runs before Select returns.
// The returned token must be passed to Hide once the hide delay elapses.
// Only a Showing widget accepts a selection, so a second activation
// before the hide is ignored.
func (w *Widget) Select(i int) (token uint64, ok bool) {
	if w.state != Showing || i < 0 || i >= len(w.suggestions) {
		return 0, false
	}
	picked := w.suggestions[i]
	if w.onSelect != nil {
		w.onSelect(picked)
	}
	w.state = Selecting
	w.seq++
	w.activity++
	return w.activity, true
}

// SelectCurrent picks the highlighted suggestion.
func (w *Widget) SelectCurrent() (uint64, bool) {
	return w.Select(w.cursor)
}

// Hide finishes a selection: the input clears and suggestions disappear.
// It does nothing if anything happened since the token was issued.
func (w *Widget) Hide(token uint64) bool {
	if token != w.activity || w.state != Selecting {
		return false
	}
	w.query = ""
	w.suggestions = nil
	w.cursor = 0
	w.state = Idle
	return true
}

// Blur hides suggestions without selecting. The input text is kept.
func (w *Widget) Blur() {
	w.activity++
	w.seq++
	w.suggestions = nil
	w.cursor = 0
	w.state = Idle
}

// Reset returns the widget to an empty Idle state.
func (w *Widget) Reset() {
	w.Blur()
	w.query = ""
}
