// Package keywords holds the selected-keyword set behind a campaign form.
package keywords

import (
	"strings"
	"time"
)

// DefaultGuard is how long a fresh selection suppresses removals.
const DefaultGuard = 300 * time.Millisecond

// Clock returns the current time.
type Clock func() time.Time

// Selection is an ordered, duplicate-free keyword set. A keyword added by
// Select cannot be removed until the guard window has passed, so a remove
// queued just before the selection rendered does not undo it.
type Selection struct {
	items  []string
	guard  time.Duration
	now    Clock
	cursor int

	// gen numbers selections; guardGen is the selection holding the
	// window that ends at guardUntil.
	gen        uint64
	guardGen   uint64
	guardUntil time.Time
}

// Option configures a Selection.
type Option func(*Selection)

// WithGuard sets the guard window. Zero disables it.
func WithGuard(d time.Duration) Option {
	return func(s *Selection) { s.guard = d }
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Selection) { s.now = c }
}

// New creates an empty selection.
func New(opts ...Option) *Selection {
	s := &Selection{guard: DefaultGuard, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select appends k unless it is blank or already present. A new entry
// opens the guard window. It reports whether k was added.
func (s *Selection) Select(k string) bool {
	k = strings.TrimSpace(k)
	if k == "" || s.Contains(k) {
		return false
	}
	s.items = append(s.items, k)
	s.gen++
	s.guardGen = s.gen
	s.guardUntil = s.now().Add(s.guard)
	return true
}

// Guarded reports whether a removal would be suppressed right now.
func (s *Selection) Guarded() bool {
	return s.guardGen != 0 && s.now().Before(s.guardUntil)
}

// Remove drops k. While the guard is open the call is discarded, not
// deferred. It reports whether k was removed.
func (s *Selection) Remove(k string) bool {
	if s.Guarded() {
		return false
	}
	k = strings.TrimSpace(k)
	for i, item := range s.items {
		if item == k {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.clampCursor()
			return true
		}
	}
	return false
}

// Contains reports whether k is selected.
func (s *Selection) Contains(k string) bool {
	k = strings.TrimSpace(k)
	for _, item := range s.items {
		if item == k {
			return true
		}
	}
	return false
}

// Len returns the number of selected keywords.
func (s *Selection) Len() int { return len(s.items) }

// Values returns the keywords in insertion order as a fresh slice, ready
// for a request payload. It is never nil.
func (s *Selection) Values() []string {
	return append([]string{}, s.items...)
}

// Set replaces the selection without opening a guard, for seeding an
// edit form.
func (s *Selection) Set(ks []string) {
	s.Reset()
	for _, k := range ks {
		k = strings.TrimSpace(k)
		if k != "" && !s.Contains(k) {
			s.items = append(s.items, k)
		}
	}
}

// Reset empties the selection and releases any guard.
func (s *Selection) Reset() {
	s.items = nil
	s.cursor = 0
	s.guardGen = 0
	s.guardUntil = time.Time{}
}

// Cursor returns the highlighted tag index.
func (s *Selection) Cursor() int { return s.cursor }

// MoveCursor shifts the highlight by delta, clamped to the tags.
func (s *Selection) MoveCursor(delta int) {
	s.cursor += delta
	s.clampCursor()
}

// RemoveAtCursor removes the highlighted tag, subject to the guard.
func (s *Selection) RemoveAtCursor() bool {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return false
	}
	return s.Remove(s.items[s.cursor])
}

func (s *Selection) clampCursor() {
	if s.cursor >= len(s.items) {
		s.cursor = len(s.items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Tags renders each keyword as a removable tag label, marking the one
// under the cursor when focused.
func (s *Selection) Tags(focused bool) []string {
	out := make([]string, len(s.items))
	for i, k := range s.items {
		if focused && i == s.cursor {
			out[i] = "[" + k + " ×]"
		} else {
			out[i] = k + " ×"
		}
	}
	return out
}
