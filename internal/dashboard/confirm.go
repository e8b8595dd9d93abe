package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/campdesk/internal/campaign"
)

// confirmState holds the campaign awaiting a delete confirmation.
type confirmState struct {
	id       int64
	name     string
	fund     float64
	keywords []string
}

func newConfirm(c campaign.Campaign) *confirmState {
	return &confirmState{
		id:       c.ID,
		name:     c.Name,
		fund:     c.Fund,
		keywords: append([]string(nil), c.Keywords...),
	}
}

// View renders the confirmation prompt.
func (cs confirmState) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Delete campaign %q?\n", cs.name)
	fmt.Fprintf(&b, "\n  Fund:     %s", Money(cs.fund))
	if len(cs.keywords) > 0 {
		fmt.Fprintf(&b, "\n  Keywords: %s", strings.Join(cs.keywords, ", "))
	}
	b.WriteString("\n\n  This cannot be undone.")

	b.WriteString("\n\n  [Enter] Confirm   [Esc] Cancel")
	return b.String()
}
