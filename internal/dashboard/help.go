package dashboard

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"github.com/smileynet/campdesk/internal/router"
)

// HelpBindings returns the help.KeyMap for the given view, providing
// context-aware help bar content. confirming selects the delete
// confirmation bindings on the campaign list.
func HelpBindings(view router.View, confirming bool) help.KeyMap {
	switch view {
	case router.Home:
		return MenuKeyMap()
	case router.MyCampaigns:
		if confirming {
			return ConfirmKeyMap()
		}
		return ListKeyMap()
	case router.AllCampaigns, router.SearchResults:
		return ResultKeyMap()
	case router.Login:
		return loginKeys()
	default:
		return FormKeyMap(key.Binding{})
	}
}
