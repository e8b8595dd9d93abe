// Package dashboard implements the interactive campaign dashboard. One
// root model routes between the sign-in forms, the seller's home and
// campaign views, browse and search results, and the add-funds form.
package dashboard

import (
	"context"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/session"
	"github.com/smileynet/campdesk/internal/typeahead"
)

// --- Consumer-side interfaces ---

// Backend is every API operation the dashboard issues.
type Backend interface {
	orchestrator.Backend
	typeahead.Suggester

	Register(ctx context.Context, r campaign.Registration) (campaign.Profile, error)
	AddFunds(ctx context.Context, amount float64) (campaign.Profile, error)
	CreateCampaign(ctx context.Context, p campaign.Payload) (campaign.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (campaign.Campaign, error)
	EditCampaign(ctx context.Context, id int64, p campaign.Payload) (campaign.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error

	Searcher
}

// Searcher is the public browse and search surface.
type Searcher interface {
	AllCampaigns(ctx context.Context) ([]campaign.Campaign, error)
	CampaignByName(ctx context.Context, name string) ([]campaign.Campaign, error)
	CampaignsByCity(ctx context.Context, city string) ([]campaign.Campaign, error)
	SearchByLocation(ctx context.Context, q apiclient.LocationQuery) ([]campaign.Campaign, error)
	SearchByLocationAndKeywords(ctx context.Context, q apiclient.LocationQuery) ([]campaign.Campaign, error)
}

// Sessions signs the seller in and out.
type Sessions interface {
	Login(ctx context.Context, identity, secret string) (campaign.Profile, error)
	Restore(ctx context.Context) (campaign.Profile, error)
	Logout() error
	Expire() error
	Identity() string
}

var (
	_ Backend  = (*apiclient.Client)(nil)
	_ Sessions = (*session.Manager)(nil)
)

// --- tea.Msg types ---

// restoredMsg carries the result of re-verifying a stored session.
type restoredMsg struct {
	Profile campaign.Profile
	Err     error
}

// signedInMsg carries the result of a login attempt.
type signedInMsg struct {
	Identity string
	Profile  campaign.Profile
	Err      error
}

// registeredMsg carries the result of a registration.
type registeredMsg struct {
	Profile campaign.Profile
	Err     error
}

// loadedMsg carries the state after a profile and owned-campaigns load.
type loadedMsg struct {
	Epoch int
	State orchestrator.State
}

// resultsMsg carries browse or search output.
type resultsMsg struct {
	Token     orchestrator.Token
	Campaigns []campaign.Campaign
	Err       error
}

// citiesMsg carries the city dictionary.
type citiesMsg struct {
	Epoch  int
	Cities []campaign.City
	Err    error
}

// toggledMsg reports the outcome of a status PATCH. On success State
// holds the refreshed dashboard.
type toggledMsg struct {
	Epoch int
	ID    int64
	Err   error
	State orchestrator.State
}

// detailMsg carries a campaign fetched for editing.
type detailMsg struct {
	Epoch    int
	ID       int64
	Campaign campaign.Campaign
	Err      error
}

// mutation names a write that is followed by a refresh.
type mutation int

const (
	mutCreate mutation = iota
	mutEdit
	mutDelete
	mutAddFunds
)

func (m mutation) done() string {
	switch m {
	case mutCreate:
		return "campaign created"
	case mutEdit:
		return "campaign updated"
	case mutDelete:
		return "campaign deleted"
	case mutAddFunds:
		return "funds added"
	default:
		return "done"
	}
}

// mutatedMsg reports a create, edit, delete, or add-funds result.
type mutatedMsg struct {
	Epoch int
	Op    mutation
	Err   error
}
