package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smileynet/campdesk/internal/campaign"
)

// MinSuggestQuery is the shortest trimmed query sent to the suggest
// endpoint.
const MinSuggestQuery = 2

// OwnedFilter narrows the signed-in seller's campaign list. City wins
// when both are set.
type OwnedFilter struct {
	City string
	Name string
}

// LocationQuery is a proximity search around a named city.
type LocationQuery struct {
	City     string
	Radius   float64
	Keywords []string
}

// Register creates a seller account.
func (c *Client) Register(ctx context.Context, r campaign.Registration) (campaign.Profile, error) {
	var p campaign.Profile
	err := c.call(ctx, Call{Method: http.MethodPost, Path: "/home/register", Body: r}, &p)
	return p, err
}

// Me fetches the signed-in seller's profile.
func (c *Client) Me(ctx context.Context) (campaign.Profile, error) {
	var p campaign.Profile
	err := c.call(ctx, Call{Path: "/sellers/me", RequiresAuth: true}, &p)
	return p, err
}

// Verify fetches the profile using creds rather than the configured
// source. Login and session restore go through here.
func (c *Client) Verify(ctx context.Context, creds Credentials) (campaign.Profile, error) {
	return c.WithCredentials(creds).Me(ctx)
}

// AddFunds credits amount to the seller's balance and returns the updated
// profile.
func (c *Client) AddFunds(ctx context.Context, amount float64) (campaign.Profile, error) {
	var p campaign.Profile
	err := c.call(ctx, Call{
		Method:       http.MethodPatch,
		Path:         "/sellers/me/add-funds/" + strconv.FormatFloat(amount, 'f', 2, 64),
		RequiresAuth: true,
	}, &p)
	return p, err
}

// ListCampaigns returns the seller's own campaigns. An empty list comes
// back as 204 and yields nil.
func (c *Client) ListCampaigns(ctx context.Context, f OwnedFilter) ([]campaign.Campaign, error) {
	q := url.Values{}
	switch {
	case strings.TrimSpace(f.City) != "":
		q.Set("city", strings.TrimSpace(f.City))
	case strings.TrimSpace(f.Name) != "":
		q.Set("name", strings.TrimSpace(f.Name))
	}
	var out []campaign.Campaign
	err := c.call(ctx, Call{Path: "/campaigns", Query: q, RequiresAuth: true}, &out)
	return out, err
}

// CreateCampaign submits a new campaign.
func (c *Client) CreateCampaign(ctx context.Context, p campaign.Payload) (campaign.Campaign, error) {
	var out campaign.Campaign
	err := c.call(ctx, Call{Method: http.MethodPost, Path: "/campaigns", Body: p, RequiresAuth: true}, &out)
	return out, err
}

// GetCampaign fetches one of the seller's campaigns.
func (c *Client) GetCampaign(ctx context.Context, id int64) (campaign.Campaign, error) {
	var out campaign.Campaign
	err := c.call(ctx, Call{Path: campaignPath(id), RequiresAuth: true}, &out)
	return out, err
}

// EditCampaign replaces the editable fields of a campaign.
func (c *Client) EditCampaign(ctx context.Context, id int64, p campaign.Payload) (campaign.Campaign, error) {
	var out campaign.Campaign
	err := c.call(ctx, Call{Method: http.MethodPatch, Path: campaignPath(id), Body: p, RequiresAuth: true}, &out)
	return out, err
}

// DeleteCampaign removes a campaign.
func (c *Client) DeleteCampaign(ctx context.Context, id int64) error {
	return c.call(ctx, Call{Method: http.MethodDelete, Path: campaignPath(id), RequiresAuth: true}, nil)
}

// SetStatus switches a campaign on or off.
func (c *Client) SetStatus(ctx context.Context, id int64, active bool) (campaign.Campaign, error) {
	var out campaign.Campaign
	err := c.call(ctx, Call{
		Method:       http.MethodPatch,
		Path:         campaignPath(id) + "/status",
		Body:         map[string]bool{"status": active},
		RequiresAuth: true,
	}, &out)
	return out, err
}

// AllCampaigns lists every campaign on the platform.
func (c *Client) AllCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	var out []campaign.Campaign
	err := c.call(ctx, Call{Path: "/campaigns/all"}, &out)
	return out, err
}

// CampaignByName looks up a campaign by exact name. A 404 is an empty
// result.
func (c *Client) CampaignByName(ctx context.Context, name string) ([]campaign.Campaign, error) {
	var out campaign.Campaign
	res, err := c.Do(ctx, Call{Path: "/campaigns/all/by-name/" + url.PathEscape(strings.TrimSpace(name))})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if res.NoContent {
		return nil, nil
	}
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return []campaign.Campaign{out}, nil
}

// CampaignsByCity lists campaigns targeting city.
func (c *Client) CampaignsByCity(ctx context.Context, city string) ([]campaign.Campaign, error) {
	var out []campaign.Campaign
	err := c.call(ctx, Call{Path: "/campaigns/all/by-city/" + url.PathEscape(strings.TrimSpace(city))}, &out)
	return out, err
}

// SearchByLocation finds active campaigns within q.Radius of q.City.
// q.Keywords is ignored.
func (c *Client) SearchByLocation(ctx context.Context, q LocationQuery) ([]campaign.Campaign, error) {
	var out []campaign.Campaign
	err := c.call(ctx, Call{Path: "/campaigns/search-by-location", Query: locationValues(q)}, &out)
	return out, err
}

// SearchByLocationAndKeywords narrows a location search to campaigns
// carrying any of q.Keywords. Each keyword is sent as its own parameter.
func (c *Client) SearchByLocationAndKeywords(ctx context.Context, q LocationQuery) ([]campaign.Campaign, error) {
	v := locationValues(q)
	for _, k := range q.Keywords {
		v.Add("keywords", k)
	}
	var out []campaign.Campaign
	err := c.call(ctx, Call{Path: "/campaigns/search-by-location-and-keywords", Query: v}, &out)
	return out, err
}

// Cities returns the backend's city dictionary.
func (c *Client) Cities(ctx context.Context) ([]campaign.City, error) {
	var out []campaign.City
	err := c.call(ctx, Call{Path: "/cities"}, &out)
	return out, err
}

// SuggestKeywords returns keyword completions for query. Queries shorter
// than MinSuggestQuery runes after trimming return nil without a request.
func (c *Client) SuggestKeywords(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSuggestQuery {
		return nil, nil
	}
	var out []string
	err := c.call(ctx, Call{Path: "/keywords/suggest", Query: url.Values{"q": {query}}}, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, call Call, out any) error {
	res, err := c.Do(ctx, call)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func campaignPath(id int64) string {
	return "/campaigns/" + strconv.FormatInt(id, 10)
}

func locationValues(q LocationQuery) url.Values {
	return url.Values{
		"searchCityName": {strings.TrimSpace(q.City)},
		"searchRadius":   {strconv.FormatFloat(q.Radius, 'f', -1, 64)},
	}
}
