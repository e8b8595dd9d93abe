package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/dashboard"
	"github.com/smileynet/campdesk/internal/orchestrator"
	"github.com/smileynet/campdesk/internal/session"
)

// loader is the part of the orchestrator the overview command uses.
type loader interface {
	Load(ctx context.Context) orchestrator.State
	AuthFailure(err error) bool
}

// expirer forces a logout after the backend refused the session.
type expirer interface {
	Restore(ctx context.Context) (campaign.Profile, error)
	Expire() error
}

// lookupAPI is the public dictionary surface.
type lookupAPI interface {
	Cities(ctx context.Context) ([]campaign.City, error)
	SuggestKeywords(ctx context.Context, query string) ([]string, error)
}

var (
	_ loader    = (*orchestrator.Orchestrator)(nil)
	_ expirer   = (*session.Manager)(nil)
	_ lookupAPI = (*apiclient.Client)(nil)
)

// OverviewCmd prints the balance and owned campaigns.
type OverviewCmd struct{}

// Run executes the overview command.
func (o *OverviewCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return o.run(ctx, os.Stdout, os.Stderr, a.sessions, a.orch)
}

// run prints what loaded. One failed fetch is a warning on errw; both
// failing is an error.
func (o *OverviewCmd) run(ctx context.Context, w, errw io.Writer, s expirer, l loader) error {
	if _, err := s.Restore(ctx); err != nil {
		return fmt.Errorf("overview: %w", err)
	}

	snap := l.Load(ctx)
	if l.AuthFailure(snap.ProfileErr) || l.AuthFailure(snap.OwnedErr) {
		return fmt.Errorf("overview: %w", s.Expire())
	}
	blocking, warning := snap.Surface()
	if blocking != "" {
		return fmt.Errorf("overview: %w", errors.Join(snap.ProfileErr, snap.OwnedErr))
	}
	if warning != "" {
		_, _ = fmt.Fprintf(errw, "warning: %s\n", warning)
	}

	if balance, ok := snap.Balance(); ok {
		_, _ = fmt.Fprintf(w, "Seller:  %s\n", snap.Profile.Username)
		_, _ = fmt.Fprintf(w, "Balance: %s\n\n", dashboard.Money(balance))
	}
	if snap.OwnedErr == nil {
		printCampaigns(w, snap.Owned)
	}
	return nil
}

// SearchCmd browses or searches public campaigns. With no flags it lists
// every campaign.
type SearchCmd struct {
	Name     string   `help:"Exact campaign name." xor:"mode"`
	City     string   `help:"Campaigns targeting this city." xor:"mode"`
	Location string   `help:"City to search around." xor:"mode" placeholder:"CITY"`
	Radius   float64  `help:"Search radius in km around --location."`
	Keyword  []string `help:"Keyword to match; repeat for more. Requires --location." placeholder:"KEYWORD"`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout, a.client)
}

// request maps the flags onto a search.
func (c *SearchCmd) request() dashboard.SearchRequest {
	r := dashboard.SearchRequest{
		Name:     strings.TrimSpace(c.Name),
		City:     strings.TrimSpace(c.City),
		Radius:   c.Radius,
		Keywords: c.Keyword,
	}
	switch {
	case r.Name != "":
		r.Mode = dashboard.SearchByName
	case r.City != "":
		r.Mode = dashboard.SearchByCity
	case strings.TrimSpace(c.Location) != "":
		r.City = strings.TrimSpace(c.Location)
		r.Mode = dashboard.SearchByLocation
		if len(c.Keyword) > 0 {
			r.Mode = dashboard.SearchByLocationAndKeywords
		}
	}
	return r
}

func (c *SearchCmd) run(ctx context.Context, w io.Writer, api dashboard.Searcher) error {
	req := c.request()
	if req.Mode == dashboard.SearchAll && (c.Radius != 0 || len(c.Keyword) > 0) {
		return fmt.Errorf("search: --radius and --keyword require --location")
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	cs, err := req.Run(ctx, api)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	_, _ = fmt.Fprintf(w, "%s\n\n", req.Label())
	printCampaigns(w, cs)
	return nil
}

// CitiesCmd lists the backend's city dictionary.
type CitiesCmd struct{}

// Run executes the cities command.
func (c *CitiesCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout, a.client)
}

func (c *CitiesCmd) run(ctx context.Context, w io.Writer, api lookupAPI) error {
	cities, err := api.Cities(ctx)
	if err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	for _, city := range cities {
		_, _ = fmt.Fprintln(w, city.Name)
	}
	return nil
}

// SuggestCmd prints keyword completions.
type SuggestCmd struct {
	Query string `arg:"" help:"Keyword prefix."`
}

// Run executes the suggest command.
func (c *SuggestCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout, a.client)
}

func (c *SuggestCmd) run(ctx context.Context, w io.Writer, api lookupAPI) error {
	q := strings.TrimSpace(c.Query)
	if utf8.RuneCountInString(q) < apiclient.MinSuggestQuery {
		return fmt.Errorf("suggest: query must be at least %d characters", apiclient.MinSuggestQuery)
	}
	words, err := api.SuggestKeywords(ctx, q)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	for _, word := range words {
		_, _ = fmt.Fprintln(w, word)
	}
	return nil
}

// printCampaigns writes cs as an aligned table followed by a count.
func printCampaigns(w io.Writer, cs []campaign.Campaign) {
	if len(cs) == 0 {
		_, _ = fmt.Fprintln(w, "No campaigns.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCITY\tRADIUS\tPRICE\tFUND\tKEYWORDS")
	for _, c := range cs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, statusWord(c.Status), c.City, c.RadiusLabel(),
			dashboard.Money(c.Price), dashboard.Money(c.Fund), strings.Join(c.Keywords, ", "))
	}
	_ = tw.Flush()
	noun := "campaigns"
	if len(cs) == 1 {
		noun = "campaign"
	}
	_, _ = fmt.Fprintf(w, "\n%d %s\n", len(cs), noun)
}

func statusWord(active bool) string {
	if active {
		return "active"
	}
	return "paused"
}
