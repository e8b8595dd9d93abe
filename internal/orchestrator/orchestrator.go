// Package orchestrator loads and refreshes the dashboard's data: the
// seller profile, the seller's own campaigns, browse/search results, and
// the city list.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
)

// Backend is the slice of the API client the orchestrator drives.
// Defined here (the consumer) so tests can stub it.
type Backend interface {
	Me(ctx context.Context) (campaign.Profile, error)
	ListCampaigns(ctx context.Context, f apiclient.OwnedFilter) ([]campaign.Campaign, error)
	Cities(ctx context.Context) ([]campaign.City, error)
	SetStatus(ctx context.Context, id int64, active bool) (campaign.Campaign, error)
}

var _ Backend = (*apiclient.Client)(nil)

// ErrToggleBusy is returned by Toggle for a campaign that is not loaded
// or already has a toggle in flight.
var ErrToggleBusy = errors.New("orchestrator: campaign unknown or already toggling")

// Orchestrator owns the dashboard State. All methods are safe for
// concurrent use.
type Orchestrator struct {
	backend Backend
	logger  *zap.Logger

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the event logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator over b.
func New(b Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{backend: b, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Update runs fn with exclusive access to the state.
func (o *Orchestrator) Update(fn func(*State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.state)
}

// Load fetches the profile and owned campaigns concurrently. Each fetch
// records its own result; neither cancels nor waits on the other's
// outcome. It returns the state once both have landed.
func (o *Orchestrator) Load(ctx context.Context) State {
	var t Token
	o.Update(func(s *State) { t = s.BeginLoad() })

	var g errgroup.Group
	g.Go(func() error {
		p, err := o.backend.Me(ctx)
		o.logResult("profile", err)
		o.Update(func(s *State) { s.ApplyProfile(t, p, err) })
		return nil
	})
	g.Go(func() error {
		cs, err := o.backend.ListCampaigns(ctx, apiclient.OwnedFilter{})
		o.logResult("owned campaigns", err)
		o.Update(func(s *State) { s.ApplyOwned(t, cs, err) })
		return nil
	})
	_ = g.Wait()

	return o.Snapshot()
}

// Refresh reloads the profile and owned campaigns after a mutation so the
// balance and list come from the server, never from local arithmetic.
func (o *Orchestrator) Refresh(ctx context.Context) State {
	return o.Load(ctx)
}

// LoadCities fetches the city list once. Later calls reuse the cache.
func (o *Orchestrator) LoadCities(ctx context.Context) ([]campaign.City, error) {
	var need bool
	o.Update(func(s *State) { need = s.NeedCities() })
	if need {
		cs, err := o.backend.Cities(ctx)
		o.logResult("cities", err)
		o.Update(func(s *State) { s.ApplyCities(cs, err) })
	}
	snap := o.Snapshot()
	return snap.Cities, snap.CitiesErr
}

// Toggle flips a campaign's status optimistically, sends it, reverts on
// failure, and refreshes on success.
func (o *Orchestrator) Toggle(ctx context.Context, id int64) error {
	var (
		next bool
		ok   bool
	)
	o.Update(func(s *State) { next, ok = s.BeginToggle(id) })
	if !ok {
		return fmt.Errorf("%w: %d", ErrToggleBusy, id)
	}

	_, err := o.backend.SetStatus(ctx, id, next)
	o.Update(func(s *State) { s.FinishToggle(id, err) })
	if err != nil {
		o.logger.Info("status toggle reverted", zap.Int64("campaign", id), zap.Error(err))
		return err
	}
	o.Refresh(ctx)
	return nil
}

// AuthFailure reports whether err means the backend no longer accepts
// the session, which forces a logout.
func (o *Orchestrator) AuthFailure(err error) bool {
	return apiclient.IsAuthFailure(err)
}

// Reset clears every cached resource and orphans in-flight results.
func (o *Orchestrator) Reset() {
	o.Update(func(s *State) { s.Reset() })
}

func (o *Orchestrator) logResult(resource string, err error) {
	if err != nil {
		o.logger.Warn("fetch failed", zap.String("resource", resource), zap.Error(err))
		return
	}
	o.logger.Debug("fetch ok", zap.String("resource", resource))
}
