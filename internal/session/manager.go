package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
)

var (
	// ErrBadCredentials means the backend rejected the identity/secret.
	ErrBadCredentials = errors.New("session: invalid username or password")
	// ErrMissingCredentials means the identity or secret was blank.
	ErrMissingCredentials = errors.New("session: username and password are required")
	// ErrNoSession means nothing was persisted to restore.
	ErrNoSession = errors.New("session: not signed in")
	// ErrSessionExpired accompanies a forced logout after the backend
	// stopped accepting the stored credentials.
	ErrSessionExpired = errors.New("session: session expired, please sign in again")
)

// Store persists a session between runs.
type Store interface {
	Save(Session) error
	Load() (Session, bool, error)
	Clear() error
}

// Verifier checks credentials against the backend's profile endpoint.
type Verifier interface {
	Verify(ctx context.Context, creds apiclient.Credentials) (campaign.Profile, error)
}

var _ Verifier = (*apiclient.Client)(nil)

// Manager is the single owner of the signed-in session.
type Manager struct {
	store    Store
	verifier Verifier
	logger   *zap.Logger

	mu      sync.RWMutex
	current *Session
	hooks   []func()
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the event logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a signed-out manager.
func NewManager(store Store, v Verifier, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, verifier: v, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnLogout registers fn to run after every logout or expiry. Hooks run
// in registration order.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Login verifies identity/secret and, on success, persists and holds the
// session. Nothing is persisted on failure.
func (m *Manager) Login(ctx context.Context, identity, secret string) (campaign.Profile, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || secret == "" {
		return campaign.Profile{}, ErrMissingCredentials
	}

	p, err := m.verify(ctx, identity, secret)
	if err != nil {
		m.logger.Info("login rejected", zap.String("identity", identity), zap.Error(err))
		return campaign.Profile{}, err
	}

	sess := Session{Identity: identity, Secret: secret, Profile: &p}
	if err := m.store.Save(sess); err != nil {
		return campaign.Profile{}, fmt.Errorf("session: persisting login: %w", err)
	}

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()
	m.logger.Info("signed in", zap.String("identity", identity))
	return p, nil
}

// Restore loads the persisted session and re-verifies it exactly as
// Login does. Any failure clears the persisted state.
func (m *Manager) Restore(ctx context.Context) (campaign.Profile, error) {
	sess, found, err := m.store.Load()
	if err != nil {
		m.discard()
		return campaign.Profile{}, err
	}
	if !found {
		return campaign.Profile{}, ErrNoSession
	}

	p, err := m.verify(ctx, sess.Identity, sess.Secret)
	if err != nil {
		m.logger.Info("stored session rejected", zap.String("identity", sess.Identity), zap.Error(err))
		m.discard()
		return campaign.Profile{}, err
	}

	sess.Profile = &p
	if err := m.store.Save(sess); err != nil {
		m.logger.Warn("refreshing stored profile", zap.Error(err))
	}
	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()
	return p, nil
}

// Logout clears the persisted and in-memory session and runs the logout
// hooks. Hooks run even when clearing the file fails.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = nil
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()

	err := m.store.Clear()
	for _, fn := range hooks {
		fn()
	}
	m.logger.Info("signed out")
	return err
}

// Expire forces a logout after the backend refused the session. The
// returned error always matches ErrSessionExpired.
func (m *Manager) Expire() error {
	if err := m.Logout(); err != nil {
		return errors.Join(ErrSessionExpired, err)
	}
	return ErrSessionExpired
}

// Credentials implements apiclient.CredentialSource.
func (m *Manager) Credentials() (apiclient.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return apiclient.Credentials{}, false
	}
	return apiclient.Credentials{Identity: m.current.Identity, Secret: m.current.Secret}, true
}

// Identity returns the signed-in username, or "" when signed out.
func (m *Manager) Identity() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Identity
}

func (m *Manager) verify(ctx context.Context, identity, secret string) (campaign.Profile, error) {
	p, err := m.verifier.Verify(ctx, apiclient.Credentials{Identity: identity, Secret: secret})
	if apiclient.IsAuthFailure(err) {
		return campaign.Profile{}, fmt.Errorf("%w: %w", ErrBadCredentials, err)
	}
	return p, err
}

func (m *Manager) discard() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("clearing stored session", zap.Error(err))
	}
}
