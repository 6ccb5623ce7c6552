package session

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/credstore"
	"github.com/netplus/netplus-client-go/internal/domain"
	"github.com/netplus/netplus-client-go/pkg/errors"
)

// ProfileSource fetches the profile belonging to the stored bearer token.
// The auth adapter satisfies it.
type ProfileSource interface {
	Me(ctx context.Context) (*domain.User, error)
}

// Snapshot is the observer view of the session at notification time.
type Snapshot struct {
	User          *domain.User
	Authenticated bool
}

// Manager owns the in-memory session of one client context. The session is
// a three-state machine: anonymous (no token), token-only (token restored
// from the store, profile not yet hydrated), and authenticated (token plus
// profile). The credential store is the single source of truth shared with
// other contexts; Run keeps this instance converged with it.
type Manager struct {
	store    credstore.Store
	profiles ProfileSource
	logger   *zap.Logger

	mu     sync.Mutex
	token  string
	user   *domain.User
	subs   map[int]func(Snapshot)
	nextID int
}

func NewManager(store credstore.Store, profiles ProfileSource, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		profiles: profiles,
		logger:   logger,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Hydrate loads persisted credentials into memory. Called once at process
// start; a token without a profile leaves the session token-only until
// RefreshMe completes.
func (m *Manager) Hydrate(ctx context.Context) error {
	token, err := m.store.Token(ctx)
	if err != nil {
		return err
	}
	var user *domain.User
	if token != "" {
		if user, err = m.store.Profile(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	return nil
}

// Login stores the credentials and broadcasts the change. The user is the
// profile produced by the token and replaces any previous one wholesale.
func (m *Manager) Login(ctx context.Context, token string, user *domain.User) error {
	if err := m.store.SetCredentials(ctx, token, user); err != nil {
		return err
	}
	m.apply(token, user)
	m.logger.Info("session established")
	return nil
}

// Logout clears the credentials and broadcasts. Calling it while already
// anonymous is a no-op on state but still notifies subscribers: observers
// may rely on the notification itself, not only on a state delta.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.apply("", nil)
	m.logger.Info("session cleared")
	return nil
}

// CurrentUser returns the in-memory profile or nil. It never touches the
// network or the store.
func (m *Manager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.user)
}

// IsAuthenticated reports whether a token exists in the credential store.
// It does not require a hydrated profile. A store failure reads as
// unauthenticated.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.store.Token(ctx)
	if err != nil {
		m.logger.Warn("token check failed, treating as unauthenticated", zap.Error(err))
		return false
	}
	return token != ""
}

// RefreshMe hydrates the profile for a stored token. A 401 means the token
// is no longer valid: the session is cleared and the change broadcast. Any
// other failure leaves the session untouched and surfaces to the caller.
func (m *Manager) RefreshMe(ctx context.Context) error {
	token, err := m.store.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	m.mu.Lock()
	hydrated := m.user != nil && m.token == token
	m.mu.Unlock()
	if hydrated {
		return nil
	}

	user, err := m.profiles.Me(ctx)
	if err != nil {
		if errors.IsStatus(err, http.StatusUnauthorized) {
			m.logger.Warn("stored token rejected, clearing session")
			return m.Logout(ctx)
		}
		return err
	}

	// Persist the profile so other contexts converge without their own
	// round-trip.
	if err := m.store.SetCredentials(ctx, token, user); err != nil {
		return err
	}
	m.apply(token, user)
	m.logger.Info("profile hydrated")
	return nil
}

// Subscribe registers an observer invoked on every local state transition
// and on every reconciled cross-context change. The returned function
// removes the registration.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Run consumes cross-context change signals until ctx is canceled. Each
// signal triggers a full re-read of the store: the last writer wins and
// there is no merge logic.
func (m *Manager) Run(ctx context.Context) error {
	signals, err := m.store.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if err := m.Resync(ctx); err != nil {
				m.logger.Warn("session resync failed", zap.Error(err))
			}
		}
	}
}

// Resync reconciles the in-memory session against the store and notifies
// subscribers when the reconciled view differs. Local writes already
// notified, so an echo of this context's own change is silent.
func (m *Manager) Resync(ctx context.Context) error {
	token, err := m.store.Token(ctx)
	if err != nil {
		return err
	}
	var user *domain.User
	if token != "" {
		if user, err = m.store.Profile(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	changed := token != m.token || !sameUser(user, m.user)
	m.token = token
	m.user = copyUser(user)
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	if changed {
		m.notify(subs, snap)
	}
	return nil
}

func (m *Manager) apply(token string, user *domain.User) {
	m.mu.Lock()
	m.token = token
	m.user = copyUser(user)
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	m.notify(subs, snap)
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		User:          copyUser(m.user),
		Authenticated: m.token != "",
	}
}

func (m *Manager) subscribersLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

// notify runs outside the lock so observers may call back into the manager.
func (m *Manager) notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func copyUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clone := *user
	return &clone
}

func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
