package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/credstore"
	"github.com/netplus/netplus-client-go/internal/domain"
	"github.com/netplus/netplus-client-go/pkg/errors"
)

type fakeProfiles struct {
	user  *domain.User
	err   error
	calls int
}

func (f *fakeProfiles) Me(context.Context) (*domain.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func testUser() *domain.User {
	return &domain.User{
		ID:    uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Name:  "Mina",
		Email: "mina@example.com",
	}
}

func TestLoginAuthenticates(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeProfiles{}, zap.NewNop())

	var snaps []Snapshot
	m.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	user := testUser()
	if err := m.Login(ctx, "tok-1", user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !m.IsAuthenticated(ctx) {
		t.Error("IsAuthenticated = false after login")
	}
	got := m.CurrentUser()
	if got == nil || *got != *user {
		t.Errorf("CurrentUser = %+v, want %+v", got, user)
	}
	if len(snaps) != 1 || !snaps[0].Authenticated || snaps[0].User == nil {
		t.Errorf("snapshots = %+v, want one authenticated snapshot", snaps)
	}
}

func TestLogoutIsIdempotentButAlwaysNotifies(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeProfiles{}, zap.NewNop())

	notifications := 0
	m.Subscribe(func(Snapshot) { notifications++ })

	for i := 0; i < 2; i++ {
		if err := m.Logout(ctx); err != nil {
			t.Fatalf("Logout #%d failed: %v", i+1, err)
		}
		if token, _ := store.Token(ctx); token != "" {
			t.Errorf("Logout #%d left token %q in the store", i+1, token)
		}
	}

	if notifications != 2 {
		t.Errorf("notifications = %d, want 2: observers rely on the broadcast even without a state change", notifications)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	ctx := context.Background()
	m := NewManager(credstore.NewMemoryStore(), &fakeProfiles{}, zap.NewNop())

	notifications := 0
	unsubscribe := m.Subscribe(func(Snapshot) { notifications++ })
	unsubscribe()

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if notifications != 0 {
		t.Errorf("unsubscribed observer still notified %d times", notifications)
	}
}

func TestRefreshMeHydratesTokenOnlySession(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	if err := store.SetCredentials(ctx, "tok-1", nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	user := testUser()
	profiles := &fakeProfiles{user: user}
	m := NewManager(store, profiles, zap.NewNop())
	if err := m.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if m.CurrentUser() != nil {
		t.Fatal("token-only session already has a user")
	}

	notifications := 0
	m.Subscribe(func(Snapshot) { notifications++ })

	if err := m.RefreshMe(ctx); err != nil {
		t.Fatalf("RefreshMe failed: %v", err)
	}
	got := m.CurrentUser()
	if got == nil || *got != *user {
		t.Errorf("CurrentUser = %+v, want %+v", got, user)
	}
	if notifications != 1 {
		t.Errorf("notifications = %d, want 1", notifications)
	}

	// The hydrated profile must be persisted for other contexts.
	profile, err := store.Profile(ctx)
	if err != nil || profile == nil || *profile != *user {
		t.Errorf("store profile = (%+v, %v), want persisted user", profile, err)
	}

	// A second refresh is a no-op once hydrated.
	if err := m.RefreshMe(ctx); err != nil {
		t.Fatalf("second RefreshMe failed: %v", err)
	}
	if profiles.calls != 1 {
		t.Errorf("profile fetches = %d, want 1", profiles.calls)
	}
}

func TestRefreshMeUnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	if err := store.SetCredentials(ctx, "stale", nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	profiles := &fakeProfiles{err: errors.NewAPIError("token expired", 401)}
	m := NewManager(store, profiles, zap.NewNop())
	if err := m.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	notifications := 0
	m.Subscribe(func(Snapshot) { notifications++ })

	if err := m.RefreshMe(ctx); err != nil {
		t.Fatalf("RefreshMe on a rejected token must not surface the 401, got %v", err)
	}
	if m.IsAuthenticated(ctx) {
		t.Error("session still authenticated after token rejection")
	}
	if token, _ := store.Token(ctx); token != "" {
		t.Errorf("store still holds token %q", token)
	}
	if notifications != 1 {
		t.Errorf("notifications = %d, want 1 logout broadcast", notifications)
	}
}

func TestRefreshMeOtherErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	if err := store.SetCredentials(ctx, "tok-1", nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	apiErr := errors.NewAPIError("backend down", 503)
	m := NewManager(store, &fakeProfiles{err: apiErr}, zap.NewNop())
	if err := m.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	notifications := 0
	m.Subscribe(func(Snapshot) { notifications++ })

	err := m.RefreshMe(ctx)
	if got, ok := errors.AsAPIError(err); !ok || got.StatusCode != 503 {
		t.Fatalf("RefreshMe error = %v, want the 503 surfaced", err)
	}
	if !m.IsAuthenticated(ctx) {
		t.Error("token dropped on a non-authorization failure")
	}
	if notifications != 0 {
		t.Errorf("notifications = %d, want 0", notifications)
	}
}

func TestCrossContextConvergenceViaResync(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	contextA := NewManager(store, &fakeProfiles{}, zap.NewNop())
	contextB := NewManager(store, &fakeProfiles{}, zap.NewNop())
	if err := contextB.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	notifications := 0
	contextB.Subscribe(func(Snapshot) { notifications++ })

	user := testUser()
	if err := contextA.Login(ctx, "tok-1", user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := contextB.Resync(ctx); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	got := contextB.CurrentUser()
	if got == nil || *got != *user {
		t.Errorf("context B CurrentUser = %+v, want %+v", got, user)
	}
	if !contextB.IsAuthenticated(ctx) {
		t.Error("context B not authenticated after resync")
	}
	if notifications != 1 {
		t.Errorf("notifications = %d, want 1", notifications)
	}

	// A resync with no underlying change stays silent.
	if err := contextB.Resync(ctx); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if notifications != 1 {
		t.Errorf("unchanged resync notified: %d", notifications)
	}
}

func TestRunConvergesOnWatchSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := credstore.NewMemoryStore()
	contextA := NewManager(store, &fakeProfiles{}, zap.NewNop())
	contextB := NewManager(store, &fakeProfiles{}, zap.NewNop())

	snaps := make(chan Snapshot, 4)
	contextB.Subscribe(func(s Snapshot) { snaps <- s })

	go func() { _ = contextB.Run(ctx) }()
	time.Sleep(50 * time.Millisecond) // let the watcher register

	user := testUser()
	if err := contextA.Login(ctx, "tok-1", user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	select {
	case snap := <-snaps:
		if !snap.Authenticated || snap.User == nil || *snap.User != *user {
			t.Errorf("converged snapshot = %+v, want authenticated %+v", snap, user)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("context B never observed the login")
	}

	if err := contextA.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	select {
	case snap := <-snaps:
		if snap.Authenticated || snap.User != nil {
			t.Errorf("converged snapshot = %+v, want anonymous", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("context B never observed the logout")
	}
}
