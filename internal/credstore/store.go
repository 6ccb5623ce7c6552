package credstore

import (
	"context"

	"github.com/netplus/netplus-client-go/internal/domain"
)

// Storage keys shared by every client context on the device. Absence of the
// token key is the sole unauthenticated signal.
const (
	TokenKey   = "netplus_access_token"
	ProfileKey = "netplus_user_profile"
)

// Store is the durable credential store. It is shared by every open client
// context; each write must be observable by the other contexts through
// Watch. The session manager is the only writer — no other component
// touches the store directly except the request pipeline's token read.
type Store interface {
	// Token returns the stored bearer token, or "" when absent.
	Token(ctx context.Context) (string, error)

	// Profile returns the cached user profile, or nil when absent.
	Profile(ctx context.Context) (*domain.User, error)

	// SetCredentials stores the token and, when non-nil, the profile that
	// the token produced, then signals the change to all watchers.
	SetCredentials(ctx context.Context, token string, user *domain.User) error

	// Clear removes the token and profile and signals the change. Clearing
	// an already-empty store still signals.
	Clear(ctx context.Context) error

	// Watch returns a channel that receives one signal per store change
	// until ctx is canceled. Signals carry no payload; watchers reconcile
	// by re-reading the store.
	Watch(ctx context.Context) (<-chan struct{}, error)

	Close() error
}
