package route

import (
	"context"

	"github.com/netplus/netplus-client-go/internal/domain"
)

// Tier is the access level a route demands.
type Tier int

const (
	TierPublic Tier = iota
	TierAuthenticated
	TierAdmin
)

// Redirect targets for denied navigation. The attempted destination is
// discarded; there is no return-path preservation.
const (
	LoginPath  = "/login"
	BrowsePath = "/browse"
)

// SessionState is the only session surface route checks may touch.
type SessionState interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentUser() *domain.User
}

// Decision is the outcome of an authorization check. When Allowed is false,
// RedirectTo names where the navigation goes instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Authorize gates navigation by tier. The admin check requires a hydrated
// profile with the admin flag set: while the profile is still hydrating the
// check fails closed rather than blocking on a fetch, accepting a false
// negative until hydration completes.
func Authorize(ctx context.Context, sessions SessionState, tier Tier) Decision {
	if tier == TierPublic {
		return Decision{Allowed: true}
	}
	if !sessions.IsAuthenticated(ctx) {
		return Decision{RedirectTo: LoginPath}
	}
	if tier == TierAdmin {
		user := sessions.CurrentUser()
		if user == nil || !user.IsAdmin {
			return Decision{RedirectTo: BrowsePath}
		}
	}
	return Decision{Allowed: true}
}
