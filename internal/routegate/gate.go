// Package routegate decides, per navigation, whether the current principal
// may see a requested screen.
package routegate

import (
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

// Role is the principal's role as carried in the stored profile.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleSalesRep Role = "sales_rep"
)

// Screen paths.
const (
	LoginPath   = "/login"
	AdminHome   = "/admin"
	ManagerHome = "/manager"
	SalesHome   = "/sales"
)

// HomePath returns the landing dashboard for a role. Unknown or missing
// roles land on the sales dashboard.
func HomePath(role Role) string {
	switch role {
	case RoleAdmin:
		return AdminHome
	case RoleManager:
		return ManagerHome
	default:
		return SalesHome
	}
}

// Decision is the outcome of a navigation check: either render the
// destination, or redirect elsewhere.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Gate evaluates navigation requests against the credential store.
type Gate struct {
	store *credstore.Store
	clock *tokenclock.Clock
}

// New creates a gate over the given store and clock.
func New(store *credstore.Store, clock *tokenclock.Clock) *Gate {
	return &Gate{store: store, clock: clock}
}

// CurrentRole returns the stored principal's role, or "" when no profile
// is stored or it carries no role. An empty role never matches a non-empty
// allowed set, so role-restricted screens stay closed.
func (g *Gate) CurrentRole() Role {
	user := g.store.User()
	if user == nil {
		return ""
	}
	return Role(user.Role.Value)
}

// Decide checks a destination with the given allowed-role set. An empty
// set admits any authenticated principal. A principal whose role is not in
// the set is softly redirected to its own dashboard rather than shown an
// error. Only token presence is checked here; expiry is left to the
// session timer (see ResolveRoot for the stricter root check).
func (g *Gate) Decide(allowed []Role) Decision {
	if !g.clock.IsAuthenticated() {
		return Decision{RedirectTo: LoginPath}
	}
	if len(allowed) == 0 {
		return Decision{Allow: true}
	}
	role := g.CurrentRole()
	for _, r := range allowed {
		if r == role {
			return Decision{Allow: true}
		}
	}
	return Decision{RedirectTo: HomePath(role)}
}

// ResolveRoot picks the landing path for the root screen. Unlike Decide it
// also requires the token to be unexpired, a deliberately stricter check
// carried over from the source behavior.
func (g *Gate) ResolveRoot() string {
	if !g.clock.IsAuthenticated() || g.clock.IsExpired() {
		return LoginPath
	}
	return HomePath(g.CurrentRole())
}
