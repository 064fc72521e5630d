// Package access maps session state to route decisions: which of the three
// route partitions (user, partner, admin) a role may enter, and where to
// send anyone who lands outside their partition.
package access

import (
	"strings"

	"github.com/wanderinn/go-client/session"
)

// Landing pages per role. Unauthenticated visitors always land on login.
const (
	LoginRoute       = "/login"
	UserHomeRoute    = "/"
	PartnerHomeRoute = "/partner/hotels/info"
	AdminHomeRoute   = "/admin/partners"
)

const (
	adminPrefix   = "/admin"
	partnerPrefix = "/partner"
)

// Paths under the user partition that still require a signed-in session.
var authOnlyPrefixes = []string{"/bookings", "/favorites", "/notifications", "/profile"}

// HomeFor returns the landing route for a role. The empty role means
// unauthenticated.
func HomeFor(role session.RoleType) string {
	switch role {
	case session.RoleAdmin:
		return AdminHomeRoute
	case session.RolePartner:
		return PartnerHomeRoute
	case session.RoleUser:
		return UserHomeRoute
	default:
		return LoginRoute
	}
}

// Allowed reports whether an authenticated user with the given role may
// visit path. Each role is confined to its own partition; the user partition
// is everything outside /admin and /partner.
func Allowed(role session.RoleType, path string) bool {
	switch {
	case hasPrefix(path, adminPrefix):
		return role == session.RoleAdmin
	case hasPrefix(path, partnerPrefix):
		return role == session.RolePartner
	default:
		return role == session.RoleUser
	}
}

// Decision is the outcome of resolving a path against the current session:
// either the navigation is allowed, or RedirectTo names where to go instead.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Gate resolves navigation against a live session store.
type Gate struct {
	store *session.Store
}

// NewGate binds a gate to the session store.
func NewGate(store *session.Store) *Gate {
	return &Gate{store: store}
}

// Resolve decides whether the current session may visit path. Anonymous
// visitors are sent to login for anything that needs a session; signed-in
// users straying outside their partition are sent to their own landing page.
func (g *Gate) Resolve(path string) Decision {
	if !g.store.IsAuthenticated() {
		if requiresSession(path) {
			return Decision{RedirectTo: LoginRoute}
		}
		return Decision{Allow: true}
	}

	role := g.store.Role()
	if Allowed(role, path) {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: HomeFor(role)}
}

func requiresSession(path string) bool {
	if hasPrefix(path, adminPrefix) || hasPrefix(path, partnerPrefix) {
		return true
	}
	for _, prefix := range authOnlyPrefixes {
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
