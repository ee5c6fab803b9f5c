// Package guard centralizes the navigation policy.
//
// Decide is a pure function of the session snapshot and the requested route.
// It never performs navigation itself; callers act on the returned decision.
// Views ask the guard, they never carry their own redirect logic.
package guard

import (
	"github.com/felixgeelhaar/portalctl/internal/session"
)

// Route identifies a navigable view
type Route int

const (
	// RouteLogin is the public entry point
	RouteLogin Route = iota
	// RouteResetPassword is the public password-reset view
	RouteResetPassword
	// RouteTasks is the default authenticated landing view
	RouteTasks
	// RouteAdmin is the admin-only user administration view
	RouteAdmin
	// RouteRoles is the admin-only role and permission matrix view
	RouteRoles
)

// String returns the string representation of the route
func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteResetPassword:
		return "reset-password"
	case RouteTasks:
		return "tasks"
	case RouteAdmin:
		return "admin"
	case RouteRoles:
		return "roles"
	default:
		return "unknown"
	}
}

// Verdict is the kind of decision the guard makes
type Verdict int

const (
	// VerdictWait means the session is not settled yet: render a neutral
	// loading state, do not redirect
	VerdictWait Verdict = iota
	// VerdictAllow means the requested route may render
	VerdictAllow
	// VerdictRedirect means the caller must navigate to Target instead
	VerdictRedirect
)

// Decision is the guard's answer for one navigation request
type Decision struct {
	Verdict Verdict
	Target  Route
}

func allow() Decision {
	return Decision{Verdict: VerdictAllow}
}

func redirect(target Route) Decision {
	return Decision{Verdict: VerdictRedirect, Target: target}
}

// public reports whether the route requires no session at all
func public(r Route) bool {
	return r == RouteLogin || r == RouteResetPassword
}

// adminOnly reports whether the route requires the administrator role
func adminOnly(r Route) bool {
	return r == RouteAdmin || r == RouteRoles
}

// Decide applies the navigation policy. It is idempotent and side-effect
// free.
func Decide(snap session.Snapshot, requested Route) Decision {
	if !snap.Settled {
		return Decision{Verdict: VerdictWait}
	}

	switch requested {
	case RouteLogin, RouteResetPassword, RouteTasks, RouteAdmin, RouteRoles:
	default:
		// Unknown destinations go back to the entry point.
		return redirect(RouteLogin)
	}

	if public(requested) {
		// An authenticated user asking for the login view lands on the
		// default view instead; the reset view stays reachable either way.
		if requested == RouteLogin && snap.Authenticated() {
			return redirect(RouteTasks)
		}
		return allow()
	}

	if !snap.Authenticated() {
		return redirect(RouteLogin)
	}

	if adminOnly(requested) && !snap.IsAdmin() {
		return redirect(RouteTasks)
	}

	return allow()
}
