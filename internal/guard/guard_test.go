package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/portalctl/internal/session"
)

func anonymous() session.Snapshot {
	return session.Snapshot{State: session.StateAnonymous, Settled: true}
}

func employee() session.Snapshot {
	return session.Snapshot{
		State:    session.StateAuthenticated,
		Settled:  true,
		Identity: "user@example.com",
		Roles:    []string{"Company Employee"},
	}
}

func admin() session.Snapshot {
	return session.Snapshot{
		State:    session.StateAuthenticated,
		Settled:  true,
		Identity: "admin@example.com",
		Roles:    []string{"Company Admin"},
	}
}

func TestDecidePolicyTable(t *testing.T) {
	tests := []struct {
		name      string
		snap      session.Snapshot
		requested Route
		want      Decision
	}{
		{
			name:      "unsettled session waits",
			snap:      session.Snapshot{State: session.StateRestoring},
			requested: RouteAdmin,
			want:      Decision{Verdict: VerdictWait},
		},
		{
			name:      "reset password is public for anonymous",
			snap:      anonymous(),
			requested: RouteResetPassword,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "reset password is public for authenticated",
			snap:      admin(),
			requested: RouteResetPassword,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "login allowed for anonymous",
			snap:      anonymous(),
			requested: RouteLogin,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "login redirects authenticated to tasks",
			snap:      employee(),
			requested: RouteLogin,
			want:      Decision{Verdict: VerdictRedirect, Target: RouteTasks},
		},
		{
			name:      "tasks requires authentication",
			snap:      anonymous(),
			requested: RouteTasks,
			want:      Decision{Verdict: VerdictRedirect, Target: RouteLogin},
		},
		{
			name:      "tasks allowed for employee",
			snap:      employee(),
			requested: RouteTasks,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "admin view redirects anonymous to entry, not landing",
			snap:      anonymous(),
			requested: RouteAdmin,
			want:      Decision{Verdict: VerdictRedirect, Target: RouteLogin},
		},
		{
			name:      "admin view redirects non-admin to tasks",
			snap:      employee(),
			requested: RouteAdmin,
			want:      Decision{Verdict: VerdictRedirect, Target: RouteTasks},
		},
		{
			name:      "admin view allowed for admin",
			snap:      admin(),
			requested: RouteAdmin,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "roles view redirects non-admin to tasks",
			snap:      employee(),
			requested: RouteRoles,
			want:      Decision{Verdict: VerdictRedirect, Target: RouteTasks},
		},
		{
			name:      "roles view allowed for admin",
			snap:      admin(),
			requested: RouteRoles,
			want:      Decision{Verdict: VerdictAllow},
		},
		{
			name:      "unknown route redirects to entry",
			snap:      admin(),
			requested: Route(99),
			want:      Decision{Verdict: VerdictRedirect, Target: RouteLogin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.snap, tt.requested)
			assert.Equal(t, tt.want, got)

			// The guard must be idempotent.
			assert.Equal(t, got, Decide(tt.snap, tt.requested))
		})
	}
}

func TestDecideBeforeAnyNetworkRoundTrip(t *testing.T) {
	// Cold start: not settled yet — nothing renders, nothing redirects.
	cold := session.Snapshot{State: session.StateUninitialized}
	assert.Equal(t, VerdictWait, Decide(cold, RouteAdmin).Verdict)

	// Once settled anonymous, an admin-only view yields a redirect to the
	// entry path without waiting for any backend data.
	got := Decide(anonymous(), RouteAdmin)
	assert.Equal(t, Decision{Verdict: VerdictRedirect, Target: RouteLogin}, got)
}
