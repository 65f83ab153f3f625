package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/security"
	autherror "github.com/Shubham20040627/Smart-Account-Breach-System/internal/errors"
)

func admit(t *testing.T, p security.SessionPolicy, a *domain.Account, token, ip string) {
	t.Helper()
	require.NoError(t, p.Admit(a, fp("dev-"+ip, ip), token, t0))
}

func TestSessionAdmit_OriginCap(t *testing.T) {
	p := security.DefaultSessionPolicy()
	a := activeAccount()

	admit(t, p, a, "tok-a", "10.0.0.1")
	admit(t, p, a, "tok-b", "10.0.0.2")
	admit(t, p, a, "tok-c", "10.0.0.3")

	// A 4th distinct origin is rejected.
	err := p.Admit(a, fp("dev-d", "10.0.0.4"), "tok-d", t0)
	assert.ErrorIs(t, err, autherror.ErrTooManyOrigins)
	assert.Len(t, a.ActiveSessions, 3)

	// An already-present origin is always admitted, regardless of count.
	err = p.Admit(a, fp("dev-a2", "10.0.0.1"), "tok-a2", t0.Add(time.Minute))
	assert.NoError(t, err)
	assert.Len(t, a.ActiveSessions, 4)

	origins := map[string]struct{}{}
	for _, s := range a.ActiveSessions {
		origins[s.IPAddress] = struct{}{}
	}
	assert.Len(t, origins, 3, "still only 3 distinct origins")
}

func TestSessionAdmit_PrunesMalformedEntries(t *testing.T) {
	p := security.DefaultSessionPolicy()
	a := activeAccount()
	a.ActiveSessions = []domain.Session{
		{Token: "", DeviceID: "legacy", IPAddress: "10.0.0.9", IssuedAt: t0},
		{Token: "tok-ok", DeviceID: "dev-1", IPAddress: "10.0.0.1", IssuedAt: t0},
		{Token: "tok-noip", DeviceID: "dev-2", IPAddress: "", IssuedAt: t0},
	}

	require.NoError(t, p.Admit(a, fp("dev-3", "10.0.0.2"), "tok-new", t0))

	tokens := make([]string, 0, len(a.ActiveSessions))
	for _, s := range a.ActiveSessions {
		tokens = append(tokens, s.Token)
	}
	assert.ElementsMatch(t, []string{"tok-ok", "tok-new"}, tokens)
}

func TestRevokeSessions_ByToken(t *testing.T) {
	p := security.DefaultSessionPolicy()
	a := activeAccount()
	admit(t, p, a, "tok-a", "10.0.0.1")
	admit(t, p, a, "tok-b", "10.0.0.2")

	removed := security.RevokeSessions(a, func(s domain.Session) bool { return s.Token == "tok-a" })

	assert.Equal(t, 1, removed)
	assert.False(t, security.ValidateSession(a, "tok-a"))
	assert.True(t, security.ValidateSession(a, "tok-b"))
}

func TestRevokeSessions_ByDevice(t *testing.T) {
	p := security.DefaultSessionPolicy()
	a := activeAccount()
	// Two sessions on the same device, one on another.
	require.NoError(t, p.Admit(a, fp("dev-1", "10.0.0.1"), "tok-a", t0))
	require.NoError(t, p.Admit(a, fp("dev-1", "10.0.0.1"), "tok-b", t0))
	require.NoError(t, p.Admit(a, fp("dev-2", "10.0.0.2"), "tok-c", t0))

	removed := security.RevokeSessions(a, func(s domain.Session) bool { return s.DeviceID == "dev-1" })

	assert.Equal(t, 2, removed)
	assert.Len(t, a.ActiveSessions, 1)
	assert.Equal(t, "tok-c", a.ActiveSessions[0].Token)
}

func TestRevokeSessions_All(t *testing.T) {
	p := security.DefaultSessionPolicy()
	a := activeAccount()
	admit(t, p, a, "tok-a", "10.0.0.1")
	admit(t, p, a, "tok-b", "10.0.0.2")

	security.RevokeSessions(a, func(domain.Session) bool { return true })

	assert.Empty(t, a.ActiveSessions)
	// Every previously issued token is now dead.
	assert.False(t, security.ValidateSession(a, "tok-a"))
	assert.False(t, security.ValidateSession(a, "tok-b"))
}

func TestValidateSession_PresenceIsSoleAuthority(t *testing.T) {
	a := activeAccount()
	assert.False(t, security.ValidateSession(a, "never-issued"))

	a.ActiveSessions = []domain.Session{{Token: "tok-a", DeviceID: "dev-1", IPAddress: "10.0.0.1", IssuedAt: t0}}
	assert.True(t, security.ValidateSession(a, "tok-a"))

	security.RevokeSessions(a, func(s domain.Session) bool { return s.Token == "tok-a" })
	assert.False(t, security.ValidateSession(a, "tok-a"), "a structurally valid but revoked token is rejected")
}
