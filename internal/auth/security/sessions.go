package security

import (
	"time"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
	autherror "github.com/Shubham20040627/Smart-Account-Breach-System/internal/errors"
)

const DefaultMaxOrigins = 3

// SessionPolicy caps how many distinct network origins may hold live sessions
// for one account at the same time. The cap is per origin, not per session:
// any number of sessions may share an origin that is already admitted.
type SessionPolicy struct {
	MaxOrigins int
}

func DefaultSessionPolicy() SessionPolicy {
	return SessionPolicy{MaxOrigins: DefaultMaxOrigins}
}

// Admit adds a session for the fingerprint's origin, rejecting with
// ErrTooManyOrigins when the origin is unseen and the distinct-origin cap is
// already reached. Malformed entries (no token or no origin, left behind by
// older formats) are pruned first and never count toward the cap.
func (p SessionPolicy) Admit(a *domain.Account, fp domain.Fingerprint, token string, now time.Time) error {
	pruneMalformed(a)

	origins := make(map[string]struct{}, len(a.ActiveSessions))
	for _, s := range a.ActiveSessions {
		origins[s.IPAddress] = struct{}{}
	}

	if _, present := origins[fp.IPAddress]; !present && len(origins) >= p.MaxOrigins {
		return autherror.ErrTooManyOrigins
	}

	a.ActiveSessions = append(a.ActiveSessions, domain.Session{
		Token:     token,
		DeviceID:  fp.DeviceID,
		IPAddress: fp.IPAddress,
		IssuedAt:  now,
	})
	return nil
}

// RevokeSessions drops every session matching the predicate, replacing the
// stored slice wholesale so concurrent readers never observe a partial
// filter. Returns how many sessions were removed. Single-session logout,
// device revocation and logout-all are all expressed through the predicate.
func RevokeSessions(a *domain.Account, match func(domain.Session) bool) int {
	kept := make([]domain.Session, 0, len(a.ActiveSessions))
	for _, s := range a.ActiveSessions {
		if !match(s) {
			kept = append(kept, s)
		}
	}
	removed := len(a.ActiveSessions) - len(kept)
	a.ActiveSessions = kept
	return removed
}

// ValidateSession reports whether the token is live. Presence in the active
// set is the sole authority: a structurally valid token that has been revoked
// is dead.
func ValidateSession(a *domain.Account, token string) bool {
	for _, s := range a.ActiveSessions {
		if s.Token == token {
			return true
		}
	}
	return false
}

func pruneMalformed(a *domain.Account) {
	RevokeSessions(a, func(s domain.Session) bool {
		return s.Token == "" || s.IPAddress == ""
	})
}
