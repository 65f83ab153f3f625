// Package security holds the account security engine: the lockout state
// machine, the device trust registry and the session manager. Everything in
// this package is pure state manipulation on a domain.Account; callers are
// responsible for running it inside a per-account transaction.
package security

import (
	"time"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
)

const (
	DefaultMaxFailures  = 5
	DefaultWindow       = 2 * time.Minute
	DefaultLockDuration = 10 * time.Minute
)

// LockoutPolicy implements the sliding-window failure counter and the
// ACTIVE/LOCKED transitions for a single account.
type LockoutPolicy struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailures:  DefaultMaxFailures,
		Window:       DefaultWindow,
		LockDuration: DefaultLockDuration,
	}
}

// Check performs the lock gate. A lock whose deadline has passed is corrected
// to ACTIVE in place (pull-based expiry; there is no background timer) with
// the failure window cleared. It reports whether the account is still locked
// and, if so, how long remains.
func (p LockoutPolicy) Check(a *domain.Account, now time.Time) (bool, time.Duration) {
	if a.Status != domain.StatusLocked {
		return false, 0
	}
	if a.LockUntil != nil && a.LockUntil.After(now) {
		return true, a.LockUntil.Sub(now)
	}
	a.Status = domain.StatusActive
	a.LockUntil = nil
	a.FailedAttempts = nil
	return false, 0
}

// RecordFailure appends a failed attempt at now, slides the retention window,
// and locks the account once the in-window count reaches the threshold. Only
// reachable while ACTIVE; Check must have been called first. Returns whether
// this failure tripped the lock and how many attempts remain before it would.
func (p LockoutPolicy) RecordFailure(a *domain.Account, now time.Time) (locked bool, remaining int) {
	cutoff := now.Add(-p.Window)

	recent := make([]time.Time, 0, len(a.FailedAttempts)+1)
	for _, t := range a.FailedAttempts {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	a.FailedAttempts = recent

	remaining = p.MaxFailures - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	if len(recent) >= p.MaxFailures {
		until := now.Add(p.LockDuration)
		a.Status = domain.StatusLocked
		a.LockUntil = &until
		return true, 0
	}
	return false, remaining
}

// RecordSuccess clears the failure window unconditionally: a successful proof
// of identity forgives all prior failures, not just the ones that slid out.
func (p LockoutPolicy) RecordSuccess(a *domain.Account) {
	a.FailedAttempts = nil
}
