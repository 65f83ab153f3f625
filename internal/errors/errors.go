package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrTooManyOrigins     = errors.New("too many concurrent session origins")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// AccountLockedError carries how long the caller has to wait. It matches
// ErrAccountLocked under errors.Is.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// Remaining reports the wait left at the given instant, floored at zero.
func (e *AccountLockedError) Remaining(now time.Time) time.Duration {
	if d := e.Until.Sub(now); d > 0 {
		return d
	}
	return 0
}

// CredentialsError is a counted failed login. AttemptsRemaining is how many
// further failures the current window tolerates before the account locks.
// It matches ErrInvalidCredentials under errors.Is.
type CredentialsError struct {
	AttemptsRemaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials (%d attempts remaining)", e.AttemptsRemaining)
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
