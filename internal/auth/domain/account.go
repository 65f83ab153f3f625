package domain

import "time"

type AccountStatus string

const (
	StatusActive AccountStatus = "ACTIVE"
	StatusLocked AccountStatus = "LOCKED"
)

// Account is the aggregate the security engine operates on. FailedAttempts,
// TrustedDevices and ActiveSessions are only mutated inside a per-account
// read-modify-write transaction (see AccountRepository.UpdateSecurityState).
type Account struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Status         AccountStatus
	LockUntil      *time.Time
	FailedAttempts []time.Time
	TrustedDevices []Device
	ActiveSessions []Session
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Device is a recognized client, keyed by its derived DeviceID. Devices are
// created on first sight and updated in place afterwards, never removed.
type Device struct {
	DeviceID  string
	Browser   string
	OS        string
	IPAddress string
	FirstSeen time.Time
	LastSeen  time.Time
	Verified  bool
}

// Session is an issued-and-not-revoked bearer token. Presence in the account's
// active set is the sole liveness authority; cryptographic validity of the
// token itself is checked separately by the token service.
type Session struct {
	Token     string
	DeviceID  string
	IPAddress string
	IssuedAt  time.Time
}

// LoginAttempt is an immutable audit record, append-only.
type LoginAttempt struct {
	ID          string
	AccountID   string
	AttemptTime time.Time
	Successful  bool
	IPAddress   string
	Browser     string
	OS          string
}

// Fingerprint is the derived client identity computed fresh per request from
// untrusted request metadata. It is never stored standalone.
type Fingerprint struct {
	DeviceID  string
	Browser   string
	OS        string
	IPAddress string
}
