package domain

//go:generate mockgen -destination=../../mocks/mock_account_repository.go -package=mocks github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain AccountRepository

import "context"

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error

	// UpdateSecurityState runs fn against the account's security state
	// (status, lock window, devices, sessions) under a row lock and persists
	// whatever fn mutated. Returning an error from fn rolls everything back.
	UpdateSecurityState(ctx context.Context, accountID string, fn func(*Account) error) error

	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	RecentLoginAttempts(ctx context.Context, accountID string, limit int) ([]LoginAttempt, error)
}
