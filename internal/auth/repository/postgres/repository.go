package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. It is what
// pgxmock implements, which keeps the repository testable without a database.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxPool
}

func NewPostgresRepository(db PgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `
	SELECT id, name, email, password_hash, status, lock_until, failed_attempts, created_at, updated_at
	FROM users
`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, selectAccount+` WHERE email = $1 LIMIT 1;`, email)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// GetByID loads the full aggregate: the account row plus its trusted devices
// and active sessions.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, selectAccount+` WHERE id = $1 LIMIT 1;`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	if account.TrustedDevices, err = r.queryDevices(ctx, r.db, id); err != nil {
		return nil, err
	}
	if account.ActiveSessions, err = r.querySessions(ctx, r.db, id); err != nil {
		return nil, err
	}

	return account, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, status, lock_until, failed_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, account.ID, account.Name, account.Email, account.PasswordHash, string(account.Status),
		account.LockUntil, account.FailedAttempts, account.CreatedAt, account.UpdatedAt)

	return err
}

// UpdateSecurityState is the per-account read-modify-write transaction. The
// SELECT ... FOR UPDATE on the users row serializes concurrent logins for the
// same account, so two racing attempts can never both observe a stale failure
// count and independently decide not to lock. Sessions are replaced
// wholesale; devices are upserted (they only ever grow or refresh).
func (r *PostgresRepository) UpdateSecurityState(ctx context.Context, accountID string, fn func(*domain.Account) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin security transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, selectAccount+` WHERE id = $1 FOR UPDATE;`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		return fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}

	if account.TrustedDevices, err = r.queryDevices(ctx, tx, accountID); err != nil {
		return err
	}
	if account.ActiveSessions, err = r.querySessions(ctx, tx, accountID); err != nil {
		return err
	}

	if err := fn(account); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET status = $2, lock_until = $3, failed_attempts = $4, updated_at = now()
		WHERE id = $1
	`, accountID, string(account.Status), account.LockUntil, account.FailedAttempts); err != nil {
		return fmt.Errorf("failed to update account state: %w", err)
	}

	for _, d := range account.TrustedDevices {
		if _, err := tx.Exec(ctx, `
			INSERT INTO trusted_devices (user_id, device_id, browser, os, ip_address, first_seen, last_seen, verified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, device_id)
			DO UPDATE SET
				browser = EXCLUDED.browser,
				os = EXCLUDED.os,
				ip_address = EXCLUDED.ip_address,
				last_seen = EXCLUDED.last_seen
		`, accountID, d.DeviceID, d.Browser, d.OS, d.IPAddress, d.FirstSeen, d.LastSeen, d.Verified); err != nil {
			return fmt.Errorf("failed to upsert trusted device: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	for _, s := range account.ActiveSessions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sessions (user_id, token, device_id, ip_address, issued_at)
			VALUES ($1, $2, $3, $4, $5)
		`, accountID, s.Token, s.DeviceID, s.IPAddress, s.IssuedAt); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, user_id, attempt_time, successful, ip_address, browser, os)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, attempt.ID, attempt.AccountID, attempt.AttemptTime, attempt.Successful,
		attempt.IPAddress, attempt.Browser, attempt.OS)
	return err
}

func (r *PostgresRepository) RecentLoginAttempts(ctx context.Context, accountID string, limit int) ([]domain.LoginAttempt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, attempt_time, successful, ip_address, browser, os
		FROM login_attempts
		WHERE user_id = $1
		ORDER BY attempt_time DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		if err := rows.Scan(&a.ID, &a.AccountID, &a.AttemptTime, &a.Successful, &a.IPAddress, &a.Browser, &a.OS); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) queryDevices(ctx context.Context, q querier, accountID string) ([]domain.Device, error) {
	rows, err := q.Query(ctx, `
		SELECT device_id, browser, os, ip_address, first_seen, last_seen, verified
		FROM trusted_devices
		WHERE user_id = $1
		ORDER BY first_seen
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trusted devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.DeviceID, &d.Browser, &d.OS, &d.IPAddress, &d.FirstSeen, &d.LastSeen, &d.Verified); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func (r *PostgresRepository) querySessions(ctx context.Context, q querier, accountID string) ([]domain.Session, error) {
	rows, err := q.Query(ctx, `
		SELECT token, device_id, ip_address, issued_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY issued_at
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.Token, &s.DeviceID, &s.IPAddress, &s.IssuedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		status  string
	)
	err := row.Scan(&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&status, &account.LockUntil, &account.FailedAttempts, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	account.Status = domain.AccountStatus(status)
	return &account, nil
}
