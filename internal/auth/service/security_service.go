package service

//go:generate mockgen -destination=../../mocks/mock_notifier.go -package=mocks github.com/Shubham20040627/Smart-Account-Breach-System/internal/notify Notifier
//go:generate mockgen -destination=../../mocks/mock_publisher.go -package=mocks github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/service Publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shubham20040627/Smart-Account-Breach-System/config"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/dto"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/fingerprint"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/security"
	autherror "github.com/Shubham20040627/Smart-Account-Breach-System/internal/errors"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/notify"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/realtime"
)

// Publisher is the real-time fan-out capability. At-most-once, best-effort;
// the engine never learns whether anyone was listening.
type Publisher interface {
	Publish(accountID string, event realtime.Event)
}

const defaultHistoryLimit = 10

// SecurityService orchestrates the account security engine: the lockout
// gate, credential verification, device classification, session admission
// and the audit ledger, in that order. All per-account mutations happen
// inside a single row-locked transaction so concurrent logins against one
// account serialize; different accounts never contend.
type SecurityService struct {
	repo      domain.AccountRepository
	tokens    TokenGenerator
	notifier  notify.Notifier
	publisher Publisher
	lockout   security.LockoutPolicy
	sessions  security.SessionPolicy
	log       *slog.Logger
}

func NewSecurityService(
	repo domain.AccountRepository,
	tokens TokenGenerator,
	notifier notify.Notifier,
	publisher Publisher,
	cfg *config.Config,
	log *slog.Logger,
) *SecurityService {
	return &SecurityService{
		repo:      repo,
		tokens:    tokens,
		notifier:  notifier,
		publisher: publisher,
		lockout: security.LockoutPolicy{
			MaxFailures:  cfg.LoginMaxAttempts,
			Window:       time.Duration(cfg.LoginWindowSeconds) * time.Second,
			LockDuration: time.Duration(cfg.LockoutMinutes) * time.Minute,
		},
		sessions: security.SessionPolicy{MaxOrigins: cfg.MaxSessionOrigins},
		log:      log,
	}
}

func (s *SecurityService) Register(ctx context.Context, input dto.RegisterInput) (*domain.Account, error) {
	existing, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// Login runs the full admission pipeline. The outcome errors carry the
// user-facing detail: *AccountLockedError with the remaining wait,
// *CredentialsError with the attempts left in the window, ErrTooManyOrigins,
// or ErrAccountNotFound for an unknown email (the handler folds that one
// into invalid-credentials so responses do not enumerate users).
func (s *SecurityService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResult, error) {
	account, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrAccountNotFound
	}

	fp := fingerprint.Extract(input.UserAgent, input.IPAddress)
	now := time.Now()

	var (
		outcome     error
		token       string
		isNewDevice bool
		justLocked  bool
	)

	err = s.repo.UpdateSecurityState(ctx, account.ID, func(a *domain.Account) error {
		if locked, remaining := s.lockout.Check(a, now); locked {
			outcome = &autherror.AccountLockedError{Until: now.Add(remaining)}
			// Commit: the lazy-unlock path may have touched state, and a
			// locked account performs no credential check at all, so an
			// attacker gets no oracle while the lock holds.
			return nil
		}

		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(input.Password)) != nil {
			locked, remaining := s.lockout.RecordFailure(a, now)
			justLocked = locked
			outcome = &autherror.CredentialsError{AttemptsRemaining: remaining}
			// Commit the counted failure even though the login is rejected;
			// losing it on a crash would undercount an attacker's progress.
			return nil
		}

		s.lockout.RecordSuccess(a)

		_, isNewDevice = security.ClassifyDevice(a, fp, now)

		issued, _, err := s.tokens.Issue(a.ID, a.Email)
		if err != nil {
			return err
		}

		if err := s.sessions.Admit(a, fp, issued, now); err != nil {
			// The credential was proven, so the failure reset and the device
			// update still commit; only the session is refused.
			outcome = err
			return nil
		}

		token = issued
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A locked gate performs no credential check, so nothing is ledgered.
	var lockedErr *autherror.AccountLockedError
	if errors.As(outcome, &lockedErr) {
		return nil, outcome
	}

	succeeded := outcome == nil
	if recordErr := s.recordAttempt(ctx, account.ID, succeeded, fp, now); recordErr != nil {
		return nil, recordErr
	}

	if justLocked {
		s.fireAndForget(account.Email, notify.AccountLockedMessage(account.Email))
		s.publisher.Publish(account.ID, realtime.Event{
			Type:    realtime.EventSecurityAlert,
			Message: "Account locked after repeated failed login attempts.",
		})
	}

	// A session refused over the origin cap can still be the device's first
	// appearance. The trust record committed, so the alert goes out too.
	if isNewDevice {
		s.fireAndForget(account.Email, notify.NewDeviceMessage(account.Email, fp.Browser, fp.OS, fp.IPAddress))
		s.publisher.Publish(account.ID, realtime.Event{
			Type:    realtime.EventSecurityAlert,
			Message: "New device login detected.",
		})
	}

	if outcome != nil {
		return nil, outcome
	}

	return &dto.LoginResult{Token: token, IsNewDevice: isNewDevice}, nil
}

// Logout removes exactly the presented session token.
func (s *SecurityService) Logout(ctx context.Context, accountID, token string) error {
	return s.repo.UpdateSecurityState(ctx, accountID, func(a *domain.Account) error {
		security.RevokeSessions(a, func(sess domain.Session) bool {
			return sess.Token == token
		})
		return nil
	})
}

// LogoutAll revokes every session for the account and broadcasts the
// invalidation so open clients drop their tokens promptly.
func (s *SecurityService) LogoutAll(ctx context.Context, accountID string) error {
	err := s.repo.UpdateSecurityState(ctx, accountID, func(a *domain.Account) error {
		security.RevokeSessions(a, func(domain.Session) bool { return true })
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(accountID, realtime.Event{
		Type:    realtime.EventLogoutAll,
		Message: "All sessions have been logged out.",
	})
	return nil
}

// RevokeDevice drops every session bound to the given device id.
func (s *SecurityService) RevokeDevice(ctx context.Context, accountID, deviceID string) error {
	err := s.repo.UpdateSecurityState(ctx, accountID, func(a *domain.Account) error {
		security.RevokeSessions(a, func(sess domain.Session) bool {
			return sess.DeviceID == deviceID
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(accountID, realtime.Event{
		Type:    realtime.EventSecurityUpdate,
		Message: "Sessions for a device were revoked.",
	})
	return nil
}

// ValidateSession reports whether the token is still live for the account.
// Used by the auth middleware after the token's structure checks out.
func (s *SecurityService) ValidateSession(ctx context.Context, accountID, token string) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrAccountNotFound
	}
	if !security.ValidateSession(account, token) {
		return nil, autherror.ErrSessionInvalidated
	}
	return account, nil
}

// SecurityStatus returns the account's current security posture: status,
// trusted devices and the most recent login history, newest first.
func (s *SecurityService) SecurityStatus(ctx context.Context, accountID string) (*dto.SecurityStatusOutput, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrAccountNotFound
	}

	history, err := s.repo.RecentLoginAttempts(ctx, accountID, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	return dto.NewSecurityStatusOutput(account, history), nil
}

func (s *SecurityService) recordAttempt(ctx context.Context, accountID string, success bool, fp domain.Fingerprint, now time.Time) error {
	return s.repo.RecordLoginAttempt(ctx, &domain.LoginAttempt{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		AttemptTime: now,
		Successful:  success,
		IPAddress:   fp.IPAddress,
		Browser:     fp.Browser,
		OS:          fp.OS,
	})
}

func (s *SecurityService) fireAndForget(email string, msg notify.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.log.Warn("notification delivery failed", "to", email, "subject", msg.Subject, "error", err)
		}
	}()
}
