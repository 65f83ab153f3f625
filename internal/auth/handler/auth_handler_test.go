package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shubham20040627/Smart-Account-Breach-System/config"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/dto"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/handler"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/service"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/mocks"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/notify"
)

const testPassword = "password123"

type handlerFixture struct {
	app    *fiber.App
	repo   *mocks.MockAccountRepository
	tokens *mocks.MockTokenGenerator
}

func newFixture(t *testing.T) handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockAccountRepository(ctrl)
	tokens := mocks.NewMockTokenGenerator(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).AnyTimes()

	cfg := &config.Config{
		LoginMaxAttempts:   5,
		LoginWindowSeconds: 120,
		LockoutMinutes:     10,
		MaxSessionOrigins:  3,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	// The log notifier keeps email delivery out of these tests; the async
	// send then cannot race the mock controller's Finish.
	securityService := service.NewSecurityService(repo, tokens, &notify.LogNotifier{Log: log}, publisher, cfg, log)
	h := handler.NewAuthHandler(securityService, tokens, nil, log)

	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)

	protected := app.Group("", h.Protect())
	protected.Post("/logout", h.Logout)
	protected.Get("/security-status", h.SecurityStatus)

	return handlerFixture{app: app, repo: repo, tokens: tokens}
}

func testAccount(t *testing.T) *domain.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.Account{
		ID:           "acc-1",
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		Status:       domain.StatusActive,
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestRegisterHandler(t *testing.T) {
	f := newFixture(t)

	t.Run("success", func(t *testing.T) {
		f.repo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(nil, nil)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doJSON(t, f.app, "POST", "/register",
			dto.RegisterInput{Name: "Test User", Email: "test@example.com", Password: testPassword}, nil)

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "test@example.com", body["email"])
	})

	t.Run("malformed body", func(t *testing.T) {
		status, _ := doJSON(t, f.app, "POST", "/register", "not-an-object", nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("validation failure", func(t *testing.T) {
		status, _ := doJSON(t, f.app, "POST", "/register",
			dto.RegisterInput{Name: "Test User", Email: "not-an-email", Password: "short"}, nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)

		f.repo.EXPECT().GetByEmail(gomock.Any(), account.Email).Return(account, nil)
		f.repo.EXPECT().UpdateSecurityState(gomock.Any(), account.ID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, fn func(*domain.Account) error) error { return fn(account) })
		f.tokens.EXPECT().Issue(account.ID, account.Email).Return("access-token", time.Now().Add(time.Hour), nil)
		f.repo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doJSON(t, f.app, "POST", "/login",
			dto.LoginInput{Email: account.Email, Password: testPassword}, nil)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "access-token", body["token"])
		assert.Equal(t, true, body["is_new_device"])
	})

	t.Run("invalid credentials includes attempts remaining", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)

		f.repo.EXPECT().GetByEmail(gomock.Any(), account.Email).Return(account, nil)
		f.repo.EXPECT().UpdateSecurityState(gomock.Any(), account.ID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, fn func(*domain.Account) error) error { return fn(account) })
		f.repo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doJSON(t, f.app, "POST", "/login",
			dto.LoginInput{Email: account.Email, Password: "wrong-password"}, nil)

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
		assert.Equal(t, float64(4), body["attempts_remaining"])
	})

	t.Run("unknown email shares the invalid-credentials response", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)

		status, body := doJSON(t, f.app, "POST", "/login",
			dto.LoginInput{Email: "ghost@example.com", Password: testPassword}, nil)

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("locked account", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)
		until := time.Now().Add(5 * time.Minute)
		account.Status = domain.StatusLocked
		account.LockUntil = &until

		f.repo.EXPECT().GetByEmail(gomock.Any(), account.Email).Return(account, nil)
		f.repo.EXPECT().UpdateSecurityState(gomock.Any(), account.ID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, fn func(*domain.Account) error) error { return fn(account) })

		status, body := doJSON(t, f.app, "POST", "/login",
			dto.LoginInput{Email: account.Email, Password: testPassword}, nil)

		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, true, body["locked"])
		assert.Greater(t, body["retry_after_seconds"], float64(0))
	})

	t.Run("too many origins", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)
		account.ActiveSessions = []domain.Session{
			{Token: "a", DeviceID: "d1", IPAddress: "10.0.0.1", IssuedAt: time.Now()},
			{Token: "b", DeviceID: "d2", IPAddress: "10.0.0.2", IssuedAt: time.Now()},
			{Token: "c", DeviceID: "d3", IPAddress: "10.0.0.3", IssuedAt: time.Now()},
		}

		f.repo.EXPECT().GetByEmail(gomock.Any(), account.Email).Return(account, nil)
		f.repo.EXPECT().UpdateSecurityState(gomock.Any(), account.ID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, fn func(*domain.Account) error) error { return fn(account) })
		f.tokens.EXPECT().Issue(account.ID, account.Email).Return("access-token", time.Now().Add(time.Hour), nil)
		f.repo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doJSON(t, f.app, "POST", "/login",
			dto.LoginInput{Email: account.Email, Password: testPassword}, nil)

		assert.Equal(t, fiber.StatusTooManyRequests, status)
		assert.NotContains(t, body["error"], "10.0.0", "must not reveal which origins are active")
	})
}

func TestProtectedRoutes(t *testing.T) {
	authorized := map[string]string{"Authorization": "Bearer live-token"}

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)
		status, _ := doJSON(t, f.app, "POST", "/logout", nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)

		f.tokens.EXPECT().Verify("live-token").Return(&service.JWTCustomClaims{UserID: account.ID}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), account.ID).Return(account, nil)

		status, body := doJSON(t, f.app, "POST", "/logout", nil, authorized)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Contains(t, body["error"], "Session invalidated")
	})

	t.Run("logout removes the presented token", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)
		account.ActiveSessions = []domain.Session{
			{Token: "live-token", DeviceID: "d1", IPAddress: "10.0.0.1", IssuedAt: time.Now()},
		}

		f.tokens.EXPECT().Verify("live-token").Return(&service.JWTCustomClaims{UserID: account.ID}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), account.ID).Return(account, nil)
		f.repo.EXPECT().UpdateSecurityState(gomock.Any(), account.ID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, fn func(*domain.Account) error) error { return fn(account) })

		status, _ := doJSON(t, f.app, "POST", "/logout", nil, authorized)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Empty(t, account.ActiveSessions)
	})

	t.Run("security status", func(t *testing.T) {
		f := newFixture(t)
		account := testAccount(t)
		account.ActiveSessions = []domain.Session{
			{Token: "live-token", DeviceID: "d1", IPAddress: "10.0.0.1", IssuedAt: time.Now()},
		}
		account.TrustedDevices = []domain.Device{{DeviceID: "d1", Browser: "Chrome", OS: "Windows", Verified: true}}

		f.tokens.EXPECT().Verify("live-token").Return(&service.JWTCustomClaims{UserID: account.ID}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), account.ID).Return(account, nil).Times(2)
		f.repo.EXPECT().RecentLoginAttempts(gomock.Any(), account.ID, 10).
			Return([]domain.LoginAttempt{{ID: "att-1", AccountID: account.ID, Successful: true, AttemptTime: time.Now()}}, nil)

		status, body := doJSON(t, f.app, "GET", "/security-status", nil, authorized)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "ACTIVE", body["account_status"])
		require.Len(t, body["trusted_devices"], 1)
		require.Len(t, body["login_history"], 1)
	})
}
