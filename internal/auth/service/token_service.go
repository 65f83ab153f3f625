package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/service TokenGenerator

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenGenerator is the external signing capability. The security engine
// treats tokens as opaque bearer strings; only the middleware asks for
// structural verification.
type TokenGenerator interface {
	Issue(accountID, email string) (string, time.Time, error)
	Verify(tokenString string) (*JWTCustomClaims, error)
}

type TokenService struct {
	Secret string
	Expiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewTokenService(secret string, expiryMinutes int) *TokenService {
	return &TokenService{
		Secret: secret,
		Expiry: time.Duration(expiryMinutes) * time.Minute,
	}
}

func (ts *TokenService) Issue(accountID, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.Expiry)

	claims := JWTCustomClaims{
		UserID: accountID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Verify parses and validates the given token string. A valid signature and
// unexpired claims are necessary but not sufficient for an authenticated
// request: the token must also still be in the account's active session set.
func (ts *TokenService) Verify(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
