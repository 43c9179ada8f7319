package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Token purposes keep a reset link from being replayed as a session.
const (
	PurposeSession = "session"
	PurposeReset   = "reset"
)

// TokenManager signs and validates HS256 tokens for web sessions and
// password-reset links.
type TokenManager struct {
	secretKey  []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// Claims are the custom JWT claims.
type Claims struct {
	Username string `json:"username"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a manager. secretKey should be a strong random
// string of at least 32 bytes.
func NewTokenManager(secretKey string, sessionTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:  []byte(secretKey),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// SessionTTL is the lifetime of session tokens, used for cookie MaxAge.
func (m *TokenManager) SessionTTL() time.Duration {
	return m.sessionTTL
}

// IssueSession creates a session token for username.
func (m *TokenManager) IssueSession(username string) (string, error) {
	return m.issue(username, PurposeSession, m.sessionTTL)
}

// IssueReset creates a short-lived password reset token for username.
func (m *TokenManager) IssueReset(username string) (string, error) {
	return m.issue(username, PurposeReset, m.resetTTL)
}

// ValidateSession returns the username of a valid session token.
func (m *TokenManager) ValidateSession(token string) (string, error) {
	return m.validate(token, PurposeSession)
}

// ValidateReset returns the username of a valid reset token.
func (m *TokenManager) ValidateReset(token string) (string, error) {
	return m.validate(token, PurposeReset)
}

func (m *TokenManager) issue(username, purpose string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) validate(tokenString, purpose string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose || claims.Username == "" {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}
