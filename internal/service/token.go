package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/userhub/backend/internal/config"
)

const (
	tokenIssuer      = "userhub"
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	minSecretLength  = 32
)

// TokenSubject is what a verified token resolves to. Role is deliberately
// absent: it is always re-read from the credential store.
type TokenSubject struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	ExpiresAt time.Time
}

type tokenClaims struct {
	Type      string `json:"typ"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access and refresh tokens. Secrets
// are fixed at construction for the process lifetime.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("%w: JWT_SECRET must be at least %d bytes", ErrMisconfigured, minSecretLength)
	}

	refreshSecret := cfg.JWTRefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.JWTSecret
	}
	if len(refreshSecret) < minSecretLength {
		return nil, fmt.Errorf("%w: JWT_REFRESH_SECRET must be at least %d bytes", ErrMisconfigured, minSecretLength)
	}

	if cfg.AccessTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, fmt.Errorf("%w: JWT_REFRESH_TTL must exceed JWT_ACCESS_TTL", ErrMisconfigured)
	}

	return &TokenManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) IssueAccessToken(userID, sessionID uuid.UUID) (string, error) {
	return m.issue(tokenTypeAccess, m.accessSecret, m.accessTTL, userID, sessionID)
}

func (m *TokenManager) IssueRefreshToken(userID, sessionID uuid.UUID) (string, error) {
	return m.issue(tokenTypeRefresh, m.refreshSecret, m.refreshTTL, userID, sessionID)
}

func (m *TokenManager) VerifyAccessToken(token string) (*TokenSubject, error) {
	return m.verify(token, tokenTypeAccess, m.accessSecret)
}

func (m *TokenManager) VerifyRefreshToken(token string) (*TokenSubject, error) {
	return m.verify(token, tokenTypeRefresh, m.refreshSecret)
}

func (m *TokenManager) issue(typ string, secret []byte, ttl time.Duration, userID, sessionID uuid.UUID) (string, error) {
	now := m.now()
	claims := tokenClaims{
		Type:      typ,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (m *TokenManager) verify(tokenStr, typ string, secret []byte) (*TokenSubject, error) {
	if tokenStr == "" {
		return nil, unauthorized(ReasonNoToken)
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, unauthorized(classifyJWTError(err))
	}

	if claims.Type != typ {
		return nil, unauthorized(ReasonWrongType)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, unauthorized(ReasonMalformed)
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, unauthorized(ReasonMalformed)
	}

	return &TokenSubject{
		UserID:    userID,
		SessionID: sessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classifyJWTError(err error) RejectReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignatureInvalid
	default:
		return ReasonMalformed
	}
}
