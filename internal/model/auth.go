package model

import (
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Image    string `json:"image" binding:"omitempty,url,max=2048"`
}

type SessionResponse struct {
	User      PublicUser `json:"user"`
	ExpiresIn int64      `json:"expiresIn"`
}

type AuthConfigResponse struct {
	AllowSignup bool `json:"allowSignup"`
}

// AuthUser is the identity resolved by the authorization gate for the
// current request.
type AuthUser struct {
	User      PublicUser
	SessionID uuid.UUID
}

// Session is the server-side record behind one access/refresh token pair.
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Role        Role
	RefreshHash string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// TokenPair is what a successful login, registration or refresh hands to the
// session transport.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}
