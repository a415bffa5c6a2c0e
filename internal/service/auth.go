package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/userhub/backend/internal/cache"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/db"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/redact"
)

// userRepo is the credential store.
type userRepo interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, role model.Role, search string) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID, role model.Role) error
}

type sessionRepo interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	RotateSession(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// Store is the credential and session store behind the services. db.Postgres
// and db.Memory both satisfy it.
type Store interface {
	userRepo
	sessionRepo
}

type AuthService struct {
	store         Store
	sessionCache  cache.SessionCache
	hasher        PasswordHasher
	tokens        *TokenManager
	allowSignup   bool
	lookupTimeout time.Duration
	log           logrus.FieldLogger
	now           func() time.Time

	// dummyHash is compared against when the email is unknown so that a
	// missing account costs the same as a wrong password.
	dummyHash string
}

// NewAuthService wires the session core. sessionCache may be nil.
func NewAuthService(store Store, sessionCache cache.SessionCache, hasher PasswordHasher, tokens *TokenManager, cfg config.AuthConfig, log logrus.FieldLogger) (*AuthService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("%w: token manager is required", ErrMisconfigured)
	}
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &AuthService{
		store:         store,
		sessionCache:  sessionCache,
		hasher:        hasher,
		tokens:        tokens,
		allowSignup:   cfg.AllowSignup,
		lookupTimeout: lookupTimeout,
		log:           log,
		now:           time.Now,
		dummyHash:     dummyHash,
	}, nil
}

func (s *AuthService) AllowSignup() bool {
	return s.allowSignup
}

// EnsureAdmin creates the bootstrap admin unless an identity with that email
// already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: ADMIN_EMAIL/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return fmt.Errorf("%w: %s belongs to a non-admin identity", ErrConflict, redact.Email(email))
		}
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	user, err := newIdentity(s.hasher, name, email, password, "", model.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return mapStoreError(err)
	}
	s.log.WithField("email", redact.Email(email)).Info("bootstrap admin created")
	return nil
}

// Register creates a role=user identity and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, model.TokenPair, error) {
	if !s.allowSignup {
		return nil, model.TokenPair{}, ErrSignupDisabled
	}

	user, err := newIdentity(s.hasher, req.Name, req.Email, req.Password, req.Image, model.RoleUser)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, model.TokenPair{}, mapStoreError(err)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	return user, pair, nil
}

// Login authenticates email/password against an identity holding role.
// An email registered under another role fails exactly like an unknown one.
func (s *AuthService) Login(ctx context.Context, role model.Role, email, password string) (*model.User, model.TokenPair, error) {
	email = normalizeEmail(email)
	entry := s.log.WithFields(logrus.Fields{"email": redact.Email(email), "role": role.String()})

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	user, err := s.store.GetUserByEmail(lookupCtx, email)
	cancel()
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, model.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if user == nil || user.Role != role {
		s.hasher.Compare(s.dummyHash, password)
		entry.WithField("reason", "unknown_identity").Warn("login rejected")
		return nil, model.TokenPair{}, unauthorized(ReasonBadCredentials)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		entry.WithField("reason", "password_mismatch").Warn("login rejected")
		return nil, model.TokenPair{}, unauthorized(ReasonBadCredentials)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	entry.WithField("user_id", user.ID.String()).Info("login succeeded")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The refresh token
// is single-use: presenting a superseded one revokes the whole session.
func (s *AuthService) Refresh(ctx context.Context, role model.Role, refreshToken string) (*model.User, model.TokenPair, error) {
	sub, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	session, err := s.store.GetSession(ctx, sub.SessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, model.TokenPair{}, unauthorized(ReasonSessionRevoked)
		}
		return nil, model.TokenPair{}, fmt.Errorf("lookup session: %w", err)
	}
	if session.UserID != sub.UserID || !session.Active(s.now()) {
		return nil, model.TokenPair{}, unauthorized(ReasonSessionRevoked)
	}

	presented := hashToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.RefreshHash)) != 1 {
		s.log.WithField("session_id", session.ID.String()).Warn("superseded refresh token presented, revoking session")
		if err := s.revokeSession(ctx, session.ID); err != nil {
			return nil, model.TokenPair{}, err
		}
		return nil, model.TokenPair{}, unauthorized(ReasonRefreshReused)
	}

	user, err := s.loadIdentity(ctx, sub.UserID)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	if !roleAllows(role, user.Role) {
		return nil, model.TokenPair{}, forbidden()
	}

	pair, err := s.issuePair(user.ID, session.ID)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if err := s.store.RotateSession(ctx, session.ID, session.RefreshHash, hashToken(pair.RefreshToken), expiresAt); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Another refresh won the race with the same token.
			return nil, model.TokenPair{}, unauthorized(ReasonRefreshReused)
		}
		return nil, model.TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}
	session.ExpiresAt = expiresAt
	s.cacheSession(ctx, session)

	return user, pair, nil
}

// Logout revokes the session named by either token. Tokens that do not
// verify are ignored; the caller clears cookies regardless of the result.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var sessionID uuid.UUID
	if sub, err := s.tokens.VerifyRefreshToken(refreshToken); err == nil {
		sessionID = sub.SessionID
	} else if sub, err := s.tokens.VerifyAccessToken(accessToken); err == nil {
		sessionID = sub.SessionID
	} else {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()
	return s.revokeSession(ctx, sessionID)
}

// Authorize runs the per-request gate: verify the access token, load the
// identity, confirm the session is live and check the role. Every failure is
// an error; lookups that time out fail closed.
func (s *AuthService) Authorize(ctx context.Context, accessToken string, required model.Role) (*model.AuthUser, error) {
	if accessToken == "" {
		return nil, unauthorized(ReasonNoToken)
	}

	sub, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	user, err := s.loadIdentity(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}

	active, err := s.sessionActive(ctx, sub.SessionID, user.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, unauthorized(ReasonSessionRevoked)
	}

	if !roleAllows(required, user.Role) {
		return nil, forbidden()
	}

	return &model.AuthUser{User: user.Public(), SessionID: sub.SessionID}, nil
}

// PurgeSessions deletes sessions that ended before now minus grace.
func (s *AuthService) PurgeSessions(ctx context.Context, grace time.Duration) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now().Add(-grace))
}

// roleAllows is the single role decision point. Adding a Role means adding a
// case here.
func roleAllows(required, actual model.Role) bool {
	switch required {
	case model.RoleUser:
		return actual == model.RoleUser
	case model.RoleAdmin:
		return actual == model.RoleAdmin
	default:
		return false
	}
}

func (s *AuthService) loadIdentity(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, unauthorized(ReasonIdentityMissing)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) sessionActive(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	now := s.now()
	if s.sessionCache != nil {
		cached, ok, err := s.sessionCache.Get(ctx, sessionID)
		if err != nil {
			s.log.WithError(err).Warn("session cache read failed, falling back to store")
		} else if ok {
			return cached.UserID == userID && cached.Active(now), nil
		}
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup session: %w", err)
	}
	s.cacheSession(ctx, session)
	return session.UserID == userID && session.Active(now), nil
}

// openSession mints both tokens before persisting anything, so a failure
// leaves neither a session row nor a token behind.
func (s *AuthService) openSession(ctx context.Context, user *model.User) (model.TokenPair, error) {
	sessionID := uuid.New()
	pair, err := s.issuePair(user.ID, sessionID)
	if err != nil {
		return model.TokenPair{}, err
	}

	session := &model.Session{
		ID:          sessionID,
		UserID:      user.ID,
		Role:        user.Role,
		RefreshHash: hashToken(pair.RefreshToken),
		ExpiresAt:   s.now().Add(s.tokens.RefreshTTL()),
	}
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()
	if err := s.store.CreateSession(ctx, session); err != nil {
		return model.TokenPair{}, fmt.Errorf("create session: %w", err)
	}
	s.cacheSession(ctx, session)
	return pair, nil
}

func (s *AuthService) issuePair(userID, sessionID uuid.UUID) (model.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID, sessionID)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(userID, sessionID)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.tokens.AccessTTL(),
		RefreshTTL:   s.tokens.RefreshTTL(),
	}, nil
}

func (s *AuthService) revokeSession(ctx context.Context, id uuid.UUID) error {
	if err := s.store.RevokeSession(ctx, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if s.sessionCache != nil {
		if err := s.sessionCache.MarkRevoked(ctx, id, s.tokens.RefreshTTL()); err != nil {
			s.log.WithError(err).WithField("session_id", id.String()).Error("session cache revoke failed")
			return fmt.Errorf("revoke cached session: %w", err)
		}
	}
	return nil
}

func (s *AuthService) cacheSession(ctx context.Context, session *model.Session) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID.String()).Warn("session cache write failed")
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicateEmail):
		return ErrConflict
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
