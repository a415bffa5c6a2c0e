package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/userhub/backend/internal/config"
)

const (
	testSecret      = "test-access-secret-0123456789abcdef"
	testOtherSecret = "another-secret-0123456789abcdefghij"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     testSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		LookupTimeout: time.Second,
		AllowSignup:   true,
	}
}

func newTestTokens(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testAuthConfig())
	require.NoError(t, err)
	return m
}

func TestNewTokenManagerRefusesMissingOrWeakSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	_, err := NewTokenManager(cfg)
	require.ErrorIs(t, err, ErrMisconfigured)

	cfg.JWTSecret = "short"
	_, err = NewTokenManager(cfg)
	require.ErrorIs(t, err, ErrMisconfigured)

	cfg = testAuthConfig()
	cfg.RefreshTTL = cfg.AccessTTL
	_, err = NewTokenManager(cfg)
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestTokens(t)

	for i := 0; i < 5; i++ {
		userID, sessionID := uuid.New(), uuid.New()

		access, err := m.IssueAccessToken(userID, sessionID)
		require.NoError(t, err)
		sub, err := m.VerifyAccessToken(access)
		require.NoError(t, err)
		require.Equal(t, userID, sub.UserID)
		require.Equal(t, sessionID, sub.SessionID)

		refresh, err := m.IssueRefreshToken(userID, sessionID)
		require.NoError(t, err)
		sub, err = m.VerifyRefreshToken(refresh)
		require.NoError(t, err)
		require.Equal(t, userID, sub.UserID)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	m := newTestTokens(t)
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, ReasonExpired, ReasonOf(err))
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	m := newTestTokens(t)

	cfg := testAuthConfig()
	cfg.JWTSecret = testOtherSecret
	other, err := NewTokenManager(cfg)
	require.NoError(t, err)

	token, err := other.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, ReasonSignatureInvalid, ReasonOf(err))
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := newTestTokens(t)
	userID, sessionID := uuid.New(), uuid.New()

	refresh, err := m.IssueRefreshToken(userID, sessionID)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(refresh)
	require.Equal(t, ReasonWrongType, ReasonOf(err))

	access, err := m.IssueAccessToken(userID, sessionID)
	require.NoError(t, err)
	_, err = m.VerifyRefreshToken(access)
	require.Equal(t, ReasonWrongType, ReasonOf(err))
}

func TestDistinctRefreshSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTRefreshSecret = testOtherSecret
	m, err := NewTokenManager(cfg)
	require.NoError(t, err)

	refresh, err := m.IssueRefreshToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	// A refresh token must not verify under the access secret.
	_, err = jwt.Parse(refresh, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.Error(t, err)

	_, err = m.VerifyRefreshToken(refresh)
	require.NoError(t, err)
}

func TestMalformedTokens(t *testing.T) {
	m := newTestTokens(t)

	tests := []struct {
		name   string
		token  string
		reason RejectReason
	}{
		{name: "empty", token: "", reason: ReasonNoToken},
		{name: "garbage", token: "not-a-jwt", reason: ReasonMalformed},
		{name: "three-dots", token: "a.b.c", reason: ReasonMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(tt.token)
			require.ErrorIs(t, err, ErrUnauthorized)
			require.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}

func TestUnsignedTokenIsRejected(t *testing.T) {
	m := newTestTokens(t)
	claims := tokenClaims{
		Type:      tokenTypeAccess,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, ReasonSignatureInvalid, ReasonOf(err))
}
