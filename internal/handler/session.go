package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/model"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	cookiePath = "/"
)

var errIncompleteSession = errors.New("session needs both tokens")

// SessionTransport carries the token pair in two HttpOnly, SameSite=Strict
// cookies. Secure follows the environment.
type SessionTransport struct {
	domain string
	secure bool
}

func NewSessionTransport(cfg config.AuthConfig) *SessionTransport {
	return &SessionTransport{domain: cfg.CookieDomain, secure: cfg.CookieSecure}
}

// Establish writes both cookies, or none when the pair is incomplete.
func (t *SessionTransport) Establish(c *gin.Context, pair model.TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return errIncompleteSession
	}
	t.set(c, AccessCookieName, pair.AccessToken, maxAge(pair.AccessTTL))
	t.set(c, RefreshCookieName, pair.RefreshToken, maxAge(pair.RefreshTTL))
	return nil
}

// Clear expires both cookies immediately.
func (t *SessionTransport) Clear(c *gin.Context) {
	t.set(c, AccessCookieName, "", -1)
	t.set(c, RefreshCookieName, "", -1)
}

func (t *SessionTransport) AccessToken(c *gin.Context) string {
	token, _ := c.Cookie(AccessCookieName)
	return token
}

func (t *SessionTransport) RefreshToken(c *gin.Context) string {
	token, _ := c.Cookie(RefreshCookieName)
	return token
}

func (t *SessionTransport) set(c *gin.Context, name, value string, age int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, age, cookiePath, t.domain, t.secure, true)
}

func maxAge(ttl time.Duration) int {
	return int(ttl / time.Second)
}
