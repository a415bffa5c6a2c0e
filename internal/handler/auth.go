package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/service"
)

// sessionHandler holds the login/refresh/logout flow shared by the user and
// admin route groups. role is fixed per group.
type sessionHandler struct {
	auth      *service.AuthService
	transport *SessionTransport
	metrics   *metrics.Metrics
	role      model.Role
}

func (h *sessionHandler) login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, pair, err := h.auth.Login(c.Request.Context(), h.role, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			h.metrics.LoginResult(h.role.String(), "rejected")
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "invalid email or password"})
			return
		}
		h.metrics.LoginResult(h.role.String(), "error")
		writeError(c, err)
		return
	}

	h.metrics.LoginResult(h.role.String(), "success")
	h.respondWithSession(c, http.StatusOK, user, pair)
}

func (h *sessionHandler) refresh(c *gin.Context) {
	user, pair, err := h.auth.Refresh(c.Request.Context(), h.role, h.transport.RefreshToken(c))
	if err != nil {
		if reason := service.ReasonOf(err); reason != "" {
			requestLogger(c).WithField("reason", string(reason)).Warn("refresh rejected")
		}
		if errors.Is(err, service.ErrUnauthorized) {
			h.transport.Clear(c)
		}
		writeError(c, err)
		return
	}
	h.respondWithSession(c, http.StatusOK, user, pair)
}

// logout clears both cookies before anything else can fail.
func (h *sessionHandler) logout(c *gin.Context) {
	h.transport.Clear(c)
	if err := h.auth.Logout(c.Request.Context(), h.transport.AccessToken(c), h.transport.RefreshToken(c)); err != nil {
		requestLogger(c).WithError(err).Error("session revoke failed")
	}
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

func (h *sessionHandler) respondWithSession(c *gin.Context, status int, user *model.User, pair model.TokenPair) {
	if err := h.transport.Establish(c, pair); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, model.SessionResponse{
		User:      user.Public(),
		ExpiresIn: int64(pair.AccessTTL.Seconds()),
	})
}

type UserAuthHandler struct {
	sessionHandler
	users *service.UserService
}

func NewUserAuthHandler(auth *service.AuthService, users *service.UserService, transport *SessionTransport, m *metrics.Metrics) *UserAuthHandler {
	return &UserAuthHandler{
		sessionHandler: sessionHandler{auth: auth, transport: transport, metrics: m, role: model.RoleUser},
		users:          users,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Sign up when ALLOW_SIGNUP is true. Sets the access and refresh cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "New identity"
// @Success 201 {object} model.SessionResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/register [post]
func (h *UserAuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, pair, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithSession(c, http.StatusCreated, user, pair)
}

// Login godoc
// @Summary User login
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.SessionResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/login [post]
func (h *UserAuthHandler) Login(c *gin.Context) {
	h.login(c)
}

// Refresh godoc
// @Summary Renew the user session
// @Description Uses the refreshToken cookie. The refresh token is single-use.
// @Tags users
// @Produce json
// @Success 200 {object} model.SessionResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/refresh [post]
func (h *UserAuthHandler) Refresh(c *gin.Context) {
	h.refresh(c)
}

// Logout godoc
// @Summary User logout
// @Description Revokes the session (if any) and always clears both cookies.
// @Tags users
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Router /api/v1/users/logout [post]
func (h *UserAuthHandler) Logout(c *gin.Context) {
	h.logout(c)
}

// Config godoc
// @Summary Get auth config
// @Tags users
// @Produce json
// @Success 200 {object} model.AuthConfigResponse
// @Router /api/v1/users/config [get]
func (h *UserAuthHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, model.AuthConfigResponse{
		AllowSignup: h.auth.AllowSignup(),
	})
}

// Home godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/users/home [get]
func (h *UserAuthHandler) Home(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, model.UserResponse{User: user.User})
}

// UpdateProfile godoc
// @Summary Edit own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/users/profile [put]
func (h *UserAuthHandler) UpdateProfile(c *gin.Context) {
	caller := GetAuthUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), caller.User, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UserResponse{User: user.Public()})
}
