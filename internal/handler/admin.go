package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/service"
)

// AdminHandler serves the admin session routes and the dashboard CRUD. CRUD
// only ever touches role=user identities.
type AdminHandler struct {
	sessionHandler
	users *service.UserService
}

func NewAdminHandler(auth *service.AuthService, users *service.UserService, transport *SessionTransport, m *metrics.Metrics) *AdminHandler {
	return &AdminHandler{
		sessionHandler: sessionHandler{auth: auth, transport: transport, metrics: m, role: model.RoleAdmin},
		users:          users,
	}
}

// Login godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.SessionResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	h.login(c)
}

// Refresh godoc
// @Summary Renew the admin session
// @Tags admin
// @Produce json
// @Success 200 {object} model.SessionResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/admin/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	h.refresh(c)
}

// Logout godoc
// @Summary Admin logout
// @Tags admin
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Router /api/v1/admin/logout [post]
func (h *AdminHandler) Logout(c *gin.Context) {
	h.logout(c)
}

// Dashboard godoc
// @Summary List users
// @Description Case-insensitive substring match on name or email. 404 when nothing matches.
// @Tags admin
// @Produce json
// @Param search query string false "Name or email fragment"
// @Success 200 {object} model.UserListResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	users, err := h.users.Dashboard(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := model.UserListResponse{Users: make([]model.PublicUser, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, users[i].Public())
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Create a user
// @Description Creates a role=user identity. Does not touch the caller's session.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body model.CreateUserRequest true "New identity"
// @Success 201 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/admin/create [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.UserResponse{User: user.Public()})
}

// Edit godoc
// @Summary Edit a user
// @Tags admin
// @Accept json
// @Produce json
// @Param request body model.EditUserRequest true "Identity fields"
// @Success 200 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/admin/edit [post]
func (h *AdminHandler) Edit(c *gin.Context) {
	var req model.EditUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.EditUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UserResponse{User: user.Public()})
}

// Delete godoc
// @Summary Delete a user
// @Description id comes from the query string or the JSON body.
// @Tags admin
// @Accept json
// @Produce json
// @Param id query string false "User id"
// @Param request body model.DeleteUserRequest false "User id"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/admin/delete [post]
// @Router /api/v1/admin/delete [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		var req model.DeleteUserRequest
		if !bindJSON(c, &req) {
			return
		}
		id = req.ID
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "user deleted"})
}
