package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/service"
)

type RouterDeps struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Transport *SessionTransport
	Metrics   *metrics.Metrics
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	Log            logrus.FieldLogger
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(
		RequestLogger(deps.Log, deps.Metrics),
		Recovery(),
		CORSMiddleware(deps.AllowedOrigins, true),
	)

	router.GET("/ping", Ping)
	router.GET("/", Root)
	router.GET("/openapi.json", OpenAPIDoc)
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	userHandler := NewUserAuthHandler(deps.Auth, deps.Users, deps.Transport, deps.Metrics)
	adminHandler := NewAdminHandler(deps.Auth, deps.Users, deps.Transport, deps.Metrics)

	api := router.Group("/api/v1")

	users := api.Group("/users")
	users.GET("/config", userHandler.Config)
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh", userHandler.Refresh)
	users.POST("/logout", userHandler.Logout)

	userOnly := users.Group("", RequireRole(deps.Auth, deps.Transport, model.RoleUser, deps.Metrics))
	userOnly.GET("/home", userHandler.Home)
	userOnly.PUT("/profile", userHandler.UpdateProfile)

	admin := api.Group("/admin")
	admin.POST("/login", adminHandler.Login)
	admin.POST("/refresh", adminHandler.Refresh)
	admin.POST("/logout", adminHandler.Logout)

	adminOnly := admin.Group("", RequireRole(deps.Auth, deps.Transport, model.RoleAdmin, deps.Metrics))
	adminOnly.GET("/dashboard", adminHandler.Dashboard)
	adminOnly.POST("/create", adminHandler.Create)
	adminOnly.POST("/edit", adminHandler.Edit)
	adminOnly.POST("/delete", adminHandler.Delete)
	adminOnly.DELETE("/delete", adminHandler.Delete)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not found"})
	})

	return router
}
