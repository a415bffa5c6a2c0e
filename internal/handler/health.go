package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userhub/backend/internal/model"
)

// Ping godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} model.PingResponse
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{
		Status:  "ok",
		Message: "userhub API server is running",
	})
}
