package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/service"
)

const (
	authUserKey  = "auth_user"
	loggerKey    = "logger"
	requestIDKey = "X-Request-Id"
)

// RequireRole is the authorization gate for one route group. Every rejection
// path writes a response and aborts.
func RequireRole(authService *service.AuthService, transport *SessionTransport, role model.Role, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.Authorize(c.Request.Context(), transport.AccessToken(c), role)
		if err != nil {
			reason := string(service.ReasonOf(err))
			if reason == "" {
				reason = "lookup_failed"
			}
			m.GateRejected(role.String(), reason)
			requestLogger(c).WithFields(logrus.Fields{"reason": reason, "required_role": role.String()}).Warn("request rejected")
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Set(loggerKey, requestLogger(c).WithField("user_id", user.User.ID.String()))
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

// RequestLogger attaches a request-scoped logger and records the outcome.
func RequestLogger(log logrus.FieldLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDKey, requestID)
		c.Set(loggerKey, log.WithField("request_id", requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), latency.Seconds())

		entry := requestLogger(c).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": latency.String(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Info("request completed")
		default:
			entry.Debug("request completed")
		}
	}
}

// Recovery turns a panic into a 500 instead of a dropped connection.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestLogger(c).WithField("panic", recovered).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	})
}

func requestLogger(c *gin.Context) logrus.FieldLogger {
	if value, ok := c.Get(loggerKey); ok {
		if log, ok := value.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
