package httpapi

import (
	"log/slog"
	"time"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/auth"
	"campusDelivery/internal/metrics"
	"campusDelivery/internal/service"
	"campusDelivery/models"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// requireUser verifies the bearer token and loads the caller. The token only
// carries the email; the user row is the source of truth for id and balance.
func requireUser(secret string, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			abortWithError(c, apperr.Unauthenticated("could not validate credentials"))
			return
		}
		u, err := users.Resolve(c.Request.Context(), p.Email)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Set(userKey, u)
		c.Next()
	}
}

// currentUser returns the caller set by requireUser.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}
