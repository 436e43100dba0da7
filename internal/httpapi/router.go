// Package httpapi exposes the delivery service over HTTP/JSON with gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"campusDelivery/internal/config"
	"campusDelivery/internal/db"
	"campusDelivery/internal/metrics"
	"campusDelivery/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Config         *config.Config
	DB             *db.DB
	Users          *service.UserService
	Establishments *service.EstablishmentService
	Orders         *service.OrderService
	Metrics        *metrics.Metrics
	Log            *slog.Logger
}

type handler struct {
	Deps
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	h := &handler{Deps: d}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log), requestMetrics(d.Metrics))
	r.Use(cors.New(corsConfig(d.Config.HTTP.CORSOrigins)))

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	api.GET("/health", h.health)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}
	protected := api.Group("", requireUser(d.Config.Auth.JWTSecret, d.Users))
	{
		protected.GET("/auth/me", h.me)
		protected.GET("/auth/users/:id", h.getUser)

		ests := protected.Group("/establishments")
		ests.GET("", h.listEstablishments)
		ests.GET("/search", h.searchEstablishments)
		ests.GET("/:id", h.getEstablishment)
		ests.GET("/:id/menu", h.getMenu)

		orders := protected.Group("/orders")
		orders.POST("", h.createOrder)
		orders.GET("/my-orders", h.myOrders)
		orders.GET("/available", h.availableOrders)
		orders.GET("/delivering", h.deliveringOrders)
		orders.GET("/:id", h.getOrder)
		orders.PUT("/:id/accept", h.acceptOrder)
		orders.PUT("/:id/update-status", h.updateOrderStatus)
		orders.PUT("/:id/complete", h.completeOrder)
		orders.PUT("/:id/cancel", h.cancelOrder)
		orders.POST("/:id/upload-image", h.uploadImage)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", nextPageHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		h.Log.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
}
