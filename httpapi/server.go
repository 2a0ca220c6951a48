// Package httpapi exposes the staff operations as JSON over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kopi-store/services"
)

const actorHeader = "X-Staff-Name"

type Server struct {
	svc     *services.Services
	storeID string
}

// NewRouter serves a single store; requests never name the store.
func NewRouter(svc *services.Services, storeID string) *gin.Engine {
	s := &Server{svc: svc, storeID: storeID}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/orders", s.listOrders)
		api.POST("/orders", s.placeOrder)
		api.POST("/orders/check", s.checkOrder)
		api.GET("/orders/:id", s.getOrder)
		api.GET("/orders/:id/history", s.orderHistory)
		api.POST("/orders/:id/advance", s.advanceOrder)
		api.POST("/orders/:id/cancel", s.cancelOrder)

		api.GET("/dashboard", s.dashboard)

		api.GET("/menu", s.listMenu)
		api.POST("/menu", s.createMenuItem)
		api.GET("/menu/:id", s.getMenuItem)
		api.PUT("/menu/:id", s.updateMenuItem)
		api.PUT("/menu/:id/stock", s.setStock)
		api.DELETE("/menu/:id", s.deleteMenuItem)

		api.GET("/settings", s.getSettings)
		api.PUT("/settings/info", s.updateInfo)
		api.PUT("/settings/hours", s.updateHours)
		api.PUT("/settings/policy", s.updatePolicy)
		api.POST("/settings/special-days", s.addSpecialDay)
		api.DELETE("/settings/special-days/:id", s.removeSpecialDay)

		api.GET("/store/status", s.storeStatus)
		api.GET("/calendar/:date", s.calendarDay)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

func actor(c *gin.Context) string {
	if v := c.GetHeader(actorHeader); v != "" {
		return v
	}
	return "staff"
}
