package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/novaboard-scheduler/internal/eventbus"
	"github.com/bitfantasy/novaboard-scheduler/internal/middleware"
)

// RegisterRoutes wires the admin API, the operator-channel webhook, and
// the dashboard's SSE stream onto r. Everything under /api/v1 except the
// webhook requires a valid JWT; the webhook authenticates the operator
// channel's own way (a shared-secret path segment configured at the
// reverse proxy) and is left open here.
func RegisterRoutes(r *gin.Engine, h *Handlers, hub *eventbus.Hub, jwtSecret string) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/telegram/webhook", h.Webhook.Handle)

	v1 := r.Group("/api/v1")
	{
		sse := v1.Group("/sse")
		sse.Use(middleware.JWTAuth(jwtSecret))
		sse.GET("/events", hub.Stream)

		schedule := v1.Group("/schedule")
		schedule.Use(middleware.JWTAuth(jwtSecret))
		{
			schedule.POST("/propose", h.Schedule.Propose)
			schedule.POST("/:id/approve", h.Schedule.Approve)
			schedule.POST("/:id/reject", h.Schedule.Reject)
			schedule.POST("/:id/revise", h.Schedule.Revise)
			schedule.GET("/:id/export", h.Schedule.Export)
			schedule.GET("/dashboard", h.Schedule.Dashboard)
			schedule.POST("/cancel_order", h.Schedule.CancelOrder)
			schedule.POST("/restart_order", h.Schedule.RestartOrder)
		}
	}
}
