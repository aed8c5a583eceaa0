// Package httpapi exposes the admin-facing HTTP surface: schedule
// proposal review, the dashboard summary, and the schedule export — the
// operations an administrator drives from a browser rather than the
// operator channel.
package httpapi

import "github.com/gin-gonic/gin"

// Response is the envelope every endpoint in this package returns.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Handlers bundles every handler this package registers.
type Handlers struct {
	Schedule *ScheduleHandler
	Webhook  *WebhookHandler
}
