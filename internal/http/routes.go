package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "task-board.com/task-board/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute, middleware.ReadOnly))

	e.POST("/tasks", h.CreateTask)
	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/:id", h.GetTask)
	e.PATCH("/tasks/:id", h.EditTask)
	e.PUT("/tasks/:id/column", h.MoveTask)
	e.DELETE("/tasks/:id", h.DeleteTask)

	e.GET("/timers", h.LiveTimers)
	e.GET("/timers/stream", h.StreamTimers)
	e.GET("/stats", h.Stats)

	e.POST("/sync/pull", h.PullRemote)
	e.POST("/sync/push", h.PushRemote)
}
