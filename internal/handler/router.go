package handler

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// Handlers groups the handlers mounted by Register
type Handlers struct {
	Health   *HealthHandler
	Event    *EventHandler
	Contract *ContractHandler
}

// Register mounts the event API on router. Extra middleware applies to the
// state-changing POST routes only.
func Register(router gin.IRouter, h *Handlers, postMiddleware ...gin.HandlerFunc) {
	post := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clip(postMiddleware), final)
	}

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)

	events := router.Group("/events")
	{
		events.GET("", h.Event.List)
		events.POST("", post(h.Event.Create)...)
		events.GET("/:id", h.Event.Get)
		events.PATCH("/:id", h.Event.Update)
		events.PUT("/:id", h.Event.Update)
		events.DELETE("/:id", h.Event.Delete)
		events.POST("/:id/duplicate", post(h.Event.Duplicate)...)
		events.POST("/:id/recurrences", post(h.Event.CreateRecurrences)...)
		events.GET("/:id/changelog", h.Event.ChangeLog)
		events.POST("/:id/contract", h.Contract.Upload)
		events.GET("/:id/contract", h.Contract.Get)
	}
}
