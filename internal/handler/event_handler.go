package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/service"
	"github.com/prohmpiriya/event-planner/pkg/response"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// List handles GET /events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, events)
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, event)
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	var req domain.Event
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, event)
}

// Update handles PATCH /events/:id. Only the fields present in the body change.
func (h *EventHandler) Update(c *gin.Context) {
	var patch domain.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), c.Param("id"), &patch, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, event)
}

// Delete handles DELETE /events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.eventService.DeleteEvent(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c)
}

// Duplicate handles POST /events/:id/duplicate
func (h *EventHandler) Duplicate(c *gin.Context) {
	event, err := h.eventService.DuplicateEvent(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, event)
}

// CreateRecurrences handles POST /events/:id/recurrences
func (h *EventHandler) CreateRecurrences(c *gin.Context) {
	events, err := h.eventService.CreateRecurrences(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, events)
}

// ChangeLog handles GET /events/:id/changelog
func (h *EventHandler) ChangeLog(c *gin.Context) {
	entries, err := h.eventService.ChangeLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, entries)
}
