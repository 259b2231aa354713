package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// Caller identity headers, set by whatever authenticates in front of the API
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// actorFrom reads the caller identity, falling back to the system actor
func actorFrom(c *gin.Context) domain.Actor {
	id := c.GetHeader(HeaderUserID)
	if id == "" {
		return domain.SystemActor
	}
	name := c.GetHeader(HeaderUserName)
	if name == "" {
		name = id
	}
	return domain.Actor{UserID: id, UserName: name}
}
