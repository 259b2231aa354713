package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/service"
	"github.com/prohmpiriya/event-planner/pkg/response"
)

// writeError maps service and domain errors onto the API's error bodies
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContractNotFound):
		response.NotFound(c, "Document not found")
	case domain.IsNotFoundError(err):
		response.NotFound(c, "Event not found")
	case domain.IsValidationError(err), errors.Is(err, service.ErrEmptyUpload):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
