package service

import (
	"errors"
	"fmt"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// Common errors
var (
	ErrContractNotFound = errors.New("contract document not found")
	ErrEmptyUpload      = errors.New("no file provided")
	ErrNotRecurring     = fmt.Errorf("%w: event has no recurring config", domain.ErrInvalidEvent)
)
