package apiclient

import (
	"errors"
	"net/http"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// ErrRequestFailed matches every RequestFailedError through errors.Is
var ErrRequestFailed = errors.New("request failed")

// Fallback messages used when the server gives no error text
const (
	msgListFailed      = "Failed to fetch events"
	msgGetFailed       = "Failed to fetch event"
	msgCreateFailed    = "Failed to create event"
	msgUpdateFailed    = "Failed to update event"
	msgDeleteFailed    = "Failed to delete event"
	msgDuplicateFailed = "Failed to duplicate event"
	msgRecurFailed     = "Failed to create recurring events"
	msgChangeLogFailed = "Failed to fetch change log"
	msgUploadFailed    = "Failed to upload contract"
)

// RequestFailedError is returned when the transport fails, the server answers
// with a non-2xx status, or the payload cannot be decoded.
type RequestFailedError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrRequestFailed, and domain.ErrNotFound on 404
func (e *RequestFailedError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRequestFailed checks if the error came from a failed API call
func IsRequestFailed(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}
