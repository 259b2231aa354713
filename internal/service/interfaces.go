package service

import (
	"context"
	"io"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// EventService defines the interface for event business logic
type EventService interface {
	// ListEvents returns every event
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// CreateEvent validates and stores a new event with server defaults
	CreateEvent(ctx context.Context, event *domain.Event, actor domain.Actor) (*domain.Event, error)
	// UpdateEvent merges a patch into an event and recomputes derived totals
	UpdateEvent(ctx context.Context, id string, patch *domain.EventPatch, actor domain.Actor) (*domain.Event, error)
	// DeleteEvent removes an event
	DeleteEvent(ctx context.Context, id string, actor domain.Actor) error
	// DuplicateEvent stores a draft copy of an event
	DuplicateEvent(ctx context.Context, id string, actor domain.Actor) (*domain.Event, error)
	// CreateRecurrences stores one copy per occurrence of the event's recurring config
	CreateRecurrences(ctx context.Context, id string, actor domain.Actor) ([]*domain.Event, error)
	// ChangeLog returns the audit trail of an event
	ChangeLog(ctx context.Context, id string) ([]domain.ChangeLogEntry, error)
}

// ContractService defines the interface for contract document handling
type ContractService interface {
	// UploadContract stores a contract file and attaches it to the event
	UploadContract(ctx context.Context, eventID, filename string, content io.Reader, actor domain.Actor) (*domain.ContractDocument, error)
	// GetContract returns the document attached to the event
	GetContract(ctx context.Context, eventID string) (*domain.ContractDocument, error)
}

// ChangeLogPublisher streams audit entries to downstream consumers
type ChangeLogPublisher interface {
	Publish(ctx context.Context, entries ...domain.ChangeLogEntry) error
}
