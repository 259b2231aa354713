package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// EventRepository defines the interface for event data access.
// Lookups of a missing id return domain.ErrNotFound.
type EventRepository interface {
	// Create stores a new event
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// List returns every event in creation order
	List(ctx context.Context) ([]*domain.Event, error)
	// Patch atomically merges patch into a stored event, stamps updatedAt
	// and returns the event before and after the change
	Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (before, after *domain.Event, err error)
	// SetContractDocument merges an uploaded document into the event's contract
	SetContractDocument(ctx context.Context, id string, doc domain.ContractDocument) error
	// Delete removes an event
	Delete(ctx context.Context, id string) error
}

// ChangeLogRepository defines the interface for the append-only audit trail
type ChangeLogRepository interface {
	// Append stores entries in order
	Append(ctx context.Context, entries ...domain.ChangeLogEntry) error
	// ListByEvent returns the entries of one event, oldest first
	ListByEvent(ctx context.Context, eventID string) ([]domain.ChangeLogEntry, error)
}
