package repository

import (
	"context"
	"sync"
	"time"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// MemoryEventRepository implements EventRepository using in-memory storage.
// It is the default driver for development and tests.
type MemoryEventRepository struct {
	events map[string]*domain.Event
	order  []string // ids in insertion order
	mu     sync.RWMutex
}

// NewMemoryEventRepository creates a new in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
	}
}

// Create stores a copy of event
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return domain.ErrAlreadyExists
	}
	r.events[event.ID] = event.Clone()
	r.order = append(r.order, event.ID)
	return nil
}

// GetByID returns a copy of the stored event
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return event.Clone(), nil
}

// List returns copies of all events in insertion order
func (r *MemoryEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*domain.Event, 0, len(r.order))
	for _, id := range r.order {
		events = append(events, r.events[id].Clone())
	}
	return events, nil
}

// Patch merges patch into the stored event under the write lock and
// returns the event as it was before and after
func (r *MemoryEventRepository) Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (*domain.Event, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.events[id]
	if !exists {
		return nil, nil, domain.ErrNotFound
	}
	updated := domain.ApplyPatch(current, patch)
	updated.UpdatedAt = updatedAt
	r.events[id] = updated
	return current.Clone(), updated.Clone(), nil
}

// SetContractDocument merges doc into the contract of the stored event
func (r *MemoryEventRepository) SetContractDocument(ctx context.Context, id string, doc domain.ContractDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, exists := r.events[id]
	if !exists {
		return domain.ErrNotFound
	}
	if event.Contract == nil {
		event.Contract = &domain.Contract{}
	}
	event.Contract.DocumentURL = doc.DocumentURL
	event.Contract.DocumentName = doc.DocumentName
	event.Contract.UploadedAt = doc.UploadedAt
	event.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the event
func (r *MemoryEventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[id]; !exists {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryChangeLogRepository implements ChangeLogRepository in memory
type MemoryChangeLogRepository struct {
	entries map[string][]domain.ChangeLogEntry // eventID -> entries
	mu      sync.RWMutex
}

// NewMemoryChangeLogRepository creates a new in-memory changelog repository
func NewMemoryChangeLogRepository() *MemoryChangeLogRepository {
	return &MemoryChangeLogRepository{
		entries: make(map[string][]domain.ChangeLogEntry),
	}
}

// Append stores entries
func (r *MemoryChangeLogRepository) Append(ctx context.Context, entries ...domain.ChangeLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		r.entries[e.EventID] = append(r.entries[e.EventID], e)
	}
	return nil
}

// ListByEvent returns a copy of the entries recorded for eventID
func (r *MemoryChangeLogRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.ChangeLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.ChangeLogEntry{}, r.entries[eventID]...), nil
}
