package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/telemetry"
)

// eventService implements EventService
type eventService struct {
	eventRepo     repository.EventRepository
	changeLogRepo repository.ChangeLogRepository
	recorder      *changeRecorder
	now           func() time.Time
}

// NewEventService creates a new EventService. A nil publisher disables
// changelog streaming.
func NewEventService(
	eventRepo repository.EventRepository,
	changeLogRepo repository.ChangeLogRepository,
	publisher ChangeLogPublisher,
	log *logger.Logger,
) EventService {
	return &eventService{
		eventRepo:     eventRepo,
		changeLogRepo: changeLogRepo,
		recorder:      newChangeRecorder(changeLogRepo, publisher, log),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ListEvents returns every event
func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("event.count", len(events)))
	return events, nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return event, nil
}

// CreateEvent validates the required fields, assigns an id and timestamps,
// seeds the default access control and a recomputed projection, then stores it
func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, actor domain.Actor) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if err := event.ValidateNew(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	created := event.Clone()
	created.PrepareNew(uuid.New().String(), s.now())
	span.SetAttributes(attribute.String("event.id", created.ID))

	if err := s.eventRepo.Create(ctx, created); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.recorder.record(ctx, domain.NewChangeLogEntry(created.ID, domain.ChangeLogCreate, actor, "", nil, nil))
	return created, nil
}

// UpdateEvent merges patch into the stored event. Top-level fields are
// replaced, compound fields are merged one level, the projection totals
// are recomputed and updatedAt is stamped.
func (s *eventService) UpdateEvent(ctx context.Context, id string, patch *domain.EventPatch, actor domain.Actor) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if patch == nil {
		patch = &domain.EventPatch{}
	}
	if err := patch.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	current, updated, err := s.eventRepo.Patch(ctx, id, patch, s.now())
	if err != nil {
		span.RecordError(err)
		if !domain.IsNotFoundError(err) {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	if fields := patch.Fields(); len(fields) > 0 {
		s.recorder.record(ctx, updateEntry(current, updated, fields, actor))
	}
	return updated, nil
}

// DeleteEvent removes an event. Its changelog is kept.
func (s *eventService) DeleteEvent(ctx context.Context, id string, actor domain.Actor) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	s.recorder.record(ctx, domain.NewChangeLogEntry(id, domain.ChangeLogDelete, actor, "", nil, nil))
	return nil
}

// DuplicateEvent stores a draft copy of the event
func (s *eventService) DuplicateEvent(ctx context.Context, id string, actor domain.Actor) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.duplicate")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	source, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	dup := domain.Duplicate(source, actor)
	if err := s.storeCopy(ctx, dup); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return dup, nil
}

// CreateRecurrences expands the event's recurring config and stores every
// occurrence. Occurrences already stored stay stored if a later one fails.
func (s *eventService) CreateRecurrences(ctx context.Context, id string, actor domain.Actor) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.recurrences")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	base, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if base.RecurringConfig == nil {
		return nil, ErrNotRecurring
	}

	occurrences, err := domain.ExpandRecurrence(base, actor)
	if err != nil {
		return nil, err
	}
	for _, occ := range occurrences {
		if err := s.storeCopy(ctx, occ); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("event.occurrences", len(occurrences)))
	return occurrences, nil
}

// ChangeLog returns the audit trail of an event
func (s *eventService) ChangeLog(ctx context.Context, id string) ([]domain.ChangeLogEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.changelog")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	return s.changeLogRepo.ListByEvent(ctx, id)
}

// storeCopy stamps and stores a duplicated event and records the
// duplicate entry it was seeded with
func (s *eventService) storeCopy(ctx context.Context, dup *domain.Event) error {
	now := s.now()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, dup); err != nil {
		return err
	}

	s.recorder.record(ctx, dup.ChangeLogs...)
	return nil
}

// updateEntry builds the single update entry of a patch. Field lists the
// patched top-level fields; the old and new values are keyed by field.
func updateEntry(before, after *domain.Event, fields []string, actor domain.Actor) domain.ChangeLogEntry {
	oldValues := fieldValues(before)
	newValues := fieldValues(after)
	changedFrom := make(map[string]any, len(fields))
	changedTo := make(map[string]any, len(fields))
	for _, f := range fields {
		changedFrom[f] = oldValues[f]
		changedTo[f] = newValues[f]
	}
	return domain.NewChangeLogEntry(
		after.ID, domain.ChangeLogUpdate, actor, strings.Join(fields, ","), changedFrom, changedTo,
	)
}

// fieldValues decodes the wire form of e into a generic map keyed by JSON name
func fieldValues(e *domain.Event) map[string]any {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}
	return values
}
