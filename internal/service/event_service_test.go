package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/pkg/logger"
)

// MockPublisher is a mock implementation of ChangeLogPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, entries ...domain.ChangeLogEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// failingEventRepo returns err from every write
type failingEventRepo struct {
	*repository.MemoryEventRepository
	err error
}

func (f *failingEventRepo) Create(ctx context.Context, event *domain.Event) error { return f.err }
func (f *failingEventRepo) Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (*domain.Event, *domain.Event, error) {
	return nil, nil, f.err
}

var (
	testNow   = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	testActor = domain.Actor{UserID: "u-1", UserName: "Ana"}
)

type eventFixture struct {
	svc        *eventService
	events     *repository.MemoryEventRepository
	changelogs *repository.MemoryChangeLogRepository
	publisher  *MockPublisher
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	events := repository.NewMemoryEventRepository()
	changelogs := repository.NewMemoryChangeLogRepository()
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewEventService(events, changelogs, publisher, logger.NewNop()).(*eventService)
	svc.now = func() time.Time { return testNow }
	return &eventFixture{svc: svc, events: events, changelogs: changelogs, publisher: publisher}
}

func newEventInput() *domain.Event {
	return &domain.Event{
		Name:  "Summer Fest",
		Type:  domain.EventTypeFestival,
		Date:  "2025-07-10",
		Venue: "Parque Central",
		SalesProjection: domain.SalesProjection{
			EstimatedTickets:   1000,
			AverageTicketPrice: 5,
			Costs:              domain.Costs{Ticketing: 400, Accommodation: 600, Fuel: 200, AccessControl: 200},
		},
	}
}

func (f *eventFixture) create(t *testing.T) *domain.Event {
	t.Helper()
	created, err := f.svc.CreateEvent(context.Background(), newEventInput(), testActor)
	require.NoError(t, err)
	return created
}

func TestEventService_CreateEvent(t *testing.T) {
	f := newEventFixture(t)
	input := newEventInput()
	input.ID = "client-chosen"

	created, err := f.svc.CreateEvent(context.Background(), input, testActor)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.Equal(t, testNow, created.CreatedAt)
	assert.Equal(t, testNow, created.UpdatedAt)
	assert.Equal(t, domain.EventStatusDraft, created.Status)
	assert.Equal(t, domain.DefaultAccessControl(), created.AccessControl)
	assert.Equal(t, 5000.0, created.SalesProjection.TotalRevenue)
	assert.Equal(t, 1400.0, created.SalesProjection.TotalCosts)
	assert.Equal(t, 3600.0, created.SalesProjection.ProjectedProfit)

	stored, err := f.events.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)

	entries, err := f.changelogs.ListByEvent(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeLogCreate, entries[0].Action)
	assert.Equal(t, "Ana", entries[0].UserName)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestEventService_CreateEvent_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *domain.Event)
	}{
		{"no name", func(e *domain.Event) { e.Name = "" }},
		{"no type", func(e *domain.Event) { e.Type = "" }},
		{"no date", func(e *domain.Event) { e.Date = "" }},
		{"no venue", func(e *domain.Event) { e.Venue = "" }},
		{"bad date", func(e *domain.Event) { e.Date = "10/07/2025" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEventFixture(t)
			input := newEventInput()
			tt.mutate(input)

			_, err := f.svc.CreateEvent(context.Background(), input, testActor)
			assert.ErrorIs(t, err, domain.ErrInvalidEvent)

			events, _ := f.events.List(context.Background())
			assert.Empty(t, events)
		})
	}
}

func TestEventService_UpdateEvent_MergesOneLevel(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)
	later := testNow.Add(time.Hour)
	f.svc.now = func() time.Time { return later }

	patch := &domain.EventPatch{
		Name: domain.Ptr("Summer Fest 2025"),
		SalesProjection: &domain.SalesProjectionPatch{
			EstimatedTickets: domain.Ptr(2000),
		},
		AccessControl: &domain.AccessControlPatch{
			Internet: domain.Ptr(domain.InternetOwn),
		},
	}
	updated, err := f.svc.UpdateEvent(context.Background(), created.ID, patch, testActor)
	require.NoError(t, err)

	assert.Equal(t, "Summer Fest 2025", updated.Name)
	assert.Equal(t, 2000, updated.SalesProjection.EstimatedTickets)
	assert.Equal(t, 5.0, updated.SalesProjection.AverageTicketPrice)
	assert.Equal(t, 10000.0, updated.SalesProjection.TotalRevenue)
	assert.Equal(t, 8600.0, updated.SalesProjection.ProjectedProfit)
	assert.Equal(t, domain.AccessMethodApp, updated.AccessControl.Method)
	assert.Equal(t, domain.InternetOwn, updated.AccessControl.Internet)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, testNow, updated.CreatedAt)

	entries, err := f.svc.ChangeLog(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2) // create + one update
	entry := entries[1]
	assert.Equal(t, domain.ChangeLogUpdate, entry.Action)
	assert.Equal(t, "name,salesProjection,accessControl", entry.Field)
	oldValues, ok := entry.OldValue.(map[string]any)
	require.True(t, ok)
	newValues, ok := entry.NewValue.(map[string]any)
	require.True(t, ok)
	assert.Len(t, newValues, 3)
	assert.Equal(t, "Summer Fest", oldValues["name"])
	assert.Equal(t, "Summer Fest 2025", newValues["name"])
	assert.Equal(t, 2000.0, newValues["salesProjection"].(map[string]any)["estimatedTickets"])
}

func TestEventService_UpdateEvent_ConcurrentPatchesKeepBothFields(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)

	const rounds = 25
	for i := 1; i <= rounds; i++ {
		venue := fmt.Sprintf("Venue %d", i)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateEvent(context.Background(), created.ID, &domain.EventPatch{Venue: domain.Ptr(venue)}, testActor)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateEvent(context.Background(), created.ID, &domain.EventPatch{Progress: domain.Ptr(i)}, testActor)
			assert.NoError(t, err)
		}()
		wg.Wait()

		stored, err := f.events.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		require.Equal(t, venue, stored.Venue, "round %d", i)
		require.Equal(t, i, stored.Progress, "round %d", i)
	}

	entries, err := f.svc.ChangeLog(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1+2*rounds)
}

func TestEventService_UpdateEvent_Errors(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)

	_, err := f.svc.UpdateEvent(context.Background(), "missing", &domain.EventPatch{Name: domain.Ptr("x")}, testActor)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateEvent(context.Background(), created.ID, &domain.EventPatch{Progress: domain.Ptr(150)}, testActor)
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)

	stored, err := f.events.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Progress)
}

func TestEventService_UpdateEvent_EmptyPatchStampsOnly(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)

	updated, err := f.svc.UpdateEvent(context.Background(), created.ID, nil, testActor)
	require.NoError(t, err)
	assert.Equal(t, created.Name, updated.Name)

	entries, _ := f.changelogs.ListByEvent(context.Background(), created.ID)
	assert.Len(t, entries, 1)
}

func TestEventService_DeleteEvent(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)

	require.NoError(t, f.svc.DeleteEvent(context.Background(), created.ID, testActor))

	_, err := f.svc.GetEvent(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteEvent(context.Background(), created.ID, testActor), domain.ErrNotFound)

	entries, err := f.svc.ChangeLog(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeLogDelete, entries[1].Action)
}

func TestEventService_DuplicateEvent(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)
	_, err := f.svc.UpdateEvent(context.Background(), created.ID, &domain.EventPatch{
		Status:   domain.Ptr(domain.EventStatusActive),
		Progress: domain.Ptr(80),
	}, testActor)
	require.NoError(t, err)

	dup, err := f.svc.DuplicateEvent(context.Background(), created.ID, testActor)
	require.NoError(t, err)

	assert.NotEqual(t, created.ID, dup.ID)
	assert.Equal(t, "Summer Fest"+domain.DuplicateSuffix, dup.Name)
	assert.Equal(t, created.ID, dup.OriginalEventID)
	assert.Equal(t, domain.EventStatusDraft, dup.Status)
	assert.Equal(t, 0, dup.Progress)

	all, err := f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dupLog, err := f.svc.ChangeLog(context.Background(), dup.ID)
	require.NoError(t, err)
	require.Len(t, dupLog, 1)
	assert.Equal(t, domain.ChangeLogDuplicate, dupLog[0].Action)
	assert.Equal(t, "originalEventId", dupLog[0].Field)
	assert.Equal(t, created.ID, dupLog[0].NewValue)
	assert.Equal(t, dupLog, dup.ChangeLogs)

	sourceLog, err := f.svc.ChangeLog(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, sourceLog, 2) // create + update
	for _, e := range sourceLog {
		assert.NotEqual(t, domain.ChangeLogDuplicate, e.Action)
	}

	_, err = f.svc.DuplicateEvent(context.Background(), "missing", testActor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_CreateRecurrences(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)
	_, err := f.svc.UpdateEvent(context.Background(), created.ID, &domain.EventPatch{
		IsRecurring: domain.Ptr(true),
		RecurringConfig: &domain.RecurringConfig{
			Frequency: domain.FrequencyWeekly,
			Interval:  1,
			EndDate:   "2025-07-31",
		},
	}, testActor)
	require.NoError(t, err)

	occurrences, err := f.svc.CreateRecurrences(context.Background(), created.ID, testActor)
	require.NoError(t, err)
	require.Len(t, occurrences, 4)
	assert.Equal(t, "2025-07-10", occurrences[0].Date)
	assert.Equal(t, "2025-07-31", occurrences[3].Date)

	all, err := f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)

	for _, occ := range occurrences {
		entries, err := f.svc.ChangeLog(context.Background(), occ.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ChangeLogDuplicate, entries[0].Action)
	}
	baseLog, err := f.svc.ChangeLog(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, baseLog, 2) // create + update
}

func TestEventService_CreateRecurrences_NotRecurring(t *testing.T) {
	f := newEventFixture(t)
	created := f.create(t)

	_, err := f.svc.CreateRecurrences(context.Background(), created.ID, testActor)
	assert.ErrorIs(t, err, ErrNotRecurring)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestEventService_RepositoryFailure(t *testing.T) {
	repoErr := errors.New("connection reset")
	events := &failingEventRepo{MemoryEventRepository: repository.NewMemoryEventRepository(), err: repoErr}
	changelogs := repository.NewMemoryChangeLogRepository()
	svc := NewEventService(events, changelogs, nil, nil)

	_, err := svc.CreateEvent(context.Background(), newEventInput(), testActor)
	assert.ErrorIs(t, err, repoErr)

	_, err = svc.UpdateEvent(context.Background(), "evt-1", &domain.EventPatch{Name: domain.Ptr("x")}, testActor)
	assert.ErrorIs(t, err, repoErr)

	all, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEventService_PublishFailureDoesNotFailWrite(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	changelogs := repository.NewMemoryChangeLogRepository()
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewEventService(events, changelogs, publisher, logger.NewNop())
	created, err := svc.CreateEvent(context.Background(), newEventInput(), testActor)
	require.NoError(t, err)

	entries, err := changelogs.ListByEvent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
