// Package store holds the event being edited and keeps it in sync with the
// event API. Updates are applied locally first and then sent to the server;
// a failed sync keeps the local change and is reported as a SyncError.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/pkg/logger"
)

// EventAPI is the part of the API client the store depends on
type EventAPI interface {
	Get(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error)
}

// Store is the event state machine. Concurrent operations are allowed; the
// last one to complete decides the state.
type Store struct {
	api      EventAPI
	notifier Notifier
	log      *logger.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Store
type Option func(*Store)

// WithNotifier sets the receiver of user-facing notices
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger, logger.Get() by default
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store in the Initial state
func New(api EventAPI, opts ...Option) *Store {
	s := &Store{
		api:      api,
		notifier: nopNotifier{},
		log:      logger.Get(),
		state:    Initial(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state. The event is a copy the caller may keep.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Event = s.state.Event.Clone()
	return out
}

func (s *Store) set(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	out := s.state
	out.Event = s.state.Event.Clone()
	return out
}

// Load fetches an event unless it is already loaded without error. Failures
// become part of the state: the event is cleared and Error is set. A missing
// event is reported through State.NotFound.
func (s *Store) Load(ctx context.Context, id string) State {
	s.mu.Lock()
	current := s.state
	s.mu.Unlock()
	if current.Event != nil && current.Event.ID == id && current.Err == nil && !current.Loading {
		return s.Snapshot()
	}
	return s.Reload(ctx, id)
}

// Reload always fetches the event from the API
func (s *Store) Reload(ctx context.Context, id string) State {
	s.set(State.beginLoad)

	e, err := s.api.Get(ctx, id)
	if err != nil {
		s.log.Error("failed to load event", zap.String("event_id", id), zap.Error(err))
		st := s.set(func(st State) State {
			return st.loadFailed(err).finishLoad()
		})
		s.notifier.Notify(Notice{Kind: NoticeError, Title: "Error", Message: err.Error()})
		return st
	}

	return s.set(func(st State) State {
		return st.loaded(e).finishLoad()
	})
}

// ApplyPatch merges p into the loaded event without contacting the server.
// Without a loaded event the state is unchanged.
func (s *Store) ApplyPatch(p *domain.EventPatch) State {
	return s.set(func(st State) State {
		return st.patched(p)
	})
}

// UpdateAndSync applies p locally, then sends it to the server. On success
// the server's representation replaces the local event. On failure the local
// change is kept and a *SyncError is returned alongside the current state.
func (s *Store) UpdateAndSync(ctx context.Context, p *domain.EventPatch) (State, error) {
	if p == nil {
		p = &domain.EventPatch{}
	}
	if err := p.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if s.state.Event == nil {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrNoActiveEvent
	}
	s.state = s.state.patched(p)
	id := s.state.Event.ID
	s.mu.Unlock()

	updated, err := s.api.Update(ctx, id, p)
	if err != nil {
		s.log.Warn("event sync failed, keeping local changes",
			zap.String("event_id", id),
			zap.Strings("fields", p.Fields()),
			zap.Error(err),
		)
		s.notifier.Notify(Notice{
			Kind:    NoticeError,
			Title:   "Sync error",
			Message: "Changes were saved locally but could not be synced: " + err.Error(),
		})
		return s.Snapshot(), &SyncError{EventID: id, Err: err}
	}

	applied := false
	st := s.set(func(st State) State {
		// a load of another event may have completed meanwhile
		if st.Event == nil || st.Event.ID != id {
			return st
		}
		applied = true
		return st.synced(updated)
	})
	if !applied {
		s.log.Debug("dropping sync result of an event no longer loaded", zap.String("event_id", id))
		return st, nil
	}
	s.notifier.Notify(Notice{Kind: NoticeSuccess, Title: "Saved", Message: "Changes saved"})
	return st, nil
}

// AttachContract merges an uploaded document reference into the event's
// contract and syncs it
func (s *Store) AttachContract(ctx context.Context, doc domain.ContractDocument) (State, error) {
	s.mu.Lock()
	if s.state.Event == nil {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrNoActiveEvent
	}
	contract := domain.Contract{}
	if s.state.Event.Contract != nil {
		contract = *s.state.Event.Contract
	}
	s.mu.Unlock()

	contract.DocumentURL = doc.DocumentURL
	contract.DocumentName = doc.DocumentName
	contract.UploadedAt = doc.UploadedAt
	if contract.UploadedAt == "" {
		contract.UploadedAt = time.Now().UTC().Format(time.RFC3339)
	}

	st, err := s.UpdateAndSync(ctx, &domain.EventPatch{Contract: &contract})
	if err != nil {
		return st, fmt.Errorf("attach contract: %w", err)
	}
	return st, nil
}
