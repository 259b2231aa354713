package store

import (
	"errors"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// State is an immutable snapshot of the store. Transitions return a new
// value and never modify the receiver or the event it points to.
type State struct {
	Event   *domain.Event
	Loading bool
	// Error is the human-readable message of the last load failure
	Error string
	Err   error
}

// Initial is the state before the first load completes
func Initial() State {
	return State{Loading: true}
}

// NotFound reports whether the last load failed because the event does not exist
func (s State) NotFound() bool {
	return errors.Is(s.Err, domain.ErrNotFound)
}

// HasEvent reports whether an event is loaded
func (s State) HasEvent() bool {
	return s.Event != nil
}

func (s State) beginLoad() State {
	s.Loading = true
	s.Error = ""
	s.Err = nil
	return s
}

func (s State) loaded(e *domain.Event) State {
	s.Event = e
	s.Error = ""
	s.Err = nil
	return s
}

func (s State) loadFailed(err error) State {
	s.Event = nil
	s.Error = err.Error()
	s.Err = err
	return s
}

func (s State) finishLoad() State {
	s.Loading = false
	return s
}

// patched merges p into the loaded event. Without an event it is a no-op.
func (s State) patched(p *domain.EventPatch) State {
	if s.Event == nil {
		return s
	}
	s.Event = domain.ApplyPatch(s.Event, p)
	return s
}

func (s State) synced(e *domain.Event) State {
	s.Event = e
	return s
}
