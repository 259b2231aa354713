package store

import (
	"errors"
	"fmt"
)

// ErrSync matches every SyncError through errors.Is
var ErrSync = errors.New("sync failed")

// SyncError reports that an optimistic update was applied locally but the
// server did not confirm it. The local state keeps the change.
type SyncError struct {
	EventID string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync event %s: %v", e.EventID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrSync
func (e *SyncError) Is(target error) bool {
	return target == ErrSync
}
