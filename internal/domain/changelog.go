package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeLogAction is the kind of change recorded in the audit trail
type ChangeLogAction string

const (
	ChangeLogCreate    ChangeLogAction = "create"
	ChangeLogUpdate    ChangeLogAction = "update"
	ChangeLogDelete    ChangeLogAction = "delete"
	ChangeLogDuplicate ChangeLogAction = "duplicate"
)

// ChangeLogEntry is one immutable audit record
type ChangeLogEntry struct {
	ID        string          `json:"id" bson:"_id"`
	EventID   string          `json:"eventId" bson:"eventId"`
	Action    ChangeLogAction `json:"action" bson:"action"`
	Field     string          `json:"field,omitempty" bson:"field,omitempty"`
	OldValue  any             `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue  any             `json:"newValue,omitempty" bson:"newValue,omitempty"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
	UserID    string          `json:"userId" bson:"userId"`
	UserName  string          `json:"userName" bson:"userName"`
}

// Actor identifies who performed a change
type Actor struct {
	UserID   string
	UserName string
}

// SystemActor is used when no caller identity is available
var SystemActor = Actor{UserID: "system", UserName: "system"}

// NewChangeLogEntry builds an audit entry stamped with the current time
func NewChangeLogEntry(eventID string, action ChangeLogAction, actor Actor, field string, oldValue, newValue any) ChangeLogEntry {
	return ChangeLogEntry{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Action:    action,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Now().UTC(),
		UserID:    actor.UserID,
		UserName:  actor.UserName,
	}
}
