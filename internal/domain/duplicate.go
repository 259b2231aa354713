package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DuplicateSuffix is appended to the name of a copied event
const DuplicateSuffix = " (Copia)"

// maxOccurrences bounds recurrence expansion when no end date is set
const maxOccurrences = 366

// Duplicate returns a fresh draft copy of e. The copy gets a new id, points
// back to e through OriginalEventID, drops calendar integrations and starts
// its changelog with a single duplicate entry keyed to the copy.
func Duplicate(e *Event, actor Actor) *Event {
	dup := e.Clone()
	dup.ID = uuid.New().String()
	dup.Name = e.Name + DuplicateSuffix
	dup.OriginalEventID = e.ID
	dup.Status = EventStatusDraft
	dup.Progress = 0
	dup.CalendarIntegrations = nil
	dup.ChangeLogs = []ChangeLogEntry{
		NewChangeLogEntry(dup.ID, ChangeLogDuplicate, actor, "originalEventId", nil, e.ID),
	}
	return dup
}

// ExpandRecurrence produces one duplicate of base per occurrence of its
// recurring config, starting at base.Date. Without a config the base event
// itself is the only occurrence.
func ExpandRecurrence(base *Event, actor Actor) ([]*Event, error) {
	rc := base.RecurringConfig
	if rc == nil {
		return []*Event{base.Clone()}, nil
	}

	current, err := ParseDate(base.Date)
	if err != nil {
		return nil, err
	}
	var end time.Time
	hasEnd := rc.EndDate != ""
	if hasEnd {
		if end, err = ParseDate(rc.EndDate); err != nil {
			return nil, err
		}
	}
	interval := rc.Interval
	if interval <= 0 {
		interval = 1
	}
	step, err := recurrenceStep(rc.Frequency, interval)
	if err != nil {
		return nil, err
	}
	filterDays := rc.Frequency == FrequencyWeekly && len(rc.DaysOfWeek) > 0

	start := current
	var events []*Event
	// Weekday filters scan one day at a time, so the guard is wider than the cap.
	for guard := 0; guard < maxOccurrences*7 && len(events) < maxOccurrences; guard++ {
		if hasEnd && current.After(end) {
			break
		}
		if filterDays {
			week := int(current.Sub(start).Hours()/24) / 7
			if week%interval == 0 && slices.Contains(rc.DaysOfWeek, int(current.Weekday())) {
				events = append(events, occurrence(base, actor, current))
			}
			current = current.AddDate(0, 0, 1)
			continue
		}

		events = append(events, occurrence(base, actor, current))
		current = step(current)
	}
	return events, nil
}

func occurrence(base *Event, actor Actor, date time.Time) *Event {
	occ := Duplicate(base, actor)
	occ.Date = date.Format(DateLayout)
	return occ
}

func recurrenceStep(freq RecurrenceFrequency, interval int) (func(time.Time) time.Time, error) {
	switch freq {
	case FrequencyDaily:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, interval) }, nil
	case FrequencyWeekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7*interval) }, nil
	case FrequencyMonthly:
		return func(t time.Time) time.Time { return t.AddDate(0, interval, 0) }, nil
	case FrequencyYearly:
		return func(t time.Time) time.Time { return t.AddDate(interval, 0, 0) }, nil
	}
	return nil, fmt.Errorf("%w: unknown recurrence frequency %q", ErrInvalidEvent, freq)
}
