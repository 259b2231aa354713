package analytics

import (
	"time"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// Report is the financial summary printed by the reporting CLI
type Report struct {
	GeneratedAt   time.Time    `json:"generatedAt"`
	EventCount    int          `json:"eventCount"`
	Totals        KPIs         `json:"totals"`
	CostBreakdown domain.Costs `json:"costBreakdown"`
	CostShares    []CostShare  `json:"costShares"`
	Events        []EventRow   `json:"events"`
}

// BuildReport summarizes events as of now
func BuildReport(events []*domain.Event, now time.Time) Report {
	rows := EventRows(events)
	breakdown := CostBreakdown(events)
	return Report{
		GeneratedAt:   now,
		EventCount:    len(rows),
		Totals:        Aggregate(events),
		CostBreakdown: breakdown,
		CostShares:    CostShares(breakdown),
		Events:        rows,
	}
}
