// Package analytics computes financial figures from event sales projections.
// Every function is pure and treats absent values as zero.
package analytics

import "github.com/prohmpiriya/event-planner/internal/domain"

// KPIs are the headline financial figures of one or more events
type KPIs struct {
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`
	Margin  float64 `json:"margin"`
}

// EventRow is one bar group of the revenue-vs-costs chart
type EventRow struct {
	EventID string  `json:"eventId"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`
}

// CostShare is a category's slice of the total cost
type CostShare struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// Margin returns profit as a percentage of revenue, 0 when revenue is 0
func Margin(profit, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return profit / revenue * 100
}

// ForProjection computes the KPIs of a single sales projection from its
// inputs. Stored totals are ignored so a stale document cannot skew them.
func ForProjection(p domain.SalesProjection) KPIs {
	p.Recompute()
	return KPIs{
		Revenue: p.TotalRevenue,
		Costs:   p.TotalCosts,
		Profit:  p.ProjectedProfit,
		Margin:  Margin(p.ProjectedProfit, p.TotalRevenue),
	}
}

// ForEvent computes the KPIs of a single event
func ForEvent(e *domain.Event) KPIs {
	if e == nil {
		return KPIs{}
	}
	return ForProjection(e.SalesProjection)
}

// Aggregate sums revenue, costs and profit across events, then derives the
// margin from those sums.
func Aggregate(events []*domain.Event) KPIs {
	var total KPIs
	for _, e := range events {
		k := ForEvent(e)
		total.Revenue += k.Revenue
		total.Costs += k.Costs
		total.Profit += k.Profit
	}
	total.Margin = Margin(total.Profit, total.Revenue)
	return total
}

// CostBreakdown sums each cost category across events
func CostBreakdown(events []*domain.Event) domain.Costs {
	var sum domain.Costs
	for _, e := range events {
		if e == nil {
			continue
		}
		sum = sum.Add(e.SalesProjection.Costs)
	}
	return sum
}

// EventRows returns one chart row per event, in input order
func EventRows(events []*domain.Event) []EventRow {
	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		k := ForEvent(e)
		rows = append(rows, EventRow{
			EventID: e.ID,
			Name:    e.Name,
			Revenue: k.Revenue,
			Costs:   k.Costs,
			Profit:  k.Profit,
		})
	}
	return rows
}

// CostShares expresses each category of c as a percentage of the total.
// Percentages are 0 when there is no cost at all.
func CostShares(c domain.Costs) []CostShare {
	total := c.Total()
	share := func(category string, amount float64) CostShare {
		s := CostShare{Category: category, Amount: amount}
		if total != 0 {
			s.Percent = amount / total * 100
		}
		return s
	}
	return []CostShare{
		share("ticketing", c.Ticketing),
		share("accommodation", c.Accommodation),
		share("fuel", c.Fuel),
		share("accessControl", c.AccessControl),
	}
}
