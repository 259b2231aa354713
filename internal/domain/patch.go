package domain

import "fmt"

// EventPatch is a partial Event. A nil field is absent and leaves the
// current value alone. Compound fields (SalesProjection, Ticketing,
// AccessControl) are merged one level deep; everything else, including
// lists, is replaced wholesale.
type EventPatch struct {
	Name                 *string               `json:"name,omitempty"`
	Type                 *EventType            `json:"type,omitempty"`
	Date                 *string               `json:"date,omitempty"`
	Venue                *string               `json:"venue,omitempty"`
	Budget               *Budget               `json:"budget,omitempty"`
	ContractSigned       *bool                 `json:"contractSigned,omitempty"`
	Contract             *Contract             `json:"contract,omitempty"`
	PreviousExperience   *PreviousExperience   `json:"previousExperience,omitempty"`
	SalesProjection      *SalesProjectionPatch `json:"salesProjection,omitempty"`
	Resources            *[]Resource           `json:"resources,omitempty"`
	MainContact          *Contact              `json:"mainContact,omitempty"`
	Ticketing            *TicketingPatch       `json:"ticketing,omitempty"`
	AccessControl        *AccessControlPatch   `json:"accessControl,omitempty"`
	Status               *EventStatus          `json:"status,omitempty"`
	Progress             *int                  `json:"progress,omitempty"`
	IsRecurring          *bool                 `json:"isRecurring,omitempty"`
	RecurringConfig      *RecurringConfig      `json:"recurringConfig,omitempty"`
	CalendarIntegrations *CalendarIntegrations `json:"calendarIntegrations,omitempty"`
}

// SalesProjectionPatch carries the projection inputs. The derived totals
// are not patchable.
type SalesProjectionPatch struct {
	EstimatedTickets   *int     `json:"estimatedTickets,omitempty"`
	AverageTicketPrice *float64 `json:"averageTicketPrice,omitempty"`
	Costs              *Costs   `json:"costs,omitempty"`
}

// TicketingPatch replaces the sale mode and/or the whole box-office list
type TicketingPatch struct {
	SaleMode   *SaleMode    `json:"saleMode,omitempty"`
	BoxOffices *[]BoxOffice `json:"boxOffices,omitempty"`
}

// AccessControlPatch replaces individual access-control blocks
type AccessControlPatch struct {
	Method    *AccessMethod    `json:"method,omitempty"`
	Equipment *Equipment       `json:"equipment,omitempty"`
	Staff     *StaffAllocation `json:"staff,omitempty"`
	Internet  *InternetSource  `json:"internet,omitempty"`
}

// Ptr returns a pointer to v, handy for building patches
func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether the patch changes nothing
func (p *EventPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the top-level field names present in the patch
func (p *EventPatch) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Type != nil, "type")
	add(p.Date != nil, "date")
	add(p.Venue != nil, "venue")
	add(p.Budget != nil, "budget")
	add(p.ContractSigned != nil, "contractSigned")
	add(p.Contract != nil, "contract")
	add(p.PreviousExperience != nil, "previousExperience")
	add(p.SalesProjection != nil, "salesProjection")
	add(p.Resources != nil, "resources")
	add(p.MainContact != nil, "mainContact")
	add(p.Ticketing != nil, "ticketing")
	add(p.AccessControl != nil, "accessControl")
	add(p.Status != nil, "status")
	add(p.Progress != nil, "progress")
	add(p.IsRecurring != nil, "isRecurring")
	add(p.RecurringConfig != nil, "recurringConfig")
	add(p.CalendarIntegrations != nil, "calendarIntegrations")
	return fields
}

// Validate rejects values the model cannot hold
func (p *EventPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPatch)
	}
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidPatch, *p.Type)
	}
	if p.Date != nil {
		if _, err := ParseDate(*p.Date); err != nil {
			return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidPatch, *p.Date)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPatch, *p.Status)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidPatch)
	}
	if sp := p.SalesProjection; sp != nil {
		if sp.EstimatedTickets != nil && *sp.EstimatedTickets < 0 {
			return fmt.Errorf("%w: estimated tickets cannot be negative", ErrInvalidPatch)
		}
		if sp.AverageTicketPrice != nil && *sp.AverageTicketPrice < 0 {
			return fmt.Errorf("%w: average ticket price cannot be negative", ErrInvalidPatch)
		}
	}
	return nil
}

// ApplyPatch returns a copy of e with p merged in. e is not modified.
// Top-level fields are overwritten when present in p. For SalesProjection,
// Ticketing and AccessControl only the sub-fields present in p are
// overwritten. The projection totals are recomputed whenever the patch
// touches SalesProjection.
func ApplyPatch(e *Event, p *EventPatch) *Event {
	if e == nil {
		return nil
	}
	out := e.Clone()
	if p == nil {
		return out
	}

	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Venue != nil {
		out.Venue = *p.Venue
	}
	if p.Budget != nil {
		out.Budget = *p.Budget
	}
	if p.ContractSigned != nil {
		out.ContractSigned = *p.ContractSigned
	}
	if p.Contract != nil {
		out.Contract = cloneContract(p.Contract)
	}
	if p.PreviousExperience != nil {
		out.PreviousExperience = (&Event{PreviousExperience: p.PreviousExperience}).Clone().PreviousExperience
	}
	if p.Resources != nil {
		out.Resources = cloneResources(*p.Resources)
		if out.Resources == nil {
			out.Resources = []Resource{}
		}
	}
	if p.MainContact != nil {
		out.MainContact = *p.MainContact
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Progress != nil {
		out.Progress = *p.Progress
	}
	if p.IsRecurring != nil {
		out.IsRecurring = *p.IsRecurring
	}
	if p.RecurringConfig != nil {
		out.RecurringConfig = (&Event{RecurringConfig: p.RecurringConfig}).Clone().RecurringConfig
	}
	if p.CalendarIntegrations != nil {
		ci := *p.CalendarIntegrations
		out.CalendarIntegrations = &ci
	}

	if sp := p.SalesProjection; sp != nil {
		if sp.EstimatedTickets != nil {
			out.SalesProjection.EstimatedTickets = *sp.EstimatedTickets
		}
		if sp.AverageTicketPrice != nil {
			out.SalesProjection.AverageTicketPrice = *sp.AverageTicketPrice
		}
		if sp.Costs != nil {
			out.SalesProjection.Costs = *sp.Costs
		}
		out.SalesProjection.Recompute()
	}

	if tp := p.Ticketing; tp != nil {
		if tp.SaleMode != nil {
			out.Ticketing.SaleMode = *tp.SaleMode
		}
		if tp.BoxOffices != nil {
			out.Ticketing.BoxOffices = append([]BoxOffice{}, (*tp.BoxOffices)...)
		}
	}

	if ap := p.AccessControl; ap != nil {
		if ap.Method != nil {
			out.AccessControl.Method = *ap.Method
		}
		if ap.Equipment != nil {
			eq := *ap.Equipment
			eq.Cost = cloneFloat(eq.Cost)
			out.AccessControl.Equipment = eq
		}
		if ap.Staff != nil {
			out.AccessControl.Staff = ap.Staff.clone()
		}
		if ap.Internet != nil {
			out.AccessControl.Internet = *ap.Internet
		}
	}

	return out
}
