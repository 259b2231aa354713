package domain

import (
	"fmt"
	"time"
)

// EventType represents the kind of event being planned
type EventType string

const (
	EventTypeFestival   EventType = "festival"
	EventTypeSports     EventType = "sports"
	EventTypeConference EventType = "conference"
	EventTypeParty      EventType = "party"
	EventTypeOther      EventType = "other"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventTypeFestival, EventTypeSports, EventTypeConference, EventTypeParty, EventTypeOther:
		return true
	}
	return false
}

// EventStatus represents the soft lifecycle of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPlanning  EventStatus = "planning"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
)

// Valid reports whether s is a known status
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPlanning, EventStatusActive, EventStatusCompleted:
		return true
	}
	return false
}

// SaleMode is how tickets are sold
type SaleMode string

const (
	SaleModeOnline   SaleMode = "online"
	SaleModeHybrid   SaleMode = "hybrid"
	SaleModePhysical SaleMode = "physical"
)

// AccessMethod is how entry is controlled
type AccessMethod string

const (
	AccessMethodApp      AccessMethod = "app"
	AccessMethodExternal AccessMethod = "external"
)

// EquipmentType describes who owns the access-control equipment
type EquipmentType string

const (
	EquipmentWeRent    EquipmentType = "we_rent"
	EquipmentWeRentOut EquipmentType = "we_rent_out"
	EquipmentOwned     EquipmentType = "owned"
)

// InternetSource is who provides connectivity at the venue
type InternetSource string

const (
	InternetOrganizer InternetSource = "organizer"
	InternetOwn       InternetSource = "own"
)

// DateLayout is the wire format of Event.Date
const DateLayout = "2006-01-02"

// Event is the central planning record
type Event struct {
	ID                   string                `json:"id" bson:"_id"`
	Name                 string                `json:"name" bson:"name"`
	Type                 EventType             `json:"type" bson:"type"`
	Date                 string                `json:"date" bson:"date"`
	Venue                string                `json:"venue" bson:"venue"`
	Budget               Budget                `json:"budget" bson:"budget"`
	ContractSigned       bool                  `json:"contractSigned" bson:"contractSigned"`
	Contract             *Contract             `json:"contract,omitempty" bson:"contract,omitempty"`
	PreviousExperience   *PreviousExperience   `json:"previousExperience,omitempty" bson:"previousExperience,omitempty"`
	SalesProjection      SalesProjection       `json:"salesProjection" bson:"salesProjection"`
	Resources            []Resource            `json:"resources" bson:"resources"`
	MainContact          Contact               `json:"mainContact" bson:"mainContact"`
	Ticketing            Ticketing             `json:"ticketing" bson:"ticketing"`
	AccessControl        AccessControl         `json:"accessControl" bson:"accessControl"`
	Status               EventStatus           `json:"status" bson:"status"`
	Progress             int                   `json:"progress" bson:"progress"`
	ChangeLogs           []ChangeLogEntry      `json:"changeLogs,omitempty" bson:"changeLogs,omitempty"`
	IsRecurring          bool                  `json:"isRecurring,omitempty" bson:"isRecurring,omitempty"`
	RecurringConfig      *RecurringConfig      `json:"recurringConfig,omitempty" bson:"recurringConfig,omitempty"`
	OriginalEventID      string                `json:"originalEventId,omitempty" bson:"originalEventId,omitempty"`
	CalendarIntegrations *CalendarIntegrations `json:"calendarIntegrations,omitempty" bson:"calendarIntegrations,omitempty"`
	CreatedAt            time.Time             `json:"createdAt,omitzero" bson:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt,omitzero" bson:"updatedAt"`
}

// Budget is the legacy coarse budget block
type Budget struct {
	Revenue  float64 `json:"revenue" bson:"revenue"`
	Expenses float64 `json:"expenses" bson:"expenses"`
	Profit   float64 `json:"profit" bson:"profit"`
}

// Contract tracks the signed agreement and its uploaded document
type Contract struct {
	Signed       bool   `json:"signed" bson:"signed"`
	SignedAt     string `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
	DocumentURL  string `json:"documentUrl,omitempty" bson:"documentUrl,omitempty"`
	DocumentName string `json:"documentName,omitempty" bson:"documentName,omitempty"`
	UploadedAt   string `json:"uploadedAt,omitempty" bson:"uploadedAt,omitempty"`
}

// ContractDocument is the reference returned by a contract upload
type ContractDocument struct {
	DocumentURL  string `json:"documentUrl"`
	DocumentName string `json:"documentName"`
	UploadedAt   string `json:"uploadedAt,omitempty"`
}

// PreviousExperience records whether the client ran this event before
type PreviousExperience struct {
	Exists  bool               `json:"exists" bson:"exists"`
	Details *ExperienceDetails `json:"details,omitempty" bson:"details,omitempty"`
}

// ExperienceDetails holds free-text notes per area
type ExperienceDetails struct {
	Ticketing     string `json:"ticketing,omitempty" bson:"ticketing,omitempty"`
	AccessControl string `json:"accessControl,omitempty" bson:"accessControl,omitempty"`
	General       string `json:"general,omitempty" bson:"general,omitempty"`
}

// Resource is a quoted or pending line item
type Resource struct {
	ID       string   `json:"id" bson:"id"`
	Name     string   `json:"name" bson:"name"`
	Quantity int      `json:"quantity" bson:"quantity"`
	Quoted   bool     `json:"quoted" bson:"quoted"`
	Cost     *float64 `json:"cost,omitempty" bson:"cost,omitempty"`
}

// Contact is the event's main contact person
type Contact struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
	Role  string `json:"role" bson:"role"`
}

// Ticketing is the ticket sales configuration
type Ticketing struct {
	SaleMode   SaleMode    `json:"saleMode" bson:"saleMode"`
	BoxOffices []BoxOffice `json:"boxOffices" bson:"boxOffices"`
}

// BoxOffice is a physical ticket sales point
type BoxOffice struct {
	ID       string         `json:"id" bson:"id"`
	Name     string         `json:"name" bson:"name"`
	Location string         `json:"location" bson:"location"`
	Schedule BoxOfficeHours `json:"schedule" bson:"schedule"`
	Staff    BoxOfficeStaff `json:"staff" bson:"staff"`
}

// BoxOfficeHours is the opening window of a box office
type BoxOfficeHours struct {
	StartDate      string         `json:"startDate" bson:"startDate"`
	EndDate        string         `json:"endDate" bson:"endDate"`
	OperatingHours OperatingHours `json:"operatingHours" bson:"operatingHours"`
}

// OperatingHours is a daily start/end time pair
type OperatingHours struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// BoxOfficeStaff is the headcount at a box office
type BoxOfficeStaff struct {
	TicketSellers int `json:"ticketSellers" bson:"ticketSellers"`
	Supervisors   int `json:"supervisors" bson:"supervisors"`
}

// AccessControl is the entry-control setup
type AccessControl struct {
	Method    AccessMethod    `json:"method" bson:"method"`
	Equipment Equipment       `json:"equipment" bson:"equipment"`
	Staff     StaffAllocation `json:"staff" bson:"staff"`
	Internet  InternetSource  `json:"internet" bson:"internet"`
}

// Equipment is the access-control hardware
type Equipment struct {
	Quantity int           `json:"quantity" bson:"quantity"`
	Type     EquipmentType `json:"type" bson:"type"`
	Quoted   bool          `json:"quoted" bson:"quoted"`
	Cost     *float64      `json:"cost,omitempty" bson:"cost,omitempty"`
}

// StaffAllocation is the access-control headcount and named assignments
type StaffAllocation struct {
	Quantity int           `json:"quantity" bson:"quantity"`
	Assigned []StaffMember `json:"assigned,omitempty" bson:"assigned,omitempty"`
}

// StaffMember is a person assigned to the event
type StaffMember struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Role  string `json:"role" bson:"role"`
	Email string `json:"email" bson:"email"`
}

// RecurrenceFrequency is the step unit of a recurring event
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
	FrequencyYearly  RecurrenceFrequency = "yearly"
)

// RecurringConfig describes how an event repeats
type RecurringConfig struct {
	Frequency  RecurrenceFrequency `json:"frequency" bson:"frequency"`
	Interval   int                 `json:"interval" bson:"interval"`
	EndDate    string              `json:"endDate,omitempty" bson:"endDate,omitempty"`
	DaysOfWeek []int               `json:"daysOfWeek,omitempty" bson:"daysOfWeek,omitempty"`
}

// CalendarIntegrations holds external calendar references
type CalendarIntegrations struct {
	GoogleCalendarEventID  string `json:"googleCalendarEventId,omitempty" bson:"googleCalendarEventId,omitempty"`
	OutlookCalendarEventID string `json:"outlookCalendarEventId,omitempty" bson:"outlookCalendarEventId,omitempty"`
	SyncEnabled            bool   `json:"syncEnabled" bson:"syncEnabled"`
}

// ParseDate parses an Event.Date value
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidEvent, s)
	}
	return t, nil
}

// ValidateNew checks the fields required to create an event
func (e *Event) ValidateNew() error {
	if e.Name == "" || e.Type == "" || e.Date == "" || e.Venue == "" {
		return fmt.Errorf("%w: name, type, date and venue are required", ErrInvalidEvent)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if e.Status != "" && !e.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, e.Status)
	}
	if e.Progress < 0 || e.Progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidEvent)
	}
	return nil
}

// DefaultAccessControl is the access-control block seeded on create
func DefaultAccessControl() AccessControl {
	zero := 0.0
	return AccessControl{
		Method: AccessMethodApp,
		Equipment: Equipment{
			Quantity: 0,
			Type:     EquipmentWeRent,
			Quoted:   false,
			Cost:     &zero,
		},
		Staff:    StaffAllocation{Quantity: 0},
		Internet: InternetOrganizer,
	}
}

// PrepareNew fills server-owned fields on an event about to be created
func (e *Event) PrepareNew(id string, now time.Time) {
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	e.AccessControl = DefaultAccessControl()
	e.SalesProjection = SalesProjection{
		EstimatedTickets:   e.SalesProjection.EstimatedTickets,
		AverageTicketPrice: e.SalesProjection.AverageTicketPrice,
		Costs:              e.SalesProjection.Costs,
	}
	e.SalesProjection.Recompute()
	if e.Status == "" {
		e.Status = EventStatusDraft
	}
	if e.Ticketing.SaleMode == "" {
		e.Ticketing.SaleMode = SaleModeOnline
	}
	if e.Ticketing.BoxOffices == nil {
		e.Ticketing.BoxOffices = []BoxOffice{}
	}
	if e.Resources == nil {
		e.Resources = []Resource{}
	}
	e.ChangeLogs = nil
}

// Clone returns a deep copy of e
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Contract = cloneContract(e.Contract)
	if e.PreviousExperience != nil {
		pe := *e.PreviousExperience
		if pe.Details != nil {
			d := *pe.Details
			pe.Details = &d
		}
		c.PreviousExperience = &pe
	}
	c.Resources = cloneResources(e.Resources)
	c.Ticketing = e.Ticketing.clone()
	c.AccessControl = e.AccessControl.clone()
	if e.ChangeLogs != nil {
		c.ChangeLogs = append([]ChangeLogEntry(nil), e.ChangeLogs...)
	}
	if e.RecurringConfig != nil {
		rc := *e.RecurringConfig
		if rc.DaysOfWeek != nil {
			rc.DaysOfWeek = append([]int(nil), rc.DaysOfWeek...)
		}
		c.RecurringConfig = &rc
	}
	if e.CalendarIntegrations != nil {
		ci := *e.CalendarIntegrations
		c.CalendarIntegrations = &ci
	}
	return &c
}

func cloneContract(c *Contract) *Contract {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneResources(rs []Resource) []Resource {
	if rs == nil {
		return nil
	}
	out := make([]Resource, len(rs))
	for i, r := range rs {
		out[i] = r
		out[i].Cost = cloneFloat(r.Cost)
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (t Ticketing) clone() Ticketing {
	if t.BoxOffices != nil {
		t.BoxOffices = append([]BoxOffice(nil), t.BoxOffices...)
	}
	return t
}

func (a AccessControl) clone() AccessControl {
	a.Equipment.Cost = cloneFloat(a.Equipment.Cost)
	a.Staff = a.Staff.clone()
	return a
}

func (s StaffAllocation) clone() StaffAllocation {
	if s.Assigned != nil {
		s.Assigned = append([]StaffMember(nil), s.Assigned...)
	}
	return s
}
