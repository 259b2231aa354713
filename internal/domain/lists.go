package domain

import "github.com/google/uuid"

// Box offices and staff members are addressed by id, never by position, so
// removing or reordering siblings never re-targets an edit.

// UpsertBoxOffice returns a copy of the box-office list with b replacing the
// entry of the same id, or appended when no entry matches. A missing id is
// generated.
func (t Ticketing) UpsertBoxOffice(b BoxOffice) []BoxOffice {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	out := make([]BoxOffice, 0, len(t.BoxOffices)+1)
	replaced := false
	for _, existing := range t.BoxOffices {
		if existing.ID == b.ID {
			out = append(out, b)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, b)
	}
	return out
}

// RemoveBoxOffice returns a copy of the list without the entry of that id
func (t Ticketing) RemoveBoxOffice(id string) []BoxOffice {
	out := make([]BoxOffice, 0, len(t.BoxOffices))
	for _, b := range t.BoxOffices {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// FindBoxOffice looks a box office up by id
func (t Ticketing) FindBoxOffice(id string) (BoxOffice, bool) {
	for _, b := range t.BoxOffices {
		if b.ID == id {
			return b, true
		}
	}
	return BoxOffice{}, false
}

// UpsertMember returns a copy of the allocation with m replacing the member
// of the same id, or appended. A missing id is generated.
func (s StaffAllocation) UpsertMember(m StaffMember) StaffAllocation {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	out := StaffAllocation{Quantity: s.Quantity, Assigned: make([]StaffMember, 0, len(s.Assigned)+1)}
	replaced := false
	for _, existing := range s.Assigned {
		if existing.ID == m.ID {
			out.Assigned = append(out.Assigned, m)
			replaced = true
			continue
		}
		out.Assigned = append(out.Assigned, existing)
	}
	if !replaced {
		out.Assigned = append(out.Assigned, m)
	}
	return out
}

// RemoveMember returns a copy of the allocation without the member of that id
func (s StaffAllocation) RemoveMember(id string) StaffAllocation {
	out := StaffAllocation{Quantity: s.Quantity, Assigned: make([]StaffMember, 0, len(s.Assigned))}
	for _, m := range s.Assigned {
		if m.ID != id {
			out.Assigned = append(out.Assigned, m)
		}
	}
	return out
}
