package calendar

import "slices"

// Attendees is a set of attendee ids. NewAttendees sorts them and drops duplicates, but the
// methods do not rely on either. Ids are case sensitive.
type Attendees []string

func NewAttendees(ids ...string) Attendees {
	a := slices.Clone(ids)
	slices.Sort(a)
	return slices.Compact(a)
}

func (a Attendees) IsEmpty() bool {
	return len(a) == 0
}

func (a Attendees) Contains(id string) bool {
	return slices.Contains(a, id)
}

// Intersects reports whether at least one id is present in both sets.
func (a Attendees) Intersects(other Attendees) bool {
	if len(a) == 0 || len(other) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range other {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
