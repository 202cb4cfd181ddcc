package calendar

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Event is something already on the calendar: who is busy and when.
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	When      TimeRange `json:"when" yaml:"when"`
	Attendees Attendees `json:"attendees" yaml:"attendees"`
}

func NewEvent(title string, when TimeRange, attendees ...string) (Event, error) {
	if err := when.Validate(); err != nil {
		return Event{}, errors.Wrapf(err, "event %q", title)
	}
	return Event{
		ID:        uuid.NewString(),
		Title:     title,
		When:      when,
		Attendees: NewAttendees(attendees...),
	}, nil
}

// Validate is used on events that did not come through NewEvent.
func (e Event) Validate() error {
	if err := e.When.Validate(); err != nil {
		return errors.Wrapf(err, "event %s", e.ID)
	}
	return nil
}

// Relevant reports whether the event occupies any time for at least one of attendees.
func (e Event) Relevant(attendees Attendees) bool {
	return e.When.Duration() > 0 && e.Attendees.Intersects(attendees)
}
