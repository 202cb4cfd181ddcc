package calendar

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNewAttendees(t *testing.T) {
	a := NewAttendees("carol", "alice", "bob", "alice")
	require.Equal(t, Attendees{"alice", "bob", "carol"}, a)
	require.True(t, a.Contains("bob"))
	require.False(t, a.Contains("Bob"))
	require.True(t, NewAttendees().IsEmpty())
}

func TestAttendeesIntersects(t *testing.T) {
	a := NewAttendees("A", "B")
	require.True(t, a.Intersects(NewAttendees("B", "C")))
	require.False(t, a.Intersects(NewAttendees("C")))
	require.False(t, a.Intersects(nil))
	require.False(t, Attendees(nil).Intersects(a))
}

func TestAttendeesContains(t *testing.T) {
	unsorted := Attendees{"carol", "alice", "bob"}
	for _, id := range unsorted {
		require.True(t, unsorted.Contains(id), id)
	}
	require.False(t, unsorted.Contains("dave"))
	require.True(t, unsorted.Intersects(NewAttendees("alice")))
	require.False(t, Attendees(nil).Contains("alice"))
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("standup", TimeRange{540, 555}, "A", "B")
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Equal(t, Attendees{"A", "B"}, e.Attendees)
	require.True(t, e.Relevant(NewAttendees("B")))
	require.False(t, e.Relevant(NewAttendees("C")))

	_, err = NewEvent("broken", TimeRange{600, 500}, "A")
	require.True(t, errors.Is(err, ErrInvalidRange))
}

func TestZeroDurationEventIsNeverRelevant(t *testing.T) {
	e, err := NewEvent("marker", TimeRange{600, 600}, "A")
	require.NoError(t, err)
	require.False(t, e.Relevant(NewAttendees("A")))
}

func TestNewMeetingRequest(t *testing.T) {
	r, err := NewMeetingRequest(30, []string{"B", "A"}, []string{"C"})
	require.NoError(t, err)
	require.Equal(t, Attendees{"A", "B"}, r.Required)
	require.Equal(t, Attendees{"C"}, r.Optional)

	_, err = NewMeetingRequest(-1, nil, nil)
	require.True(t, errors.Is(err, ErrNegativeDuration))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-10-17")
	require.NoError(t, err)
	require.Equal(t, Day("2026-10-17"), d)

	_, err = ParseDay("17/10/2026")
	require.True(t, errors.Is(err, ErrInvalidDay))
}

func TestDayValidate(t *testing.T) {
	require.NoError(t, Day("2026-10-17").Validate())
	for _, d := range []Day{"", "../../x", "2026-10-17/../..", "2026-13-01"} {
		require.True(t, errors.Is(d.Validate(), ErrInvalidDay), string(d))
	}
}
