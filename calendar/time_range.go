package calendar

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour

	// StartOfDay is the first minute of the day.
	StartOfDay = 0
	// EndOfDay is the last minute of the day. A range that is inclusive of EndOfDay ends at
	// MinutesPerDay.
	EndOfDay = MinutesPerDay - 1
)

var ErrInvalidRange = errors.New("invalid time range")

// WholeDay spans every minute of the day.
var WholeDay = TimeRange{Start: StartOfDay, End: MinutesPerDay}

// TimeRange is the half open span [Start, End) measured in minutes from midnight.
// It is a value type, copies are independent and nothing in this module mutates one
// after construction.
type TimeRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// NewTimeRange builds [start, end). Bounds must satisfy 0 <= start <= end <= MinutesPerDay.
func NewTimeRange(start, end int) (TimeRange, error) {
	t := TimeRange{Start: start, End: end}
	if err := t.Validate(); err != nil {
		return TimeRange{}, err
	}
	return t, nil
}

func FromStartDuration(start, duration int) (TimeRange, error) {
	if duration < 0 {
		return TimeRange{}, errors.Wrapf(ErrInvalidRange, "negative duration %d", duration)
	}
	return NewTimeRange(start, start+duration)
}

// FromStartEnd builds a range from start to end. When inclusive is set the minute at end is
// part of the range, so FromStartEnd(x, EndOfDay, true) runs through the end of the day.
func FromStartEnd(start, end int, inclusive bool) (TimeRange, error) {
	if inclusive {
		end++
	}
	return NewTimeRange(start, end)
}

// Validate checks the day bounds. Ranges decoded from storage or built as literals go
// through here before they reach the finder.
func (t TimeRange) Validate() error {
	if t.Start < StartOfDay || t.End > MinutesPerDay {
		return errors.Wrapf(ErrInvalidRange, "%d-%d is outside the day", t.Start, t.End)
	}
	if t.Start > t.End {
		return errors.Wrapf(ErrInvalidRange, "start %d is after end %d", t.Start, t.End)
	}
	return nil
}

func (t TimeRange) Duration() int {
	return t.End - t.Start
}

// ContainsPoint reports whether minute p falls inside the range. Empty ranges contain nothing.
func (t TimeRange) ContainsPoint(p int) bool {
	return p >= t.Start && p < t.End
}

// Contains reports whether other lies entirely within t.
func (t TimeRange) Contains(other TimeRange) bool {
	return other.Start >= t.Start && other.End <= t.End
}

// Overlaps reports whether the two ranges share at least one minute. Ranges that only touch
// at an endpoint do not overlap.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.ContainsPoint(other.Start) || other.ContainsPoint(t.Start)
}

// Before orders ranges by start time.
func (t TimeRange) Before(other TimeRange) bool {
	return t.Start < other.Start
}

// CompareByStart is the slices.SortFunc comparator for ranges.
func CompareByStart(a, b TimeRange) int {
	return a.Start - b.Start
}

func (t TimeRange) String() string {
	return fmt.Sprintf("%s-%s", clock(t.Start), clock(t.End))
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/MinutesPerHour, minutes%MinutesPerHour)
}

// ParseClock reads "HH:MM" as minutes from midnight. "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 {
		return 0, errors.Wrapf(ErrInvalidRange, "bad clock time %q", s)
	}
	minutes := h*MinutesPerHour + m
	if h < 0 || m < 0 || m >= MinutesPerHour || minutes > MinutesPerDay {
		return 0, errors.Wrapf(ErrInvalidRange, "bad clock time %q", s)
	}
	return minutes, nil
}
