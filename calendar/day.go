package calendar

import (
	"time"

	"github.com/cockroachdb/errors"
)

const dayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid day")

// Day names a calendar date. It is only used to organise stored events, the finder itself
// works on a single day at a time and never looks at one.
type Day string

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidDay, "%q: %v", s, err)
	}
	return Day(t.Format(dayLayout)), nil
}

// Validate reports whether d is a well formed YYYY-MM-DD date.
func (d Day) Validate() error {
	_, err := ParseDay(string(d))
	return err
}

func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

func (d Day) String() string { return string(d) }
