package events

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/hoyle1974/freetime/calendar"
	"gopkg.in/yaml.v3"
)

// DayFile is the YAML form used to import a day by hand:
//
//	day: 2026-10-17
//	events:
//	  - title: standup
//	    start: "09:00"
//	    end: "09:15"
//	    attendees: [alice, bob]
type DayFile struct {
	Day    string         `yaml:"day"`
	Events []DayFileEvent `yaml:"events"`
}

type DayFileEvent struct {
	Title     string   `yaml:"title"`
	Start     string   `yaml:"start"`
	End       string   `yaml:"end"`
	Attendees []string `yaml:"attendees"`
}

func DecodeDayFile(r io.Reader) (calendar.Day, []calendar.Event, error) {
	var f DayFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return "", nil, errors.Wrap(err, "can not parse day file")
	}

	day, err := calendar.ParseDay(f.Day)
	if err != nil {
		return "", nil, err
	}

	events := make([]calendar.Event, 0, len(f.Events))
	for idx, fe := range f.Events {
		start, err := calendar.ParseClock(fe.Start)
		if err != nil {
			return "", nil, errors.Wrapf(err, "event %d", idx)
		}
		end, err := calendar.ParseClock(fe.End)
		if err != nil {
			return "", nil, errors.Wrapf(err, "event %d", idx)
		}
		when, err := calendar.NewTimeRange(start, end)
		if err != nil {
			return "", nil, errors.Wrapf(err, "event %d", idx)
		}
		e, err := calendar.NewEvent(fe.Title, when, fe.Attendees...)
		if err != nil {
			return "", nil, err
		}
		events = append(events, e)
	}
	return day, events, nil
}
