package freetime

import (
	"slices"
	"sync/atomic"

	"github.com/hoyle1974/freetime/calendar"
	"github.com/hoyle1974/freetime/telemetry"
)

// Finder computes when a meeting can be held on a single day.
//
// A Finder holds no per-query state. It never mutates the events, ranges or request handed
// to it, so one Finder can serve any number of goroutines at once.
type Finder interface {
	// Query returns every slot of at least request.Duration minutes in which the meeting can
	// be held. Slots that also suit every optional attendee are preferred; if there are none
	// the slots that suit the required attendees are returned instead.
	Query(events []calendar.Event, request calendar.MeetingRequest) []calendar.TimeRange

	// FindFreeTimes returns the gaps of at least duration minutes left in the day once the
	// events involving any of attendees are removed.
	FindFreeTimes(events []calendar.Event, attendees calendar.Attendees, duration int) []calendar.TimeRange

	// FilterForOptional keeps the candidates that no event of an optional attendee touches.
	FilterForOptional(events []calendar.Event, candidates []calendar.TimeRange, request calendar.MeetingRequest) []calendar.TimeRange
}

type finder struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics
	queries atomic.Int64
}

func New() Finder {
	return NewWithTelemetry(telemetry.NOPLogger{}, telemetry.NOPMetrics{})
}

func NewWithTelemetry(logger telemetry.Logger, metrics telemetry.Metrics) Finder {
	return &finder{logger: logger, metrics: metrics}
}

// Query implements Finder.
func (f *finder) Query(events []calendar.Event, request calendar.MeetingRequest) []calendar.TimeRange {
	f.metrics.SetCount("queries", f.queries.Add(1))

	if request.Duration > calendar.WholeDay.Duration() {
		f.logger.Debug("meeting longer than a day", "duration", request.Duration)
		return []calendar.TimeRange{}
	}

	switch {
	case request.Required.IsEmpty() && request.Optional.IsEmpty():
		return []calendar.TimeRange{calendar.WholeDay}
	case request.Required.IsEmpty():
		// Nobody is mandatory, so the optional attendees are the constraint.
		slots := f.FindFreeTimes(events, request.Optional, request.Duration)
		f.record("optional-as-required", slots)
		return slots
	}

	required := f.FindFreeTimes(events, request.Required, request.Duration)
	combined := f.FilterForOptional(events, required, request)
	if len(combined) > 0 {
		f.record("everyone", combined)
		return combined
	}
	f.record("required-only", required)
	return required
}

func (f *finder) record(tier string, slots []calendar.TimeRange) {
	f.logger.Debug("query answered", "tier", tier, "slots", len(slots))
	f.metrics.SetGauge("last_query_slots", float64(len(slots)))
}

// FindFreeTimes implements Finder.
func (f *finder) FindFreeTimes(events []calendar.Event, attendees calendar.Attendees, duration int) []calendar.TimeRange {
	busy := relevantRanges(events, attendees)
	if len(busy) == 0 {
		if duration > calendar.WholeDay.Duration() {
			return []calendar.TimeRange{}
		}
		return []calendar.TimeRange{calendar.WholeDay}
	}

	free := []calendar.TimeRange{}
	emit := func(start, end int, inclusive bool) {
		// only events lying outside the day fail here, and they leave no gap to report
		r, err := calendar.FromStartEnd(start, end, inclusive)
		if err != nil || r.Duration() == 0 || r.Duration() < duration {
			return
		}
		free = append(free, r)
	}

	// watermark is the latest minute any range seen so far keeps someone busy until. Ranges
	// nested in, or overlapping, an earlier one start at or before it and only push it out.
	watermark := calendar.StartOfDay
	for _, when := range busy {
		if when.Start > watermark {
			emit(watermark, when.Start, false)
		}
		watermark = max(watermark, when.End)
	}
	emit(watermark, calendar.EndOfDay, true)

	return free
}

// FilterForOptional implements Finder.
func (f *finder) FilterForOptional(events []calendar.Event, candidates []calendar.TimeRange, request calendar.MeetingRequest) []calendar.TimeRange {
	busy := relevantRanges(events, request.Optional)

	return slices.DeleteFunc(slices.Clone(candidates), func(slot calendar.TimeRange) bool {
		for _, when := range busy {
			if when.Overlaps(slot) {
				return true
			}
		}
		return false
	})
}

// relevantRanges returns, sorted by start, the time taken by events that involve any of
// attendees. Events without a duration never block anyone.
func relevantRanges(events []calendar.Event, attendees calendar.Attendees) []calendar.TimeRange {
	ranges := make([]calendar.TimeRange, 0, len(events))
	for _, e := range events {
		if e.Relevant(attendees) {
			ranges = append(ranges, e.When)
		}
	}
	slices.SortStableFunc(ranges, calendar.CompareByStart)
	return ranges
}
