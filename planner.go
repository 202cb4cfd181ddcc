package freetime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cockroachdb/errors"
	"github.com/hoyle1974/freetime/calendar"
	"github.com/hoyle1974/freetime/events"
	"github.com/hoyle1974/freetime/telemetry"
	"github.com/patrickmn/go-cache"
)

type PlannerOptions struct {
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration
	// Workers bounds how many days QueryDays works on at once.
	Workers int
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
}

func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{
		CacheTTL:             5 * time.Minute,
		CacheCleanupInterval: time.Hour,
		Workers:              8,
		Logger:               telemetry.NOPLogger{},
		Metrics:              telemetry.NOPMetrics{},
	}
}

// Planner answers meeting queries against the days kept in an events.Store. Answers are
// cached per day revision, so any change to a day is seen by the next query.
type Planner struct {
	store   events.Store
	finder  Finder
	cache   *cache.Cache
	stats   CacheStats
	pool    pond.Pool
	logger  telemetry.Logger
	metrics telemetry.Metrics
}

func NewPlanner(store events.Store, finder Finder, opts PlannerOptions) *Planner {
	d := DefaultPlannerOptions()
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = d.CacheCleanupInterval
	}
	if opts.Workers < 1 {
		opts.Workers = d.Workers
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	if opts.Metrics == nil {
		opts.Metrics = d.Metrics
	}

	return &Planner{
		store:   store,
		finder:  finder,
		cache:   cache.New(opts.CacheTTL, opts.CacheCleanupInterval),
		pool:    pond.NewPool(opts.Workers),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Query finds the slots for request on day.
func (p *Planner) Query(ctx context.Context, day calendar.Day, request calendar.MeetingRequest) ([]calendar.TimeRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := p.store.Load(ctx, day)
	if err != nil {
		return nil, errors.Wrapf(err, "can not load %s", day)
	}

	key := cacheKey(snap, request)
	if slots, ok := p.cache.Get(key); ok {
		p.metrics.SetCount("cache_hits", p.stats.Hit())
		return slices.Clone(slots.([]calendar.TimeRange)), nil
	}
	p.metrics.SetCount("cache_misses", p.stats.Miss())

	slots := p.finder.Query(snap.Events, request)
	p.cache.Set(key, slots, cache.DefaultExpiration)
	p.logger.Debug("planned day", "day", day, "revision", snap.Revision, "events", len(snap.Events), "slots", len(slots))

	return slices.Clone(slots), nil
}

// QueryDays runs Query for every day on the planner's worker pool. If any day fails the
// first error is returned and the results are discarded.
func (p *Planner) QueryDays(ctx context.Context, days []calendar.Day, request calendar.MeetingRequest) (map[calendar.Day][]calendar.TimeRange, error) {
	results := make([][]calendar.TimeRange, len(days))

	group := p.pool.NewGroup()
	for idx, day := range days {
		group.SubmitErr(func() error {
			slots, err := p.Query(ctx, day, request)
			if err != nil {
				return err
			}
			results[idx] = slots
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	ret := make(map[calendar.Day][]calendar.TimeRange, len(days))
	for idx, day := range days {
		ret[day] = results[idx]
	}
	return ret, nil
}

func (p *Planner) Stats() *CacheStats {
	return &p.stats
}

func (p *Planner) ClearCache() {
	p.stats.Reset()
	p.cache.Flush()
}

// Close waits for running queries and stops the worker pool.
func (p *Planner) Close() {
	p.pool.StopAndWait()
}

// cacheKey identifies a query against one exact state of a day. Attendee lists are quoted so
// ids containing separators can not collide.
func cacheKey(snap events.Snapshot, request calendar.MeetingRequest) string {
	return fmt.Sprintf("%s@%d+%d|%d|%q|%q",
		snap.Day,
		snap.Revision,
		snap.Journal,
		request.Duration,
		[]string(calendar.NewAttendees(request.Required...)),
		[]string(calendar.NewAttendees(request.Optional...)),
	)
}
