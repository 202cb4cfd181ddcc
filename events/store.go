package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hoyle1974/freetime/calendar"
	"github.com/hoyle1974/freetime/misc"
	"github.com/hoyle1974/freetime/storage"
	"github.com/hoyle1974/freetime/telemetry"
)

var ErrUnknownRevision = errors.New("unknown revision")

// Store keeps the events of each day. Every Save produces a new numbered revision; events
// added or removed between saves go to a journal that Load replays and Compact folds into
// the next revision.
//
// A day is laid out as
//
//	days/<day>/head        latest revision number
//	days/<day>/current     latest revision, gob encoded
//	days/<day>/rev/<n>     diff from revision n-1 to n
//	days/<day>/journal     length prefixed Records
type Store interface {
	Save(ctx context.Context, day calendar.Day, events []calendar.Event) (int, error)
	Append(ctx context.Context, day calendar.Day, event calendar.Event) error
	Remove(ctx context.Context, day calendar.Day, id string) error
	Load(ctx context.Context, day calendar.Day) (Snapshot, error)
	LoadRevision(ctx context.Context, day calendar.Day, revision int) ([]calendar.Event, error)
	Compact(ctx context.Context, day calendar.Day) (int, error)
	Days(ctx context.Context) ([]calendar.Day, error)
}

// Snapshot is the state of a day as of its latest revision plus the journal.
type Snapshot struct {
	Day      calendar.Day
	Revision int
	// Journal is the number of records replayed on top of Revision.
	Journal int
	Events  []calendar.Event
}

type snapshotRecord struct {
	Events []calendar.Event
}

const daysPrefix = "days/"

// dayKey expects a validated day, which can not contain a path separator.
func dayKey(day calendar.Day, name string) string {
	return daysPrefix + string(day) + "/" + name
}

func revisionKey(day calendar.Day, revision int) string {
	return dayKey(day, fmt.Sprintf("rev/%06d", revision))
}

type store struct {
	lock    sync.Mutex
	storage storage.System
	logger  telemetry.Logger
}

func NewStore(s storage.System, logger telemetry.Logger) Store {
	if logger == nil {
		logger = telemetry.NOPLogger{}
	}
	return &store{storage: s, logger: logger}
}

func (s *store) Save(ctx context.Context, day calendar.Day, events []calendar.Event) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.save(ctx, day, events)
}

func (s *store) save(ctx context.Context, day calendar.Day, events []calendar.Event) (int, error) {
	if err := day.Validate(); err != nil {
		return 0, err
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	head, err := s.head(ctx, day)
	if err != nil {
		return 0, err
	}
	prev, err := s.read(ctx, dayKey(day, "current"))
	if err != nil {
		return 0, err
	}
	next, err := misc.EncodeToBytes(snapshotRecord{Events: events})
	if err != nil {
		return 0, err
	}
	diff, err := generateDiff(prev, next)
	if err != nil {
		return 0, err
	}

	// head is written last, a crash before it leaves the previous revision in charge
	revision := head + 1
	if err := s.storage.Write(ctx, revisionKey(day, revision), diff); err != nil {
		return 0, errors.Wrapf(err, "can not save revision %d of %s", revision, day)
	}
	if err := s.storage.Write(ctx, dayKey(day, "current"), next); err != nil {
		return 0, errors.Wrapf(err, "can not save %s", day)
	}
	if err := s.storage.Write(ctx, dayKey(day, "head"), []byte(strconv.Itoa(revision))); err != nil {
		return 0, errors.Wrapf(err, "can not save head of %s", day)
	}
	if err := s.storage.Delete(ctx, dayKey(day, "journal")); err != nil {
		return 0, errors.Wrapf(err, "can not clear journal of %s", day)
	}

	s.logger.Debug("saved day", "day", day, "revision", revision, "events", len(events), "diff_bytes", len(diff))
	return revision, nil
}

func (s *store) Append(ctx context.Context, day calendar.Day, event calendar.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return s.journal(ctx, day, Record{Timestamp: time.Now().UTC(), Event: event})
}

func (s *store) Remove(ctx context.Context, day calendar.Day, id string) error {
	return s.journal(ctx, day, Record{Timestamp: time.Now().UTC(), Event: calendar.Event{ID: id}, Delete: true})
}

func (s *store) journal(ctx context.Context, day calendar.Day, r Record) error {
	if err := day.Validate(); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// a day that was never saved still needs a head so Days can find it
	_, err := s.storage.Read(ctx, dayKey(day, "head"))
	if errors.Is(err, storage.ErrDoesNotExist) {
		err = s.storage.Write(ctx, dayKey(day, "head"), []byte("0"))
	}
	if err != nil {
		return errors.Wrapf(err, "can not prepare journal of %s", day)
	}

	return NewSink(s.storage, dayKey(day, "journal")).Append(ctx, r)
}

func (s *store) Load(ctx context.Context, day calendar.Day) (Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.load(ctx, day)
}

func (s *store) load(ctx context.Context, day calendar.Day) (Snapshot, error) {
	snap := Snapshot{Day: day}
	if err := day.Validate(); err != nil {
		return snap, err
	}

	head, err := s.head(ctx, day)
	if err != nil {
		return snap, err
	}
	snap.Revision = head

	current, err := s.read(ctx, dayKey(day, "current"))
	if err != nil {
		return snap, err
	}
	if snap.Events, err = decodeEvents(current); err != nil {
		return snap, errors.Wrapf(err, "can not load %s", day)
	}

	records, err := ReadRecords(ctx, s.storage, dayKey(day, "journal"))
	if err != nil {
		return snap, err
	}
	for _, r := range records {
		if !r.Delete {
			r.Event.Attendees = calendar.NewAttendees(r.Event.Attendees...)
			if err := r.Event.Validate(); err != nil {
				return snap, errors.Wrapf(err, "bad journal record for %s", day)
			}
		}
		snap.Events = r.Apply(snap.Events)
	}
	snap.Journal = len(records)

	return snap, nil
}

func (s *store) LoadRevision(ctx context.Context, day calendar.Day, revision int) ([]calendar.Event, error) {
	if err := day.Validate(); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	head, err := s.head(ctx, day)
	if err != nil {
		return nil, err
	}
	if revision < 0 || revision > head {
		return nil, errors.Wrapf(ErrUnknownRevision, "%s has revisions 0-%d, not %d", day, head, revision)
	}

	var data []byte
	for r := 1; r <= revision; r++ {
		diff, err := s.storage.Read(ctx, revisionKey(day, r))
		if err != nil {
			return nil, errors.Wrapf(err, "can not read revision %d of %s", r, day)
		}
		if data, err = applyDiff(data, diff); err != nil {
			return nil, errors.Wrapf(err, "revision %d of %s", r, day)
		}
	}
	return decodeEvents(data)
}

func (s *store) Compact(ctx context.Context, day calendar.Day) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	snap, err := s.load(ctx, day)
	if err != nil {
		return 0, err
	}
	if snap.Journal == 0 {
		return snap.Revision, nil
	}
	return s.save(ctx, day, snap.Events)
}

func (s *store) Days(ctx context.Context) ([]calendar.Day, error) {
	keys, err := s.storage.GetKeysWithPrefix(ctx, daysPrefix)
	if err != nil {
		return nil, err
	}

	days := []calendar.Day{}
	for _, k := range keys {
		name, ok := strings.CutSuffix(strings.TrimPrefix(k, daysPrefix), "/head")
		if !ok || strings.Contains(name, "/") {
			continue
		}
		days = append(days, calendar.Day(name))
	}
	return days, nil
}

// head returns the latest revision of day, 0 if it was never saved.
func (s *store) head(ctx context.Context, day calendar.Day) (int, error) {
	b, err := s.read(ctx, dayKey(day, "head"))
	if err != nil || b == nil {
		return 0, err
	}
	head, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, errors.Wrapf(err, "corrupt head for %s", day)
	}
	return head, nil
}

// read treats a missing key as empty.
func (s *store) read(ctx context.Context, key string) ([]byte, error) {
	b, err := s.storage.Read(ctx, key)
	if errors.Is(err, storage.ErrDoesNotExist) {
		return nil, nil
	}
	return b, err
}

func decodeEvents(data []byte) ([]calendar.Event, error) {
	if len(data) == 0 {
		return []calendar.Event{}, nil
	}
	var rec snapshotRecord
	if err := misc.DecodeFromBytes(data, &rec); err != nil {
		return nil, err
	}
	events := make([]calendar.Event, 0, len(rec.Events))
	for _, e := range rec.Events {
		e.Attendees = calendar.NewAttendees(e.Attendees...)
		if err := e.Validate(); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
