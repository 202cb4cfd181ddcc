package events

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hoyle1974/freetime/calendar"
	"github.com/hoyle1974/freetime/misc"
	"github.com/hoyle1974/freetime/storage"
)

// Record is one change to a day made since its last snapshot.
type Record struct {
	Timestamp time.Time
	Event     calendar.Event
	Delete    bool
}

// Apply folds the record into events. Events are matched by ID, so adding an event that is
// already present replaces it in place.
func (r Record) Apply(events []calendar.Event) []calendar.Event {
	for idx, e := range events {
		if e.ID != r.Event.ID {
			continue
		}
		if r.Delete {
			return append(events[:idx:idx], events[idx+1:]...)
		}
		events[idx] = r.Event
		return events
	}
	if r.Delete {
		return events
	}
	return append(events, r.Event)
}

type Sink interface {
	Append(ctx context.Context, record Record) error
}

// sink writes each record as a big endian uint32 length followed by the gob encoded record.
type sink struct {
	key   string
	store storage.System
}

func NewSink(s storage.System, key string) Sink {
	return &sink{key: key, store: s}
}

// Append implements Sink.
func (s *sink) Append(ctx context.Context, record Record) error {
	b, err := misc.EncodeToBytes(record)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(b))); err != nil {
		return errors.Wrap(err, "can not write record length")
	}
	buf.Write(b)

	writer, err := s.store.BeginStream(ctx, s.key)
	if err != nil {
		return err
	}
	if _, err := writer.Write(buf.Bytes()); err != nil {
		writer.Close()
		return errors.Wrapf(err, "can not append to %s", s.key)
	}
	return writer.Close()
}

// ReadRecords returns every record in the journal at key, oldest first. A missing journal
// has no records.
func ReadRecords(ctx context.Context, s storage.System, key string) ([]Record, error) {
	data, err := s.Read(ctx, key)
	if errors.Is(err, storage.ErrDoesNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []Record
	reader := bytes.NewReader(data)
	for reader.Len() > 0 {
		var length uint32
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, errors.Wrapf(err, "corrupt journal %s", key)
		}

		content := make([]byte, length)
		if _, err := io.ReadFull(reader, content); err != nil {
			return nil, errors.Wrapf(err, "corrupt journal %s", key)
		}

		var r Record
		if err := misc.DecodeFromBytes(content, &r); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
