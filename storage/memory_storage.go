package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

type memoryStorage struct {
	lock sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() System {
	return &memoryStorage{data: make(map[string][]byte)}
}

func (m *memoryStorage) GetKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	ret := []string{}
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}
	slices.Sort(ret)

	return ret, nil
}

func (m *memoryStorage) Write(ctx context.Context, key string, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = slices.Clone(data)

	return nil
}

type memoryStreamWriter struct {
	storage *memoryStorage
	key     string
	buf     []byte
	closed  bool
}

func (m *memoryStreamWriter) Write(data []byte) (int, error) {
	if m.closed {
		return 0, errors.Newf("stream %s is closed", m.key)
	}
	m.buf = append(m.buf, data...)
	return len(data), nil
}

// Close publishes everything written so far, appending to any existing value.
func (m *memoryStreamWriter) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	m.storage.lock.Lock()
	defer m.storage.lock.Unlock()

	m.storage.data[m.key] = append(slices.Clone(m.storage.data[m.key]), m.buf...)
	return nil
}

func (m *memoryStorage) BeginStream(ctx context.Context, key string) (StreamWriter, error) {
	return &memoryStreamWriter{
		storage: m,
		key:     key,
	}, nil
}

func (m *memoryStorage) Read(ctx context.Context, key string) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	data, ok := m.data[key]
	if !ok {
		return nil, errors.Wrap(ErrDoesNotExist, key)
	}

	return slices.Clone(data), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.data, key)

	return nil
}
