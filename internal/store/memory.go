// Package store provides the in-memory repository shared by all resource
// types. Each collection keeps insertion order and is guarded by its own lock.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/fittrack/internal/apierr"
)

// Record is implemented by every stored resource.
type Record interface {
	GetID() string
	GetUserID() string
	// Stamp sets identity and timestamps; a zero createdAt leaves it untouched.
	Stamp(id string, createdAt, updatedAt time.Time)
}

// Clonable records return a deep copy, so callers never share memory
// with the store.
type Clonable[T any] interface {
	Clone() T
}

type RecordPtr[T any] interface {
	*T
	Record
	Clonable[T]
}

type Memory[T any, P RecordPtr[T]] struct {
	mutex    sync.RWMutex
	resource string
	records  []T
	now      func() time.Time
	newID    func() string
}

func NewMemory[T any, P RecordPtr[T]](resource string) *Memory[T, P] {
	return &Memory[T, P]{
		resource: resource,
		records:  make([]T, 0),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock replaces the timestamp source, used in tests.
func (m *Memory[T, P]) WithClock(now func() time.Time) *Memory[T, P] {
	m.now = now
	return m
}

func (m *Memory[T, P]) List(_ context.Context, userID string) ([]T, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	res := make([]T, 0)
	for i := range m.records {
		rec := P(&m.records[i])
		if rec.GetUserID() == userID {
			res = append(res, rec.Clone())
		}
	}
	return res, nil
}

func (m *Memory[T, P]) Create(_ context.Context, record T) (*T, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now().UTC()
	stored := P(&record).Clone()
	P(&stored).Stamp(m.newID(), now, now)
	m.records = append(m.records, stored)

	res := P(&stored).Clone()
	return &res, nil
}

// Insert stores a record keeping its id, used for seeding.
func (m *Memory[T, P]) Insert(_ context.Context, record T) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec := P(&record)
	if m.indexOf(rec.GetID(), rec.GetUserID()) >= 0 {
		return nil
	}
	now := m.now().UTC()
	stored := rec.Clone()
	P(&stored).Stamp(rec.GetID(), now, now)
	m.records = append(m.records, stored)
	return nil
}

func (m *Memory[T, P]) Get(_ context.Context, id, userID string) (*T, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.indexOf(id, userID)
	if i < 0 {
		return nil, apierr.NotFound(m.resource, id)
	}
	res := P(&m.records[i]).Clone()
	return &res, nil
}

// Update runs mutate on a copy of the record and stores the copy only if
// mutate succeeds, so a failed mutation leaves the record untouched.
func (m *Memory[T, P]) Update(_ context.Context, id, userID string, mutate func(*T) error) (*T, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i := m.indexOf(id, userID)
	if i < 0 {
		return nil, apierr.NotFound(m.resource, id)
	}

	updated := P(&m.records[i]).Clone()
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	P(&updated).Stamp(id, time.Time{}, m.now().UTC())
	m.records[i] = updated

	res := P(&updated).Clone()
	return &res, nil
}

func (m *Memory[T, P]) Delete(_ context.Context, id, userID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i := m.indexOf(id, userID)
	if i < 0 {
		return apierr.NotFound(m.resource, id)
	}
	m.records = slices.Delete(m.records, i, i+1)
	return nil
}

func (m *Memory[T, P]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.records)
}

func (m *Memory[T, P]) indexOf(id, userID string) int {
	for i := range m.records {
		rec := P(&m.records[i])
		if rec.GetID() == id && rec.GetUserID() == userID {
			return i
		}
	}
	return -1
}
