// Package repository keeps validated datasets in memory, one per upload session.
package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/pairing"
)

// Session is one loaded dataset. It is read-only once stored.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Dataset   *dataset.Dataset
	Males     []model.Individual
	Females   []model.Individual
}

// Store provides access to loaded datasets.
type Store interface {
	// Put stores a dataset under a new session ID. When the store is full the
	// oldest session is evicted.
	Put(ctx context.Context, name string, ds *dataset.Dataset) (Session, error)

	// Get returns the session with id or ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)

	// Delete removes a session. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// MemoryStore is a bounded, in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string // insertion order, oldest first

	capacity int
	now      func() time.Time
	newID    func() string
	evicted  atomic.Int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		capacity: DefaultCapacity,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store. Males and females are partitioned once here so that
// scoring requests never rescan the population.
func (s *MemoryStore) Put(ctx context.Context, name string, ds *dataset.Dataset) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if ds == nil {
		return Session{}, ErrNilDataset
	}

	males, females := pairing.PartitionByGender(ds.Individuals)
	sess := Session{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: s.now().UTC(),
		Dataset:   ds,
		Males:     males,
		Females:   females,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.sessions, oldest)
		s.evicted.Add(1)
	}
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	return sess, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sess, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.sessions, id)
	for i, sid := range s.order {
		if sid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Capacity returns the maximum number of live sessions.
func (s *MemoryStore) Capacity() int { return s.capacity }

// Evicted returns how many sessions were dropped to make room.
func (s *MemoryStore) Evicted() int64 { return s.evicted.Load() }
