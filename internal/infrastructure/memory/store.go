// Package memory is a non-durable UserStore for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

type Store struct {
	mu      sync.Mutex
	records map[string]entity.UserRecord
	saves   int
	saveErr error
}

func NewStore(seed ...entity.UserRecord) *Store {
	s := &Store{records: make(map[string]entity.UserRecord)}
	for _, rec := range seed {
		s.records[rec.ID] = rec
	}
	return s
}

// FailSaves makes every following Save return err; nil restores normal
// behaviour.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves counts successful writes.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Get returns the stored record for id.
func (s *Store) Get(id string) (entity.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *Store) LoadAll(_ context.Context) ([]entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.UserRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Save(ctx context.Context, rec entity.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[rec.ID] = rec
	s.saves++
	return nil
}

func (s *Store) Close() error { return nil }

var _ repository.UserStore = (*Store)(nil)
