package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"equipment-registry-backend/internal/model"
)

// memoryStore implements Store in process memory.
type memoryStore struct {
	mu        sync.RWMutex
	lastID    int64
	equipment map[int64]model.Equipment
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store. Each store owns its own
// generator, so independent stores never share ids.
func NewMemoryStore() Store {
	return &memoryStore{
		equipment: make(map[int64]model.Equipment),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryStore) Insert(ctx context.Context, e *model.Equipment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	e.ID = s.lastID
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.equipment[e.ID] = *e
	return nil
}

func (s *memoryStore) Update(ctx context.Context, id int64, mutate func(*model.Equipment) error) (*model.Equipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.equipment[id]
	if !ok {
		return nil, ErrNotFound
	}

	// mutate works on a copy so a rejected mutation leaves the record untouched.
	updated := existing
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	s.equipment[id] = updated
	return &updated, nil
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*model.Equipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.equipment[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *memoryStore) List(ctx context.Context, filter ListFilter) ([]model.Equipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Equipment, 0, len(s.equipment))
	for _, e := range s.equipment {
		if filter.matches(&e) {
			items = append(items, e)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *memoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Count: int64(len(s.equipment)), LastID: s.lastID}
	for _, e := range s.equipment {
		if e.RegistrationHeight > stats.MaxHeight {
			stats.MaxHeight = e.RegistrationHeight
		}
	}
	return stats, nil
}
