package store

import (
	"context"
	"errors"

	"equipment-registry-backend/internal/model"
)

// ErrNotFound is returned when a requested equipment record does not exist.
var ErrNotFound = errors.New("equipment not found")

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Owner  model.Principal
	Status string
}

// Stats summarises the registry contents.
type Stats struct {
	Count     int64  `json:"count"`
	LastID    int64  `json:"lastId"`
	MaxHeight uint64 `json:"maxRegistrationHeight"`
}

// Store defines the persistence operations the registry needs.
//
// Insert assigns e.ID from the store's own generator (last issued id + 1)
// and persists e in the same transaction. Update loads the record, hands it
// to mutate and saves the result, all under one transaction; it returns
// ErrNotFound before mutate is called if id is unknown, and returns mutate's
// error unchanged without writing anything.
type Store interface {
	Insert(ctx context.Context, e *model.Equipment) error
	Update(ctx context.Context, id int64, mutate func(*model.Equipment) error) (*model.Equipment, error)
	Get(ctx context.Context, id int64) (*model.Equipment, error)
	List(ctx context.Context, filter ListFilter) ([]model.Equipment, error)
	Stats(ctx context.Context) (Stats, error)
}

func (f ListFilter) matches(e *model.Equipment) bool {
	if f.Owner != "" && e.Owner != f.Owner {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
