package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"equipment-registry-backend/internal/model"
)

// equipmentCounter names the registry_counters row backing the id generator.
const equipmentCounter = "equipment"

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store. The equipment and
// registry_counters tables must already be migrated.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Insert advances the id generator and persists e in one transaction.
func (s *gormStore) Insert(ctx context.Context, e *model.Equipment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx)
		if err != nil {
			return err
		}
		e.ID = id
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("failed to create equipment %d: %w", id, err)
		}
		return nil
	})
}

// nextID bumps the equipment counter and returns its new value. The UPDATE
// runs first so the counter row stays locked until the transaction ends.
func nextID(tx *gorm.DB) (int64, error) {
	res := tx.Model(&model.RegistryCounter{}).
		Where("name = ?", equipmentCounter).
		UpdateColumn("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to advance equipment counter: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		counter := model.RegistryCounter{Name: equipmentCounter, Value: 1}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, fmt.Errorf("failed to seed equipment counter: %w", err)
		}
		return counter.Value, nil
	}

	var counter model.RegistryCounter
	if err := tx.Where("name = ?", equipmentCounter).Take(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to read equipment counter: %w", err)
	}
	return counter.Value, nil
}

// Update runs the read-check-write sequence for one record transactionally.
func (s *gormStore) Update(ctx context.Context, id int64, mutate func(*model.Equipment) error) (*model.Equipment, error) {
	var result model.Equipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load equipment %d: %w", id, err)
		}

		if err := mutate(&result); err != nil {
			return err
		}
		result.ID = id

		if err := tx.Save(&result).Error; err != nil {
			return fmt.Errorf("failed to save equipment %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *gormStore) Get(ctx context.Context, id int64) (*model.Equipment, error) {
	var e model.Equipment
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get equipment %d: %w", id, err)
	}
	return &e, nil
}

func (s *gormStore) List(ctx context.Context, filter ListFilter) ([]model.Equipment, error) {
	query := s.db.WithContext(ctx).Model(&model.Equipment{})
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	items := []model.Equipment{}
	if err := query.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return items, nil
}

func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	db := s.db.WithContext(ctx)

	type aggRow struct {
		Count     int64
		MaxHeight uint64
	}
	var agg aggRow
	if err := db.Model(&model.Equipment{}).
		Select("COUNT(*) AS count, COALESCE(MAX(registration_height), 0) AS max_height").
		Scan(&agg).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate equipment: %w", err)
	}

	var counter model.RegistryCounter
	err := db.Where("name = ?", equipmentCounter).Take(&counter).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Stats{}, fmt.Errorf("failed to read equipment counter: %w", err)
	}

	return Stats{Count: agg.Count, LastID: counter.Value, MaxHeight: agg.MaxHeight}, nil
}
