package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"equipment-registry-backend/internal/model"
)

var errRejected = errors.New("rejected")

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "equipment.db")
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Equipment{}, &model.RegistryCounter{}))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewGormStore(gormDB)
}

func newMemoryStore(t *testing.T) Store {
	return NewMemoryStore()
}

var implementations = []struct {
	name    string
	newFunc func(t *testing.T) Store
}{
	{name: "memory", newFunc: newMemoryStore},
	{name: "sqlite", newFunc: newSQLiteStore},
}

func sample(owner model.Principal, name string, height uint64) *model.Equipment {
	return &model.Equipment{
		Owner:              owner,
		Name:               name,
		Description:        "High-resolution magnetic resonance imaging scanner",
		Specifications:     "3 Tesla field strength",
		Condition:          "Excellent",
		EstimatedValue:     50000,
		TrainingRequired:   true,
		RegistrationHeight: height,
		Status:             model.StatusAvailable,
	}
}

func TestStore_InsertAssignsSequentialIDs(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			for want := int64(1); want <= 5; want++ {
				e := sample("ST1OWNER", "item", 100)
				require.NoError(t, s.Insert(ctx, e))
				assert.Equal(t, want, e.ID)
			}

			stats, err := s.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, Stats{Count: 5, LastID: 5, MaxHeight: 100}, stats)
		})
	}
}

func TestStore_GetRoundTrip(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			in := sample("ST1OWNER", "MRI Scanner", 100)
			require.NoError(t, s.Insert(ctx, in))

			got, err := s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, in.Owner, got.Owner)
			assert.Equal(t, "MRI Scanner", got.Name)
			assert.Equal(t, uint64(50000), got.EstimatedValue)
			assert.True(t, got.TrainingRequired)
			assert.Equal(t, uint64(100), got.RegistrationHeight)
			assert.Equal(t, model.StatusAvailable, got.Status)

			_, err = s.Get(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Update(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			in := sample("ST1OWNER", "MRI Scanner", 100)
			require.NoError(t, s.Insert(ctx, in))

			updated, err := s.Update(ctx, in.ID, func(e *model.Equipment) error {
				e.Status = model.StatusAllocated
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, model.StatusAllocated, updated.Status)

			got, err := s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusAllocated, got.Status)
		})
	}
}

func TestStore_EstimatedValueFullRange(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			in := sample("ST1OWNER", "Linear Accelerator", 100)
			in.EstimatedValue = math.MaxUint64
			require.NoError(t, s.Insert(ctx, in))

			got, err := s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, uint64(math.MaxUint64), got.EstimatedValue)

			_, err = s.Update(ctx, in.ID, func(e *model.Equipment) error {
				e.EstimatedValue = math.MaxInt64 + 1
				return nil
			})
			require.NoError(t, err)

			got, err = s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, uint64(math.MaxInt64+1), got.EstimatedValue)

			_, err = s.Update(ctx, in.ID, func(e *model.Equipment) error {
				e.EstimatedValue = 0
				return nil
			})
			require.NoError(t, err)

			got, err = s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), got.EstimatedValue)
		})
	}
}

func TestStore_UpdateRejectedLeavesRecordUntouched(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			in := sample("ST1OWNER", "MRI Scanner", 100)
			require.NoError(t, s.Insert(ctx, in))

			_, err := s.Update(ctx, in.ID, func(e *model.Equipment) error {
				e.Status = "stolen"
				return errRejected
			})
			assert.ErrorIs(t, err, errRejected)

			got, err := s.Get(ctx, in.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusAvailable, got.Status)
		})
	}
}

func TestStore_UpdateUnknownIDSkipsMutate(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)

			called := false
			_, err := s.Update(context.Background(), 42, func(e *model.Equipment) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, ErrNotFound)
			assert.False(t, called, "mutate must not run for a missing record")
		})
	}
}

func TestStore_List(t *testing.T) {
	for _, impl := range implementations {
		t.Run(impl.name, func(t *testing.T) {
			s := impl.newFunc(t)
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, sample("ST1ALICE", "ventilator", 10)))
			require.NoError(t, s.Insert(ctx, sample("ST1BOB", "x-ray", 11)))
			require.NoError(t, s.Insert(ctx, sample("ST1ALICE", "defibrillator", 12)))
			_, err := s.Update(ctx, 3, func(e *model.Equipment) error {
				e.Status = model.StatusAllocated
				return nil
			})
			require.NoError(t, err)

			testCases := []struct {
				name    string
				filter  ListFilter
				wantIDs []int64
			}{
				{name: "no filter", filter: ListFilter{}, wantIDs: []int64{1, 2, 3}},
				{name: "by owner", filter: ListFilter{Owner: "ST1ALICE"}, wantIDs: []int64{1, 3}},
				{name: "by status", filter: ListFilter{Status: model.StatusAvailable}, wantIDs: []int64{1, 2}},
				{name: "owner and status", filter: ListFilter{Owner: "ST1ALICE", Status: model.StatusAllocated}, wantIDs: []int64{3}},
				{name: "no match", filter: ListFilter{Owner: "ST1CAROL"}, wantIDs: []int64{}},
			}

			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					items, err := s.List(ctx, tc.filter)
					require.NoError(t, err)
					ids := make([]int64, 0, len(items))
					for _, e := range items {
						ids = append(ids, e.ID)
					}
					assert.Equal(t, tc.wantIDs, ids)
				})
			}
		})
	}
}

func TestMemoryStore_IndependentGenerators(t *testing.T) {
	ctx := context.Background()
	a, b := NewMemoryStore(), NewMemoryStore()

	ea := sample("ST1OWNER", "a", 1)
	eb := sample("ST1OWNER", "b", 1)
	require.NoError(t, a.Insert(ctx, ea))
	require.NoError(t, a.Insert(ctx, sample("ST1OWNER", "a2", 1)))
	require.NoError(t, b.Insert(ctx, eb))

	assert.Equal(t, int64(1), ea.ID)
	assert.Equal(t, int64(1), eb.ID)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Insert(ctx, sample("ST1OWNER", "a", 1)), context.Canceled)
	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
