package repository

import (
	"context"
	"testing"
	"time"

	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection, or each pooled conn gets its own empty :memory: DB.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Dish{}))
	return &Store{db: db, logger: zap.NewNop()}
}

func TestUpdateDishPersistsAvailabilityToggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	dish := &models.Dish{
		ID:          "d1",
		Name:        "Butter Chicken",
		Price:       1250,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateDish(ctx, dish))

	dish.IsAvailable = false
	dish.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateDish(ctx, dish))

	got, err := s.GetDish(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)
	assert.Equal(t, "Butter Chicken", got.Name)
	assert.Equal(t, int64(1250), got.Price)

	available, err := s.ListDishes(ctx, "", true)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestUpdateDishUnknownID(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateDish(context.Background(), &models.Dish{ID: "missing", Name: "Dal"})

	assert.ErrorIs(t, err, errs.ErrNotFound)
}
