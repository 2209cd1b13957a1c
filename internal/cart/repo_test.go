package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SnapshotRecord{}))
	return db
}

func TestRepositoryLoadMissingSnapshotIsEmptyCart(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))

	items, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, items)
}

func TestRepositorySaveLoadRoundTrip(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))

	items := []LineItem{
		{
			ID:        LineID("p1", "M", "Trad", ""),
			Name:      "Margherita",
			UnitPrice: decimal.RequireFromString("32.00"),
			Quantity:  2,
			Size:      "M",
			Crust:     "Trad",
		},
	}
	require.NoError(t, repo.Save(context.Background(), items))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, items[0].ID, loaded[0].ID)
	require.True(t, loaded[0].UnitPrice.Equal(items[0].UnitPrice))
}

func TestRepositorySaveOverwritesFixedKey(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []LineItem{{ID: "a", Quantity: 1}}))
	require.NoError(t, repo.Save(ctx, []LineItem{{ID: "b", Quantity: 3}}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "b", loaded[0].ID)

	var count int64
	require.NoError(t, repo.db.Model(&SnapshotRecord{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
