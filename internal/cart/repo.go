package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotKey is the fixed namespace the session cart lives under in the
// local database, so it survives restarts.
const snapshotKey = "massaviva:cart"

// SnapshotRecord is the persisted form of the session cart.
type SnapshotRecord struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName overrides the table name.
func (SnapshotRecord) TableName() string {
	return "cart_snapshots"
}

// Repository persists cart snapshots to the local database. It implements
// Persister.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a snapshot repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the snapshot table when missing.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&SnapshotRecord{})
}

// Load restores the persisted line list; a missing record is an empty cart.
func (r *Repository) Load(ctx context.Context) ([]LineItem, error) {
	var record SnapshotRecord
	err := r.db.WithContext(ctx).Where("key = ?", snapshotKey).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(record.Payload), &items); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return items, nil
}

// Save upserts the current line list under the fixed key.
func (r *Repository) Save(ctx context.Context, items []LineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	record := SnapshotRecord{
		Key:       snapshotKey,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
