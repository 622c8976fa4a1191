package persistence

import (
	"context"

	"github.com/billing/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormCounterRepository implements CounterRepository with an atomic
// upsert-increment. The insert and the increment race through the unique
// key, so concurrent callers each get a distinct, gap-free value.
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// NextValue increments the counter for key and returns the new value.
// A missing key starts at zero, so the first call yields 1.
func (r *GormCounterRepository) NextValue(ctx context.Context, key string) (int64, error) {
	var value int64
	result := r.db.WithContext(ctx).Raw(
		`INSERT INTO counters ("key", value, updated_at)
		 VALUES (?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT ("key") DO UPDATE
		 SET value = counters.value + 1, updated_at = CURRENT_TIMESTAMP
		 RETURNING value`,
		key,
	).Scan(&value)
	if result.Error != nil {
		return 0, result.Error
	}
	return value, nil
}

var _ billing.CounterRepository = (*GormCounterRepository)(nil)
