package billing

import "time"

// Counter is a named monotonic sequence. One row per key; the value is
// only ever incremented via CounterRepository.NextValue.
type Counter struct {
	Key       string `gorm:"type:varchar(50);primaryKey"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Counter) TableName() string {
	return "counters"
}
