package models

import "time"

// KVEntry is one serialized session-state value in the SQL store backend.
type KVEntry struct {
	Key       string     `gorm:"column:key;primaryKey;type:text"`
	Value     string     `gorm:"column:value;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index:kv_entries_expires_at_idx"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by the goose migrations.
func (KVEntry) TableName() string {
	return "kv_entries"
}
