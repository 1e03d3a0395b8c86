package models

import "time"

// DocumentSequence is the per-prefix counter behind document numbers.
type DocumentSequence struct {
	Prefix    string    `gorm:"column:prefix;type:varchar(64);primaryKey"`
	LastValue int64     `gorm:"column:last_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
