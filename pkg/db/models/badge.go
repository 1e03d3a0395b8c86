package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// Badge is derived state; a subject holds at most one badge per type.
type Badge struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SubjectID   uuid.UUID       `gorm:"column:subject_id;type:uuid;not null;uniqueIndex:badges_subject_type_key,priority:1"`
	Type        enums.BadgeType `gorm:"column:type;type:varchar(32);not null;uniqueIndex:badges_subject_type_key,priority:2"`
	Name        string          `gorm:"column:name;type:varchar(120);not null"`
	Description string          `gorm:"column:description;type:text"`
	Icon        string          `gorm:"column:icon;type:varchar(120)"`
	EarnedAt    time.Time       `gorm:"column:earned_at;not null"`
}

func (b *Badge) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
