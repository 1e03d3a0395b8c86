package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// Favorite links a user to a favorited freelancer or mission. Presence of the
// row is the favorited state.
type Favorite struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index:favorites_user_id_idx;uniqueIndex:favorites_user_target_key,priority:1"`
	TargetID   uuid.UUID                `gorm:"column:target_id;type:uuid;not null;uniqueIndex:favorites_user_target_key,priority:2"`
	TargetKind enums.FavoriteTargetKind `gorm:"column:target_kind;type:varchar(16);not null;uniqueIndex:favorites_user_target_key,priority:3"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}
