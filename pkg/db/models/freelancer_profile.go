package models

import (
	"time"

	"github.com/google/uuid"
)

// FreelancerProfile holds the metrics badge rules are evaluated against.
type FreelancerProfile struct {
	SubjectID         uuid.UUID `gorm:"column:subject_id;type:uuid;primaryKey"`
	AvgRating         float64   `gorm:"column:avg_rating;not null;default:0"`
	RatingsCount      int       `gorm:"column:ratings_count;not null;default:0"`
	CompletedMissions int       `gorm:"column:completed_missions;not null;default:0"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
