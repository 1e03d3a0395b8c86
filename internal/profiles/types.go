package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
)

// ProfileDTO is the public projection of a subject's metrics.
type ProfileDTO struct {
	SubjectID         uuid.UUID `json:"subject_id"`
	AvgRating         float64   `json:"avg_rating"`
	RatingsCount      int       `json:"ratings_count"`
	CompletedMissions int       `json:"completed_missions"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewProfileDTO(profile *models.FreelancerProfile) ProfileDTO {
	return ProfileDTO{
		SubjectID:         profile.SubjectID,
		AvgRating:         profile.AvgRating,
		RatingsCount:      profile.RatingsCount,
		CompletedMissions: profile.CompletedMissions,
		UpdatedAt:         profile.UpdatedAt,
	}
}
