package badges

import (
	"time"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// GrantInput is an administrative grant. Empty display fields fall back to
// the catalog entry for the type.
type GrantInput struct {
	SubjectID   uuid.UUID       `json:"subject_id" validate:"required"`
	Type        enums.BadgeType `json:"type" validate:"required"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

// RecomputeResult lists the types newly granted by a recompute.
type RecomputeResult struct {
	SubjectID uuid.UUID         `json:"subject_id"`
	Granted   []enums.BadgeType `json:"granted"`
}

// BadgeDTO is the public projection of a badge.
type BadgeDTO struct {
	Type        enums.BadgeType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	EarnedAt    time.Time       `json:"earned_at"`
}

// NewBadgeDTOs maps stored badges.
func NewBadgeDTOs(badges []models.Badge) []BadgeDTO {
	out := make([]BadgeDTO, 0, len(badges))
	for _, badge := range badges {
		out = append(out, BadgeDTO{
			Type:        badge.Type,
			Name:        badge.Name,
			Description: badge.Description,
			Icon:        badge.Icon,
			EarnedAt:    badge.EarnedAt,
		})
	}
	return out
}
