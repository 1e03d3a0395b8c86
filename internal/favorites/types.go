package favorites

import (
	"time"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

// ToggleResult reports the state a toggle left the favorite in.
type ToggleResult struct {
	Active bool `json:"active"`
}

// FavoriteDTO is one favorited target.
type FavoriteDTO struct {
	TargetID   uuid.UUID                `json:"target_id"`
	TargetKind enums.FavoriteTargetKind `json:"target_kind"`
	CreatedAt  time.Time                `json:"created_at"`
}

// FavoritesPageDTO returns a cursor-paginated favorites view.
type FavoritesPageDTO struct {
	Items      []FavoriteDTO   `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}
