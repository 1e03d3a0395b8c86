package enums

import "fmt"

// FavoriteTargetKind is the kind of entity a user can favorite.
type FavoriteTargetKind string

const (
	FavoriteTargetFreelancer FavoriteTargetKind = "FREELANCER"
	FavoriteTargetMission    FavoriteTargetKind = "MISSION"
)

var validFavoriteTargetKinds = []FavoriteTargetKind{
	FavoriteTargetFreelancer,
	FavoriteTargetMission,
}

// IsValid reports whether the kind is a known value.
func (k FavoriteTargetKind) IsValid() bool {
	for _, candidate := range validFavoriteTargetKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseFavoriteTargetKind converts raw input into FavoriteTargetKind.
func ParseFavoriteTargetKind(value string) (FavoriteTargetKind, error) {
	for _, candidate := range validFavoriteTargetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid favorite target kind %q", value)
}
