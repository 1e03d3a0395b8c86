package enums

import "fmt"

// BadgeType identifies a badge; a subject holds at most one badge per type.
type BadgeType string

const (
	BadgeTypeTopRated     BadgeType = "TOP_RATED"
	BadgeTypeRisingTalent BadgeType = "RISING_TALENT"
	BadgeTypeVerified     BadgeType = "VERIFIED"
	BadgeTypeExpert       BadgeType = "EXPERT"
)

var validBadgeTypes = []BadgeType{
	BadgeTypeTopRated,
	BadgeTypeRisingTalent,
	BadgeTypeVerified,
	BadgeTypeExpert,
}

// String implements fmt.Stringer.
func (b BadgeType) String() string {
	return string(b)
}

// IsValid reports whether the badge type is a known value.
func (b BadgeType) IsValid() bool {
	for _, candidate := range validBadgeTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBadgeType converts raw input into a BadgeType.
func ParseBadgeType(value string) (BadgeType, error) {
	for _, candidate := range validBadgeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge type %q", value)
}
