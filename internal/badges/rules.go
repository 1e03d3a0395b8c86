package badges

import "github.com/itqan-platform/itqan-backend/pkg/enums"

// ProfileMetrics are the inputs every badge rule is evaluated against.
type ProfileMetrics struct {
	AvgRating         float64
	RatingsCount      int
	CompletedMissions int
}

// Definition is the display metadata stored with a granted badge.
type Definition struct {
	Name        string
	Description string
	Icon        string
}

// Rule grants Type whenever Predicate holds.
type Rule struct {
	Type      enums.BadgeType
	Predicate func(ProfileMetrics) bool
}

// Catalog describes every badge type, including those only granted by admins.
var Catalog = map[enums.BadgeType]Definition{
	enums.BadgeTypeTopRated: {
		Name:        "Top Rated",
		Description: "Average rating of 4.5 or more across at least five completed missions",
		Icon:        "star",
	},
	enums.BadgeTypeRisingTalent: {
		Name:        "Rising Talent",
		Description: "Completed a first mission with an average rating of 4.0 or more",
		Icon:        "trending-up",
	},
	enums.BadgeTypeVerified: {
		Name:        "Verified",
		Description: "Identity verified by the Itqan team",
		Icon:        "shield-check",
	},
	enums.BadgeTypeExpert: {
		Name:        "Expert",
		Description: "Recognised subject matter expert",
		Icon:        "award",
	},
}

// DefaultRules are the automatic rules. Types without a rule are only ever
// changed by an administrator.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type: enums.BadgeTypeTopRated,
			Predicate: func(m ProfileMetrics) bool {
				return m.AvgRating >= 4.5 && m.CompletedMissions >= 5
			},
		},
		{
			Type: enums.BadgeTypeRisingTalent,
			Predicate: func(m ProfileMetrics) bool {
				return m.CompletedMissions >= 1 && m.AvgRating >= 4.0
			},
		},
	}
}

// Evaluate returns the rule types whose predicates hold, in rule order.
func Evaluate(rules []Rule, metrics ProfileMetrics) []enums.BadgeType {
	earned := make([]enums.BadgeType, 0, len(rules))
	for _, rule := range rules {
		if rule.Predicate != nil && rule.Predicate(metrics) {
			earned = append(earned, rule.Type)
		}
	}
	return earned
}

func definitionFor(badgeType enums.BadgeType) Definition {
	if def, ok := Catalog[badgeType]; ok {
		return def
	}
	return Definition{Name: badgeType.String()}
}
