package enums

import "fmt"

// LedgerEntryKind classifies a balance-affecting event on an account.
type LedgerEntryKind string

const (
	LedgerEntryKindPurchase      LedgerEntryKind = "PURCHASE"
	LedgerEntryKindMissionPost   LedgerEntryKind = "MISSION_POST"
	LedgerEntryKindFeatured      LedgerEntryKind = "FEATURED"
	LedgerEntryKindMissionPayout LedgerEntryKind = "MISSION_PAYOUT"
	LedgerEntryKindRefund        LedgerEntryKind = "REFUND"
	LedgerEntryKindAdjustment    LedgerEntryKind = "ADJUSTMENT"
)

var validLedgerEntryKinds = []LedgerEntryKind{
	LedgerEntryKindPurchase,
	LedgerEntryKindMissionPost,
	LedgerEntryKindFeatured,
	LedgerEntryKindMissionPayout,
	LedgerEntryKindRefund,
	LedgerEntryKindAdjustment,
}

// String implements fmt.Stringer.
func (k LedgerEntryKind) String() string {
	return string(k)
}

// IsValid reports whether the value matches a known entry kind.
func (k LedgerEntryKind) IsValid() bool {
	for _, candidate := range validLedgerEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLedgerEntryKind converts raw input into LedgerEntryKind.
func ParseLedgerEntryKind(value string) (LedgerEntryKind, error) {
	for _, candidate := range validLedgerEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry kind %q", value)
}
