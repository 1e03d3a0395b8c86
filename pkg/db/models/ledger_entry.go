package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// LedgerEntry is an append-only record of one applied delta. BalanceAfter is
// the account balance immediately after the entry; Seq orders entries within
// an account and is unique per account. A non-nil ReferenceID is unique per
// account and kind.
type LedgerEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AccountID    uuid.UUID             `gorm:"column:account_id;type:uuid;not null;uniqueIndex:ledger_entries_account_seq_key,priority:1;uniqueIndex:ledger_entries_account_kind_reference_key,priority:1,where:reference_id IS NOT NULL"`
	Seq          int64                 `gorm:"column:seq;not null;uniqueIndex:ledger_entries_account_seq_key,priority:2"`
	Delta        int64                 `gorm:"column:delta;not null"`
	Kind         enums.LedgerEntryKind `gorm:"column:kind;type:varchar(32);not null;uniqueIndex:ledger_entries_account_kind_reference_key,priority:2"`
	Description  string                `gorm:"column:description;type:text;not null"`
	ReferenceID  *uuid.UUID            `gorm:"column:reference_id;type:uuid;index:ledger_entries_reference_id_idx;uniqueIndex:ledger_entries_account_kind_reference_key,priority:3"`
	BalanceAfter int64                 `gorm:"column:balance_after;not null"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`

	// Replayed is set when ApplyDelta returned an entry recorded by an earlier
	// call with the same reference.
	Replayed bool `gorm:"-"`
}

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
