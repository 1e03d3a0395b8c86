package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

// ApplyDeltaInput describes one signed change to an account balance.
type ApplyDeltaInput struct {
	AccountID   uuid.UUID             `json:"account_id"`
	Delta       int64                 `json:"delta"`
	Kind        enums.LedgerEntryKind `json:"kind"`
	Description string                `json:"description"`
	ReferenceID *uuid.UUID            `json:"reference_id,omitempty"`
}

// AccountDTO is the public projection of an account.
type AccountDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryDTO is the public projection of a ledger entry.
type EntryDTO struct {
	ID           uuid.UUID             `json:"id"`
	Seq          int64                 `json:"seq"`
	Delta        int64                 `json:"delta"`
	Kind         enums.LedgerEntryKind `json:"kind"`
	Description  string                `json:"description"`
	ReferenceID  *uuid.UUID            `json:"reference_id,omitempty"`
	BalanceAfter int64                 `json:"balance_after"`
	CreatedAt    time.Time             `json:"created_at"`
}

// EntriesPage is a cursor-paginated slice of entries, newest first.
type EntriesPage struct {
	Entries    []EntryDTO      `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}

// ReconcileReport is the result of replaying an account's full history.
type ReconcileReport struct {
	AccountID       uuid.UUID `json:"account_id"`
	StoredBalance   int64     `json:"stored_balance"`
	ComputedBalance int64     `json:"computed_balance"`
	EntryCount      int       `json:"entry_count"`
	Consistent      bool      `json:"consistent"`
	// FirstMismatchSeq is zero when every entry matched its running sum.
	FirstMismatchSeq int64 `json:"first_mismatch_seq,omitempty"`
}

// NewAccountDTO maps a stored account.
func NewAccountDTO(account *models.Account) AccountDTO {
	return AccountDTO{
		ID:        account.ID,
		UserID:    account.UserID,
		Balance:   account.Balance,
		UpdatedAt: account.UpdatedAt,
	}
}

// NewEntryDTO maps a stored entry.
func NewEntryDTO(entry models.LedgerEntry) EntryDTO {
	return EntryDTO{
		ID:           entry.ID,
		Seq:          entry.Seq,
		Delta:        entry.Delta,
		Kind:         entry.Kind,
		Description:  entry.Description,
		ReferenceID:  entry.ReferenceID,
		BalanceAfter: entry.BalanceAfter,
		CreatedAt:    entry.CreatedAt,
	}
}
