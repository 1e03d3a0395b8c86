package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// Repository manages persistence for accounts and their ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	CompareAndSwapBalance(ctx context.Context, id uuid.UUID, expectedVersion, newBalance int64) (bool, error)
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	FindEntryByReference(ctx context.Context, accountID uuid.UUID, kind enums.LedgerEntryKind, referenceID uuid.UUID) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, beforeSeq int64, limit int) ([]models.LedgerEntry, error)
	ListAllEntries(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateAccount inserts the account and ignores an existing row for the same user.
func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(account).Error
}

func (r *repository) FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// LockAccount reads the account row and holds a row lock until the transaction
// ends. SQLite has no row locks; its write transactions are already exclusive.
func (r *repository) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var account models.Account
	if err := query.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CompareAndSwapBalance writes newBalance only when the stored version still
// equals expectedVersion, advancing the version by one. It reports false when
// another writer got there first.
func (r *repository) CompareAndSwapBalance(ctx context.Context, id uuid.UUID, expectedVersion, newBalance int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"balance":    newBalance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindEntryByReference returns the entry of kind already recorded for
// referenceID on the account, or gorm.ErrRecordNotFound.
func (r *repository) FindEntryByReference(ctx context.Context, accountID uuid.UUID, kind enums.LedgerEntryKind, referenceID uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND kind = ? AND reference_id = ?", accountID, kind, referenceID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns up to limit entries newest first. A positive beforeSeq
// restricts the page to entries older than that sequence.
func (r *repository) ListEntries(ctx context.Context, accountID uuid.UUID, beforeSeq int64, limit int) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if beforeSeq > 0 {
		query = query.Where("seq < ?", beforeSeq)
	}
	var entries []models.LedgerEntry
	if err := query.Order("seq DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListAllEntries(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("seq ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
