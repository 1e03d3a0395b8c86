package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 10 * time.Millisecond
)

// ErrAccountNotFound is wrapped by every error reporting a missing account.
var ErrAccountNotFound = errors.New("account not found")

var errLostUpdate = errors.New("account version changed during update")

const (
	entrySeqConstraint       = "ledger_entries_account_seq_key"
	entryReferenceConstraint = "ledger_entries_account_kind_reference_key"
)

// Service applies balance deltas and exposes account history.
type Service interface {
	OpenAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
	ApplyDelta(ctx context.Context, input ApplyDeltaInput) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, params pagination.Params) (EntriesPage, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (ReconcileReport, error)
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo         Repository
	DB           db.TxRunner
	Logger       *logger.Logger
	Metrics      *metrics.CoreMetrics
	MaxRetries   uint64
	RetryBackoff time.Duration
}

type service struct {
	repo         Repository
	db           db.TxRunner
	logg         *logger.Logger
	metrics      *metrics.CoreMetrics
	maxRetries   uint64
	retryBackoff time.Duration
}

// NewService wires a ledger service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repository required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	maxRetries := params.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := params.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &service{
		repo:         params.Repo,
		db:           params.DB,
		logg:         logg,
		metrics:      params.Metrics,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
	}, nil
}

// OpenAccount returns the user's account, creating a zero balance account on
// first use.
func (s *service) OpenAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.CreateAccount(ctx, &models.Account{UserID: userID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	account, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// ApplyDelta atomically adds input.Delta to the account balance and appends
// the matching entry. Lost races are retried with backoff before surfacing as
// a concurrent conflict. When input.ReferenceID was already applied with the
// same kind and delta, the recorded entry is returned with Replayed set and
// the balance is left untouched.
func (s *service) ApplyDelta(ctx context.Context, input ApplyDeltaInput) (*models.LedgerEntry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithAccountID(ctx, input.AccountID.String())

	var entry *models.LedgerEntry
	attempt := 0
	backoff := retry.WithMaxRetries(s.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(s.retryBackoff)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.LedgerRetried()
		}
		applied, err := s.applyOnce(ctx, input)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		entry = applied
		return nil
	})
	if err != nil {
		mapped, result := s.mapApplyError(err)
		s.metrics.LedgerApplied(input.Kind.String(), result)
		if result == "conflict" {
			s.logg.Warn(s.logg.WithField(ctx, "attempts", attempt), "ledger delta abandoned after concurrent conflicts")
		}
		return nil, mapped
	}

	if entry.Replayed {
		s.metrics.LedgerApplied(input.Kind.String(), "replayed")
		s.logg.Info(s.logg.WithField(ctx, "seq", entry.Seq), "ledger delta replayed for known reference")
		return entry, nil
	}
	s.metrics.LedgerApplied(input.Kind.String(), "ok")
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"seq":           entry.Seq,
		"delta":         entry.Delta,
		"balance_after": entry.BalanceAfter,
	}), "ledger delta applied")
	return entry, nil
}

func (s *service) applyOnce(ctx context.Context, input ApplyDeltaInput) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := repo.LockAccount(ctx, input.AccountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAccountNotFound, "account not found")
			}
			return err
		}

		if input.ReferenceID != nil {
			existing, err := repo.FindEntryByReference(ctx, account.ID, input.Kind, *input.ReferenceID)
			switch {
			case err == nil:
				if existing.Delta != input.Delta {
					return pkgerrors.New(pkgerrors.CodeConflict, "reference already applied with a different amount").
						WithDetails(map[string]any{
							"reference_id": input.ReferenceID.String(),
							"seq":          existing.Seq,
						})
				}
				existing.Replayed = true
				entry = existing
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		newBalance, ok := addBalance(account.Balance, input.Delta)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "delta overflows account balance")
		}
		if newBalance < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
				WithDetails(map[string]any{
					"balance": account.Balance,
					"delta":   input.Delta,
				})
		}

		swapped, err := repo.CompareAndSwapBalance(ctx, account.ID, account.Version, newBalance)
		if err != nil {
			return err
		}
		if !swapped {
			return errLostUpdate
		}

		entry = &models.LedgerEntry{
			AccountID:    account.ID,
			Seq:          account.Version + 1,
			Delta:        input.Delta,
			Kind:         input.Kind,
			Description:  strings.TrimSpace(input.Description),
			ReferenceID:  input.ReferenceID,
			BalanceAfter: newBalance,
		}
		return repo.CreateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) mapApplyError(err error) (error, string) {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientBalance:
			return err, "insufficient_balance"
		case pkgerrors.CodeNotFound:
			return err, "not_found"
		case pkgerrors.CodeValidation:
			return err, "invalid"
		case pkgerrors.CodeConflict:
			return err, "reference_conflict"
		}
	}
	if isTransient(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentConflict, err, "account is being updated concurrently"), "conflict"
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply ledger delta"), "error"
}

func (s *service) ListEntries(ctx context.Context, accountID uuid.UUID, params pagination.Params) (EntriesPage, error) {
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return EntriesPage{}, err
	}
	beforeSeq, _, err := pagination.ParseSeqCursor(params.Cursor)
	if err != nil {
		return EntriesPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListEntries(ctx, accountID, beforeSeq, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return EntriesPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = pagination.EncodeSeqCursor(rows[len(rows)-1].Seq)
	}
	entries := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, NewEntryDTO(row))
	}
	return EntriesPage{
		Entries: entries,
		Pagination: pagination.Meta{
			Current: strings.TrimSpace(params.Cursor),
			Next:    next,
			Limit:   limit,
		},
	}, nil
}

// Reconcile replays every entry in sequence order and checks each running sum
// against the recorded balance_after and the final sum against the stored
// balance.
func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID) (ReconcileReport, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return ReconcileReport{}, err
	}
	entries, err := s.repo.ListAllEntries(ctx, accountID)
	if err != nil {
		return ReconcileReport{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger history")
	}

	report := ReconcileReport{
		AccountID:     account.ID,
		StoredBalance: account.Balance,
		EntryCount:    len(entries),
	}
	var running int64
	for i, entry := range entries {
		running += entry.Delta
		if report.FirstMismatchSeq == 0 && (entry.BalanceAfter != running || entry.Seq != int64(i+1) || running < 0) {
			report.FirstMismatchSeq = entry.Seq
		}
	}
	report.ComputedBalance = running
	report.Consistent = report.FirstMismatchSeq == 0 &&
		running == account.Balance &&
		int64(len(entries)) == account.Version

	if !report.Consistent {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"account_id":         account.ID.String(),
			"stored_balance":     report.StoredBalance,
			"computed_balance":   report.ComputedBalance,
			"first_mismatch_seq": report.FirstMismatchSeq,
		}), "ledger reconciliation mismatch")
	}
	return report, nil
}

func (s *service) loadAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAccountNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func validateInput(input ApplyDeltaInput) error {
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry kind %q", input.Kind))
	}
	return nil
}

func addBalance(balance, delta int64) (int64, bool) {
	if delta > 0 && balance > math.MaxInt64-delta {
		return 0, false
	}
	if delta < 0 && balance < math.MinInt64-delta {
		return 0, false
	}
	return balance + delta, true
}

func isTransient(err error) bool {
	return errors.Is(err, errLostUpdate) ||
		db.IsConflict(err) ||
		db.IsUniqueViolation(err, entrySeqConstraint) ||
		db.IsUniqueViolation(err, entryReferenceConstraint)
}
