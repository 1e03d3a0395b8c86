package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/internal/sequence"
	"github.com/itqan-platform/itqan-backend/pkg/db"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
)

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 5 * time.Millisecond
)

var maxTaxRate = decimal.NewFromInt(1)

// Service issues and voids numbered invoices.
type Service interface {
	Issue(ctx context.Context, input IssueInput) (*models.Invoice, error)
	Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
}

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Repo         *Repository
	Sequence     sequence.Allocator
	DB           db.TxRunner
	Logger       *logger.Logger
	InvoiceCode  string
	MaxRetries   uint64
	RetryBackoff time.Duration
	Now          func() time.Time
}

type service struct {
	repo         *Repository
	sequence     sequence.Allocator
	db           db.TxRunner
	logg         *logger.Logger
	invoiceCode  string
	maxRetries   uint64
	retryBackoff time.Duration
	now          func() time.Time
}

// NewService builds an invoice service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice repo is required")
	}
	if params.Sequence == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sequence allocator is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	svc := &service{
		repo:         params.Repo,
		sequence:     params.Sequence,
		db:           params.DB,
		logg:         params.Logger,
		invoiceCode:  strings.TrimSpace(params.InvoiceCode),
		maxRetries:   params.MaxRetries,
		retryBackoff: params.RetryBackoff,
		now:          params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.invoiceCode == "" {
		svc.invoiceCode = sequence.DefaultInvoiceCode
	}
	if svc.maxRetries == 0 {
		svc.maxRetries = defaultMaxRetries
	}
	if svc.retryBackoff <= 0 {
		svc.retryBackoff = defaultRetryBackoff
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Issue reserves the next number for the current year and stores the invoice
// in the same transaction, so a rolled back insert never consumes a number.
func (s *service) Issue(ctx context.Context, input IssueInput) (*models.Invoice, error) {
	if err := validateIssue(input); err != nil {
		return nil, err
	}
	taxCents, totalCents := ComputeTotals(input.SubtotalCents, input.TaxRate)
	prefix := sequence.Prefix(s.invoiceCode, s.now())

	var invoice *models.Invoice
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			number, err := s.sequence.NextNumberTx(ctx, tx, prefix)
			if err != nil {
				return err
			}
			candidate := &models.Invoice{
				Number:        number,
				AccountID:     input.AccountID,
				Description:   strings.TrimSpace(input.Description),
				SubtotalCents: input.SubtotalCents,
				TaxRate:       input.TaxRate,
				TaxCents:      taxCents,
				TotalCents:    totalCents,
				Status:        enums.InvoiceStatusIssued,
			}
			if err := s.repo.WithTx(tx).Create(ctx, candidate); err != nil {
				return err
			}
			invoice = candidate
			return nil
		})
		if err != nil && isNumberRace(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if isNumberRace(err) {
			wrapped := pkgerrors.Wrap(pkgerrors.CodeAllocationFailed, err, "invoice number allocation failed")
			s.logg.Error(s.logg.WithField(ctx, "prefix", prefix), "invoice issue exhausted retries", wrapped)
			return nil, wrapped
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue invoice")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"invoice_id": invoice.ID.String(),
		"number":     invoice.Number,
	}), "invoice issued")
	return invoice, nil
}

// Void marks the invoice VOIDED. The number stays attached to the invoice and
// is never handed out again.
func (s *service) Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if _, err := s.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	voided, err := s.repo.MarkVoided(ctx, invoiceID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void invoice")
	}
	if !voided {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already voided")
	}
	return s.Get(ctx, invoiceID)
}

func (s *service) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// ComputeTotals returns tax and total in cents; tax is rounded half-up.
func ComputeTotals(subtotalCents int64, taxRate decimal.Decimal) (int64, int64) {
	tax := decimal.NewFromInt(subtotalCents).Mul(taxRate).Round(0).IntPart()
	return tax, subtotalCents + tax
}

func validateIssue(input IssueInput) error {
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.SubtotalCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	if input.TaxRate.IsNegative() || input.TaxRate.GreaterThan(maxTaxRate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 1")
	}
	return nil
}

func isNumberRace(err error) bool {
	return sequence.IsRetryable(err) || db.IsUniqueViolation(err, NumberConstraint)
}
