package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
)

const (
	// DefaultInvoiceCode is the leading segment of invoice numbers.
	DefaultInvoiceCode = "ITQ"
	// CounterConstraint is the primary key guarding one counter row per prefix.
	CounterConstraint = "document_sequences_pkey"

	defaultMaxRetries   = 5
	defaultRetryBackoff = 5 * time.Millisecond
	minDigits           = 4
)

// Allocator hands out gap-tolerant, never repeating document numbers.
type Allocator interface {
	NextNumber(ctx context.Context, prefix string) (string, error)
	NextNumberTx(ctx context.Context, tx *gorm.DB, prefix string) (string, error)
}

// ServiceParams groups dependencies for the allocator.
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

// NewService builds the allocator.
func NewService(params ServiceParams) (Allocator, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sequence repository required")
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

// InvoicePrefix returns the yearly invoice prefix, e.g. "ITQ-2025-".
func InvoicePrefix(period time.Time) string {
	return Prefix(DefaultInvoiceCode, period)
}

// Prefix builds "<code>-<YYYY>-" for the UTC year of period.
func Prefix(code string, period time.Time) string {
	return fmt.Sprintf("%s-%d-", strings.ToUpper(strings.TrimSpace(code)), period.UTC().Year())
}

// Format renders value with at least four digits after prefix.
func Format(prefix string, value int64) string {
	return fmt.Sprintf("%s%0*d", prefix, minDigits, value)
}

// NextNumber allocates the next number for prefix in its own transaction,
// retrying seeding races up to the configured budget.
func (s *service) NextNumber(ctx context.Context, prefix string) (string, error) {
	prefix, err := normalizePrefix(prefix)
	if err != nil {
		return "", err
	}
	ctx = s.logg.WithField(ctx, "prefix", prefix)

	var number string
	attempt := 0
	backoff := retry.WithMaxRetries(s.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(s.retryBackoff)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.SequenceRetried()
		}
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			value, err := s.allocate(ctx, s.repo.WithTx(tx), prefix)
			if err != nil {
				return err
			}
			number = Format(prefix, value)
			return nil
		})
		if err != nil && IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return "", s.fail(ctx, err, attempt)
	}
	s.metrics.SequenceAllocated("ok")
	return number, nil
}

// NextNumberTx allocates inside the caller's transaction so the number and the
// document row commit together. A single attempt is made; callers retry the
// whole transaction when IsRetryable reports true.
func (s *service) NextNumberTx(ctx context.Context, tx *gorm.DB, prefix string) (string, error) {
	prefix, err := normalizePrefix(prefix)
	if err != nil {
		return "", err
	}
	value, err := s.allocate(ctx, s.repo.WithTx(tx), prefix)
	if err != nil {
		return "", err
	}
	s.metrics.SequenceAllocated("ok")
	return Format(prefix, value), nil
}

func (s *service) allocate(ctx context.Context, repo Repository, prefix string) (int64, error) {
	updated, err := repo.Increment(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if !updated {
		issued, err := repo.MaxIssuedSuffix(ctx, prefix)
		if err != nil {
			return 0, err
		}
		if err := repo.Seed(ctx, prefix, issued+1); err != nil {
			return 0, err
		}
		s.logg.Info(s.logg.WithField(ctx, "seed", issued+1), "document sequence seeded")
		return issued + 1, nil
	}
	return repo.Current(ctx, prefix)
}

func (s *service) fail(ctx context.Context, err error, attempts int) error {
	if IsRetryable(err) {
		s.metrics.SequenceAllocated("exhausted")
		wrapped := pkgerrors.Wrap(pkgerrors.CodeAllocationFailed, err, "document number allocation failed")
		s.logg.Error(s.logg.WithField(ctx, "attempts", attempts), "document number allocation exhausted retries", wrapped)
		return wrapped
	}
	s.metrics.SequenceAllocated("error")
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate document number")
}

// IsRetryable reports whether err came from losing an allocation race.
func IsRetryable(err error) bool {
	return db.IsUniqueViolation(err, CounterConstraint) || db.IsConflict(err)
}

func normalizePrefix(prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sequence prefix is required")
	}
	return prefix, nil
}
