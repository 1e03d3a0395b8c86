package sequence

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
)

// Repository persists per-prefix counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Increment(ctx context.Context, prefix string) (bool, error)
	Seed(ctx context.Context, prefix string, value int64) error
	Current(ctx context.Context, prefix string) (int64, error)
	MaxIssuedSuffix(ctx context.Context, prefix string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sequence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Increment advances the counter in place. It reports false when no counter
// row exists yet for prefix.
func (r *repository) Increment(ctx context.Context, prefix string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DocumentSequence{}).
		Where("prefix = ?", prefix).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Seed inserts the counter row. A concurrent seeder surfaces as a unique
// violation on the primary key.
func (r *repository) Seed(ctx context.Context, prefix string, value int64) error {
	return r.db.WithContext(ctx).Create(&models.DocumentSequence{Prefix: prefix, LastValue: value}).Error
}

func (r *repository) Current(ctx context.Context, prefix string) (int64, error) {
	var row models.DocumentSequence
	if err := r.db.WithContext(ctx).Where("prefix = ?", prefix).First(&row).Error; err != nil {
		return 0, err
	}
	return row.LastValue, nil
}

// MaxIssuedSuffix scans invoice numbers already carrying prefix and returns
// the largest numeric suffix, or zero when none parse. LIKE wildcards inside
// prefix only widen the scan; the exact prefix is checked per row.
func (r *repository) MaxIssuedSuffix(ctx context.Context, prefix string) (int64, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error; err != nil {
		return 0, err
	}
	var max int64
	for _, number := range numbers {
		suffix, ok := strings.CutPrefix(number, prefix)
		if !ok {
			continue
		}
		value, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil || value <= 0 {
			continue
		}
		if value > max {
			max = value
		}
	}
	return max, nil
}
