package badges

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

var subjectTypeColumns = []clause.Column{{Name: "subject_id"}, {Name: "type"}}

// Repository persists granted badges.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// InsertIfAbsent grants the badge unless the subject already holds the type.
// It reports whether a row was written.
func (r *Repository) InsertIfAbsent(ctx context.Context, badge *models.Badge) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: subjectTypeColumns, DoNothing: true}).
		Create(badge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Upsert grants the badge or refreshes the display fields of an existing one.
// The original earned_at is kept.
func (r *Repository) Upsert(ctx context.Context, badge *models.Badge) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   subjectTypeColumns,
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon"}),
		}).
		Create(badge).Error
}

// Delete removes the badge and reports whether one existed.
func (r *Repository) Delete(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("subject_id = ? AND type = ?", subjectID, badgeType).
		Delete(&models.Badge{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("earned_at ASC").
		Order("type ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *Repository) FindOne(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.WithContext(ctx).
		Where("subject_id = ? AND type = ?", subjectID, badgeType).
		First(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}
