package profiles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
)

// Repository persists freelancer profile metrics.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the metrics row, replacing the previous values.
func (r *Repository) Upsert(ctx context.Context, profile *models.FreelancerProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"avg_rating", "ratings_count", "completed_missions", "updated_at"}),
		}).
		Create(profile).Error
}

func (r *Repository) FindBySubjectID(ctx context.Context, subjectID uuid.UUID) (*models.FreelancerProfile, error) {
	var profile models.FreelancerProfile
	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListSubjectIDs pages through every profile in subject id order, starting
// after the provided id.
func (r *Repository) ListSubjectIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&models.FreelancerProfile{})
	if after != uuid.Nil {
		query = query.Where("subject_id > ?", after)
	}
	var ids []uuid.UUID
	if err := query.Order("subject_id ASC").Limit(limit).Pluck("subject_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
