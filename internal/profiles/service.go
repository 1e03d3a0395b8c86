package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
)

// MetricsInput carries the latest rating and mission figures for a subject.
type MetricsInput struct {
	AvgRating         float64 `json:"avg_rating" validate:"gte=0,lte=5"`
	RatingsCount      int     `json:"ratings_count" validate:"gte=0"`
	CompletedMissions int     `json:"completed_missions" validate:"gte=0"`
}

// ChangeHook is notified after a subject's metrics change.
type ChangeHook interface {
	OnProfileChanged(ctx context.Context, subjectID uuid.UUID) error
}

// Service records profile metrics and notifies dependents.
type Service interface {
	RecordMetrics(ctx context.Context, subjectID uuid.UUID, input MetricsInput) (*models.FreelancerProfile, error)
	Get(ctx context.Context, subjectID uuid.UUID) (*models.FreelancerProfile, error)
}

// ServiceParams groups dependencies for the profile service.
type ServiceParams struct {
	Repo   *Repository
	Hook   ChangeHook
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	hook ChangeHook
	logg *logger.Logger
}

// NewService builds the profile service. Hook may be nil when dependents are
// reconciled out of band.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile repo is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, hook: params.Hook, logg: logg}, nil
}

// RecordMetrics stores the metrics and runs the change hook. A hook failure is
// logged and does not undo the write; the batch job picks the subject up later.
func (s *service) RecordMetrics(ctx context.Context, subjectID uuid.UUID, input MetricsInput) (*models.FreelancerProfile, error) {
	if subjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}
	if input.AvgRating < 0 || input.AvgRating > 5 || input.RatingsCount < 0 || input.CompletedMissions < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile metrics out of range")
	}
	profile := &models.FreelancerProfile{
		SubjectID:         subjectID,
		AvgRating:         input.AvgRating,
		RatingsCount:      input.RatingsCount,
		CompletedMissions: input.CompletedMissions,
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store profile metrics")
	}
	if s.hook != nil {
		if err := s.hook.OnProfileChanged(ctx, subjectID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "subject_id", subjectID.String()), "profile change hook failed: "+err.Error())
		}
	}
	return profile, nil
}

func (s *service) Get(ctx context.Context, subjectID uuid.UUID) (*models.FreelancerProfile, error) {
	profile, err := s.repo.FindBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}
