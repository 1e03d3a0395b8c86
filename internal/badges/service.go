package badges

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
)

// ErrSubjectNotFound is wrapped when no profile exists for the subject.
var ErrSubjectNotFound = errors.New("subject not found")

// MetricsSource loads the profile metrics rules are evaluated against.
type MetricsSource interface {
	FindBySubjectID(ctx context.Context, subjectID uuid.UUID) (*models.FreelancerProfile, error)
}

// Service grants badges from rules and administrative overrides.
type Service interface {
	RecomputeBadges(ctx context.Context, subjectID uuid.UUID) (RecomputeResult, error)
	OnProfileChanged(ctx context.Context, subjectID uuid.UUID) error
	Grant(ctx context.Context, input GrantInput) (*models.Badge, error)
	Revoke(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) error
	List(ctx context.Context, subjectID uuid.UUID) ([]models.Badge, error)
}

// ServiceParams groups dependencies for the badge service.
type ServiceParams struct {
	Repo     *Repository
	Profiles MetricsSource
	DB       db.TxRunner
	Logger   *logger.Logger
	Metrics  *metrics.CoreMetrics
	Rules    []Rule
	// Synchronous controls whether OnProfileChanged recomputes inline.
	Synchronous bool
	Now         func() time.Time
}

type service struct {
	repo        *Repository
	profiles    MetricsSource
	db          db.TxRunner
	logg        *logger.Logger
	metrics     *metrics.CoreMetrics
	rules       []Rule
	synchronous bool
	now         func() time.Time
}

// NewService builds the badge service. Rules default to DefaultRules.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "badge repo is required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile metrics source is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	svc := &service{
		repo:        params.Repo,
		profiles:    params.Profiles,
		db:          params.DB,
		logg:        params.Logger,
		metrics:     params.Metrics,
		rules:       params.Rules,
		synchronous: params.Synchronous,
		now:         params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.rules == nil {
		svc.rules = DefaultRules()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// RecomputeBadges grants every rule badge the subject currently qualifies for.
// Badges are never revoked here, and types without a rule are left alone.
func (s *service) RecomputeBadges(ctx context.Context, subjectID uuid.UUID) (RecomputeResult, error) {
	if subjectID == uuid.Nil {
		return RecomputeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}
	profile, err := s.profiles.FindBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecomputeResult{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrSubjectNotFound, "subject not found")
		}
		return RecomputeResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile metrics")
	}

	earned := Evaluate(s.rules, ProfileMetrics{
		AvgRating:         profile.AvgRating,
		RatingsCount:      profile.RatingsCount,
		CompletedMissions: profile.CompletedMissions,
	})
	result := RecomputeResult{SubjectID: subjectID, Granted: []enums.BadgeType{}}
	if len(earned) == 0 {
		return result, nil
	}

	earnedAt := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		result.Granted = result.Granted[:0]
		for _, badgeType := range earned {
			def := definitionFor(badgeType)
			inserted, err := repo.InsertIfAbsent(ctx, &models.Badge{
				SubjectID:   subjectID,
				Type:        badgeType,
				Name:        def.Name,
				Description: def.Description,
				Icon:        def.Icon,
				EarnedAt:    earnedAt,
			})
			if err != nil {
				return err
			}
			if inserted {
				result.Granted = append(result.Granted, badgeType)
			}
		}
		return nil
	})
	if err != nil {
		return RecomputeResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant badges")
	}

	for _, badgeType := range result.Granted {
		s.metrics.BadgeGranted(badgeType.String(), "rule")
	}
	if len(result.Granted) > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subject_id": subjectID.String(),
			"granted":    result.Granted,
		}), "badges granted")
	}
	return result, nil
}

// OnProfileChanged is the hook run after metrics change. With synchronous
// recompute disabled it is a no-op and the batch job does the work.
func (s *service) OnProfileChanged(ctx context.Context, subjectID uuid.UUID) error {
	if !s.synchronous {
		return nil
	}
	_, err := s.RecomputeBadges(ctx, subjectID)
	return err
}

// Grant writes the badge regardless of rules. Granting a held type refreshes
// its display fields.
func (s *service) Grant(ctx context.Context, input GrantInput) (*models.Badge, error) {
	if input.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid badge type %q", input.Type))
	}
	def := definitionFor(input.Type)
	badge := &models.Badge{
		SubjectID:   input.SubjectID,
		Type:        input.Type,
		Name:        firstNonEmpty(input.Name, def.Name),
		Description: firstNonEmpty(input.Description, def.Description),
		Icon:        firstNonEmpty(input.Icon, def.Icon),
		EarnedAt:    s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, badge); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant badge")
	}
	stored, err := s.repo.FindOne(ctx, input.SubjectID, input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load badge")
	}
	s.metrics.BadgeGranted(input.Type.String(), "admin")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"subject_id": input.SubjectID.String(),
		"type":       input.Type.String(),
	}), "badge granted by admin")
	return stored, nil
}

// Revoke removes the badge; revoking a badge the subject does not hold is not
// an error.
func (s *service) Revoke(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) error {
	if subjectID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}
	if !badgeType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid badge type %q", badgeType))
	}
	removed, err := s.repo.Delete(ctx, subjectID, badgeType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke badge")
	}
	if removed {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subject_id": subjectID.String(),
			"type":       badgeType.String(),
		}), "badge revoked by admin")
	}
	return nil
}

func (s *service) List(ctx context.Context, subjectID uuid.UUID) ([]models.Badge, error) {
	if subjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}
	badges, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list badges")
	}
	return badges, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
