package favorites

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/db"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo    *Repository
	DB      db.TxRunner
	Metrics *metrics.CoreMetrics
}

// Service exposes favorite toggling and lookup.
type Service interface {
	Toggle(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (ToggleResult, error)
	IsActive(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error)
	List(ctx context.Context, userID uuid.UUID, kind enums.FavoriteTargetKind, cursor string, limit int) (FavoritesPageDTO, error)
}

type service struct {
	repo    *Repository
	db      db.TxRunner
	metrics *metrics.CoreMetrics
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{repo: params.Repo, db: params.DB, metrics: params.Metrics}, nil
}

// Toggle removes the favorite when present and adds it otherwise. When two
// toggles race to create, both report active since the row exists afterwards.
func (s *service) Toggle(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (ToggleResult, error) {
	if err := validateKey(userID, targetID, kind); err != nil {
		return ToggleResult{}, err
	}

	var result ToggleResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Delete(ctx, userID, targetID, kind)
		if err != nil {
			return err
		}
		if removed {
			result.Active = false
			return nil
		}
		if err := repo.Insert(ctx, userID, targetID, kind); err != nil {
			return err
		}
		result.Active = true
		return nil
	})
	if err != nil {
		if db.IsConflict(err) {
			return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeConcurrentConflict, err, "toggle favorite")
		}
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle favorite")
	}
	s.metrics.FavoriteToggled(result.Active)
	return result, nil
}

func (s *service) IsActive(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error) {
	if err := validateKey(userID, targetID, kind); err != nil {
		return false, err
	}
	active, err := s.repo.Exists(ctx, userID, targetID, kind)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorite")
	}
	return active, nil
}

// List returns the user's favorites of the given kind.
func (s *service) List(ctx context.Context, userID uuid.UUID, kind enums.FavoriteTargetKind, cursor string, limit int) (FavoritesPageDTO, error) {
	if userID == uuid.Nil {
		return FavoritesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !kind.IsValid() {
		return FavoritesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target kind %q", kind))
	}
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return FavoritesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, userID, kind, cursor, limit)
	if err != nil {
		return FavoritesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return page, nil
}

func validateKey(userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if targetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "target id is required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target kind %q", kind))
	}
	return nil
}
