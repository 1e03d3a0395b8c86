package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/itqan-platform/itqan-backend/internal/badges"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
)

const defaultBadgeBatchSize = 200

// BadgeReconcileJobParams wires the badge reconcile job. BatchSize defaults to
// 200 subjects per page when zero.
type BadgeReconcileJobParams struct {
	Logger    *logger.Logger
	Subjects  subjectLister
	Badges    badgeRecomputer
	BatchSize int
}

type subjectLister interface {
	ListSubjectIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type badgeRecomputer interface {
	RecomputeBadges(ctx context.Context, subjectID uuid.UUID) (badges.RecomputeResult, error)
}

// NewBadgeReconcileJob builds the job that re-evaluates badge rules for every
// profile, catching subjects whose inline recompute was skipped or failed.
func NewBadgeReconcileJob(params BadgeReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subjects == nil {
		return nil, fmt.Errorf("subject lister required")
	}
	if params.Badges == nil {
		return nil, fmt.Errorf("badge service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBadgeBatchSize
	}
	return &badgeReconcileJob{
		logg:     params.Logger,
		subjects: params.Subjects,
		badges:   params.Badges,
		batch:    batch,
	}, nil
}

type badgeReconcileJob struct {
	logg     *logger.Logger
	subjects subjectLister
	badges   badgeRecomputer
	batch    int
}

func (j *badgeReconcileJob) Name() string { return "badge-reconcile" }

// Run walks every subject once. A failing subject does not stop the sweep;
// all failures are returned together.
func (j *badgeReconcileJob) Run(ctx context.Context) error {
	var (
		errs      error
		after     uuid.UUID
		evaluated int
		granted   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		ids, err := j.subjects.ListSubjectIDs(ctx, after, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list subjects: %w", err))
		}
		for _, id := range ids {
			result, err := j.badges.RecomputeBadges(ctx, id)
			if err != nil {
				if errors.Is(err, badges.ErrSubjectNotFound) {
					continue
				}
				errs = multierr.Append(errs, fmt.Errorf("subject %s: %w", id, err))
				continue
			}
			evaluated++
			granted += len(result.Granted)
		}
		if len(ids) < j.batch {
			break
		}
		after = ids[len(ids)-1]
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subjects_evaluated": evaluated,
		"badges_granted":     granted,
		"failures":           len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "badge reconcile complete")
	return errs
}
