package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itqan-platform/itqan-backend/pkg/db/dbtest"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
)

type recordingHook struct {
	subjects []uuid.UUID
	err      error
}

func (h *recordingHook) OnProfileChanged(ctx context.Context, subjectID uuid.UUID) error {
	h.subjects = append(h.subjects, subjectID)
	return h.err
}

func TestRecordMetrics_UpsertsAndNotifies(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	hook := &recordingHook{err: errors.New("recompute unavailable")}
	svc, err := NewService(ServiceParams{Repo: repo, Hook: hook})
	require.NoError(t, err)
	ctx := context.Background()
	subject := uuid.New()

	_, err = svc.RecordMetrics(ctx, subject, MetricsInput{AvgRating: 4.1, RatingsCount: 3, CompletedMissions: 2})
	require.NoError(t, err)
	_, err = svc.RecordMetrics(ctx, subject, MetricsInput{AvgRating: 4.6, RatingsCount: 4, CompletedMissions: 3})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, subject)
	require.NoError(t, err)
	assert.InDelta(t, 4.6, stored.AvgRating, 0.0001)
	assert.Equal(t, 3, stored.CompletedMissions)
	assert.Equal(t, []uuid.UUID{subject, subject}, hook.subjects)

	_, err = svc.RecordMetrics(ctx, subject, MetricsInput{AvgRating: 6})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListSubjectIDs_Pages(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := svc.RecordMetrics(context.Background(), uuid.New(), MetricsInput{AvgRating: 3})
		require.NoError(t, err)
	}

	var seen []uuid.UUID
	after := uuid.Nil
	for {
		page, err := repo.ListSubjectIDs(context.Background(), after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		seen = append(seen, page...)
		after = page[len(page)-1]
	}
	assert.Len(t, seen, 5)
}
