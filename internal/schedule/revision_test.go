package schedule

import (
	"testing"
	"time"

	"alcyxob/strength-academy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEvaluateCheckInEditability(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh submission is editable", func(t *testing.T) {
		c := &domain.CheckIn{SubmittedAt: now.Add(-2 * time.Hour), Status: domain.CheckInSubmitted}
		got := EvaluateCheckInEditability(c, now)
		assert.True(t, got.CanEdit)
		assert.Nil(t, got.RevisionDeadline)
	})

	t.Run("window boundary is inclusive", func(t *testing.T) {
		c := &domain.CheckIn{SubmittedAt: now.Add(-RevisionWindow), Status: domain.CheckInSubmitted}
		assert.True(t, EvaluateCheckInEditability(c, now).CanEdit)
	})

	t.Run("expired submission is locked", func(t *testing.T) {
		c := &domain.CheckIn{SubmittedAt: now.Add(-25 * time.Hour), Status: domain.CheckInSubmitted}
		got := EvaluateCheckInEditability(c, now)
		assert.False(t, got.CanEdit)
		assert.Nil(t, got.RevisionDeadline)
	})

	t.Run("revision request reopens the window", func(t *testing.T) {
		requested := now.Add(-time.Hour)
		c := &domain.CheckIn{
			SubmittedAt:         now.Add(-25 * time.Hour),
			Status:              domain.CheckInNeedsRevision,
			RevisionRequestedAt: &requested,
		}
		got := EvaluateCheckInEditability(c, now)
		assert.True(t, got.CanEdit)
		require.NotNil(t, got.RevisionDeadline)
		assert.Equal(t, requested.Add(24*time.Hour), *got.RevisionDeadline)
	})

	t.Run("revision window also expires", func(t *testing.T) {
		requested := now.Add(-30 * time.Hour)
		c := &domain.CheckIn{
			SubmittedAt:         now.Add(-50 * time.Hour),
			Status:              domain.CheckInNeedsRevision,
			RevisionRequestedAt: &requested,
		}
		got := EvaluateCheckInEditability(c, now)
		assert.False(t, got.CanEdit)
		require.NotNil(t, got.RevisionDeadline)
	})

	t.Run("revision timestamp ignored unless needs_revision", func(t *testing.T) {
		requested := now.Add(-time.Hour)
		c := &domain.CheckIn{
			SubmittedAt:         now.Add(-25 * time.Hour),
			Status:              domain.CheckInReviewed,
			RevisionRequestedAt: &requested,
		}
		got := EvaluateCheckInEditability(c, now)
		assert.False(t, got.CanEdit)
		assert.Nil(t, got.RevisionDeadline)
	})

	t.Run("nil and unsubmitted", func(t *testing.T) {
		assert.Equal(t, Editability{}, EvaluateCheckInEditability(nil, now))
		assert.Equal(t, Editability{}, EvaluateCheckInEditability(&domain.CheckIn{}, now))
	})
}

func TestSelectCurrentCheckIn(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	older := domain.CheckIn{ID: primitive.NewObjectID(), SubmittedAt: now.Add(-48 * time.Hour), Status: domain.CheckInSubmitted}
	newer := domain.CheckIn{ID: primitive.NewObjectID(), SubmittedAt: now.Add(-3 * time.Hour), Status: domain.CheckInSubmitted}

	assert.Nil(t, SelectCurrentCheckIn(nil, now))

	got := SelectCurrentCheckIn([]domain.CheckIn{older, newer}, now)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	// An older check-in reopened for revision beats a newer locked one.
	requested := now.Add(-time.Hour)
	reopened := older
	reopened.Status = domain.CheckInNeedsRevision
	reopened.RevisionRequestedAt = &requested
	locked := newer
	locked.SubmittedAt = now.Add(-30 * time.Hour)

	got = SelectCurrentCheckIn([]domain.CheckIn{reopened, locked}, now)
	require.NotNil(t, got)
	assert.Equal(t, reopened.ID, got.ID)

	// Nothing editable: the most recent wins.
	stale := older
	got = SelectCurrentCheckIn([]domain.CheckIn{locked, stale}, now)
	require.NotNil(t, got)
	assert.Equal(t, locked.ID, got.ID)
}
