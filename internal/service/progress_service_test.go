package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/catalog"
	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/timing"
)

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) FindByID(id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) Upsert(user *domain.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func newProgressService(t *testing.T, repo *fakeUserRepo) *ProgressService {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	return NewProgressService(repo, cat, noop.NewTracerProvider().Tracer("test"), zap.NewNop())
}

func fullRound() []domain.Attempt {
	attempts := make([]domain.Attempt, 5)
	for i := range attempts {
		attempts[i] = domain.Attempt{Centis: 1000 + i*10}
	}
	return attempts
}

func partialRound() []domain.Attempt {
	attempts := fullRound()
	for i := 2; i < len(attempts); i++ {
		attempts[i] = domain.Attempt{Centis: timing.NullCentis}
	}
	return attempts
}

func TestRecordAttemptsValidation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	_, err := svc.RecordAttempts(context.Background(), ident, "nonesuch", fullRound(), false, 1)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = svc.RecordAttempts(context.Background(), ident, "333", fullRound()[:3], false, 1)
	assert.ErrorIs(t, err, domain.ErrAttemptCountWrong)

	// multi-style events expect a single variable-shape attempt
	_, err = svc.RecordAttempts(context.Background(), ident, "mbld", fullRound()[:2], false, 1)
	assert.ErrorIs(t, err, domain.ErrAttemptCountWrong)

	// penalties outside the defined set are rejected, not stored
	bad := fullRound()
	bad[1].Penalty = timing.Penalty(7)
	_, err = svc.RecordAttempts(context.Background(), ident, "333", bad, false, 1)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	bad[1].Penalty = timing.Penalty(-1)
	_, err = svc.RecordAttempts(context.Background(), ident, "333", bad, false, 1)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRecordAttemptsPartialThenFinished(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42, Name: "Feliks"}

	finished, err := svc.RecordAttempts(context.Background(), ident, "333", partialRound(), false, 1)
	require.NoError(t, err)
	assert.False(t, finished)

	statuses, err := svc.EventStatuses(context.Background(), ident, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnfinished, statuses["333"])
	assert.Equal(t, domain.StatusUnset, statuses["222"])

	finished, err = svc.RecordAttempts(context.Background(), ident, "333", fullRound(), false, 1)
	require.NoError(t, err)
	assert.True(t, finished)

	statuses, err = svc.EventStatuses(context.Background(), ident, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, statuses["333"])

	assert.Equal(t, "Feliks", repo.users[42].Name)
}

func TestRecordAttemptsFinishedGate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	_, err := svc.RecordAttempts(context.Background(), ident, "333", fullRound(), false, 1)
	require.NoError(t, err)

	_, err = svc.RecordAttempts(context.Background(), ident, "333", fullRound(), false, 1)
	assert.ErrorIs(t, err, domain.ErrEventFinished)

	finished, err := svc.RecordAttempts(context.Background(), ident, "333", fullRound(), true, 1)
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestRecordAttemptsDNFLastStillFinishes(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	attempts := fullRound()
	attempts[4] = domain.Attempt{Centis: 900, Penalty: timing.PenaltyDNF}

	finished, err := svc.RecordAttempts(context.Background(), ident, "333", attempts, false, 1)
	require.NoError(t, err)
	assert.True(t, finished, "a DNF attempt is still a recorded attempt")
}

func TestAttemptsDefaultsToEmptyRound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	attempts, err := svc.Attempts(context.Background(), ident, "333", 1)
	require.NoError(t, err)
	require.Len(t, attempts, 5)
	for _, a := range attempts {
		assert.False(t, a.Recorded())
	}

	// the template-seeded mbld round is also unrecorded
	attempts, err = svc.Attempts(context.Background(), ident, "mbld", 1)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Recorded())

	_, err = svc.Attempts(context.Background(), ident, "nonesuch", 1)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestAttemptsReturnsStoredRound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	stored := partialRound()
	_, err := svc.RecordAttempts(context.Background(), ident, "333", stored, false, 1)
	require.NoError(t, err)

	attempts, err := svc.Attempts(context.Background(), ident, "333", 1)
	require.NoError(t, err)
	assert.Equal(t, stored, attempts)
}

func TestProgressResetOnNewComp(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)
	ident := &Identity{UserID: 42}

	_, err := svc.RecordAttempts(context.Background(), ident, "333", fullRound(), false, 1)
	require.NoError(t, err)

	// the user shows up under the next comp: progress starts over
	statuses, err := svc.EventStatuses(context.Background(), ident, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnset, statuses["333"])
	assert.Equal(t, 2, repo.users[42].LastCompNumber)

	// a stale comp number never resurrects old progress
	finished, err := svc.RecordAttempts(context.Background(), ident, "333", fullRound(), false, 1)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, 2, repo.users[42].LastCompNumber)
}

func TestEventStatusesCoversCatalog(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newProgressService(t, repo)

	cat, err := catalog.Load()
	require.NoError(t, err)

	statuses, err := svc.EventStatuses(context.Background(), &Identity{UserID: 7}, 1)
	require.NoError(t, err)
	require.Len(t, statuses, cat.Len())
	for id, status := range statuses {
		assert.Equal(t, domain.StatusUnset, status, "event %s", id)
	}
}
