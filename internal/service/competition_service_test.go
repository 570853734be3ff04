package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/catalog"
	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/scramble"
	"github.com/cubecomp/backend/internal/timing"
)

type fakeCompRepo struct {
	comps     map[int]*domain.Competition
	subs      map[string]*domain.Submission
	createErr error
}

func newFakeCompRepo() *fakeCompRepo {
	return &fakeCompRepo{
		comps: make(map[int]*domain.Competition),
		subs:  make(map[string]*domain.Submission),
	}
}

func subKey(compNumber int, eventID string, userID int64) string {
	return fmt.Sprintf("%d/%s/%d", compNumber, eventID, userID)
}

func (r *fakeCompRepo) FindByNumber(number int) (*domain.Competition, error) {
	comp, ok := r.comps[number]
	if !ok {
		return nil, domain.ErrCompetitionNotFound
	}
	return comp, nil
}

func (r *fakeCompRepo) HighestNumber() (int, error) {
	highest, found := 0, false
	for n := range r.comps {
		if !found || n > highest {
			highest, found = n, true
		}
	}
	if !found {
		return 0, domain.ErrCompetitionNotFound
	}
	return highest, nil
}

func (r *fakeCompRepo) Create(comp *domain.Competition) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if _, ok := r.comps[comp.Number]; ok {
		return domain.ErrCompetitionExists
	}
	r.comps[comp.Number] = comp
	return nil
}

func (r *fakeCompRepo) Upsert(comp *domain.Competition) error {
	r.comps[comp.Number] = comp
	return nil
}

func (r *fakeCompRepo) FindAll() ([]domain.Competition, error) {
	var comps []domain.Competition
	for _, c := range r.comps {
		comps = append(comps, *c)
	}
	return comps, nil
}

func (r *fakeCompRepo) AppendSubmission(sub *domain.Submission) error {
	key := subKey(sub.CompNumber, sub.EventID, sub.UserID)
	if _, ok := r.subs[key]; ok {
		return domain.ErrSubmissionExists
	}
	r.subs[key] = sub
	return nil
}

func (r *fakeCompRepo) UpdateSubmissionReviewState(compNumber int, eventID string, userID int64, state domain.ReviewState) error {
	sub, ok := r.subs[subKey(compNumber, eventID, userID)]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	sub.ReviewState = state
	return nil
}

func (r *fakeCompRepo) EventSubmissions(compNumber int, eventID string) ([]domain.Submission, error) {
	var subs []domain.Submission
	for _, s := range r.subs {
		if s.CompNumber == compNumber && s.EventID == eventID {
			subs = append(subs, *s)
		}
	}
	return subs, nil
}

func newCompService(t *testing.T, repo *fakeCompRepo) *CompetitionService {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	return NewCompetitionService(
		repo,
		cat,
		scramble.NewLocalGenerator(),
		noop.NewTracerProvider().Tracer("test"),
		zap.NewNop(),
	)
}

func TestBootstrapSeedsEmptyStore(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)

	require.NoError(t, svc.Bootstrap(context.Background()))

	assert.Equal(t, 0, svc.CurrentNumber())
	assert.False(t, svc.CompExists(0), "the seed comp is not addressable")

	seed, err := repo.FindByNumber(0)
	require.NoError(t, err)
	assert.False(t, seed.IsActive(time.Now()), "the seed comp must be born expired")
}

func TestBootstrapAdoptsExistingStore(t *testing.T) {
	repo := newFakeCompRepo()
	repo.comps[3] = &domain.Competition{Number: 3}
	svc := newCompService(t, repo)

	require.NoError(t, svc.Bootstrap(context.Background()))

	assert.Equal(t, 3, svc.CurrentNumber())
	assert.True(t, svc.CompExists(3))
	assert.True(t, svc.CompExists(1))
	assert.False(t, svc.CompExists(4))
}

func TestValidateRollsOverExpiredComp(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	require.NoError(t, svc.Bootstrap(context.Background()))

	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	comp, rolled, err := svc.Validate(context.Background(), nil, false)
	require.NoError(t, err)

	assert.True(t, rolled)
	assert.Equal(t, 1, comp.Number)
	assert.Equal(t, domain.StripTime(now), comp.StartDate)
	assert.Equal(t, domain.StripTime(now).AddDate(0, 0, CompDurationDays), comp.EndDate)
	assert.True(t, svc.CompExists(1))

	cat, err := catalog.Load()
	require.NoError(t, err)
	require.Len(t, comp.Events, cat.Len())

	for _, ce := range comp.Events {
		ev := cat.ByID(ce.EventID)
		require.NotNil(t, ev)

		want := ev.Format.AttemptCount()
		if want == domain.VariableAttempts {
			// variable-shape events carry a single seed string
			require.Len(t, ce.Scrambles, 1)
			assert.Len(t, ce.Scrambles[0], scramble.SeedLength)
			continue
		}
		assert.Len(t, ce.Scrambles, want, "event %s", ce.EventID)
		for _, scr := range ce.Scrambles {
			assert.NotEmpty(t, scr)
		}
	}
}

func TestValidateKeepsActiveComp(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	require.NoError(t, svc.Bootstrap(context.Background()))

	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, rolled, err := svc.Validate(context.Background(), nil, false)
	require.NoError(t, err)
	require.True(t, rolled)

	// still inside the window, including its last day
	svc.now = func() time.Time { return now.AddDate(0, 0, CompDurationDays) }
	again, rolled, err := svc.Validate(context.Background(), nil, false)
	require.NoError(t, err)
	assert.False(t, rolled)
	assert.Equal(t, first.Number, again.Number)

	// one day past the window rolls over
	svc.now = func() time.Time { return now.AddDate(0, 0, CompDurationDays+1) }
	next, rolled, err := svc.Validate(context.Background(), nil, false)
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.Equal(t, first.Number+1, next.Number)
}

func TestValidateForceRollsActiveComp(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	require.NoError(t, svc.Bootstrap(context.Background()))

	endDate := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC) }

	_, rolled, err := svc.Validate(context.Background(), nil, false)
	require.NoError(t, err)
	require.True(t, rolled)

	comp, rolled, err := svc.Validate(context.Background(), &endDate, true)
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.Equal(t, 2, comp.Number)
	assert.Equal(t, domain.StripTime(endDate), comp.EndDate)
}

func TestValidateRejectsPastEndDate(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	require.NoError(t, svc.Bootstrap(context.Background()))

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// a window can never end before it starts
	past := now.AddDate(0, 0, -30)
	_, _, err := svc.Validate(context.Background(), &past, true)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, 0, svc.CurrentNumber(), "rejected rollover must not advance the comp")

	// ending on the start day itself is the shortest legal window
	sameDay := now.Add(3 * time.Hour)
	comp, rolled, err := svc.Validate(context.Background(), &sameDay, true)
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.Equal(t, comp.StartDate, comp.EndDate)
	assert.False(t, comp.EndDate.Before(comp.StartDate))
}

func TestValidateAdoptsRaceWinner(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	require.NoError(t, svc.Bootstrap(context.Background()))

	// simulate another instance winning the insert between read and create
	winner := &domain.Competition{
		Number:    1,
		StartDate: domain.StripTime(time.Now()),
		EndDate:   domain.StripTime(time.Now()).AddDate(0, 0, CompDurationDays),
	}
	repo.comps[1] = winner
	repo.createErr = domain.ErrCompetitionExists

	comp, rolled, err := svc.Validate(context.Background(), nil, true)
	require.NoError(t, err)
	assert.False(t, rolled)
	assert.Equal(t, 1, comp.Number)
	assert.Equal(t, 1, svc.CurrentNumber())
}

func TestFinalizeSubmission(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)

	attempts := []domain.Attempt{
		{Centis: 1000}, {Centis: 1100}, {Centis: 900}, {Centis: 1300}, {Centis: 1200},
	}

	require.NoError(t, svc.FinalizeSubmission(context.Background(), 1, "333", 42, attempts))

	sub := repo.subs[subKey(1, "333", 42)]
	require.NotNil(t, sub)
	assert.Equal(t, "11.00", sub.ResultString)
	assert.Equal(t, domain.ReviewPending, sub.ReviewState)

	stored, err := sub.AttemptList()
	require.NoError(t, err)
	assert.Equal(t, attempts, stored)

	// a duplicate finalization is swallowed, not surfaced
	require.NoError(t, svc.FinalizeSubmission(context.Background(), 1, "333", 42, attempts))
	assert.Len(t, repo.subs, 1)

	err = svc.FinalizeSubmission(context.Background(), 1, "nonesuch", 42, attempts)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestSetReviewState(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	repo.comps[1] = &domain.Competition{Number: 1}
	require.NoError(t, svc.Bootstrap(context.Background()))

	attempts := []domain.Attempt{{Centis: 1000}, {Centis: 1100}, {Centis: 1200}}
	require.NoError(t, svc.FinalizeSubmission(context.Background(), 1, "666", 42, attempts))

	err := svc.SetReviewState(context.Background(), 1, "666", 42, domain.ReviewState(99))
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = svc.SetReviewState(context.Background(), 7, "666", 42, domain.ReviewApproved)
	assert.ErrorIs(t, err, domain.ErrCompetitionNotFound)

	err = svc.SetReviewState(context.Background(), 1, "666", 7, domain.ReviewApproved)
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	require.NoError(t, svc.SetReviewState(context.Background(), 1, "666", 42, domain.ReviewApproved))
	assert.Equal(t, domain.ReviewApproved, repo.subs[subKey(1, "666", 42)].ReviewState)
}

func TestEventSubmissions(t *testing.T) {
	repo := newFakeCompRepo()
	svc := newCompService(t, repo)
	repo.comps[1] = &domain.Competition{
		Number: 1,
		Events: []domain.CompetitionEvent{{CompNumber: 1, EventID: "666"}},
	}
	require.NoError(t, svc.Bootstrap(context.Background()))

	attempts := []domain.Attempt{
		{Centis: 1000},
		{Centis: 1100, Penalty: timing.PenaltyPlus2},
		{Centis: 900, Penalty: timing.PenaltyDNF},
	}
	require.NoError(t, svc.FinalizeSubmission(context.Background(), 1, "666", 42, attempts))

	subs, err := svc.EventSubmissions(context.Background(), 1, "666")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, int64(42), subs[0].UserID)
	assert.Equal(t, "pending", subs[0].ReviewState)
	assert.Equal(t, []string{"10.00", "13.00+", "DNF"}, subs[0].Displays)
	assert.Equal(t, timing.DNFString, subs[0].ResultString)

	_, err = svc.EventSubmissions(context.Background(), 9, "666")
	assert.ErrorIs(t, err, domain.ErrCompetitionNotFound)

	_, err = svc.EventSubmissions(context.Background(), 1, "333")
	assert.ErrorIs(t, err, domain.ErrEventNotInComp)
}
