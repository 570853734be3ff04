package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/catalog"
	"github.com/cubecomp/backend/internal/domain"
)

// ProgressService tracks a user's attempt accumulation within the current
// comp. Progress lives on the user row and is reset whenever the user is
// first seen under a newer comp number.
type ProgressService struct {
	userRepo domain.UserRepository
	catalog  *catalog.Catalog
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(
	userRepo domain.UserRepository,
	cat *catalog.Catalog,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		userRepo: userRepo,
		catalog:  cat,
		tracer:   tracer,
		logger:   logger,
	}
}

// RecordAttempts stores one event's attempt set for a user. The attempt list
// must match the length the event's format expects. A finished event rejects
// further writes unless overwrite is set. Returns whether the write completed
// the round, which is the caller's signal to finalize a submission.
func (s *ProgressService) RecordAttempts(ctx context.Context, ident *Identity, eventID string, attempts []domain.Attempt, overwrite bool, currentComp int) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressService.RecordAttempts")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", ident.UserID),
		attribute.String("event.id", eventID),
		attribute.Bool("overwrite", overwrite),
	)

	ev := s.catalog.ByID(eventID)
	if ev == nil {
		return false, domain.ErrEventNotFound
	}
	if len(attempts) != len(catalog.EmptyAttempts(ev)) {
		return false, domain.ErrAttemptCountWrong
	}
	for _, a := range attempts {
		if !a.Penalty.Valid() {
			return false, domain.ErrBadRequest
		}
	}

	user, err := s.loadUser(ident, currentComp)
	if err != nil {
		return false, err
	}

	progress, err := user.ProgressList()
	if err != nil {
		return false, err
	}

	idx := -1
	for i := range progress {
		if progress[i].EventID == eventID {
			idx = i
			break
		}
	}
	if idx >= 0 && progress[idx].Finished && !overwrite {
		return false, domain.ErrEventFinished
	}

	// A round is finished once its last slot holds a recorded attempt.
	finished := attempts[len(attempts)-1].Recorded()
	entry := domain.EventProgress{EventID: eventID, Finished: finished, Attempts: attempts}
	if idx >= 0 {
		progress[idx] = entry
	} else {
		progress = append(progress, entry)
	}

	if err := user.SetProgress(progress); err != nil {
		return false, err
	}
	if err := s.userRepo.Upsert(user); err != nil {
		return false, err
	}

	span.SetAttributes(attribute.Bool("round.finished", finished))
	return finished, nil
}

// Attempts returns the user's attempt set for one event, or a fresh all-unset
// set when the user has not touched the event this comp.
func (s *ProgressService) Attempts(ctx context.Context, ident *Identity, eventID string, currentComp int) ([]domain.Attempt, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressService.Attempts")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", ident.UserID),
		attribute.String("event.id", eventID),
	)

	ev := s.catalog.ByID(eventID)
	if ev == nil {
		return nil, domain.ErrEventNotFound
	}

	user, err := s.loadUser(ident, currentComp)
	if err != nil {
		return nil, err
	}

	progress, err := user.ProgressList()
	if err != nil {
		return nil, err
	}
	for i := range progress {
		if progress[i].EventID == eventID {
			return progress[i].Attempts, nil
		}
	}
	return catalog.EmptyAttempts(ev), nil
}

// EventStatuses maps every catalog event to the user's status in it for the
// current comp. Events the user never touched are unset.
func (s *ProgressService) EventStatuses(ctx context.Context, ident *Identity, currentComp int) (map[string]domain.EventStatus, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressService.EventStatuses")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", ident.UserID))

	user, err := s.loadUser(ident, currentComp)
	if err != nil {
		return nil, err
	}

	progress, err := user.ProgressList()
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]domain.EventStatus, s.catalog.Len())
	for _, ev := range s.catalog.All() {
		statuses[ev.ID] = domain.StatusUnset
	}
	for _, p := range progress {
		if _, ok := statuses[p.EventID]; !ok {
			continue
		}
		if p.Finished {
			statuses[p.EventID] = domain.StatusFinished
		} else {
			statuses[p.EventID] = domain.StatusUnfinished
		}
	}
	return statuses, nil
}

// loadUser fetches or creates the user row, refreshes identity fields, and
// discards progress carried over from a superseded comp.
func (s *ProgressService) loadUser(ident *Identity, currentComp int) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ident.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		user = &domain.User{ID: ident.UserID, LastCompNumber: -1}
	}

	dirty := user.AdvanceComp(currentComp)
	if ident.Name != "" && user.Name != ident.Name {
		user.Name = ident.Name
		dirty = true
	}
	if ident.WCAID != "" && user.WCAID != ident.WCAID {
		user.WCAID = ident.WCAID
		dirty = true
	}

	if dirty {
		if err := s.userRepo.Upsert(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
