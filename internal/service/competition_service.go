package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/catalog"
	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/scoring"
	"github.com/cubecomp/backend/internal/scramble"
)

// CompDurationDays is the default length of one comp cycle.
const CompDurationDays = 7

// CompetitionService owns the comp lifecycle: seeding the store on first
// boot, rolling over to the next comp when the current one expires, and
// finalizing submissions against the comp a round was played in.
type CompetitionService struct {
	compRepo  domain.CompetitionRepository
	catalog   *catalog.Catalog
	generator scramble.Generator
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current int
}

// NewCompetitionService creates a new competition service
func NewCompetitionService(
	compRepo domain.CompetitionRepository,
	cat *catalog.Catalog,
	generator scramble.Generator,
	tracer trace.Tracer,
	logger *zap.Logger,
) *CompetitionService {
	return &CompetitionService{
		compRepo:  compRepo,
		catalog:   cat,
		generator: generator,
		tracer:    tracer,
		logger:    logger,
		now:       time.Now,
		current:   -1,
	}
}

// Bootstrap primes the current-comp cache from the store. An empty store
// gets an already-expired comp 0, so the first validation pass rolls over
// to comp 1 immediately.
func (s *CompetitionService) Bootstrap(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.Bootstrap")
	defer span.End()

	number, err := s.compRepo.HighestNumber()
	if err == nil {
		s.setCurrent(number)
		span.SetAttributes(attribute.Int("comp.number", number))
		return nil
	}
	if !errors.Is(err, domain.ErrCompetitionNotFound) {
		return err
	}

	seed := &domain.Competition{
		Number:    0,
		StartDate: time.Unix(0, 0).UTC(),
		EndDate:   time.Unix(0, 0).UTC(),
	}
	if err := s.compRepo.Create(seed); err != nil && !errors.Is(err, domain.ErrCompetitionExists) {
		return err
	}
	s.setCurrent(0)
	s.logger.Info("Seeded initial competition", zap.Int("comp_number", 0))
	return nil
}

// CurrentNumber returns the cached current comp number.
func (s *CompetitionService) CurrentNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CompExists reports whether a comp number refers to a real, non-seed comp.
func (s *CompetitionService) CompExists(number int) bool {
	return number > 0 && number <= s.CurrentNumber()
}

// Validate ensures the current comp covers today, rolling over to a fresh
// one when it has expired (or unconditionally when force is set). A nil
// endDate means the default cycle length. Returns the comp that is current
// after the call and whether a rollover happened.
//
// Rollover is idempotent across instances: the comp number is the primary
// key, so a racing instance's insert collides and the loser adopts the
// winner's comp.
func (s *CompetitionService) Validate(ctx context.Context, endDate *time.Time, force bool) (*domain.Competition, bool, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.Validate")
	defer span.End()

	number, err := s.refresh()
	if err != nil {
		return nil, false, err
	}

	curr, err := s.compRepo.FindByNumber(number)
	if err != nil {
		return nil, false, err
	}

	if !force && curr.IsActive(s.now()) {
		return curr, false, nil
	}

	// The new comp starts today; its end date may never precede that.
	if endDate != nil && domain.StripTime(*endDate).Before(domain.StripTime(s.now())) {
		return nil, false, domain.ErrBadRequest
	}

	next := s.buildNext(curr.Number+1, endDate)
	if err := s.compRepo.Create(next); err != nil {
		if errors.Is(err, domain.ErrCompetitionExists) {
			s.logger.Warn("Rollover lost the race, adopting winner's comp",
				zap.Int("comp_number", next.Number))
			adopted, err := s.refresh()
			if err != nil {
				return nil, false, err
			}
			comp, err := s.compRepo.FindByNumber(adopted)
			return comp, false, err
		}
		return nil, false, err
	}

	s.setCurrent(next.Number)
	s.logger.Info("Rolled over to new competition",
		zap.Int("comp_number", next.Number),
		zap.Time("start_date", next.StartDate),
		zap.Time("end_date", next.EndDate),
	)
	span.SetAttributes(attribute.Int("comp.number", next.Number))
	return next, true, nil
}

// CurrentComp loads the full current comp.
func (s *CompetitionService) CurrentComp(ctx context.Context) (*domain.Competition, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.CurrentComp")
	defer span.End()

	number := s.CurrentNumber()
	if number < 0 {
		var err error
		if number, err = s.refresh(); err != nil {
			return nil, err
		}
	}
	return s.compRepo.FindByNumber(number)
}

// CurrentCompDetail renders the current comp for the competition page:
// every event with its scramble set and preview images.
func (s *CompetitionService) CurrentCompDetail(ctx context.Context) (*domain.CompetitionDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.CurrentCompDetail")
	defer span.End()

	comp, err := s.CurrentComp(ctx)
	if err != nil {
		return nil, err
	}

	resp := &domain.CompetitionDetailResponse{
		Number:    comp.Number,
		StartDate: comp.StartDate,
		EndDate:   comp.EndDate,
		Events:    make([]domain.CompetitionEventResponse, 0, len(comp.Events)),
	}
	for i := range comp.Events {
		ce := &comp.Events[i]

		// Events dropped from the catalog since the comp was built still
		// render with their raw id.
		info := domain.EventInfo{ID: ce.EventID, Title: ce.EventID}
		format := ""
		var previews []string

		if ev := s.catalog.ByID(ce.EventID); ev != nil {
			info = ev.Info()
			format = string(ev.Format)
			if ev.Format != domain.FormatMulti {
				previews = make([]string, len(ce.Scrambles))
				for j, scr := range ce.Scrambles {
					previews[j] = s.generator.PreviewImage(scr, ev.ScrambleType)
				}
			}
		}

		resp.Events = append(resp.Events, domain.CompetitionEventResponse{
			EventInfo: info,
			Format:    format,
			Scrambles: ce.Scrambles,
			Previews:  previews,
		})
	}
	return resp, nil
}

// AllComps lists every stored comp for the history view.
func (s *CompetitionService) AllComps(ctx context.Context) ([]domain.CompetitionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.AllComps")
	defer span.End()

	comps, err := s.compRepo.FindAll()
	if err != nil {
		return nil, err
	}

	out := make([]domain.CompetitionResponse, 0, len(comps))
	for i := range comps {
		resp := domain.CompetitionResponse{
			Number:    comps[i].Number,
			StartDate: comps[i].StartDate,
			EndDate:   comps[i].EndDate,
			Events:    make([]domain.EventInfo, 0, len(comps[i].Events)),
		}
		for _, ce := range comps[i].Events {
			if ev := s.catalog.ByID(ce.EventID); ev != nil {
				resp.Events = append(resp.Events, ev.Info())
			} else {
				resp.Events = append(resp.Events, domain.EventInfo{ID: ce.EventID, Title: ce.EventID})
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

// FinalizeSubmission computes the result string for a finished round and
// stores it as a pending submission. At-most-once per (comp, event, user):
// a duplicate is logged and swallowed so retries stay harmless.
func (s *CompetitionService) FinalizeSubmission(ctx context.Context, compNumber int, eventID string, userID int64, attempts []domain.Attempt) error {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.FinalizeSubmission")
	defer span.End()

	span.SetAttributes(
		attribute.Int("comp.number", compNumber),
		attribute.String("event.id", eventID),
		attribute.Int64("user.id", userID),
	)

	ev := s.catalog.ByID(eventID)
	if ev == nil {
		return domain.ErrEventNotFound
	}

	sub := &domain.Submission{
		ID:           uuid.New(),
		CompNumber:   compNumber,
		EventID:      eventID,
		UserID:       userID,
		ReviewState:  domain.ReviewPending,
		ResultString: scoring.ResultString(ev, attempts),
	}
	if err := sub.SetAttempts(attempts); err != nil {
		return err
	}

	if err := s.compRepo.AppendSubmission(sub); err != nil {
		if errors.Is(err, domain.ErrSubmissionExists) {
			s.logger.Warn("Submission already finalized",
				zap.Int("comp_number", compNumber),
				zap.String("event_id", eventID),
				zap.Int64("user_id", userID),
			)
			return nil
		}
		return err
	}

	s.logger.Info("Finalized submission",
		zap.Int("comp_number", compNumber),
		zap.String("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.String("result", sub.ResultString),
	)
	return nil
}

// SetReviewState transitions one submission's review state.
func (s *CompetitionService) SetReviewState(ctx context.Context, compNumber int, eventID string, userID int64, state domain.ReviewState) error {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.SetReviewState")
	defer span.End()

	span.SetAttributes(
		attribute.Int("comp.number", compNumber),
		attribute.String("event.id", eventID),
		attribute.Int64("user.id", userID),
		attribute.String("review.state", state.String()),
	)

	if !state.Valid() {
		return domain.ErrBadRequest
	}
	if !s.CompExists(compNumber) {
		return domain.ErrCompetitionNotFound
	}
	return s.compRepo.UpdateSubmissionReviewState(compNumber, eventID, userID, state)
}

// EventSubmissions lists one event's submissions within one comp for the
// results dashboard.
func (s *CompetitionService) EventSubmissions(ctx context.Context, compNumber int, eventID string) ([]domain.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.EventSubmissions")
	defer span.End()

	span.SetAttributes(
		attribute.Int("comp.number", compNumber),
		attribute.String("event.id", eventID),
	)

	if !s.CompExists(compNumber) {
		return nil, domain.ErrCompetitionNotFound
	}

	comp, err := s.compRepo.FindByNumber(compNumber)
	if err != nil {
		return nil, err
	}
	if comp.EventData(eventID) == nil {
		return nil, domain.ErrEventNotInComp
	}

	subs, err := s.compRepo.EventSubmissions(compNumber, eventID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SubmissionResponse, 0, len(subs))
	for i := range subs {
		attempts, err := subs[i].AttemptList()
		if err != nil {
			s.logger.Error("Corrupt attempt payload, skipping submission",
				zap.String("submission_id", subs[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		displays := make([]string, len(attempts))
		for j, a := range attempts {
			displays[j] = a.Display()
		}
		out = append(out, domain.SubmissionResponse{
			UserID:       subs[i].UserID,
			ReviewState:  subs[i].ReviewState.String(),
			Attempts:     attempts,
			Displays:     displays,
			ResultString: subs[i].ResultString,
		})
	}
	return out, nil
}

// buildNext assembles the next comp: a window starting today, the full
// catalog event set, and eagerly generated scrambles for every event.
func (s *CompetitionService) buildNext(number int, endDate *time.Time) *domain.Competition {
	start := domain.StripTime(s.now())
	end := start.AddDate(0, 0, CompDurationDays)
	if endDate != nil {
		end = domain.StripTime(*endDate)
	}

	comp := &domain.Competition{
		Number:    number,
		StartDate: start,
		EndDate:   end,
	}
	for _, ev := range s.catalog.All() {
		comp.Events = append(comp.Events, domain.CompetitionEvent{
			CompNumber: number,
			EventID:    ev.ID,
			Scrambles:  s.scrambleSet(&ev),
		})
	}
	return comp
}

// scrambleSet generates one round's scrambles for an event. Variable-shape
// formats get a single random seed the client derives scrambles from.
func (s *CompetitionService) scrambleSet(ev *domain.Event) []string {
	count := ev.Format.AttemptCount()
	if count == domain.VariableAttempts {
		return []string{scramble.Seed()}
	}

	set := make([]string, 0, count)
	for i := 0; i < count; i++ {
		set = append(set, s.generator.Generate(ev.ScrambleType, catalog.ScrambleLength(ev)))
	}
	return set
}

func (s *CompetitionService) refresh() (int, error) {
	number, err := s.compRepo.HighestNumber()
	if err != nil {
		return 0, err
	}
	s.setCurrent(number)
	return number, nil
}

func (s *CompetitionService) setCurrent(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = number
}
