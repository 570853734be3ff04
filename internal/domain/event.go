package domain

import "github.com/cubecomp/backend/internal/timing"

// Format is the scoring format of an event.
type Format string

const (
	FormatAverage5 Format = "average5" // 5 attempts, drop best and worst, average the rest
	FormatMean3    Format = "mean3"    // 3 attempts, mean of all
	FormatBest3    Format = "best3"    // 3 attempts, best single
	FormatMulti    Format = "multi"    // variable-shape single attempt, success/attempt scoring
)

// VariableAttempts signals a format whose round is a single variable-shape
// attempt rather than a fixed number of timed attempts.
const VariableAttempts = -1

// AttemptCount returns the number of attempts a round of the format expects,
// or VariableAttempts for multi-style formats.
func (f Format) AttemptCount() int {
	switch f {
	case FormatAverage5:
		return 5
	case FormatMean3, FormatBest3:
		return 3
	case FormatMulti:
		return VariableAttempts
	default:
		return 0
	}
}

// Event is one entry of the static event catalog. Definitions are frozen
// after catalog load and looked up by ID.
type Event struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	ScrambleType string     `json:"scramble_type"`
	Icon         string     `json:"icon"`
	Format       Format     `json:"format"`
	ScrambleLen  int        `json:"scramble_len,omitempty"`    // expected scramble length, 0 = generator default
	ScrambleRad  int        `json:"scramble_radius,omitempty"` // length variance radius
	MoveCount    bool       `json:"move_count,omitempty"`      // result is a move count, not a time (FMC)
	ExtraArgs    *ExtraArgs `json:"extra_args,omitempty"`      // template for auxiliary per-attempt fields
}

// Info returns the subset of the definition used for page rendering.
func (e *Event) Info() EventInfo {
	return EventInfo{ID: e.ID, Title: e.Title, Icon: e.Icon}
}

// EventInfo is the rendering-facing view of an event definition.
type EventInfo struct {
	ID    string `json:"event_id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// ExtraArgs holds auxiliary per-attempt fields whose shape is dictated by
// the event: a solution move list for move-count events, success/attempt
// counters for multi-style events.
type ExtraArgs struct {
	Solution   []string `json:"solution,omitempty"`
	NumSuccess int      `json:"num_success,omitempty"`
	NumAttempt int      `json:"num_attempt,omitempty"`
}

// IsZero reports whether no auxiliary data has been filled in.
func (e *ExtraArgs) IsZero() bool {
	return e == nil || (len(e.Solution) == 0 && e.NumSuccess == 0 && e.NumAttempt == 0)
}

// Clone returns a deep copy, used when seeding fresh attempts from an
// event's template so submissions never share state.
func (e *ExtraArgs) Clone() *ExtraArgs {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Solution = append([]string(nil), e.Solution...)
	return &cp
}

// Attempt is the persisted form of one attempt: total centiseconds
// (timing.NullCentis when not yet recorded), a penalty tag, and optional
// extra args.
type Attempt struct {
	Centis  int            `json:"centis"`
	Penalty timing.Penalty `json:"penalty"`
	Extra   *ExtraArgs     `json:"extra_args,omitempty"`
}

// Recorded reports whether the slot holds a submitted attempt: either a
// non-negative time or meaningful extra args. Empty extra-args templates do
// not count, so a freshly seeded slot is always unrecorded.
func (a Attempt) Recorded() bool {
	return a.Centis >= 0 || !a.Extra.IsZero()
}

// EffectiveCentis returns the attempt's centiseconds with its time penalty
// applied. Meaningless for DNF attempts; callers filter those first.
func (a Attempt) EffectiveCentis() int {
	return timing.ApplyPenaltyCentis(a.Centis, a.Penalty)
}

// Display renders the attempt for dashboards, honoring its penalty.
func (a Attempt) Display() string {
	return timing.FormatCentisWithPenalty(a.Centis, a.Penalty)
}
