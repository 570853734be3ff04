package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ReviewState is the review status of a submission.
type ReviewState int

const (
	ReviewPending ReviewState = iota
	ReviewApproved
	ReviewRejected
)

// Valid reports whether the value is one of the defined states.
func (s ReviewState) Valid() bool {
	return s >= ReviewPending && s <= ReviewRejected
}

func (s ReviewState) String() string {
	switch s {
	case ReviewPending:
		return "pending"
	case ReviewApproved:
		return "approved"
	case ReviewRejected:
		return "rejected"
	default:
		return "undefined"
	}
}

// Competition is one scheduled comp cycle. Numbers are contiguous from 1;
// number 0 is the inactive seed created on first boot. The competition with
// the highest number is the current one.
type Competition struct {
	Number    int       `json:"comp_number" gorm:"primaryKey;autoIncrement:false;column:comp_number"`
	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Events []CompetitionEvent `json:"events,omitempty" gorm:"foreignKey:CompNumber"`
}

// TableName specifies the table name for GORM
func (Competition) TableName() string {
	return "competitions"
}

// IsActive reports whether the comp window covers today. Comparison is at
// calendar-day granularity.
func (c *Competition) IsActive(now time.Time) bool {
	today := StripTime(now)
	return !today.Before(StripTime(c.StartDate)) && !today.After(StripTime(c.EndDate))
}

// EventData returns the comp's data for an event, or nil if the comp does
// not hold the event.
func (c *Competition) EventData(eventID string) *CompetitionEvent {
	for i := range c.Events {
		if c.Events[i].EventID == eventID {
			return &c.Events[i]
		}
	}
	return nil
}

// StripTime truncates a timestamp to its calendar day in UTC.
func StripTime(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CompetitionEvent is one event's data within one comp: the scramble set
// (immutable once generated) and the event's submissions.
type CompetitionEvent struct {
	CompNumber int            `json:"comp_number" gorm:"primaryKey;autoIncrement:false"`
	EventID    string         `json:"event_id" gorm:"primaryKey"`
	Scrambles  pq.StringArray `json:"scrambles" gorm:"type:text[]"`

	// Relationships
	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:CompNumber,EventID;references:CompNumber,EventID"`
}

// TableName specifies the table name for GORM
func (CompetitionEvent) TableName() string {
	return "competition_events"
}

// Submission is one user's immutable result in one comp event. Created at
// most once per (comp, event, user); only the review state may change
// afterwards.
type Submission struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CompNumber   int            `json:"comp_number" gorm:"uniqueIndex:idx_submission_identity;not null"`
	EventID      string         `json:"event_id" gorm:"uniqueIndex:idx_submission_identity;not null"`
	UserID       int64          `json:"user_id" gorm:"uniqueIndex:idx_submission_identity;not null"`
	Attempts     datatypes.JSON `json:"attempts" gorm:"not null"`
	ReviewState  ReviewState    `json:"review_state" gorm:"not null;default:0"`
	ResultString string         `json:"result_string" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}

// AttemptList decodes the stored attempt set.
func (s *Submission) AttemptList() ([]Attempt, error) {
	var attempts []Attempt
	if err := json.Unmarshal(s.Attempts, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// SetAttempts encodes the attempt set for storage.
func (s *Submission) SetAttempts(attempts []Attempt) error {
	raw, err := json.Marshal(attempts)
	if err != nil {
		return err
	}
	s.Attempts = datatypes.JSON(raw)
	return nil
}

// CompetitionRepository defines the interface for competition data access
type CompetitionRepository interface {
	FindByNumber(number int) (*Competition, error)
	HighestNumber() (int, error)
	Create(comp *Competition) error
	Upsert(comp *Competition) error
	FindAll() ([]Competition, error)
	AppendSubmission(sub *Submission) error
	UpdateSubmissionReviewState(compNumber int, eventID string, userID int64, state ReviewState) error
	EventSubmissions(compNumber int, eventID string) ([]Submission, error)
}

// CompetitionResponse represents the current comp in API responses
type CompetitionResponse struct {
	Number    int         `json:"comp_number"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Events    []EventInfo `json:"events"`
}

// CompetitionEventResponse is one event's rendering payload within the
// current comp: definition info plus the comp's scramble set.
type CompetitionEventResponse struct {
	EventInfo
	Format    string   `json:"format"`
	Scrambles []string `json:"scrambles"`
	Previews  []string `json:"preview_images,omitempty"`
}

// CompetitionDetailResponse represents the current comp with full event data
type CompetitionDetailResponse struct {
	Number    int                        `json:"comp_number"`
	StartDate time.Time                  `json:"start_date"`
	EndDate   time.Time                  `json:"end_date"`
	Events    []CompetitionEventResponse `json:"events"`
}

// SubmissionResponse represents one submission in dashboard responses
type SubmissionResponse struct {
	UserID       int64     `json:"user_id"`
	ReviewState  string    `json:"review_state"`
	Attempts     []Attempt `json:"attempts"`
	Displays     []string  `json:"displays"`
	ResultString string    `json:"result_string"`
}

// RolloverRequest represents an admin validation request. Force rolls over
// even while the current comp is still active; a nil EndDate means the
// default cycle length.
type RolloverRequest struct {
	EndDate *time.Time `json:"end_date"`
	Force   bool       `json:"force"`
}

// ReviewStateRequest represents a review-state transition request
type ReviewStateRequest struct {
	CompNumber  int    `json:"comp_number" binding:"required"`
	EventID     string `json:"event_id" binding:"required"`
	UserID      int64  `json:"user_id" binding:"required"`
	ReviewState int    `json:"review_state"`
}
