package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// EventStatus is the per-event progress status exposed for UI rendering.
type EventStatus string

const (
	StatusUnset      EventStatus = "unset"
	StatusUnfinished EventStatus = "unfinished"
	StatusFinished   EventStatus = "finished"
)

// User is a competitor. The ID comes from the external identity provider.
// Progress tracks the user's attempts in the current comp only; it is
// discarded whenever the user is seen under a newer comp number.
type User struct {
	ID             int64          `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Name           string         `json:"name"`
	WCAID          string         `json:"wca_id" gorm:"column:wca_id"`
	LastCompNumber int            `json:"last_comp_number" gorm:"not null;default:-1"`
	Progress       datatypes.JSON `json:"progress"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// EventProgress is one event's attempt accumulation within the current comp.
type EventProgress struct {
	EventID  string    `json:"event_id"`
	Finished bool      `json:"finished"`
	Attempts []Attempt `json:"attempts"`
}

// ProgressList decodes the stored per-event progress.
func (u *User) ProgressList() ([]EventProgress, error) {
	if len(u.Progress) == 0 {
		return nil, nil
	}
	var progress []EventProgress
	if err := json.Unmarshal(u.Progress, &progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// SetProgress encodes the per-event progress for storage.
func (u *User) SetProgress(progress []EventProgress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	u.Progress = datatypes.JSON(raw)
	return nil
}

// AdvanceComp resets the user's progress when the comp has moved on.
// A number not greater than the last seen one is a no-op. Stale progress
// from a superseded comp is never carried forward.
func (u *User) AdvanceComp(newCompNumber int) bool {
	if newCompNumber <= u.LastCompNumber {
		return false
	}
	u.LastCompNumber = newCompNumber
	u.Progress = nil
	return true
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(id int64) (*User, error)
	Upsert(user *User) error
}

// RecordAttemptRequest represents the body of an attempt submission
type RecordAttemptRequest struct {
	Attempts  []Attempt `json:"attempts" binding:"required"`
	Overwrite bool      `json:"overwrite"`
}

// RecordAttemptResponse tells the caller whether the event round is complete.
// Warning is set when the round finished but could not be handed to the
// finalizer, so the loss is visible to the client and not just the logs.
type RecordAttemptResponse struct {
	Finished bool   `json:"finished"`
	Warning  string `json:"warning,omitempty"`
}
