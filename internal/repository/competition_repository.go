package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cubecomp/backend/internal/domain"
)

// competitionRepository implements domain.CompetitionRepository using GORM
type competitionRepository struct {
	db *gorm.DB
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db *gorm.DB) domain.CompetitionRepository {
	return &competitionRepository{db: db}
}

// FindByNumber loads a comp with its events and their submissions
func (r *competitionRepository) FindByNumber(number int) (*domain.Competition, error) {
	var comp domain.Competition
	result := r.db.
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("competition_events.event_id ASC")
		}).
		Preload("Events.Submissions").
		Where("comp_number = ?", number).
		First(&comp)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, result.Error
	}
	return &comp, nil
}

// HighestNumber returns the highest stored comp number.
// An empty store surfaces as ErrCompetitionNotFound.
func (r *competitionRepository) HighestNumber() (int, error) {
	var comp domain.Competition
	result := r.db.Order("comp_number DESC").First(&comp)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, domain.ErrCompetitionNotFound
		}
		return 0, result.Error
	}
	return comp.Number, nil
}

// Create inserts a new comp with its events. A comp-number collision maps to
// ErrCompetitionExists so a racing rollover can detect it lost.
func (r *competitionRepository) Create(comp *domain.Competition) error {
	err := r.db.Create(comp).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrCompetitionExists
	}
	return err
}

// Upsert saves a comp, replacing its row when the number already exists
func (r *competitionRepository) Upsert(comp *domain.Competition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comp_number"}},
			UpdateAll: true,
		}).Omit("Events").Create(comp).Error; err != nil {
			return err
		}

		for i := range comp.Events {
			comp.Events[i].CompNumber = comp.Number
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "comp_number"}, {Name: "event_id"}},
				UpdateAll: true,
			}).Omit("Submissions").Create(&comp.Events[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAll returns all comps ordered by number, without submission payloads
func (r *competitionRepository) FindAll() ([]domain.Competition, error) {
	var comps []domain.Competition
	result := r.db.
		Preload("Events").
		Order("comp_number ASC").
		Find(&comps)
	return comps, result.Error
}

// AppendSubmission inserts a finalized submission. The unique index on
// (comp_number, event_id, user_id) enforces at-most-once finalization;
// a duplicate maps to ErrSubmissionExists.
func (r *competitionRepository) AppendSubmission(sub *domain.Submission) error {
	err := r.db.Create(sub).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrSubmissionExists
	}
	return err
}

// UpdateSubmissionReviewState performs the targeted partial update of one
// submission's review state
func (r *competitionRepository) UpdateSubmissionReviewState(compNumber int, eventID string, userID int64, state domain.ReviewState) error {
	result := r.db.Model(&domain.Submission{}).
		Where("comp_number = ? AND event_id = ? AND user_id = ?", compNumber, eventID, userID).
		Update("review_state", state)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// EventSubmissions lists one event's submissions within one comp
func (r *competitionRepository) EventSubmissions(compNumber int, eventID string) ([]domain.Submission, error) {
	var subs []domain.Submission
	result := r.db.
		Where("comp_number = ? AND event_id = ?", compNumber, eventID).
		Order("created_at ASC").
		Find(&subs)
	return subs, result.Error
}

// isUniqueViolation detects a unique-constraint failure from the driver.
// gorm.ErrDuplicatedKey requires the translate-error option, so the pq
// error text is checked as well.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "SQLSTATE 23505")
}
