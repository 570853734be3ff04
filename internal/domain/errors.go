package domain

import "errors"

// Domain errors - these are business logic errors that should be translated
// to appropriate HTTP status codes by the handler layer

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid or expired token")

	// Event errors
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFinished     = errors.New("event already submitted for this comp")
	ErrAttemptCountWrong = errors.New("attempt list length does not match the event format")
	ErrEventNotInComp    = errors.New("event not part of this comp")

	// Competition errors
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrCompetitionExists   = errors.New("competition number already exists")

	// Submission errors
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionExists   = errors.New("submission already finalized for this user and event")

	// General errors
	ErrBadRequest = errors.New("bad request")
)
