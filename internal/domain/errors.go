package domain

import "errors"

var (
	// ErrInvalidLength is returned when a random index is requested over a
	// non-positive length.
	ErrInvalidLength = errors.New("length must be greater than zero")
	// ErrEmptyItems is returned when selecting from an empty sequence.
	ErrEmptyItems = errors.New("cannot select from empty items")
	// ErrInvalidContent rejects empty or whitespace-only question content.
	ErrInvalidContent = errors.New("question content cannot be empty")
	// ErrInvalidName rejects empty or whitespace-only participant names.
	ErrInvalidName = errors.New("participant name cannot be empty")
	// ErrQuestionNotFound indicates the referenced question id is absent.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound indicates the referenced participant id is absent.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrGroupNotFound indicates the saved group could not be loaded.
	ErrGroupNotFound = errors.New("question group not found")
	// ErrSessionNotFound is returned when acting on a session that has not
	// been started.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoParticipants is a spin precondition failure: the participant pool
	// is empty.
	ErrNoParticipants = errors.New("no participants in session")
	// ErrNoQuestionsAvailable is a spin precondition failure: every question
	// has been used.
	ErrNoQuestionsAvailable = errors.New("no unused questions available")
	// ErrPersistenceUnavailable marks a best-effort store write that failed.
	// Sessions keep operating in-memory when this occurs.
	ErrPersistenceUnavailable = errors.New("record store unavailable")
)
