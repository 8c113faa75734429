package domain

import "time"

// Question is a single prompt in the pool. Used questions are excluded
// from future draws until the session is reset.
type Question struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	IsUsed  bool   `json:"isUsed"`
	Answer  string `json:"answer,omitempty"`
}

// Participant takes turns answering drawn questions. Order is a dense
// zero-based position that always covers 0..N-1 within a pool.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Outcome is one entry in the append-only session log. Participant name and
// question content are snapshots taken at spin time and never resynchronized.
type Outcome struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	QuestionID      string    `json:"questionId"`
	QuestionContent string    `json:"questionContent"`
	Round           int       `json:"round"`
	Timestamp       time.Time `json:"timestamp"`
	IsCorrect       *bool     `json:"isCorrect,omitempty"`
	GroupLabel      string    `json:"groupLabel,omitempty"`
}

// QuestionGroup is a named snapshot of a question pool plus participant
// pool, reloadable to start a fresh session. Saved questions always carry
// IsUsed=false.
type QuestionGroup struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Questions    []Question    `json:"questions"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// SessionSnapshot is a point-in-time view of a running session, safe to
// serialize for transport subscribers.
type SessionSnapshot struct {
	SessionID          string        `json:"sessionId"`
	GroupLabel         string        `json:"groupLabel,omitempty"`
	Round              int           `json:"round"`
	CurrentParticipant *Participant  `json:"currentParticipant,omitempty"`
	Participants       []Participant `json:"participants"`
	Questions          []Question    `json:"questions"`
	AvailableCount     int           `json:"availableCount"`
	Records            []Outcome     `json:"records"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}
