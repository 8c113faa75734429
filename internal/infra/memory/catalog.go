package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"dollyeo/internal/domain"
)

// QuestionCatalog is an in-memory implementation of app.QuestionProvider,
// useful for demos and tests when no database is configured.
type QuestionCatalog struct {
	mu        sync.RWMutex
	questions map[string][]domain.Question
}

func NewQuestionCatalog() *QuestionCatalog {
	return &QuestionCatalog{questions: make(map[string][]domain.Question)}
}

func (c *QuestionCatalog) List(_ context.Context, ownerID string) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	questions := make([]domain.Question, len(c.questions[ownerID]))
	copy(questions, c.questions[ownerID])
	return questions, nil
}

func (c *QuestionCatalog) Create(_ context.Context, ownerID, content string) (domain.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Question{}, domain.ErrInvalidContent
	}
	question := domain.Question{ID: uuid.New().String(), Content: trimmed}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions[ownerID] = append(c.questions[ownerID], question)
	return question, nil
}

func (c *QuestionCatalog) Update(_ context.Context, id, content string) (domain.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Question{}, domain.ErrInvalidContent
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for ownerID, questions := range c.questions {
		for i := range questions {
			if questions[i].ID == id {
				questions[i].Content = trimmed
				c.questions[ownerID] = questions
				return questions[i], nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (c *QuestionCatalog) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ownerID, questions := range c.questions {
		for i := range questions {
			if questions[i].ID == id {
				c.questions[ownerID] = append(questions[:i], questions[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *QuestionCatalog) SetUsed(_ context.Context, id string, used bool) (domain.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ownerID, questions := range c.questions {
		for i := range questions {
			if questions[i].ID == id {
				questions[i].IsUsed = used
				c.questions[ownerID] = questions
				return questions[i], nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// ParticipantCatalog is an in-memory implementation of
// app.ParticipantProvider.
type ParticipantCatalog struct {
	mu           sync.RWMutex
	participants map[string][]domain.Participant
}

func NewParticipantCatalog() *ParticipantCatalog {
	return &ParticipantCatalog{participants: make(map[string][]domain.Participant)}
}

func (c *ParticipantCatalog) List(_ context.Context, ownerID string) ([]domain.Participant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	participants := make([]domain.Participant, len(c.participants[ownerID]))
	copy(participants, c.participants[ownerID])
	return participants, nil
}

func (c *ParticipantCatalog) Create(_ context.Context, ownerID, name string) (domain.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Participant{}, domain.ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	participant := domain.Participant{
		ID:    uuid.New().String(),
		Name:  trimmed,
		Order: len(c.participants[ownerID]),
	}
	c.participants[ownerID] = append(c.participants[ownerID], participant)
	return participant, nil
}

func (c *ParticipantCatalog) Update(_ context.Context, id, name string) (domain.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Participant{}, domain.ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for ownerID, participants := range c.participants {
		for i := range participants {
			if participants[i].ID == id {
				participants[i].Name = trimmed
				c.participants[ownerID] = participants
				return participants[i], nil
			}
		}
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (c *ParticipantCatalog) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ownerID, participants := range c.participants {
		for i := range participants {
			if participants[i].ID == id {
				next := append(participants[:i], participants[i+1:]...)
				for j := range next {
					next[j].Order = j
				}
				c.participants[ownerID] = next
				return true, nil
			}
		}
	}
	return false, nil
}
