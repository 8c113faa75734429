package pool

import (
	"strings"

	"github.com/google/uuid"

	"dollyeo/internal/domain"
)

// QuestionPool is an immutable ordered collection of questions. Every
// mutator returns a new pool; callers own the single authoritative copy.
type QuestionPool []domain.Question

// NewQuestionPool copies questions into a fresh pool.
func NewQuestionPool(questions []domain.Question) QuestionPool {
	pool := make(QuestionPool, len(questions))
	copy(pool, questions)
	return pool
}

// Add appends a new unused question. Content is trimmed and must be
// non-empty.
func (p QuestionPool) Add(content string) (QuestionPool, domain.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return p, domain.Question{}, domain.ErrInvalidContent
	}
	question := domain.Question{
		ID:      uuid.New().String(),
		Content: trimmed,
		IsUsed:  false,
	}
	next := p.clone()
	return append(next, question), question, nil
}

// Remove drops the matching question. Absent ids are a no-op.
func (p QuestionPool) Remove(id string) QuestionPool {
	next := make(QuestionPool, 0, len(p))
	for _, q := range p {
		if q.ID != id {
			next = append(next, q)
		}
	}
	return next
}

// ToggleUsed flips the used flag on the matching question. Absent ids are a
// no-op.
func (p QuestionPool) ToggleUsed(id string) QuestionPool {
	next := p.clone()
	for i := range next {
		if next[i].ID == id {
			next[i].IsUsed = !next[i].IsUsed
			break
		}
	}
	return next
}

// Update replaces the content of the matching question.
func (p QuestionPool) Update(id, content string) (QuestionPool, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return p, domain.ErrInvalidContent
	}
	next := p.clone()
	for i := range next {
		if next[i].ID == id {
			next[i].Content = trimmed
			return next, nil
		}
	}
	return p, domain.ErrQuestionNotFound
}

// SetAnswer records a free-text answer on the matching question.
func (p QuestionPool) SetAnswer(id, answer string) (QuestionPool, error) {
	next := p.clone()
	for i := range next {
		if next[i].ID == id {
			next[i].Answer = answer
			return next, nil
		}
	}
	return p, domain.ErrQuestionNotFound
}

// Clear returns an empty pool.
func (p QuestionPool) Clear() QuestionPool {
	return QuestionPool{}
}

// Available returns the unused subsequence in original relative order.
func (p QuestionPool) Available() QuestionPool {
	available := make(QuestionPool, 0, len(p))
	for _, q := range p {
		if !q.IsUsed {
			available = append(available, q)
		}
	}
	return available
}

// ResetUsed clears the used flag on every question.
func (p QuestionPool) ResetUsed() QuestionPool {
	next := p.clone()
	for i := range next {
		next[i].IsUsed = false
	}
	return next
}

// Find returns the matching question.
func (p QuestionPool) Find(id string) (domain.Question, bool) {
	for _, q := range p {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

func (p QuestionPool) clone() QuestionPool {
	next := make(QuestionPool, len(p))
	copy(next, p)
	return next
}
