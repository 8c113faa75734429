package pool

import (
	"strings"

	"github.com/google/uuid"

	"dollyeo/internal/domain"
	"dollyeo/internal/roulette"
)

// ParticipantPool is an immutable ordered collection of participants.
// Order values stay dense (0..N-1) after every mutation.
type ParticipantPool []domain.Participant

// NewParticipantPool copies participants into a fresh pool and recompacts
// their order to positions.
func NewParticipantPool(participants []domain.Participant) ParticipantPool {
	pool := make(ParticipantPool, len(participants))
	copy(pool, participants)
	return pool.recompact()
}

// Add appends a participant at the end of the turn order. Name is trimmed
// and must be non-empty.
func (p ParticipantPool) Add(name string) (ParticipantPool, domain.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return p, domain.Participant{}, domain.ErrInvalidName
	}
	participant := domain.Participant{
		ID:    uuid.New().String(),
		Name:  trimmed,
		Order: len(p),
	}
	next := p.clone()
	return append(next, participant), participant, nil
}

// Remove drops the matching participant and recompacts the order of those
// remaining. Absent ids are a no-op.
func (p ParticipantPool) Remove(id string) ParticipantPool {
	next := make(ParticipantPool, 0, len(p))
	for _, participant := range p {
		if participant.ID != id {
			next = append(next, participant)
		}
	}
	return next.recompact()
}

// Rename replaces the display name of the matching participant.
func (p ParticipantPool) Rename(id, name string) (ParticipantPool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return p, domain.ErrInvalidName
	}
	next := p.clone()
	for i := range next {
		if next[i].ID == id {
			next[i].Name = trimmed
			return next, nil
		}
	}
	return p, domain.ErrParticipantNotFound
}

// Shuffle returns a uniformly random permutation of the pool with order
// reassigned to the new positions.
func (p ParticipantPool) Shuffle(picker *roulette.Picker) ParticipantPool {
	shuffled := ParticipantPool(roulette.Shuffle(picker, []domain.Participant(p)))
	return shuffled.recompact()
}

// IsDuplicate reports whether a participant with the trimmed name already
// exists. Matching is exact and case-sensitive.
func (p ParticipantPool) IsDuplicate(name string) bool {
	trimmed := strings.TrimSpace(name)
	for _, participant := range p {
		if participant.Name == trimmed {
			return true
		}
	}
	return false
}

// Find returns the matching participant.
func (p ParticipantPool) Find(id string) (domain.Participant, bool) {
	for _, participant := range p {
		if participant.ID == id {
			return participant, true
		}
	}
	return domain.Participant{}, false
}

func (p ParticipantPool) recompact() ParticipantPool {
	for i := range p {
		p[i].Order = i
	}
	return p
}

func (p ParticipantPool) clone() ParticipantPool {
	next := make(ParticipantPool, len(p))
	copy(next, p)
	return next
}
