package memory

import (
	"context"
	"sync"

	"dollyeo/internal/domain"
)

// RecordStore is an in-memory implementation of app.RecordStore, an
// append-only outcome log per owner.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string][]domain.Outcome
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string][]domain.Outcome)}
}

func (s *RecordStore) Append(_ context.Context, ownerID string, record domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[ownerID] = append(s.records[ownerID], record)
	return nil
}

func (s *RecordStore) UpdateLast(_ context.Context, ownerID string, isCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[ownerID]
	if len(records) == 0 {
		return nil
	}
	correct := isCorrect
	records[len(records)-1].IsCorrect = &correct
	return nil
}

func (s *RecordStore) QueryByGroup(_ context.Context, ownerID, groupLabel string) ([]domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Outcome
	for _, record := range s.records[ownerID] {
		if record.GroupLabel == groupLabel {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (s *RecordStore) LoadAll(_ context.Context, ownerID string) ([]domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.Outcome, len(s.records[ownerID]))
	copy(records, s.records[ownerID])
	return records, nil
}

func (s *RecordStore) Clear(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, ownerID)
	return nil
}
