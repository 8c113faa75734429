package memory

import (
	"context"
	"sync"

	"dollyeo/internal/domain"
)

// GroupStore is an in-memory implementation of app.GroupStore, keeping
// groups in save order per owner.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[string][]domain.QuestionGroup
}

func NewGroupStore() *GroupStore {
	return &GroupStore{groups: make(map[string][]domain.QuestionGroup)}
}

func (s *GroupStore) Get(_ context.Context, ownerID, groupID string) (domain.QuestionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, group := range s.groups[ownerID] {
		if group.ID == groupID {
			return group, nil
		}
	}
	return domain.QuestionGroup{}, domain.ErrGroupNotFound
}

func (s *GroupStore) List(_ context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make([]domain.QuestionGroup, len(s.groups[ownerID]))
	copy(groups, s.groups[ownerID])
	return groups, nil
}

func (s *GroupStore) Save(_ context.Context, ownerID string, group domain.QuestionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := s.groups[ownerID]
	for i := range groups {
		if groups[i].ID == group.ID {
			groups[i] = group
			return nil
		}
	}
	s.groups[ownerID] = append(groups, group)
	return nil
}

func (s *GroupStore) Delete(_ context.Context, ownerID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := s.groups[ownerID]
	next := make([]domain.QuestionGroup, 0, len(groups))
	for _, group := range groups {
		if group.ID != groupID {
			next = append(next, group)
		}
	}
	s.groups[ownerID] = next
	return nil
}
