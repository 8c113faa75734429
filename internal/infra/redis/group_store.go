package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dollyeo/internal/domain"
)

// GroupStore persists saved groups as one flat JSON array per owner under
// dollyeo:groups:{ownerID}, mirroring the record store's blob layout.
type GroupStore struct {
	client *redis.Client
}

func NewGroupStore(client *redis.Client) *GroupStore {
	return &GroupStore{client: client}
}

func (s *GroupStore) Get(ctx context.Context, ownerID, groupID string) (domain.QuestionGroup, error) {
	groups, err := s.load(ctx, ownerID)
	if err != nil {
		return domain.QuestionGroup{}, err
	}
	for _, group := range groups {
		if group.ID == groupID {
			return group, nil
		}
	}
	return domain.QuestionGroup{}, domain.ErrGroupNotFound
}

func (s *GroupStore) List(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	return s.load(ctx, ownerID)
}

func (s *GroupStore) Save(ctx context.Context, ownerID string, group domain.QuestionGroup) error {
	groups, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range groups {
		if groups[i].ID == group.ID {
			groups[i] = group
			replaced = true
			break
		}
	}
	if !replaced {
		groups = append(groups, group)
	}
	return s.save(ctx, ownerID, groups)
}

func (s *GroupStore) Delete(ctx context.Context, ownerID, groupID string) error {
	groups, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	next := make([]domain.QuestionGroup, 0, len(groups))
	for _, group := range groups {
		if group.ID != groupID {
			next = append(next, group)
		}
	}
	return s.save(ctx, ownerID, next)
}

func (s *GroupStore) load(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	raw, err := s.client.Get(ctx, s.key(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	var groups []domain.QuestionGroup
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		return nil, fmt.Errorf("unmarshal groups: %w", err)
	}
	return groups, nil
}

func (s *GroupStore) save(ctx context.Context, ownerID string, groups []domain.QuestionGroup) error {
	raw, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}
	if err := s.client.Set(ctx, s.key(ownerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

func (s *GroupStore) key(ownerID string) string {
	return groupsKeyPrefix + ownerID
}
