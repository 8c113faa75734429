package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dollyeo/internal/domain"
)

// RecordStore persists the outcome log as one flat JSON array per owner
// under dollyeo:records:{ownerID}, read and written whole. The blob layout
// keeps the store swappable with any key-value medium that can hold a
// string.
type RecordStore struct {
	client *redis.Client
}

func NewRecordStore(client *redis.Client) *RecordStore {
	return &RecordStore{client: client}
}

func (s *RecordStore) Append(ctx context.Context, ownerID string, record domain.Outcome) error {
	records, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.save(ctx, ownerID, append(records, record))
}

func (s *RecordStore) UpdateLast(ctx context.Context, ownerID string, isCorrect bool) error {
	records, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	correct := isCorrect
	records[len(records)-1].IsCorrect = &correct
	return s.save(ctx, ownerID, records)
}

func (s *RecordStore) QueryByGroup(ctx context.Context, ownerID, groupLabel string) ([]domain.Outcome, error) {
	records, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var matched []domain.Outcome
	for _, record := range records {
		if record.GroupLabel == groupLabel {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (s *RecordStore) LoadAll(ctx context.Context, ownerID string) ([]domain.Outcome, error) {
	return s.load(ctx, ownerID)
}

func (s *RecordStore) Clear(ctx context.Context, ownerID string) error {
	if err := s.client.Del(ctx, s.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

func (s *RecordStore) load(ctx context.Context, ownerID string) ([]domain.Outcome, error) {
	raw, err := s.client.Get(ctx, s.key(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	var records []domain.Outcome
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}

func (s *RecordStore) save(ctx context.Context, ownerID string, records []domain.Outcome) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := s.client.Set(ctx, s.key(ownerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

func (s *RecordStore) key(ownerID string) string {
	return recordsKeyPrefix + ownerID
}
