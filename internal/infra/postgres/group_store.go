package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dollyeo/internal/domain"
)

// groupData is the JSONB payload of a question_groups row. Name and
// created_at live in their own columns so listing stays cheap.
type groupData struct {
	Questions    []domain.Question    `json:"questions"`
	Participants []domain.Participant `json:"participants"`
}

// GroupStore persists saved groups in Postgres, one row per group with the
// pool snapshots as JSONB.
type GroupStore struct {
	pool *pgxpool.Pool
}

func NewGroupStore(pool *pgxpool.Pool) *GroupStore {
	return &GroupStore{pool: pool}
}

func (s *GroupStore) Get(ctx context.Context, ownerID, groupID string) (domain.QuestionGroup, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, data, created_at FROM question_groups WHERE owner_id=$1 AND id=$2`,
		ownerID, groupID)
	group, err := scanGroup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionGroup{}, domain.ErrGroupNotFound
	}
	if err != nil {
		return domain.QuestionGroup{}, fmt.Errorf("load group: %w", err)
	}
	return group, nil
}

func (s *GroupStore) List(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, data, created_at FROM question_groups WHERE owner_id=$1 ORDER BY created_at`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.QuestionGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *GroupStore) Save(ctx context.Context, ownerID string, group domain.QuestionGroup) error {
	raw, err := json.Marshal(groupData{
		Questions:    group.Questions,
		Participants: group.Participants,
	})
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_groups (id, owner_id, name, data, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, data=EXCLUDED.data`,
		group.ID, ownerID, group.Name, raw, group.CreatedAt)
	if err != nil {
		return fmt.Errorf("save group: %w", err)
	}
	return nil
}

func (s *GroupStore) Delete(ctx context.Context, ownerID, groupID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM question_groups WHERE owner_id=$1 AND id=$2`, ownerID, groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func scanGroup(row pgx.Row) (domain.QuestionGroup, error) {
	var (
		group     domain.QuestionGroup
		raw       []byte
		createdAt time.Time
	)
	if err := row.Scan(&group.ID, &group.Name, &raw, &createdAt); err != nil {
		return domain.QuestionGroup{}, err
	}
	var data groupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.QuestionGroup{}, err
	}
	group.Questions = data.Questions
	group.Participants = data.Participants
	group.CreatedAt = createdAt
	return group, nil
}
