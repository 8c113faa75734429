package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dollyeo/internal/domain"
)

// QuestionCatalog is the Postgres-backed question provider.
type QuestionCatalog struct {
	pool *pgxpool.Pool
}

func NewQuestionCatalog(pool *pgxpool.Pool) *QuestionCatalog {
	return &QuestionCatalog{pool: pool}
}

func (c *QuestionCatalog) List(ctx context.Context, ownerID string) ([]domain.Question, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, content, answer, is_used FROM questions WHERE owner_id=$1 ORDER BY created_at`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Content, &q.Answer, &q.IsUsed); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (c *QuestionCatalog) Create(ctx context.Context, ownerID, content string) (domain.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Question{}, domain.ErrInvalidContent
	}
	question := domain.Question{ID: uuid.New().String(), Content: trimmed}
	_, err := c.pool.Exec(ctx,
		`INSERT INTO questions (id, owner_id, content) VALUES ($1, $2, $3)`,
		question.ID, ownerID, question.Content)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

func (c *QuestionCatalog) Update(ctx context.Context, id, content string) (domain.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Question{}, domain.ErrInvalidContent
	}
	var q domain.Question
	err := c.pool.QueryRow(ctx,
		`UPDATE questions SET content=$2 WHERE id=$1 RETURNING id, content, answer, is_used`,
		id, trimmed).Scan(&q.ID, &q.Content, &q.Answer, &q.IsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func (c *QuestionCatalog) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (c *QuestionCatalog) SetUsed(ctx context.Context, id string, used bool) (domain.Question, error) {
	var q domain.Question
	err := c.pool.QueryRow(ctx,
		`UPDATE questions SET is_used=$2 WHERE id=$1 RETURNING id, content, answer, is_used`,
		id, used).Scan(&q.ID, &q.Content, &q.Answer, &q.IsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("mark question: %w", err)
	}
	return q, nil
}

// ParticipantCatalog is the Postgres-backed participant provider. Positions
// stay dense per owner: inserts take the next slot and deletes shift the
// tail down.
type ParticipantCatalog struct {
	pool *pgxpool.Pool
}

func NewParticipantCatalog(pool *pgxpool.Pool) *ParticipantCatalog {
	return &ParticipantCatalog{pool: pool}
}

func (c *ParticipantCatalog) List(ctx context.Context, ownerID string) ([]domain.Participant, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, position FROM participants WHERE owner_id=$1 ORDER BY position`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Order); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (c *ParticipantCatalog) Create(ctx context.Context, ownerID, name string) (domain.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Participant{}, domain.ErrInvalidName
	}
	participant := domain.Participant{ID: uuid.New().String(), Name: trimmed}
	err := c.pool.QueryRow(ctx,
		`INSERT INTO participants (id, owner_id, name, position)
		 SELECT $1, $2, $3, COALESCE(MAX(position)+1, 0) FROM participants WHERE owner_id=$2
		 RETURNING position`,
		participant.ID, ownerID, participant.Name).Scan(&participant.Order)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func (c *ParticipantCatalog) Update(ctx context.Context, id, name string) (domain.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Participant{}, domain.ErrInvalidName
	}
	var p domain.Participant
	err := c.pool.QueryRow(ctx,
		`UPDATE participants SET name=$2 WHERE id=$1 RETURNING id, name, position`,
		id, trimmed).Scan(&p.ID, &p.Name, &p.Order)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("update participant: %w", err)
	}
	return p, nil
}

func (c *ParticipantCatalog) Delete(ctx context.Context, id string) (bool, error) {
	var (
		ownerID  string
		position int
	)
	err := c.pool.QueryRow(ctx,
		`DELETE FROM participants WHERE id=$1 RETURNING owner_id, position`,
		id).Scan(&ownerID, &position)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete participant: %w", err)
	}
	_, err = c.pool.Exec(ctx,
		`UPDATE participants SET position=position-1 WHERE owner_id=$1 AND position>$2`,
		ownerID, position)
	if err != nil {
		return false, fmt.Errorf("compact positions: %w", err)
	}
	return true, nil
}
