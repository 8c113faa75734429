package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"dollyeo/internal/domain"
	"dollyeo/internal/pool"
)

// SessionRepository abstracts how sessions are tracked (in-memory, Redis).
type SessionRepository interface {
	GetOrCreate(ownerID string) *Session
	Get(ownerID string) (*Session, bool)
	Delete(ownerID string)
}

// RecordStore is the durable, append-only mirror of the outcome log. All
// writes are best-effort: a failing store never interrupts play.
type RecordStore interface {
	Append(ctx context.Context, ownerID string, record domain.Outcome) error
	UpdateLast(ctx context.Context, ownerID string, isCorrect bool) error
	QueryByGroup(ctx context.Context, ownerID, groupLabel string) ([]domain.Outcome, error)
	LoadAll(ctx context.Context, ownerID string) ([]domain.Outcome, error)
	Clear(ctx context.Context, ownerID string) error
}

// GroupStore persists saved question groups.
type GroupStore interface {
	Get(ctx context.Context, ownerID, groupID string) (domain.QuestionGroup, error)
	List(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error)
	Save(ctx context.Context, ownerID string, group domain.QuestionGroup) error
	Delete(ctx context.Context, ownerID, groupID string) error
}

// QuestionProvider is the external catalog of questions per owner.
type QuestionProvider interface {
	List(ctx context.Context, ownerID string) ([]domain.Question, error)
	Create(ctx context.Context, ownerID, content string) (domain.Question, error)
	Update(ctx context.Context, id, content string) (domain.Question, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetUsed(ctx context.Context, id string, used bool) (domain.Question, error)
}

// ParticipantProvider is the external catalog of participants per owner.
type ParticipantProvider interface {
	List(ctx context.Context, ownerID string) ([]domain.Participant, error)
	Create(ctx context.Context, ownerID, name string) (domain.Participant, error)
	Update(ctx context.Context, id, name string) (domain.Participant, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Catalog bundles the optional external providers a session can be seeded
// from.
type Catalog struct {
	Questions    QuestionProvider
	Participants ParticipantProvider
}

// UpdateMode reports which of the two group-update paths was taken.
type UpdateMode string

const (
	// UpdateMetadataOnly renames the group and flushes unlabeled session
	// records under its label; the saved content snapshot stays as-is.
	UpdateMetadataOnly UpdateMode = "metadata"
	// UpdateFullReplace also replaces the saved question/participant
	// snapshots with the session's current pools.
	UpdateFullReplace UpdateMode = "replace"
)

// ChangeDetector decides whether a session's pools diverge from a saved
// group. The default compares trimmed content-string and name sets, the
// heuristic the dashboard has always used; swap it for id-based semantics
// if stronger identity is wanted.
type ChangeDetector func(saved domain.QuestionGroup, questions pool.QuestionPool, participants pool.ParticipantPool) bool

// DetectContentChanges is the default ChangeDetector.
func DetectContentChanges(saved domain.QuestionGroup, questions pool.QuestionPool, participants pool.ParticipantPool) bool {
	savedContents := make(map[string]int)
	for _, q := range saved.Questions {
		savedContents[strings.TrimSpace(q.Content)]++
	}
	currentContents := make(map[string]int)
	for _, q := range questions {
		currentContents[strings.TrimSpace(q.Content)]++
	}
	if !equalCounts(savedContents, currentContents) {
		return true
	}

	savedNames := make(map[string]int)
	for _, p := range saved.Participants {
		savedNames[strings.TrimSpace(p.Name)]++
	}
	currentNames := make(map[string]int)
	for _, p := range participants {
		currentNames[strings.TrimSpace(p.Name)]++
	}
	return !equalCounts(savedNames, currentNames)
}

func equalCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

// SessionService contains the dashboard use cases: running sessions,
// mirroring outcomes, and managing saved groups.
type SessionService struct {
	sessions SessionRepository
	records  RecordStore
	groups   GroupStore
	catalog  *Catalog

	// DetectChanges drives the UpdateGroup mode decision.
	DetectChanges ChangeDetector

	now func() time.Time
}

func NewSessionService(sessions SessionRepository, records RecordStore, groups GroupStore, catalog *Catalog) *SessionService {
	return &SessionService{
		sessions:      sessions,
		records:       records,
		groups:        groups,
		catalog:       catalog,
		DetectChanges: DetectContentChanges,
		now:           time.Now,
	}
}

// Start returns the session for an owner, creating it on first use.
func (s *SessionService) Start(_ context.Context, ownerID string) domain.SessionSnapshot {
	return s.sessions.GetOrCreate(ownerID).Snapshot()
}

// End discards an owner's session. Stored records and groups survive.
func (s *SessionService) End(_ context.Context, ownerID string) {
	s.sessions.Delete(ownerID)
}

// Session exposes the live session for transports that mutate pools
// directly.
func (s *SessionService) Session(ownerID string) (*Session, bool) {
	return s.sessions.Get(ownerID)
}

// Subscribe returns a channel of session snapshots for an owner.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, ownerID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Spin draws a question for the current participant and mirrors the
// outcome to the record store.
func (s *SessionService) Spin(ctx context.Context, ownerID string) (domain.Question, domain.Outcome, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.Question{}, domain.Outcome{}, domain.ErrSessionNotFound
	}
	question, outcome, err := session.Spin()
	if err != nil {
		return domain.Question{}, domain.Outcome{}, err
	}
	s.persist(s.records.Append(ctx, ownerID, outcome), "append")
	return question, outcome, nil
}

// Advance moves the turn to the next participant, wrapping into a new
// round after the last one.
func (s *SessionService) Advance(_ context.Context, ownerID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Advance(), nil
}

// MarkOutcome sets correctness on the most recent record and mirrors the
// change.
func (s *SessionService) MarkOutcome(ctx context.Context, ownerID string, isCorrect bool) (domain.Outcome, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.Outcome{}, domain.ErrSessionNotFound
	}
	outcome, updated := session.MarkOutcome(isCorrect)
	if !updated {
		return domain.Outcome{}, nil
	}
	s.persist(s.records.UpdateLast(ctx, ownerID, isCorrect), "update last")
	return outcome, nil
}

// Reset restores the session's starting state and clears the mirrored log.
func (s *SessionService) Reset(ctx context.Context, ownerID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	snapshot := session.Reset()
	s.persist(s.records.Clear(ctx, ownerID), "clear")
	return snapshot, nil
}

// Records returns the outcome log. The live session is authoritative; the
// store only answers when no session is running.
func (s *SessionService) Records(ctx context.Context, ownerID string) ([]domain.Outcome, error) {
	if session, ok := s.sessions.Get(ownerID); ok {
		return session.Records(), nil
	}
	records, err := s.records.LoadAll(ctx, ownerID)
	if err != nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	return records, nil
}

// RecordsByGroup queries the stored log by group label, in append order.
func (s *SessionService) RecordsByGroup(ctx context.Context, ownerID, groupLabel string) ([]domain.Outcome, error) {
	records, err := s.records.QueryByGroup(ctx, ownerID, groupLabel)
	if err != nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	return records, nil
}

// SaveGroup snapshots the session's pools under a new named group. Saved
// questions carry IsUsed=false so reloading starts fresh.
func (s *SessionService) SaveGroup(ctx context.Context, ownerID, name string) (domain.QuestionGroup, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.QuestionGroup{}, domain.ErrSessionNotFound
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.QuestionGroup{}, domain.ErrInvalidName
	}

	questions, participants := session.Pools()
	group := domain.QuestionGroup{
		ID:           uuid.New().String(),
		Name:         trimmed,
		Questions:    questions.ResetUsed(),
		Participants: participants,
		CreatedAt:    s.now(),
	}
	if err := s.groups.Save(ctx, ownerID, group); err != nil {
		return domain.QuestionGroup{}, err
	}

	s.flushRelabeled(ctx, ownerID, session, trimmed)
	return group, nil
}

// UpdateGroup refreshes a saved group from the session. When the change
// detector sees diverging content the snapshot is fully replaced; otherwise
// only metadata changes and unlabeled session records are flushed under the
// group's label.
func (s *SessionService) UpdateGroup(ctx context.Context, ownerID, groupID, name string) (domain.QuestionGroup, UpdateMode, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return domain.QuestionGroup{}, "", domain.ErrSessionNotFound
	}
	group, err := s.groups.Get(ctx, ownerID, groupID)
	if err != nil {
		return domain.QuestionGroup{}, "", err
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" {
		group.Name = trimmed
	}

	mode := UpdateMetadataOnly
	questions, participants := session.Pools()
	if s.DetectChanges(group, questions, participants) {
		group.Questions = questions.ResetUsed()
		group.Participants = participants
		mode = UpdateFullReplace
	}

	if err := s.groups.Save(ctx, ownerID, group); err != nil {
		return domain.QuestionGroup{}, "", err
	}

	s.flushRelabeled(ctx, ownerID, session, group.Name)
	return group, mode, nil
}

// flushRelabeled stamps unlabeled session records with the group label and
// rewrites the mirrored log so the store holds exactly one labeled copy of
// each record.
func (s *SessionService) flushRelabeled(ctx context.Context, ownerID string, session *Session, label string) {
	if stamped := session.AdoptGroupLabel(label); stamped == nil {
		return
	}
	s.persist(s.records.Clear(ctx, ownerID), "clear")
	for _, record := range session.Records() {
		s.persist(s.records.Append(ctx, ownerID, record), "append")
	}
}

// LoadGroup swaps a saved group into the session, discarding any
// in-progress state, and resets the mirrored log.
func (s *SessionService) LoadGroup(ctx context.Context, ownerID, groupID string) (domain.SessionSnapshot, error) {
	group, err := s.groups.Get(ctx, ownerID, groupID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	session := s.sessions.GetOrCreate(ownerID)
	snapshot := session.LoadGroup(group)
	s.persist(s.records.Clear(ctx, ownerID), "clear")
	return snapshot, nil
}

// ListGroups returns the owner's saved groups.
func (s *SessionService) ListGroups(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	return s.groups.List(ctx, ownerID)
}

// DeleteGroup removes one saved group.
func (s *SessionService) DeleteGroup(ctx context.Context, ownerID, groupID string) error {
	return s.groups.Delete(ctx, ownerID, groupID)
}

// SeedFromCatalog hydrates the session's pools from the external catalog
// providers. Without a catalog it leaves the session untouched.
func (s *SessionService) SeedFromCatalog(ctx context.Context, ownerID string) (domain.SessionSnapshot, error) {
	session := s.sessions.GetOrCreate(ownerID)
	if s.catalog == nil || s.catalog.Questions == nil || s.catalog.Participants == nil {
		return session.Snapshot(), nil
	}
	questions, err := s.catalog.Questions.List(ctx, ownerID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	participants, err := s.catalog.Participants.List(ctx, ownerID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.SeedPools(questions, participants), nil
}

// persist logs and swallows store failures: durability is best-effort and
// the in-memory session stays authoritative.
func (s *SessionService) persist(err error, op string) {
	if err != nil {
		log.Printf("record store unavailable (%s): %v", op, err)
	}
}
