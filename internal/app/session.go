package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"dollyeo/internal/domain"
	"dollyeo/internal/pool"
	"dollyeo/internal/roulette"
)

// Session is the in-memory spin-the-wheel state machine: a question pool, a
// participant turn order, a cursor, the current round, and the append-only
// outcome log. The session itself is the source of truth during play; the
// record store is a best-effort mirror.
type Session struct {
	id     string
	now    func() time.Time
	picker *roulette.Picker

	mu           sync.RWMutex
	groupLabel   string
	questions    pool.QuestionPool
	participants pool.ParticipantPool
	cursor       int
	round        int
	records      []domain.Outcome
	subscribers  map[chan domain.SessionSnapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed
// sessions.
func NewSession(id string, picker *roulette.Picker) *Session {
	return newSessionWithClock(id, picker, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, picker *roulette.Picker, now func() time.Time) *Session {
	return newSessionWithClock(id, picker, now)
}

func newSessionWithClock(id string, picker *roulette.Picker, now func() time.Time) *Session {
	if picker == nil {
		picker = roulette.New(nil)
	}
	return &Session{
		id:          id,
		now:         now,
		picker:      picker,
		round:       1,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// CanSpin reports whether a spin would succeed: at least one participant
// and one unused question.
func (s *Session) CanSpin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants) > 0 && len(s.questions.Available()) > 0
}

// Spin draws an unused question uniformly at random for the current
// participant, marks it used, and appends an outcome to the log.
func (s *Session) Spin() (domain.Question, domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.participants) == 0 {
		return domain.Question{}, domain.Outcome{}, domain.ErrNoParticipants
	}
	available := s.questions.Available()
	if len(available) == 0 {
		return domain.Question{}, domain.Outcome{}, domain.ErrNoQuestionsAvailable
	}

	question, err := roulette.SelectRandom(s.picker, []domain.Question(available))
	if err != nil {
		return domain.Question{}, domain.Outcome{}, err
	}
	s.questions = s.questions.ToggleUsed(question.ID)
	question.IsUsed = true

	current := s.participants[s.cursor]
	outcome := domain.Outcome{
		ID:              uuid.New().String(),
		ParticipantID:   current.ID,
		ParticipantName: current.Name,
		QuestionID:      question.ID,
		QuestionContent: question.Content,
		Round:           s.round,
		Timestamp:       s.now(),
		GroupLabel:      s.groupLabel,
	}
	s.records = append(s.records, outcome)

	s.broadcastLocked()
	return question, outcome, nil
}

// Advance moves the turn to the next participant. When the cursor wraps
// from the last position back to 0, the round increments: one round is one
// full pass over all participants.
func (s *Session) Advance() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.participants) > 0 {
		if s.cursor < len(s.participants)-1 {
			s.cursor++
		} else {
			s.cursor = 0
			s.round++
		}
	}
	return s.broadcastLocked()
}

// MarkOutcome sets the correctness flag on the most recent record only.
// Earlier records are immutable; an empty log is a no-op.
func (s *Session) MarkOutcome(isCorrect bool) (domain.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return domain.Outcome{}, false
	}
	last := &s.records[len(s.records)-1]
	correct := isCorrect
	last.IsCorrect = &correct
	updated := *last

	s.broadcastLocked()
	return updated, true
}

// Reset returns the session to its starting state: all questions unused,
// cursor 0, round 1, empty log. Calling it twice is the same as once.
func (s *Session) Reset() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = s.questions.ResetUsed()
	s.cursor = 0
	s.round = 1
	s.records = nil
	return s.broadcastLocked()
}

// LoadGroup swaps in a saved group. Any in-progress state is discarded
// unconditionally; loaded questions start unused.
func (s *Session) LoadGroup(group domain.QuestionGroup) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = pool.NewQuestionPool(group.Questions).ResetUsed()
	s.participants = pool.NewParticipantPool(group.Participants)
	s.groupLabel = group.Name
	s.cursor = 0
	s.round = 1
	s.records = nil
	return s.broadcastLocked()
}

// AdoptGroupLabel attaches the session to a saved group: future outcomes
// carry the label, and records logged before the save are stamped with it.
// The stamped records are returned so the caller can mirror them.
func (s *Session) AdoptGroupLabel(label string) []domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groupLabel = label
	var stamped []domain.Outcome
	for i := range s.records {
		if s.records[i].GroupLabel == "" {
			s.records[i].GroupLabel = label
			stamped = append(stamped, s.records[i])
		}
	}
	if stamped != nil {
		s.broadcastLocked()
	}
	return stamped
}

// SeedPools replaces both pools without touching round or records; used
// when hydrating a fresh session from the catalog.
func (s *Session) SeedPools(questions []domain.Question, participants []domain.Participant) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = pool.NewQuestionPool(questions)
	s.participants = pool.NewParticipantPool(participants)
	s.clampCursorLocked()
	return s.broadcastLocked()
}

// AddQuestion appends a question to the pool.
func (s *Session) AddQuestion(content string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, question, err := s.questions.Add(content)
	if err != nil {
		return domain.Question{}, err
	}
	s.questions = next
	s.broadcastLocked()
	return question, nil
}

// RemoveQuestion drops a question from the pool.
func (s *Session) RemoveQuestion(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = s.questions.Remove(id)
	s.broadcastLocked()
}

// ToggleQuestionUsed flips the used flag on a question.
func (s *Session) ToggleQuestionUsed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = s.questions.ToggleUsed(id)
	s.broadcastLocked()
}

// UpdateQuestion replaces a question's content.
func (s *Session) UpdateQuestion(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.questions.Update(id, content)
	if err != nil {
		return err
	}
	s.questions = next
	s.broadcastLocked()
	return nil
}

// ClearQuestions empties the question pool.
func (s *Session) ClearQuestions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = s.questions.Clear()
	s.broadcastLocked()
}

// AddParticipant appends a participant to the turn order.
func (s *Session) AddParticipant(name string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, participant, err := s.participants.Add(name)
	if err != nil {
		return domain.Participant{}, err
	}
	s.participants = next
	s.clampCursorLocked()
	s.broadcastLocked()
	return participant, nil
}

// RemoveParticipant drops a participant and re-clamps the cursor into the
// new valid range.
func (s *Session) RemoveParticipant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants = s.participants.Remove(id)
	s.clampCursorLocked()
	s.broadcastLocked()
}

// ShuffleParticipants randomizes the turn order.
func (s *Session) ShuffleParticipants() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants = s.participants.Shuffle(s.picker)
	s.clampCursorLocked()
	s.broadcastLocked()
}

// HasDuplicateParticipant reports whether the trimmed name is already in
// the turn order.
func (s *Session) HasDuplicateParticipant(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participants.IsDuplicate(name)
}

// Records returns a copy of the outcome log.
func (s *Session) Records() []domain.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.Outcome, len(s.records))
	copy(records, s.records)
	return records
}

// Pools returns copies of both pools, used when snapshotting a group.
func (s *Session) Pools() (pool.QuestionPool, pool.ParticipantPool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pool.NewQuestionPool(s.questions), pool.NewParticipantPool(s.participants)
}

// GroupLabel returns the label of the loaded group, if any.
func (s *Session) GroupLabel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupLabel
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every
// mutation. The caller must invoke the returned cancel function.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// clampCursorLocked restores the cursor invariant after any participant
// pool mutation: always within [0, len) while the pool is non-empty.
func (s *Session) clampCursorLocked() {
	if len(s.participants) == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= len(s.participants) {
		s.cursor = len(s.participants) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Session) broadcastLocked() domain.SessionSnapshot {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so a slow subscriber never blocks play.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		SessionID:      s.id,
		GroupLabel:     s.groupLabel,
		Round:          s.round,
		Participants:   append([]domain.Participant(nil), s.participants...),
		Questions:      append([]domain.Question(nil), s.questions...),
		AvailableCount: len(s.questions.Available()),
		Records:        append([]domain.Outcome(nil), s.records...),
		UpdatedAt:      s.now(),
	}
	if len(s.participants) > 0 {
		current := s.participants[s.cursor]
		snapshot.CurrentParticipant = &current
	}
	return snapshot
}
