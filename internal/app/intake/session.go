package intake

import (
	"sync"
	"time"

	"github.com/homecare-labs/intake-api/internal/domain"
)

// Session is the conversation store for one active interview: the ordered
// turns, the session language, and the pipeline state. It is the single
// source of truth for what has been said. Sessions live in memory only;
// nothing is persisted until profile generation completes.
type Session struct {
	ID   domain.SessionID
	User domain.UserContext

	mu        sync.Mutex
	language  string
	state     domain.SessionState
	turns     []domain.Turn
	createdAt time.Time
	updatedAt time.Time
}

func newSession(id domain.SessionID, user domain.UserContext, language string, now time.Time) *Session {
	return &Session{
		ID:        id,
		User:      user,
		language:  language,
		state:     domain.StateIdle,
		createdAt: now,
		updatedAt: now,
	}
}

// Append adds a turn at the end of the conversation. Turns are never
// deduplicated or rewritten.
func (s *Session) Append(turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	s.updatedAt = time.Now()
}

// Turns returns a copy of the ordered turn sequence.
func (s *Session) Turns() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the current turn count.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Clear resets the conversation after a successful profile hand-off.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage changes the session language. Prior turns are not rewritten;
// the pipeline injects a synthetic user turn announcing the change.
func (s *Session) SetLanguage(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
}

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// begin transitions from -> to atomically. It returns false when the session
// is not in the expected state, which is how the one-outstanding-call gate
// rejects double submits and out-of-order sends.
func (s *Session) begin(from, to domain.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

// settle restores the session to idle after a request cycle, whatever its
// outcome. The pipeline has no terminal state.
func (s *Session) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.StateIdle
}
