package store

import (
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"cyber-assist-backend/internal/intake"
)

type Message struct {
	Role    string
	Content string
}

// session holds everything kept for one browser session. Its mutex serializes
// intake transitions so two requests never interleave on the same report.
type session struct {
	mu      sync.Mutex
	history []Message
	intake  intake.State
}

// MemoryStore keeps sessions in a bounded LRU; the least recently used
// session (history and in-progress report) is dropped when full.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    *lru.Cache[string, *session]
	maxMessages int
}

func NewMemoryStore(maxSessions, maxMessages int) (*MemoryStore, error) {
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	cache, err := lru.NewWithEvict[string, *session](maxSessions, func(id string, _ *session) {
		log.Printf("[session] evicted %s", id)
	})
	if err != nil {
		return nil, err
	}
	return &MemoryStore{sessions: cache, maxMessages: maxMessages}, nil
}

func (m *MemoryStore) get(sessionID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions.Get(sessionID); ok {
		return s
	}
	s := &session{}
	m.sessions.Add(sessionID, s)
	return s
}

func (m *MemoryStore) Append(sessionID string, msgs ...Message) {
	s := m.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
	s.trimLocked(m.maxMessages)
}

func (m *MemoryStore) Get(sessionID string) []Message {
	s := m.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (m *MemoryStore) Set(sessionID string, msgs []Message) {
	s := m.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]Message(nil), msgs...)
	s.trimLocked(m.maxMessages)
}

func (s *session) trimLocked(max int) {
	if max <= 0 {
		return
	}
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
}

// WithIntake runs fn with exclusive access to the session's intake state.
// fn must not call back into the store for the same session.
func (m *MemoryStore) WithIntake(sessionID string, fn func(st *intake.State)) {
	s := m.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.intake)
}

// Intake returns a copy of the session's intake state.
func (m *MemoryStore) Intake(sessionID string) intake.State {
	s := m.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.intake.Clone()
}

// Drop forgets a session entirely.
func (m *MemoryStore) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Remove(sessionID)
}

func (m *MemoryStore) Len() int {
	return m.sessions.Len()
}
