package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Round pairs a chat with the celebrity currently being guessed there.
// Answer is always stored lowercased.
type Round struct {
	ID        uuid.UUID
	ChatID    int64
	Answer    string
	StartedAt time.Time
}

// Display returns the title-cased form of the answer.
func (r Round) Display() string {
	return Display(r.Answer)
}

// Store owns every active round, partitioned by chat.
// The presence of a round for a chat is the only "game active" signal.
type Store interface {
	Get(chatID int64) (Round, bool)
	Put(chatID int64, answer string) Round
	Remove(chatID int64)
	RemoveRound(r Round) bool
	Len() int
}

type memoryStore struct {
	mu     sync.RWMutex
	rounds map[int64]Round
	now    func() time.Time
}

// NewMemoryStore constructs an in-memory Store safe for concurrent use across chats.
func NewMemoryStore() Store {
	return &memoryStore{
		rounds: make(map[int64]Round),
		now:    time.Now,
	}
}

// Get returns the active round for a chat, if any.
func (m *memoryStore) Get(chatID int64) (Round, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rounds[chatID]
	return r, ok
}

// Put starts a new round for the chat, replacing any round already there.
func (m *memoryStore) Put(chatID int64, answer string) Round {
	r := Round{
		ID:        uuid.New(),
		ChatID:    chatID,
		Answer:    answer,
		StartedAt: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[chatID] = r
	return r
}

// Remove drops the round for a chat. Absent chats are a no-op.
func (m *memoryStore) Remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rounds, chatID)
}

// RemoveRound drops r only if it is still the active round of its chat.
// It reports whether this call performed the removal.
func (m *memoryStore) RemoveRound(r Round) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rounds[r.ChatID]
	if !ok || cur.ID != r.ID {
		return false
	}
	delete(m.rounds, r.ChatID)
	return true
}

// Len reports the number of chats with an active round.
func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}
