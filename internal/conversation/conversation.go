// Package conversation tracks which question each chat is expected to answer.
package conversation

import (
	"sync"
	"time"

	"manga_bot/internal/model"
)

// DefaultTimeout is how long a chat may take to answer a prompt.
const DefaultTimeout = 5 * time.Minute

// Store holds one ConversationState per chat.
type Store interface {
	// Enter puts the chat into mode, replacing any pending state and its timer.
	Enter(chatID int64, mode model.ConversationMode) model.ConversationState
	// Take returns the current state and resets the chat to idle.
	Take(chatID int64) model.ConversationState
	Get(chatID int64) model.ConversationState
	Reset(chatID int64)
	// Pending counts chats that are not idle.
	Pending() int
}

// ExpireFunc is called once when a pending state times out.
type ExpireFunc func(state model.ConversationState)

type entry struct {
	state model.ConversationState
	gen   uint64
	timer *time.Timer
}

// Memory is an in-process Store whose states expire after a timeout.
type Memory struct {
	mu       sync.Mutex
	entries  map[int64]*entry
	gen      uint64
	timeout  time.Duration
	onExpire ExpireFunc
	now      func() time.Time
}

// NewMemory creates a Memory store. onExpire may be nil.
func NewMemory(timeout time.Duration, onExpire ExpireFunc) *Memory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Memory{
		entries:  make(map[int64]*entry),
		timeout:  timeout,
		onExpire: onExpire,
		now:      time.Now,
	}
}

// Enter implements Store.
func (m *Memory) Enter(chatID int64, mode model.ConversationMode) model.ConversationState {
	if mode == model.ModeIdle {
		m.Reset(chatID)
		return idle(chatID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(chatID)

	m.gen++
	gen := m.gen
	e := &entry{
		state: model.ConversationState{
			ChatID:    chatID,
			Mode:      mode,
			ExpiresAt: m.now().Add(m.timeout),
		},
		gen: gen,
	}
	e.timer = time.AfterFunc(m.timeout, func() { m.expire(chatID, gen) })
	m.entries[chatID] = e
	return e.state
}

// Take implements Store.
func (m *Memory) Take(chatID int64) model.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return idle(chatID)
	}
	m.removeLocked(chatID)
	return e.state
}

// Get implements Store.
func (m *Memory) Get(chatID int64) model.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[chatID]; ok {
		return e.state
	}
	return idle(chatID)
}

// Reset implements Store.
func (m *Memory) Reset(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(chatID)
}

// Pending implements Store.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// removeLocked drops the chat's entry. A timer that already fired is
// neutralized by the generation check in expire.
func (m *Memory) removeLocked(chatID int64) {
	if e, ok := m.entries[chatID]; ok {
		e.timer.Stop()
		delete(m.entries, chatID)
	}
}

func (m *Memory) expire(chatID int64, gen uint64) {
	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok || e.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.entries, chatID)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(e.state)
	}
}

func idle(chatID int64) model.ConversationState {
	return model.ConversationState{ChatID: chatID, Mode: model.ModeIdle}
}
