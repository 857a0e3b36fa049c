package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"manga_bot/internal/model"
)

type expiryLog struct {
	mu     sync.Mutex
	states []model.ConversationState
	fired  chan struct{}
}

func newExpiryLog() *expiryLog {
	return &expiryLog{fired: make(chan struct{}, 16)}
}

func (l *expiryLog) record(s model.ConversationState) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
	l.fired <- struct{}{}
}

func (l *expiryLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

func waitFired(t *testing.T, l *expiryLog) {
	t.Helper()
	select {
	case <-l.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout did not fire")
	}
}

func TestEnterAndTake(t *testing.T) {
	m := NewMemory(time.Hour, nil)

	got := m.Enter(1, model.ModeAwaitingAdd)
	if diff := cmp.Diff(model.ModeAwaitingAdd, got.Mode); diff != "" {
		t.Errorf("Enter mode mismatch (-want +got):\n%s", diff)
	}
	if got.ExpiresAt.IsZero() {
		t.Error("expected ExpiresAt to be set")
	}
	if diff := cmp.Diff(1, m.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}

	taken := m.Take(1)
	if diff := cmp.Diff(got, taken); diff != "" {
		t.Errorf("Take mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeIdle, m.Get(1).Mode); diff != "" {
		t.Errorf("state after Take mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeIdle, m.Take(1).Mode); diff != "" {
		t.Errorf("second Take mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, m.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestEnterReplacesPreviousMode(t *testing.T) {
	m := NewMemory(time.Hour, nil)

	m.Enter(1, model.ModeAwaitingAdd)
	m.Enter(1, model.ModeAwaitingDelete)

	if diff := cmp.Diff(model.ModeAwaitingDelete, m.Get(1).Mode); diff != "" {
		t.Errorf("mode mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, m.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestEnterIdleResets(t *testing.T) {
	m := NewMemory(time.Hour, nil)
	m.Enter(1, model.ModeAwaitingAdd)
	m.Enter(1, model.ModeIdle)
	if diff := cmp.Diff(0, m.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeoutFiresOnce(t *testing.T) {
	log := newExpiryLog()
	m := NewMemory(20*time.Millisecond, log.record)

	m.Enter(7, model.ModeAwaitingAdd)
	waitFired(t, log)

	time.Sleep(60 * time.Millisecond)
	if diff := cmp.Diff(1, log.count()); diff != "" {
		t.Errorf("expiry count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeIdle, m.Get(7).Mode); diff != "" {
		t.Errorf("mode after timeout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeAwaitingAdd, log.states[0].Mode); diff != "" {
		t.Errorf("expired state mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceCancelsOldTimer(t *testing.T) {
	log := newExpiryLog()
	m := NewMemory(40*time.Millisecond, log.record)

	m.Enter(7, model.ModeAwaitingAdd)
	time.Sleep(20 * time.Millisecond)
	m.Enter(7, model.ModeAwaitingDelete)

	waitFired(t, log)
	time.Sleep(80 * time.Millisecond)

	if diff := cmp.Diff(1, log.count()); diff != "" {
		t.Errorf("expiry count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeAwaitingDelete, log.states[0].Mode); diff != "" {
		t.Errorf("expired state mismatch (-want +got):\n%s", diff)
	}
}

func TestTakeCancelsTimer(t *testing.T) {
	log := newExpiryLog()
	m := NewMemory(20*time.Millisecond, log.record)

	m.Enter(3, model.ModeAwaitingDelete)
	m.Take(3)
	time.Sleep(60 * time.Millisecond)

	if diff := cmp.Diff(0, log.count()); diff != "" {
		t.Errorf("expiry count mismatch (-want +got):\n%s", diff)
	}
}

func TestStaleTimerIsNoop(t *testing.T) {
	log := newExpiryLog()
	m := NewMemory(time.Hour, log.record)

	m.Enter(9, model.ModeAwaitingAdd)
	m.mu.Lock()
	staleGen := m.entries[9].gen
	m.mu.Unlock()

	m.Enter(9, model.ModeAwaitingAdd)
	m.expire(9, staleGen)

	if diff := cmp.Diff(0, log.count()); diff != "" {
		t.Errorf("stale timer should not expire (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.ModeAwaitingAdd, m.Get(9).Mode); diff != "" {
		t.Errorf("mode mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMemory(5*time.Millisecond, func(model.ConversationState) {})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Enter(chat%5, model.ModeAwaitingAdd)
				_ = m.Get(chat % 5)
				m.Take(chat % 5)
			}
		}(int64(i))
	}
	wg.Wait()

	if m.Pending() > 5 {
		t.Errorf("pending states exceed number of chats: %d", m.Pending())
	}
}

func TestDefaultTimeout(t *testing.T) {
	m := NewMemory(0, nil)
	if diff := cmp.Diff(DefaultTimeout, m.timeout); diff != "" {
		t.Errorf("timeout mismatch (-want +got):\n%s", diff)
	}
}
