package server

import (
	"sync"
	"time"
)

// timerScheduler keeps at most one pending callback per key.
type timerScheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	ScheduleIfIdle(key string, delay time.Duration, fn func()) bool
	Cancel(key string)
}

type roomTimer struct {
	id    uint64
	timer *time.Timer
}

type roomTimers struct {
	mu     sync.Mutex
	nextID uint64
	timers map[string]roomTimer
}

func newRoomTimers() *roomTimers {
	return &roomTimers{timers: make(map[string]roomTimer)}
}

// Schedule replaces whatever is pending for key.
func (t *roomTimers) Schedule(key string, delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scheduleLocked(key, delay, fn)
}

func (t *roomTimers) ScheduleIfIdle(key string, delay time.Duration, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.timers[key]; ok {
		return false
	}
	t.scheduleLocked(key, delay, fn)
	return true
}

func (t *roomTimers) scheduleLocked(key string, delay time.Duration, fn func()) {
	if existing, ok := t.timers[key]; ok {
		existing.timer.Stop()
	}
	if delay < 0 {
		delay = 0
	}
	t.nextID++
	id := t.nextID
	t.timers[key] = roomTimer{
		id: id,
		timer: time.AfterFunc(delay, func() {
			t.mu.Lock()
			if current, ok := t.timers[key]; ok && current.id == id {
				delete(t.timers, key)
			}
			t.mu.Unlock()
			fn()
		}),
	}
}

func (t *roomTimers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[key]; ok {
		existing.timer.Stop()
		delete(t.timers, key)
	}
}

func (t *roomTimers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

func sweepKey(roomID string) string {
	return "sweep:" + roomID
}

func leaveKey(connID string) string {
	return "leave:" + connID
}
