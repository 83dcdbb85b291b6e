package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by hand with a virtual clock.
// Tests call Advance to move time forward; nothing runs on its own.
//
// Post may be called from any goroutine (real process waiters do), but
// events only execute inside RunPending/Advance on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    int
	notify chan struct{}
}

type manualTimer struct {
	m       *Manual
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		notify: make(chan struct{}, 1),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Post queues fn.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// AfterFunc arms a virtual timer.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// PendingTimers returns the number of armed timers that have not fired.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// RunPending runs queued events, including ones queued while running,
// until the queue is empty. Returns the number of events run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// WaitPosted blocks until at least one event is queued or timeout elapses.
// Returns false on timeout. Used when real goroutines feed the queue.
func (m *Manual) WaitPosted(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		m.mu.Lock()
		queued := len(m.queue) > 0
		m.mu.Unlock()
		if queued {
			return true
		}

		select {
		case <-m.notify:
		case <-deadline:
			return false
		}
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining the event queue after each one.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.RunPending()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
		m.RunPending()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue pops the earliest live timer at or before target and moves the
// clock to its deadline.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	if len(live) == 0 {
		return nil
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].seq < live[j].seq
		}
		return live[i].at.Before(live[j].at)
	})

	t := live[0]
	if t.at.After(target) {
		return nil
	}
	t.fired = true
	if t.at.After(m.now) {
		m.now = t.at
	}
	return t
}
