package retry

import (
	"sync"
	"time"
)

// Scheduler runs fn once after d. The returned stop function cancels the
// run and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// ManualScheduler only runs scheduled functions when told to. It is meant
// for tests that need deterministic control over time.
type ManualScheduler struct {
	mu        sync.Mutex
	timers    []*manualTimer
	scheduled []time.Duration
}

type manualTimer struct {
	delay time.Duration
	fn    func()
	done  bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := &manualTimer{delay: d, fn: fn}
	s.timers = append(s.timers, timer)
	s.scheduled = append(s.scheduled, d)

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if timer.done {
			return false
		}
		timer.done = true
		return true
	}
}

// Pending returns the delays of timers that have neither fired nor been
// stopped, in scheduling order.
func (s *ManualScheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []time.Duration
	for _, timer := range s.timers {
		if !timer.done {
			pending = append(pending, timer.delay)
		}
	}
	return pending
}

// Scheduled returns every delay ever scheduled, in order.
func (s *ManualScheduler) Scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.scheduled...)
}

// FireNext runs the oldest pending timer on the calling goroutine.
func (s *ManualScheduler) FireNext() (time.Duration, bool) {
	s.mu.Lock()
	var next *manualTimer
	for _, timer := range s.timers {
		if !timer.done {
			next = timer
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return 0, false
	}
	next.done = true
	s.mu.Unlock()

	next.fn()
	return next.delay, true
}
