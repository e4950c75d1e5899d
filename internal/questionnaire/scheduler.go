package questionnaire

import "time"

// Task is a scheduled one-shot callback.
type Task interface {
	// Stop cancels the callback; it reports false if it already fired or was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks. Sessions own every task they arm.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// RealScheduler runs callbacks on runtime timers.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// slot is a cancellable task tagged with a generation so a callback that
// raced its own cancellation can recognise itself as stale.
type slot struct {
	task Task
	gen  uint64
}

func (s *slot) live(gen uint64) bool {
	return s.task != nil && s.gen == gen
}

func (s *slot) cancel() {
	if s.task != nil {
		s.task.Stop()
	}
	s.task = nil
	s.gen = 0
}
