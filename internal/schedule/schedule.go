// Package schedule batches DOM reads and writes and runs timers on the
// host's loop. Nothing here starts goroutines: the host calls Tick once per
// frame and every callback runs on that call.
package schedule

import (
	"sort"
	"time"

	"github.com/benbjohnson/clock"
)

type Scheduler struct {
	clk clock.Clock

	measures      []func()
	mutations     []func()
	nextMutations []func()

	timers []*Timer
	seq    uint64

	flushing bool
}

type Timer struct {
	s        *Scheduler
	deadline time.Time
	seq      uint64
	fn       func()
	stopped  bool
}

func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clk: clk}
}

func (s *Scheduler) Clock() clock.Clock { return s.clk }

// RequestMeasure queues a layout read. Measures run before the mutations of
// the same flush.
func (s *Scheduler) RequestMeasure(fn func()) {
	s.measures = append(s.measures, fn)
}

func (s *Scheduler) RequestMutation(fn func()) {
	s.mutations = append(s.mutations, fn)
}

// RequestNextMutation queues a write for the flush after the current one.
func (s *Scheduler) RequestNextMutation(fn func()) {
	s.nextMutations = append(s.nextMutations, fn)
}

// ForceMutation runs fn synchronously, outside of any batch.
func (s *Scheduler) ForceMutation(fn func()) {
	fn()
}

func (s *Scheduler) Pending() int {
	return len(s.measures) + len(s.mutations) + len(s.nextMutations)
}

// Flush drains measures then mutations until both queues stay empty. Work
// queued with RequestNextMutation becomes due for the following Flush.
func (s *Scheduler) Flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	for len(s.measures) > 0 || len(s.mutations) > 0 {
		measures := s.measures
		s.measures = nil
		for _, fn := range measures {
			fn()
		}
		mutations := s.mutations
		s.mutations = nil
		for _, fn := range mutations {
			fn()
		}
	}
	s.mutations = append(s.mutations, s.nextMutations...)
	s.nextMutations = nil
}

// AfterFunc schedules fn to run on the first Tick at or after d from now.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{s: s, deadline: s.clk.Now().Add(d), seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	sort.SliceStable(s.timers, func(i, j int) bool {
		a, b := s.timers[i], s.timers[j]
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.seq < b.seq
	})
	return t
}

// Stop cancels the timer and reports whether it was still pending.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range t.s.timers {
		if other == t {
			t.s.timers = append(t.s.timers[:i], t.s.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scheduler) ActiveTimers() int { return len(s.timers) }

// Tick fires due timers in deadline order and then flushes.
func (s *Scheduler) Tick() {
	now := s.clk.Now()
	for len(s.timers) > 0 && !s.timers[0].deadline.After(now) {
		t := s.timers[0]
		s.timers = s.timers[1:]
		t.stopped = true
		t.fn()
	}
	s.Flush()
}
