package schedule

import "time"

// Debouncer runs only the last call once the delay has passed without a new
// one.
type Debouncer struct {
	s     *Scheduler
	delay time.Duration
	timer *Timer
}

func NewDebouncer(s *Scheduler, delay time.Duration) *Debouncer {
	return &Debouncer{s: s, delay: delay}
}

func (d *Debouncer) Call(fn func()) {
	d.timer.Stop()
	d.timer = d.s.AfterFunc(d.delay, func() {
		d.timer = nil
		fn()
	})
}

func (d *Debouncer) Cancel() {
	d.timer.Stop()
	d.timer = nil
}

func (d *Debouncer) Pending() bool { return d.timer != nil }

// Throttler runs the first call right away and at most one more, the latest,
// when the window closes.
type Throttler struct {
	s       *Scheduler
	window  time.Duration
	timer   *Timer
	pending func()
}

func NewThrottler(s *Scheduler, window time.Duration) *Throttler {
	return &Throttler{s: s, window: window}
}

func (t *Throttler) Call(fn func()) {
	if t.timer != nil {
		t.pending = fn
		return
	}
	fn()
	t.arm()
}

func (t *Throttler) arm() {
	t.timer = t.s.AfterFunc(t.window, func() {
		t.timer = nil
		if fn := t.pending; fn != nil {
			t.pending = nil
			fn()
			t.arm()
		}
	})
}

func (t *Throttler) Cancel() {
	t.timer.Stop()
	t.timer = nil
	t.pending = nil
}

func (t *Throttler) Pending() bool { return t.pending != nil }
