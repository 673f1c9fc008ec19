// Package headless is a window backend without a screen. Its windows
// deliver queued events, which makes scripted sessions reproducible.
package headless

import (
	"richinput/internal/platform"
	"richinput/internal/render"
)

type Backend struct {
	events []platform.Event
}

// New returns a backend whose next window delivers events in order.
func New(events ...platform.Event) *Backend { return &Backend{events: events} }

func (b *Backend) Name() string { return "headless" }

func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	w := &Window{
		title: cfg.Title,
		w:     cfg.WidthPx,
		h:     cfg.HeightPx,
		scale: 1.0,
		queue: b.events,
	}
	b.events = nil
	return w, nil
}

type Window struct {
	title  string
	w      int
	h      int
	scale  float32
	closed bool
	queue  []platform.Event
	last   *render.FrameBuffer
	frames int
}

// PollEvents returns queued events up to and including the next wait, so a
// host can advance its clock between batches. An exhausted queue closes the
// window.
func (w *Window) PollEvents() []platform.Event {
	if w.closed || len(w.queue) == 0 {
		w.closed = true
		return []platform.Event{{Type: platform.EventClose}}
	}
	n := len(w.queue)
	for i, ev := range w.queue {
		if ev.Type == platform.EventWait {
			n = i + 1
			break
		}
	}
	batch := w.queue[:n]
	w.queue = w.queue[n:]
	for _, ev := range batch {
		switch ev.Type {
		case platform.EventResize:
			w.w, w.h = ev.Width, ev.Height
		case platform.EventDPIChanged:
			w.scale = ev.Scale
		}
	}
	return batch
}

func (w *Window) SizePx() (int, int) { return w.w, w.h }
func (w *Window) Scale() float32     { return w.scale }
func (w *Window) Title() string      { return w.title }
func (w *Window) SetTitle(title string) {
	w.title = title
}

// Present keeps a copy of the latest frame.
func (w *Window) Present(fb *render.FrameBuffer) error {
	if fb == nil {
		return nil
	}
	if w.last == nil {
		w.last = render.NewFrameBuffer(fb.W, fb.H)
	}
	w.last.Resize(fb.W, fb.H)
	copy(w.last.Pixels, fb.Pixels)
	w.frames++
	return nil
}

func (w *Window) LastFrame() *render.FrameBuffer { return w.last }
func (w *Window) Frames() int                    { return w.frames }
func (w *Window) Close()                         { w.closed = true }
