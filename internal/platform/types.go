// Package platform describes host windows and the input events they
// deliver, and applies those events to an emulated document.
package platform

import (
	"richinput/internal/dom"
	"richinput/internal/render"
)

type WindowConfig struct {
	Title       string `yaml:"title"`
	WidthPx     int    `yaml:"width"`
	HeightPx    int    `yaml:"height"`
	MinWidthPx  int    `yaml:"min_width"`
	MinHeightPx int    `yaml:"min_height"`
}

type EventType int

const (
	EventUnknown EventType = iota
	EventClose
	EventResize
	EventDPIChanged
	EventKeyDown
	EventTextInput
	EventPaste
	EventFocus
	EventBlur
	EventVisibility
	EventWait
)

var eventNames = map[EventType]string{
	EventUnknown:    "unknown",
	EventClose:      "close",
	EventResize:     "resize",
	EventDPIChanged: "dpi",
	EventKeyDown:    "key",
	EventTextInput:  "text",
	EventPaste:      "paste",
	EventFocus:      "focus",
	EventBlur:       "blur",
	EventVisibility: "visibility",
	EventWait:       "wait",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return eventNames[EventUnknown]
}

type Event struct {
	Type   EventType
	Width  int
	Height int
	Scale  float32
	Key    string
	Mods   dom.Modifiers
	Text   string
	HTML   string
	Files  []dom.TransferItem
	Hidden bool
	// WaitMs advances the host clock before the next event.
	WaitMs int
}

type Platform interface {
	Name() string
	CreateWindow(cfg WindowConfig) (Window, error)
}

type Window interface {
	PollEvents() []Event
	SizePx() (int, int)
	Scale() float32
	Present(fb *render.FrameBuffer) error
	SetTitle(title string)
	Close()
}
