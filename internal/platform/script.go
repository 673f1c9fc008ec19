package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"richinput/internal/dom"
)

var (
	ErrEmptyStep       = errors.New("platform: script step has no action")
	ErrAmbiguousStep   = errors.New("platform: script step has more than one action")
	ErrUnknownModifier = errors.New("platform: unknown key modifier")
)

// Script is a recorded input session.
type Script struct {
	Window WindowConfig `yaml:"window"`
	Steps  []Step       `yaml:"steps"`
}

type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type PasteStep struct {
	Text string `yaml:"text"`
	HTML string `yaml:"html"`
}

// Step holds exactly one action.
type Step struct {
	Key    string        `yaml:"key"`
	Mods   []string      `yaml:"mods"`
	Text   *string       `yaml:"text"`
	Paste  *PasteStep    `yaml:"paste"`
	Resize *Size         `yaml:"resize"`
	DPI    float32       `yaml:"dpi"`
	Wait   time.Duration `yaml:"wait"`
	Hidden *bool         `yaml:"hidden"`
	Focus  bool          `yaml:"focus"`
	Blur   bool          `yaml:"blur"`
}

func LoadScript(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(b)
}

func ParseScript(b []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if s.Window.WidthPx == 0 {
		s.Window.WidthPx = 800
	}
	if s.Window.HeightPx == 0 {
		s.Window.HeightPx = 600
	}
	return &s, nil
}

func (s *Script) Events() ([]Event, error) {
	events := make([]Event, 0, len(s.Steps))
	for i, st := range s.Steps {
		ev, err := st.Event()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (st Step) Event() (Event, error) {
	var out []Event
	if st.Key != "" {
		mods, err := parseMods(st.Mods)
		if err != nil {
			return Event{}, err
		}
		out = append(out, Event{Type: EventKeyDown, Key: st.Key, Mods: mods})
	}
	if st.Text != nil {
		out = append(out, Event{Type: EventTextInput, Text: *st.Text})
	}
	if st.Paste != nil {
		out = append(out, Event{Type: EventPaste, Text: st.Paste.Text, HTML: st.Paste.HTML})
	}
	if st.Resize != nil {
		out = append(out, Event{Type: EventResize, Width: st.Resize.Width, Height: st.Resize.Height})
	}
	if st.DPI > 0 {
		out = append(out, Event{Type: EventDPIChanged, Scale: st.DPI})
	}
	if st.Wait > 0 {
		out = append(out, Event{Type: EventWait, WaitMs: int(st.Wait / time.Millisecond)})
	}
	if st.Hidden != nil {
		out = append(out, Event{Type: EventVisibility, Hidden: *st.Hidden})
	}
	if st.Focus {
		out = append(out, Event{Type: EventFocus})
	}
	if st.Blur {
		out = append(out, Event{Type: EventBlur})
	}
	switch len(out) {
	case 0:
		return Event{}, ErrEmptyStep
	case 1:
		return out[0], nil
	}
	return Event{}, ErrAmbiguousStep
}

func parseMods(names []string) (dom.Modifiers, error) {
	var m dom.Modifiers
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ctrl", "control":
			m.Ctrl = true
		case "meta", "cmd":
			m.Meta = true
		case "alt", "option":
			m.Alt = true
		case "shift":
			m.Shift = true
		default:
			return dom.Modifiers{}, fmt.Errorf("%w: %q", ErrUnknownModifier, name)
		}
	}
	return m, nil
}
