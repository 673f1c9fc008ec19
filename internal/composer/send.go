package composer

import (
	"strings"

	"richinput/internal/dom"
	"richinput/internal/editable"
	"richinput/pkg/fmttext"
)

// SendHandler sends the composed text on Enter, or on Ctrl/Cmd+Enter when
// configured so. Shift+Enter always inserts a line break.
type SendHandler struct {
	ed        *editable.Editable
	onSend    func(fmttext.FormattedText)
	ctrlEnter bool
	remove    func()
}

func NewSendHandler(ed *editable.Editable, ctrlEnter bool, onSend func(fmttext.FormattedText)) *SendHandler {
	s := &SendHandler{ed: ed, onSend: onSend, ctrlEnter: ctrlEnter}
	s.remove = ed.AddKeyboardHandler(editable.KeyboardHandler{
		Priority:  editable.PriorityComposer,
		OnKeydown: s.onKeydown,
	})
	return s
}

func (s *SendHandler) Close() {
	if s.remove != nil {
		s.remove()
		s.remove = nil
	}
}

func (s *SendHandler) onKeydown(ev *dom.Event) bool {
	if ev.Key != "Enter" || ev.Shift || ev.Alt {
		return false
	}
	if s.ctrlEnter != ev.Mod() {
		return false
	}
	ev.PreventDefault()
	s.Send()
	return true
}

// Send hands the current text to the callback and clears the input. Blank
// input is not sent.
func (s *SendHandler) Send() bool {
	ft := s.ed.GetFormattedText(editable.GetOptions{})
	if strings.TrimSpace(ft.Text) == "" {
		return false
	}
	if s.onSend != nil {
		s.onSend(ft)
	}
	s.ed.ClearInput()
	s.ed.Logger().Debug().Int("length", len(ft.Text)).Msg("[composer] sent")
	return true
}
