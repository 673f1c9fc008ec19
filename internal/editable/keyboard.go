package editable

import (
	"sort"

	"richinput/internal/dom"
)

// Handler priorities. Higher runs first.
const (
	PriorityDefault  = 0
	PriorityTool     = 1
	PriorityComposer = 10
)

// KeyboardHandler sees keydown events on the root. Returning true consumes
// the event and stops lower priority handlers.
type KeyboardHandler struct {
	Priority  int
	OnKeydown func(ev *dom.Event) bool
}

type keyEntry struct {
	h  KeyboardHandler
	id uint64
}

// AddKeyboardHandler registers h and returns its remover. Handlers of equal
// priority run in registration order.
func (e *Editable) AddKeyboardHandler(h KeyboardHandler) func() {
	e.seq++
	entry := keyEntry{h: h, id: e.seq}
	i := sort.Search(len(e.keyboard), func(i int) bool {
		return e.keyboard[i].h.Priority < h.Priority
	})
	e.keyboard = append(e.keyboard, keyEntry{})
	copy(e.keyboard[i+1:], e.keyboard[i:])
	e.keyboard[i] = entry

	return func() {
		for i, other := range e.keyboard {
			if other.id == entry.id {
				e.keyboard = append(e.keyboard[:i], e.keyboard[i+1:]...)
				return
			}
		}
	}
}

func (e *Editable) KeyboardHandlers() int { return len(e.keyboard) }

func (e *Editable) onKeydown(ev *dom.Event) {
	handlers := append([]keyEntry(nil), e.keyboard...)
	for _, entry := range handlers {
		if entry.h.OnKeydown != nil && entry.h.OnKeydown(ev) {
			break
		}
	}
	e.updateSelection()
}
