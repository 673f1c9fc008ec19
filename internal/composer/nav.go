package composer

import (
	"richinput/internal/dom"
	"richinput/internal/editable"
)

// Tooltips take keys before the send handler so Enter picks an item
// instead of sending.
const priorityTooltip = editable.PriorityComposer + 1

// navigator moves a highlight through an open tooltip's items with the
// arrow keys and picks one with Enter or Tab.
type navigator struct {
	selected int
	isOpen   func() bool
	count    func() int
	onClose  func()
	onSelect func(int) bool
	remove   func()
}

func newNavigator(ed *editable.Editable, isOpen func() bool, count func() int, onClose func(), onSelect func(int) bool) *navigator {
	n := &navigator{isOpen: isOpen, count: count, onClose: onClose, onSelect: onSelect}
	n.remove = ed.AddKeyboardHandler(editable.KeyboardHandler{
		Priority:  priorityTooltip,
		OnKeydown: n.onKeydown,
	})
	return n
}

func (n *navigator) reset() { n.selected = 0 }

func (n *navigator) move(delta int) {
	count := n.count()
	if count == 0 {
		n.selected = 0
		return
	}
	n.selected = ((n.selected+delta)%count + count) % count
}

func (n *navigator) onKeydown(ev *dom.Event) bool {
	if !n.isOpen() || ev.Alt || ev.Ctrl || ev.Meta {
		return false
	}
	switch ev.Key {
	case "ArrowUp":
		n.move(-1)
	case "ArrowDown":
		n.move(1)
	case "Escape":
		n.onClose()
	case "Enter", "Tab":
		if ev.Shift || n.selected >= n.count() || !n.onSelect(n.selected) {
			return false
		}
	default:
		return false
	}
	ev.PreventDefault()
	return true
}
