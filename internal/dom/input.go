package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

type Modifiers struct {
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool
}

func (d *Document) keyTarget() *html.Node {
	if d.active != nil {
		return d.active
	}
	return d.body
}

// PressKey fires keydown on the focused element and, unless a listener
// prevents it, performs the browser's default editing action.
func (d *Document) PressKey(key string, mods Modifiers) bool {
	ev := &Event{
		Type: "keydown", Target: d.keyTarget(), Bubbles: true, Key: key,
		Ctrl: mods.Ctrl, Meta: mods.Meta, Alt: mods.Alt, Shift: mods.Shift,
	}
	if !d.Dispatch(ev) {
		return false
	}
	d.keyDefault(ev)
	return true
}

// TypeText presses one key per rune.
func (d *Document) TypeText(s string) {
	for _, r := range s {
		if r == '\n' {
			d.PressKey("Enter", Modifiers{Shift: true})
			continue
		}
		d.PressKey(string(r), Modifiers{})
	}
}

func (d *Document) keyDefault(ev *Event) {
	host := EditingHost(ev.Target)
	if host == nil {
		return
	}
	if ev.Mod() {
		if ev.Key == "a" || ev.Key == "A" {
			d.selectAll()
		}
		return
	}
	d.ensureCaretIn(host)

	switch ev.Key {
	case "Enter":
		if ev.Shift {
			d.input(host, "insertLineBreak", "")
		} else {
			d.input(host, "insertParagraph", "")
		}
	case "Backspace":
		d.input(host, "deleteContentBackward", "")
	case "Delete":
		d.input(host, "deleteContentForward", "")
	case "ArrowLeft", "ArrowRight":
		d.moveCaret(host, ev.Key == "ArrowRight", ev.Shift)
	case "Home":
		d.setSelection(Point{Node: host}, Point{Node: host})
	case "End":
		d.setSelection(EndOf(host), EndOf(host))
	default:
		if utf8.RuneCountInString(ev.Key) == 1 && !ev.Alt {
			d.input(host, "insertText", ev.Key)
		}
	}
}

func (d *Document) ensureCaretIn(host *html.Node) {
	if r := d.Selection(); r != nil && Contains(host, r.CommonAncestor()) {
		return
	}
	d.setSelection(EndOf(host), EndOf(host))
}

func (d *Document) moveCaret(host *html.Node, forward, extend bool) {
	r := d.Selection()
	if r == nil {
		return
	}
	if !extend && !r.Collapsed() {
		p := r.Start
		if forward {
			p = r.End
		}
		d.setSelection(p, p)
		return
	}
	next := StepBackward(d.focus, host)
	if forward {
		next = StepForward(d.focus, host)
	}
	if extend {
		d.setSelection(d.anchor, next)
		return
	}
	d.setSelection(next, next)
}

// input runs an input action the way a browser does: beforeinput, the
// mutation, then input on the editing host.
func (d *Document) input(host *html.Node, inputType, data string) {
	before := &Event{Type: "beforeinput", Target: host, Bubbles: true, InputType: inputType, Data: data}
	if !d.Dispatch(before) {
		return
	}
	changed := true
	switch inputType {
	case "insertText", "insertFromPaste":
		changed = d.ExecCommand("insertText", data)
	case "insertLineBreak", "insertParagraph":
		changed = d.ExecCommand("insertLineBreak", "")
	case "deleteContentBackward":
		changed = d.ExecCommand("delete", "")
	case "deleteContentForward":
		changed = d.ExecCommand("forwardDelete", "")
	}
	if !changed {
		return
	}
	d.Dispatch(&Event{Type: "input", Target: host, Bubbles: true, InputType: inputType, Data: data})
}

// Paste fires a paste event carrying dt at the focused element. Without a
// listener preventing it, the plain text is inserted.
func (d *Document) Paste(dt *DataTransfer) bool {
	target := d.keyTarget()
	ev := &Event{Type: "paste", Target: target, Bubbles: true, Clipboard: dt}
	if !d.Dispatch(ev) {
		return false
	}
	host := EditingHost(target)
	if host == nil {
		return true
	}
	d.ensureCaretIn(host)
	if text := dt.GetData("text/plain"); text != "" {
		d.input(host, "insertFromPaste", text)
	}
	return true
}

// Click fires click on n. Clicking editable content focuses its host.
func (d *Document) Click(n *html.Node) {
	if !d.Dispatch(&Event{Type: "click", Target: n, Bubbles: true}) {
		return
	}
	host := EditingHost(n)
	if host == nil {
		return
	}
	d.Focus(host)
	d.ensureCaretIn(host)
}
