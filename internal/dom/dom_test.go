package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func editableDoc(t *testing.T, markup string) (*Document, *html.Node) {
	t.Helper()
	d := NewDocument()
	root := NewElement("div", html.Attribute{Key: "contenteditable", Val: "true"})
	d.Body().AppendChild(root)
	SetInnerHTML(root, markup)
	return d, root
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindText, KindOf(NewText("x")))
	assert.Equal(t, KindElement, KindOf(NewElement("b")))
	assert.Equal(t, KindOther, KindOf(&html.Node{Type: html.CommentNode}))
	assert.Equal(t, KindOther, KindOf(nil))
}

func TestComparePoints(t *testing.T) {
	_, root := editableDoc(t, "ab<b>cd</b>ef")
	text := root.FirstChild
	bold := text.NextSibling
	boldText := bold.FirstChild

	assert.Equal(t, -1, Compare(Point{Node: text, Offset: 1}, Point{Node: boldText}))
	assert.Equal(t, -1, Compare(Point{Node: root, Offset: 1}, Point{Node: boldText, Offset: 0}))
	assert.Equal(t, 1, Compare(Point{Node: root, Offset: 2}, Point{Node: boldText, Offset: 2}))
	assert.Equal(t, 0, Compare(Point{Node: bold, Offset: 1}, Point{Node: bold, Offset: 1}))
	assert.Equal(t, -1, Compare(Point{Node: root}, Point{Node: text}))
}

func TestRangeCloneAndDeleteContents(t *testing.T) {
	_, root := editableDoc(t, "ab<b>cd</b>ef")
	text := root.FirstChild
	boldText := text.NextSibling.FirstChild
	r := NewRange(Point{Node: text, Offset: 1}, Point{Node: boldText, Offset: 1})

	assert.Equal(t, "b<b>c</b>", InnerHTML(r.CloneContents()))
	assert.Equal(t, "ab<b>cd</b>ef", InnerHTML(root))

	r.DeleteContents()
	assert.True(t, r.Collapsed())
	assert.Equal(t, "a<b>d</b>ef", InnerHTML(root))
	assert.Equal(t, Point{Node: text, Offset: 1}, r.Start)
}

func TestDeleteContentsRemovesContainedElements(t *testing.T) {
	_, root := editableDoc(t, `x<img alt="e" class="custom-emoji"/>y`)
	img := root.FirstChild.NextSibling
	r := SelectNode(img)
	r.DeleteContents()
	assert.Equal(t, "xy", TextContent(root))
	assert.Equal(t, 2, ChildCount(root))
}

func TestInsertNodeSplitsText(t *testing.T) {
	_, root := editableDoc(t, "hello")
	r := Caret(Point{Node: root.FirstChild, Offset: 2})
	after := r.InsertNode(NewElement("br"))
	assert.Equal(t, "he<br/>llo", InnerHTML(root))
	assert.Equal(t, Point{Node: root, Offset: 2}, after)
}

func TestStepBackwardAndForward(t *testing.T) {
	_, root := editableDoc(t, `aé<img alt="x"/><b>c</b>`)
	end := EndOf(root)

	p := StepBackward(end, root)
	assert.Equal(t, "c", p.Node.Data)
	assert.Equal(t, 0, p.Offset)

	p = StepBackward(p, root)
	assert.Equal(t, Point{Node: root, Offset: 1}, p)

	p = StepBackward(p, root)
	assert.Equal(t, Point{Node: root.FirstChild, Offset: 1}, p)

	p = StepForward(Point{Node: root.FirstChild, Offset: 1}, root)
	assert.Equal(t, Point{Node: root.FirstChild, Offset: 3}, p)

	start := Point{Node: root}
	assert.Equal(t, start, StepBackward(start, root))
}

func TestDispatchBubblesAndCountsListeners(t *testing.T) {
	d, root := editableDoc(t, "x")
	var order []string
	rm1 := d.AddEventListener(root, "keydown", func(e *Event) { order = append(order, "root") })
	rm2 := d.AddEventListener(d.Body(), "keydown", func(e *Event) {
		order = append(order, "body")
		e.PreventDefault()
	})
	rm3 := d.AddEventListener(nil, "keydown", func(e *Event) { order = append(order, "document") })
	assert.Equal(t, 3, d.ListenerCount())

	ok := d.Dispatch(&Event{Type: "keydown", Target: root.FirstChild, Bubbles: true})
	assert.False(t, ok)
	assert.Equal(t, []string{"root", "body", "document"}, order)

	rm1()
	rm1()
	rm2()
	rm3()
	assert.Zero(t, d.ListenerCount())
}

func TestExecInsertTextAndHTML(t *testing.T) {
	d, root := editableDoc(t, "hi")
	d.SetSelection(Caret(EndOf(root.FirstChild)))

	require.True(t, d.ExecCommand("insertText", " there"))
	assert.Equal(t, "hi there", InnerHTML(root))

	require.True(t, d.ExecCommand("insertHTML", "<b>!</b>"))
	assert.Equal(t, "hi there<b>!</b>", InnerHTML(root))
	r := d.Selection()
	require.NotNil(t, r)
	assert.Equal(t, Point{Node: root, Offset: 2}, r.Start)
}

func TestExecOutsideEditingHostFails(t *testing.T) {
	d := NewDocument()
	p := NewElement("p")
	p.AppendChild(NewText("static"))
	d.Body().AppendChild(p)
	d.SetSelection(Caret(Point{Node: p.FirstChild, Offset: 2}))
	assert.False(t, d.ExecCommand("insertText", "x"))
	assert.Equal(t, "static", TextContent(p))
}

func TestExecToggleBold(t *testing.T) {
	d, root := editableDoc(t, "hello world")
	text := root.FirstChild
	d.SetSelection(NewRange(Point{Node: text, Offset: 6}, Point{Node: text, Offset: 11}))

	require.True(t, d.ExecCommand("bold", ""))
	assert.Equal(t, "hello <b>world</b>", InnerHTML(root))
	assert.True(t, d.QueryCommandState("bold"))

	require.True(t, d.ExecCommand("bold", ""))
	assert.Equal(t, "hello world", TextContent(root))
	assert.NotContains(t, InnerHTML(root), "<b>")
}

func TestExecUnboldPartOfSpan(t *testing.T) {
	d, root := editableDoc(t, "<b>abcd</b>")
	text := root.FirstChild.FirstChild
	d.SetSelection(NewRange(Point{Node: text, Offset: 1}, Point{Node: text, Offset: 3}))

	require.True(t, d.ExecCommand("bold", ""))
	assert.Equal(t, "<b>a</b>bc<b>d</b>", InnerHTML(root))
}

func TestExecDeleteRemovesAtomicNode(t *testing.T) {
	d, root := editableDoc(t, `a<img alt="x"/>`)
	d.SetSelection(Caret(EndOf(root)))
	require.True(t, d.ExecCommand("delete", ""))
	assert.Equal(t, "a", InnerHTML(root))
	require.True(t, d.ExecCommand("delete", ""))
	assert.Equal(t, "", InnerHTML(root))
	assert.False(t, d.ExecCommand("delete", ""))
}

func TestExecRemoveFormatCollapsedDropsEmptyWrappers(t *testing.T) {
	d, root := editableDoc(t, "<b><br/></b>")
	d.SetSelection(Caret(Point{Node: root.FirstChild}))
	require.True(t, d.ExecCommand("removeFormat", ""))
	assert.Equal(t, "<br/>", InnerHTML(root))
}

func TestTypingAndBackspace(t *testing.T) {
	d, root := editableDoc(t, "")
	d.Focus(root)
	var inputs int
	d.AddEventListener(root, "input", func(*Event) { inputs++ })

	d.TypeText("abc")
	assert.Equal(t, "abc", InnerHTML(root))
	d.PressKey("Backspace", Modifiers{})
	assert.Equal(t, "ab", InnerHTML(root))
	d.PressKey("ArrowLeft", Modifiers{})
	d.TypeText("X")
	assert.Equal(t, "aXb", InnerHTML(root))
	assert.Equal(t, 5, inputs)
}

func TestPasteDefaultInsertsPlainText(t *testing.T) {
	d, root := editableDoc(t, "")
	d.Focus(root)
	dt := NewDataTransfer()
	dt.SetData("text/plain", "pasted")
	dt.SetData("text/html", "<b>pasted</b>")
	assert.True(t, d.Paste(dt))
	assert.Equal(t, "pasted", InnerHTML(root))
}

func TestFocusEvents(t *testing.T) {
	d, root := editableDoc(t, "")
	other := NewElement("input")
	d.Body().AppendChild(other)
	var got []string
	d.AddEventListener(root, "focus", func(*Event) { got = append(got, "focus") })
	d.AddEventListener(root, "blur", func(*Event) { got = append(got, "blur") })
	d.Focus(root)
	d.Focus(root)
	d.Focus(other)
	assert.Equal(t, []string{"focus", "blur"}, got)
	assert.True(t, d.HasFocus(other))
}
