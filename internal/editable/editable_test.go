package editable

import (
	"bytes"
	"testing"
	"unicode"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/schedule"
	"richinput/pkg/fmttext"
)

type fixture struct {
	doc       *dom.Document
	container *html.Node
	sched     *schedule.Scheduler
	ed        *Editable
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{doc: dom.NewDocument(), sched: schedule.New(clock.NewMock())}
	f.container = dom.NewElement("div")
	f.doc.Body().AppendChild(f.container)
	f.ed = New(f.doc, append([]Option{WithScheduler(f.sched)}, opts...)...)
	require.NoError(t, f.ed.AttachTo(f.container))
	return f
}

func (f *fixture) setContent(markup string) {
	dom.SetInnerHTML(f.ed.Root(), markup)
	f.ed.HandleContentUpdate()
}

func (f *fixture) caret(n *html.Node, offset int) {
	f.doc.SetSelection(dom.Caret(dom.Point{Node: n, Offset: offset}))
}

type recorder struct {
	calls []string
}

func (r *recorder) AttachTo(*html.Node)   { r.calls = append(r.calls, "attach") }
func (r *recorder) DetachFrom(*html.Node) { r.calls = append(r.calls, "detach") }

func TestMatchableIsWordBeforeCaret(t *testing.T) {
	f := newFixture(t)
	f.setContent("hello @wor")
	text := f.ed.Root().FirstChild
	f.caret(text, len(text.Data))
	assert.Equal(t, "@wor", f.ed.Matchable().Get())

	f.caret(text, 5)
	assert.Equal(t, "hello", f.ed.Matchable().Get())

	f.caret(text, 6)
	assert.Equal(t, "", f.ed.Matchable().Get())
}

func TestMatchableAfterImageUsesAltText(t *testing.T) {
	f := newFixture(t)
	f.setContent(`ab<img alt="🙂"/>`)
	f.caret(f.ed.Root(), 2)
	assert.Equal(t, ImgAltPrefix+"🙂", f.ed.Matchable().Get())

	f.setContent(`<img alt=":)"/>cd`)
	f.caret(f.ed.Root().LastChild, 0)
	assert.Equal(t, ImgAltPrefix+":)", f.ed.Matchable().Get())
}

func TestSelectionOutsideRootIsCleared(t *testing.T) {
	f := newFixture(t)
	f.setContent("abc")
	f.caret(f.ed.Root().FirstChild, 1)
	require.True(t, f.ed.Selection().Get().Valid())
	assert.True(t, f.ed.Selection().Get().Collapsed)

	f.caret(f.doc.Body(), 0)
	assert.False(t, f.ed.Selection().Get().Valid())
	assert.Equal(t, "", f.ed.Matchable().Get())
}

func TestAttachDetachKeepsListenersBalanced(t *testing.T) {
	doc := dom.NewDocument()
	a, b := dom.NewElement("div"), dom.NewElement("div")
	doc.Body().AppendChild(a)
	doc.Body().AppendChild(b)
	ed := New(doc)
	comp := &recorder{}
	ed.AddCompanion(comp)

	before := doc.ListenerCount()
	require.NoError(t, ed.AttachTo(a))
	attached := doc.ListenerCount()
	assert.Greater(t, attached, before)
	assert.Same(t, a, ed.Root().Parent)

	assert.ErrorIs(t, ed.AttachTo(b), ErrAlreadyAttached)
	assert.ErrorIs(t, ed.DetachFrom(b), ErrNotAttached)

	require.NoError(t, ed.DetachFrom(a))
	assert.Equal(t, before, doc.ListenerCount())
	assert.Nil(t, ed.Root().Parent)
	assert.Zero(t, dom.ChildCount(a))
	assert.ErrorIs(t, ed.DetachFrom(a), ErrNotAttached)

	require.NoError(t, ed.AttachTo(b))
	assert.Equal(t, attached, doc.ListenerCount())
	assert.True(t, ed.IsAttached(b))
	assert.False(t, ed.IsAttached(a))
	assert.Equal(t, []string{"attach", "detach", "attach"}, comp.calls)
}

func TestAttachRejectsNilContainer(t *testing.T) {
	ed := New(dom.NewDocument())
	assert.ErrorIs(t, ed.AttachTo(nil), ErrNoContainer)
}

func TestRootProperties(t *testing.T) {
	f := newFixture(t)
	root := f.ed.Root()
	assert.Equal(t, "true", dom.AttrOr(root, "contenteditable", ""))
	assert.Equal(t, "textbox", dom.AttrOr(root, "role", ""))

	disabled, tab := true, 3
	f.ed.ApplyRootProperties(RootProps{ClassName: "form-control", DisableEdit: &disabled, Placeholder: "Message", TabIndex: &tab})
	assert.Equal(t, "false", dom.AttrOr(root, "contenteditable", ""))
	assert.Equal(t, "form-control", dom.AttrOr(root, "class", ""))
	assert.Equal(t, "Message", dom.AttrOr(root, "aria-label", ""))
	assert.Equal(t, "3", dom.AttrOr(root, "tabindex", ""))
}

func TestTypingUpdatesSignals(t *testing.T) {
	f := newFixture(t)
	var seen []string
	f.ed.HTML().Subscribe(func(s string) { seen = append(seen, s) })
	f.doc.Click(f.ed.Root())
	require.True(t, f.ed.HasFocus())

	f.doc.TypeText("hi")
	assert.Equal(t, "hi", f.ed.HTML().Get())
	assert.False(t, f.ed.Empty().Get())
	assert.Equal(t, []string{"h", "hi"}, seen)
	assert.Equal(t, "hi", f.ed.Matchable().Get())
}

func TestClearingContentDropsLeftoverFormatting(t *testing.T) {
	f := newFixture(t)
	f.ed.SetFormattedText(fmttext.FormattedText{
		Text:     "x",
		Entities: []fmttext.Entity{{Type: fmttext.EntityBold, Offset: 0, Length: 1}},
	})
	require.Equal(t, "<b>x</b>", f.ed.HTML().Get())
	f.ed.Focus(true)

	f.doc.PressKey("Backspace", dom.Modifiers{})
	assert.True(t, f.ed.Empty().Get())
	assert.Equal(t, "", dom.InnerHTML(f.ed.Root()))
	assert.Equal(t, "", f.ed.HTML().Get())
}

func TestExecCommandRestoresClassAndDisablesCSS(t *testing.T) {
	f := newFixture(t)
	f.setContent("hello")
	text := f.ed.Root().FirstChild
	f.doc.SetSelection(dom.NewRange(dom.Point{Node: text}, dom.Point{Node: text, Offset: 5}))

	require.True(t, f.ed.ExecCommand("bold", ""))
	assert.Equal(t, "<b>hello</b>", f.ed.HTML().Get())
	assert.False(t, dom.HasClass(f.ed.Root(), ExecFixClass))
	assert.False(t, f.doc.StyleWithCSS())
}

func TestExecCommandWithoutSelectionUsesEnd(t *testing.T) {
	f := newFixture(t)
	f.setContent("ab")
	f.doc.ClearSelection()
	require.True(t, f.ed.ExecCommand("insertText", "c"))
	assert.Equal(t, "abc", f.ed.HTML().Get())
}

func TestInsertMatchableHTMLReplacesRun(t *testing.T) {
	f := newFixture(t)
	f.setContent("hi @jo")
	text := f.ed.Root().FirstChild
	f.caret(text, len(text.Data))

	isSpace := func(r rune) bool { return unicode.IsSpace(r) }
	require.True(t, f.ed.InsertMatchableHTML("<b>Joe</b>", isSpace))
	assert.Equal(t, "hi <b>Joe</b>", f.ed.HTML().Get())
}

func TestInsertMatchableHTMLConsumesOpeningMarker(t *testing.T) {
	f := newFixture(t)
	f.setContent("say :smi")
	text := f.ed.Root().FirstChild
	f.caret(text, len(text.Data))

	isColon := func(r rune) bool { return r == ':' }
	require.True(t, f.ed.InsertMatchableHTML("😄", isColon))
	assert.Equal(t, "say 😄", f.ed.HTML().Get())
}

func TestFormattedTextRoundTrip(t *testing.T) {
	f := newFixture(t)
	in := fmttext.FormattedText{
		Text: "bold and link",
		Entities: []fmttext.Entity{
			{Type: fmttext.EntityBold, Offset: 0, Length: 4},
			{Type: fmttext.EntityTextURL, Offset: 9, Length: 4, URL: "https://example.com"},
		},
	}
	f.ed.SetFormattedText(in)
	out := f.ed.GetFormattedText(GetOptions{})
	assert.Equal(t, in.Text, out.Text)
	assert.Equal(t, in.Entities, out.Entities)

	sel := f.doc.Selection()
	require.NotNil(t, sel)
	assert.True(t, sel.Collapsed())
	assert.Equal(t, dom.EndOf(f.ed.Root()), sel.Start)
}

func TestGetFormattedTextAppliesMarkdown(t *testing.T) {
	f := newFixture(t)
	f.setContent("a **b** c")
	out := f.ed.GetFormattedText(GetOptions{})
	assert.Equal(t, "a b c", out.Text)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, fmttext.EntityBold, out.Entities[0].Type)

	raw := f.ed.GetFormattedText(GetOptions{NoMarkdown: true})
	assert.Equal(t, "a **b** c", raw.Text)
}

func TestGetFormattedTextKeepsMarkersInsideCode(t *testing.T) {
	f := newFixture(t)
	f.setContent(`<code class="text-entity-code">a **b** c</code> and **d**`)
	out := f.ed.GetFormattedText(GetOptions{})
	assert.Equal(t, "a **b** c and d", out.Text)
	assert.Equal(t, []fmttext.Entity{
		{Type: fmttext.EntityCode, Offset: 0, Length: 9},
		{Type: fmttext.EntityBold, Offset: 14, Length: 1},
	}, out.Entities)
}

func TestLoggerIsShared(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, WithLogger(zerolog.New(&buf)))
	f.ed.Logger().Info().Msg("[test] hello")
	assert.Contains(t, buf.String(), "[test] hello")
}

func TestGetSelectedHTMLDropsCustomEmoji(t *testing.T) {
	f := newFixture(t)
	f.setContent(`a<img class="custom-emoji" alt="🙂" data-document-id="1" data-unique-id="u"/>b`)
	f.doc.SetSelection(dom.SelectContents(f.ed.Root()))
	assert.Contains(t, f.ed.GetSelectedHTML(SelectedHTMLOptions{}), "<img")
	assert.Equal(t, "a🙂b", f.ed.GetSelectedHTML(SelectedHTMLOptions{DropCustomEmoji: true}))

	f.caret(f.ed.Root(), 0)
	assert.Equal(t, "", f.ed.GetSelectedHTML(SelectedHTMLOptions{}))
}

func TestSetSelRangeRejectsOutsideRanges(t *testing.T) {
	f := newFixture(t)
	f.setContent("abc")
	assert.False(t, f.ed.SetSelRange(dom.SelectContents(f.doc.Body())))
	assert.True(t, f.ed.SetSelRange(dom.SelectContents(f.ed.Root())))
	assert.False(t, f.ed.Selection().Get().Collapsed)
}

func TestClearInput(t *testing.T) {
	f := newFixture(t)
	f.setContent("abc")
	f.ed.ClearInput()
	assert.True(t, f.ed.Empty().Get())
	assert.Equal(t, "", f.ed.HTML().Get())
}

func TestKeyboardHandlersRunByPriority(t *testing.T) {
	f := newFixture(t)
	var order []string
	add := func(name string, prio int, consume bool) func() {
		return f.ed.AddKeyboardHandler(KeyboardHandler{Priority: prio, OnKeydown: func(*dom.Event) bool {
			order = append(order, name)
			return consume
		}})
	}
	base := f.ed.KeyboardHandlers()
	add("default", PriorityDefault, false)
	add("composer-1", PriorityComposer, false)
	add("tool", PriorityTool, false)
	add("composer-2", PriorityComposer, false)
	f.ed.Focus(true)

	f.doc.PressKey("x", dom.Modifiers{})
	assert.Equal(t, []string{"composer-1", "composer-2", "tool", "default"}, order)

	order = nil
	remove := add("stopper", PriorityComposer+1, true)
	f.doc.PressKey("y", dom.Modifiers{})
	assert.Equal(t, []string{"stopper"}, order)

	remove()
	remove()
	assert.Equal(t, base+4, f.ed.KeyboardHandlers())
}

func quoteText(t *testing.T, f *fixture) *html.Node {
	t.Helper()
	f.ed.SetFormattedText(fmttext.FormattedText{
		Text:     "quote",
		Entities: []fmttext.Entity{{Type: fmttext.EntityBlockquote, Offset: 0, Length: 5}},
	})
	quote := f.ed.Root().FirstChild
	require.True(t, dom.IsTag(quote, "blockquote"))
	f.ed.Focus(false)
	return quote
}

func TestEnterAtQuoteEndEscapes(t *testing.T) {
	f := newFixture(t)
	quote := quoteText(t, f)
	f.caret(quote.FirstChild, 5)

	assert.False(t, f.doc.PressKey("Enter", dom.Modifiers{}))
	root := f.ed.Root()
	require.Equal(t, 2, dom.ChildCount(root))
	assert.Same(t, quote, root.FirstChild)
	assert.Equal(t, " ", root.LastChild.Data)
	assert.Equal(t, "quote", dom.TextContent(quote))
	assert.Equal(t, dom.Point{Node: root, Offset: 2}, f.doc.Selection().Start)
	assert.Equal(t, dom.InnerHTML(root), f.ed.HTML().Get())
}

func TestEnterAtQuoteStartEscapes(t *testing.T) {
	f := newFixture(t)
	quote := quoteText(t, f)
	f.caret(quote.FirstChild, 0)

	assert.False(t, f.doc.PressKey("Enter", dom.Modifiers{}))
	root := f.ed.Root()
	require.Equal(t, 2, dom.ChildCount(root))
	assert.Equal(t, " ", root.FirstChild.Data)
	assert.Same(t, quote, root.LastChild)
	assert.Equal(t, dom.Point{Node: root, Offset: 0}, f.doc.Selection().Start)
}

func TestEnterInsideQuoteIsDefault(t *testing.T) {
	f := newFixture(t)
	quote := quoteText(t, f)
	f.caret(quote.FirstChild, 2)

	assert.True(t, f.doc.PressKey("Enter", dom.Modifiers{}))
	assert.Equal(t, 1, dom.ChildCount(f.ed.Root()))
	assert.Contains(t, dom.InnerHTML(quote), "<br/>")
}

func TestShiftEnterAtQuoteEndEscapes(t *testing.T) {
	f := newFixture(t)
	quote := quoteText(t, f)
	f.caret(quote.FirstChild, 5)

	assert.False(t, f.doc.PressKey("Enter", dom.Modifiers{Shift: true}))
	root := f.ed.Root()
	require.Equal(t, 2, dom.ChildCount(root))
	assert.Same(t, quote, root.FirstChild)
	assert.Equal(t, "quote", dom.TextContent(quote))
	assert.Equal(t, dom.Point{Node: root, Offset: 2}, f.doc.Selection().Start)
}

func TestShiftEnterInsideQuoteIsDefault(t *testing.T) {
	f := newFixture(t)
	quote := quoteText(t, f)
	f.caret(quote.FirstChild, 2)

	assert.True(t, f.doc.PressKey("Enter", dom.Modifiers{Shift: true}))
	assert.Equal(t, 1, dom.ChildCount(f.ed.Root()))
}

func clipboard(plain, markup string) *dom.DataTransfer {
	dt := dom.NewDataTransfer()
	if plain != "" {
		dt.SetData("text/plain", plain)
	}
	if markup != "" {
		dt.SetData("text/html", markup)
	}
	return dt
}

func TestPasteKeepsFormatting(t *testing.T) {
	f := newFixture(t)
	f.ed.Focus(true)
	assert.False(t, f.doc.Paste(clipboard("bold text", "<b>bold</b> text<script>x()</script>")))

	out := f.ed.GetFormattedText(GetOptions{})
	assert.Equal(t, "bold text", out.Text)
	assert.Equal(t, []fmttext.Entity{{Type: fmttext.EntityBold, Offset: 0, Length: 4}}, out.Entities)
}

func TestPasteWithoutEntitiesUsesPlainText(t *testing.T) {
	f := newFixture(t)
	f.ed.Focus(true)
	f.doc.Paste(clipboard("a < b", "<span>ignored</span>"))
	assert.Equal(t, "a &lt; b", f.ed.HTML().Get())
}

func TestPasteHandlersMayRewrite(t *testing.T) {
	f := newFixture(t)
	var got *PasteCtx
	remove := f.ed.AddPasteHandler(func(ctx *PasteCtx) {
		got = ctx
		ctx.Text = fmttext.Plain("rewritten")
	})
	f.ed.Focus(true)
	dt := clipboard("original", "")
	dt.AddFile("a.png", "image/png", []byte{1})
	f.doc.Paste(dt)

	require.NotNil(t, got)
	assert.Len(t, got.Files, 1)
	assert.Equal(t, "rewritten", f.ed.HTML().Get())

	remove()
	f.ed.AddPasteHandler(func(ctx *PasteCtx) { ctx.Text = fmttext.FormattedText{} })
	f.doc.Paste(clipboard("dropped", ""))
	assert.Equal(t, "rewritten", f.ed.HTML().Get())
}

func TestPasteIgnoredWithoutFocus(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.doc.Paste(clipboard("text", "")))
	assert.Equal(t, "", dom.InnerHTML(f.ed.Root()))
}

func TestInsertMatchableHTMLKeepsLetterLimit(t *testing.T) {
	f := newFixture(t)
	f.setContent("hi🔥")
	text := f.ed.Root().FirstChild
	f.caret(text, len(text.Data))

	notFire := func(r rune) bool { return r != '🔥' }
	require.True(t, f.ed.InsertMatchableHTML("<b>X</b>", notFire))
	assert.Equal(t, "hi<b>X</b>", f.ed.HTML().Get())
}
