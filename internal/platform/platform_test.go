package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"richinput/internal/dom"
)

func TestParseScriptSteps(t *testing.T) {
	sc, err := ParseScript([]byte(`
window: {title: demo, width: 320}
steps:
  - text: "hi"
  - key: b
    mods: [ctrl, Shift]
  - paste: {text: plain, html: "<b>rich</b>"}
  - resize: {width: 100, height: 50}
  - dpi: 2
  - wait: 1.5s
  - hidden: false
  - blur: true
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Window.Title)
	assert.Equal(t, 320, sc.Window.WidthPx)
	assert.Equal(t, 600, sc.Window.HeightPx)

	events, err := sc.Events()
	require.NoError(t, err)
	require.Len(t, events, 8)
	assert.Equal(t, Event{Type: EventTextInput, Text: "hi"}, events[0])
	assert.Equal(t, Event{Type: EventKeyDown, Key: "b", Mods: dom.Modifiers{Ctrl: true, Shift: true}}, events[1])
	assert.Equal(t, "<b>rich</b>", events[2].HTML)
	assert.Equal(t, EventResize, events[3].Type)
	assert.Equal(t, float32(2), events[4].Scale)
	assert.Equal(t, int(1500*time.Millisecond/time.Millisecond), events[5].WaitMs)
	assert.Equal(t, Event{Type: EventVisibility, Hidden: false}, events[6])
	assert.Equal(t, "blur", events[7].Type.String())
}

func TestScriptErrors(t *testing.T) {
	sc, err := ParseScript([]byte("steps:\n  - {}\n"))
	require.NoError(t, err)
	_, err = sc.Events()
	assert.ErrorIs(t, err, ErrEmptyStep)

	sc, err = ParseScript([]byte("steps:\n  - {key: a, text: b}\n"))
	require.NoError(t, err)
	_, err = sc.Events()
	assert.ErrorIs(t, err, ErrAmbiguousStep)

	sc, err = ParseScript([]byte("steps:\n  - {key: a, mods: [hyper]}\n"))
	require.NoError(t, err)
	_, err = sc.Events()
	assert.ErrorIs(t, err, ErrUnknownModifier)

	_, err = ParseScript([]byte("steps: {"))
	assert.Error(t, err)
}

func editableDoc() (*dom.Document, *html.Node) {
	doc := dom.NewDocument()
	host := dom.NewElement("div", html.Attribute{Key: "contenteditable", Val: "true"})
	doc.Body().AppendChild(host)
	return doc, host
}

func TestApplyDrivesDocument(t *testing.T) {
	doc, host := editableDoc()

	Apply(doc, Event{Type: EventFocus})
	assert.True(t, doc.HasFocus(host))

	Apply(doc, Event{Type: EventTextInput, Text: "ab"})
	assert.Equal(t, "ab", dom.InnerHTML(host))

	assert.True(t, Apply(doc, Event{Type: EventPaste, Text: "c"}))
	assert.Equal(t, "abc", dom.TextContent(host))

	Apply(doc, Event{Type: EventResize, Width: 300, Height: 200})
	w, h := doc.Viewport()
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)

	Apply(doc, Event{Type: EventDPIChanged, Scale: 2})
	assert.Equal(t, 2.0, doc.PixelRatio())

	Apply(doc, Event{Type: EventVisibility, Hidden: true})
	assert.True(t, doc.Hidden())

	Apply(doc, Event{Type: EventBlur})
	assert.False(t, doc.HasFocus(host))
}

func TestApplyReportsPreventedKeys(t *testing.T) {
	doc, host := editableDoc()
	Apply(doc, Event{Type: EventFocus})
	doc.AddEventListener(host, "keydown", func(ev *dom.Event) { ev.PreventDefault() })
	assert.False(t, Apply(doc, Event{Type: EventKeyDown, Key: "x"}))
	assert.Empty(t, dom.InnerHTML(host))
}
