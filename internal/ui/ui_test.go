package ui

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"richinput/internal/render"
	"richinput/pkg/fmttext"
)

func TestComputeLayoutCentersInput(t *testing.T) {
	theme := DefaultTheme()
	layout := ComputeLayout(800, 600, theme, 1, ShellView{Buttons: make([]ButtonView, 2)})
	assert.Equal(t, Rect{X: 24, Y: 100, W: 752, H: 448}, layout.Input)
	assert.Equal(t, Rect{X: 36, Y: 112, W: 728, H: 424}, layout.Content)
	require.Len(t, layout.Buttons, 2)
	assert.Equal(t, Rect{X: 64, Y: 39, W: 34, H: 32}, layout.Buttons[1])
	assert.Equal(t, 572, layout.StatusBar)
}

func TestDrawShellReflectsView(t *testing.T) {
	theme := DefaultTheme()
	fb := render.NewFrameBuffer(800, 600)
	view := ShellView{
		Buttons:      []ButtonView{{Label: "B", Active: true}, {Label: "M", Disabled: true}},
		TooltipRows:  3,
		TooltipIndex: 1,
		Focused:      true,
	}
	layout := DrawShell(fb, view, theme, 1)

	assert.Equal(t, theme.ButtonActive, fb.At(30, 45))
	assert.Equal(t, theme.ButtonDisabled, fb.At(70, 45))
	assert.Equal(t, theme.Input, fb.At(600, 200))
	assert.Equal(t, theme.Accent, fb.At(layout.Input.X, 200))
	assert.Equal(t, theme.Tooltip, fb.At(100, 480))
	assert.Equal(t, theme.TooltipSelected, fb.At(100, 500))
	assert.Equal(t, theme.StatusBar, fb.At(400, 590))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#0057b8", Hex(color.RGBA{0x00, 0x57, 0xB8, 0xFF}))
}

func TestTerminalQuotesAndSpoilers(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, DefaultTheme(), TerminalOptions{HideSpoilers: true})

	quoted := fmttext.FormattedText{
		Text:     "intro\nquote\nnext",
		Entities: []fmttext.Entity{{Type: fmttext.EntityBlockquote, Offset: 6, Length: 10}},
	}
	assert.Equal(t, "intro\n│ quote\n│ next", term.Render(quoted))

	spoiler := fmttext.FormattedText{
		Text:     "a secret",
		Entities: []fmttext.Entity{{Type: fmttext.EntitySpoiler, Offset: 2, Length: 6}},
	}
	assert.Equal(t, "a ░░░░░░", term.Render(spoiler))
}

func TestTerminalPlainWriterKeepsText(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, DefaultTheme(), TerminalOptions{})
	ft := fmttext.FormattedText{
		Text: "bold and code",
		Entities: []fmttext.Entity{
			{Type: fmttext.EntityBold, Offset: 0, Length: 4},
			{Type: fmttext.EntityCode, Offset: 9, Length: 4},
		},
	}
	assert.Equal(t, "bold and code", term.Render(ft))
}

func TestSegmentsSplitAtEveryBoundary(t *testing.T) {
	ft := fmttext.FormattedText{
		Text: "abcdef",
		Entities: []fmttext.Entity{
			{Type: fmttext.EntityBold, Offset: 0, Length: 4},
			{Type: fmttext.EntityItalic, Offset: 2, Length: 4},
		},
	}
	segs := Segments(ft)
	require.Len(t, segs, 3)
	assert.Equal(t, 0, segs[0].Start)
	assert.Len(t, segs[0].Active, 1)
	assert.Equal(t, 2, segs[1].Start)
	assert.Len(t, segs[1].Active, 2)
	assert.Equal(t, fmttext.EntityItalic, segs[2].Active[0].Type)
	assert.Equal(t, 6, segs[2].End)
}
