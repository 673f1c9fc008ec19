package ui

import (
	"richinput/internal/render"
)

type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

type Layout struct {
	MenuH     int
	ToolbarH  int
	StatusH   int
	Input     Rect
	Content   Rect
	Buttons   []Rect
	Tooltip   Rect
	TooltipH  int
	StatusBar int
}

// ButtonView is one toolbar button as drawn.
type ButtonView struct {
	Label    string
	Active   bool
	Disabled bool
}

// ShellView is what the chrome needs to know about the composer.
type ShellView struct {
	Buttons      []ButtonView
	TooltipRows  int
	TooltipIndex int
	Previewing   bool
	Focused      bool
}

func ComputeLayout(w, h int, theme Theme, scale float32, view ShellView) Layout {
	if scale <= 0 {
		scale = 1
	}

	dp := func(v int) int { return int(float32(v) * scale) }

	menuH := dp(theme.MenuHeightDp)
	toolbarH := dp(theme.ToolbarHeightDp)
	statusH := dp(theme.StatusHeightDp)
	margin := dp(theme.InputMarginDp)

	top := menuH + toolbarH
	inputH := h - top - statusH - margin*2
	if inputH < dp(60) {
		inputH = dp(60)
	}
	inputW := w - margin*2
	if inputW > dp(900) {
		inputW = dp(900)
	}
	if inputW < dp(200) {
		inputW = dp(200)
	}
	input := Rect{X: (w - inputW) / 2, Y: top + margin, W: inputW, H: inputH}
	pad := dp(12)

	buttons := make([]Rect, len(view.Buttons))
	bw, gap := dp(34), dp(6)
	for i := range buttons {
		buttons[i] = Rect{X: margin + i*(bw+gap), Y: menuH + dp(5), W: bw, H: toolbarH - dp(10)}
	}

	rowH := dp(theme.TooltipRowDp)
	tipH := rowH * view.TooltipRows
	tooltip := Rect{X: input.X, Y: input.Y + input.H - tipH, W: input.W / 2, H: tipH}

	return Layout{
		MenuH:     menuH,
		ToolbarH:  toolbarH,
		StatusH:   statusH,
		Input:     input,
		Content:   Rect{X: input.X + pad, Y: input.Y + pad, W: input.W - pad*2, H: input.H - pad*2},
		Buttons:   buttons,
		Tooltip:   tooltip,
		TooltipH:  rowH,
		StatusBar: h - statusH,
	}
}

// DrawShell paints the chrome around the input. Text is drawn by the host
// on top of the returned layout.
func DrawShell(fb *render.FrameBuffer, view ShellView, theme Theme, scale float32) Layout {
	layout := ComputeLayout(fb.W, fb.H, theme, scale, view)

	fb.Clear(theme.AppBackground)

	fb.FillRect(0, 0, fb.W, layout.MenuH, theme.TopBar)
	fb.FillRect(0, layout.MenuH, fb.W, layout.ToolbarH, theme.Toolbar)
	fb.StrokeRect(0, 0, fb.W, layout.MenuH+layout.ToolbarH, 1, theme.Border)

	for i, b := range layout.Buttons {
		bg := theme.Toolbar
		switch {
		case view.Buttons[i].Disabled:
			bg = theme.ButtonDisabled
		case view.Buttons[i].Active:
			bg = theme.ButtonActive
		}
		fb.FillRect(b.X, b.Y, b.W, b.H, bg)
		fb.StrokeRect(b.X, b.Y, b.W, b.H, 1, theme.Border)
	}

	in := layout.Input
	fb.FillRect(in.X, in.Y, in.W, in.H, theme.Input)
	border := theme.Border
	if view.Focused {
		border = theme.Accent
	}
	fb.StrokeRect(in.X, in.Y, in.W, in.H, 1, border)
	if view.Previewing {
		accentH := int(3 * scale)
		if accentH < 1 {
			accentH = 1
		}
		fb.FillRect(in.X, in.Y, in.W, accentH, theme.Accent)
	}

	if view.TooltipRows > 0 {
		tip := layout.Tooltip
		fb.FillRect(tip.X, tip.Y, tip.W, tip.H, theme.Tooltip)
		if view.TooltipIndex >= 0 && view.TooltipIndex < view.TooltipRows {
			fb.FillRect(tip.X, tip.Y+view.TooltipIndex*layout.TooltipH, tip.W, layout.TooltipH, theme.TooltipSelected)
		}
		fb.StrokeRect(tip.X, tip.Y, tip.W, tip.H, 1, theme.Border)
	}

	fb.FillRect(0, layout.StatusBar, fb.W, layout.StatusH, theme.StatusBar)
	fb.StrokeRect(0, layout.StatusBar, fb.W, layout.StatusH, 1, theme.Border)
	return layout
}
