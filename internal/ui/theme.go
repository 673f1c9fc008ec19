package ui

import "image/color"

type Theme struct {
	AppBackground   color.RGBA
	TopBar          color.RGBA
	Toolbar         color.RGBA
	ButtonActive    color.RGBA
	ButtonDisabled  color.RGBA
	Input           color.RGBA
	Border          color.RGBA
	Tooltip         color.RGBA
	TooltipSelected color.RGBA
	StatusBar       color.RGBA
	Accent          color.RGBA
	Text            color.RGBA
	Code            color.RGBA
	Link            color.RGBA
	Spoiler         color.RGBA
	MenuHeightDp    int
	ToolbarHeightDp int
	StatusHeightDp  int
	InputMarginDp   int
	TooltipRowDp    int
}

func DefaultTheme() Theme {
	return Theme{
		AppBackground:   color.RGBA{0xF3, 0xF5, 0xF8, 0xFF},
		TopBar:          color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Toolbar:         color.RGBA{0xF7, 0xF9, 0xFC, 0xFF},
		ButtonActive:    color.RGBA{0xC9, 0xDB, 0xF5, 0xFF},
		ButtonDisabled:  color.RGBA{0xE4, 0xE7, 0xEC, 0xFF},
		Input:           color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Border:          color.RGBA{0xB2, 0xBF, 0xD0, 0xFF},
		Tooltip:         color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		TooltipSelected: color.RGBA{0xE3, 0xEC, 0xFA, 0xFF},
		StatusBar:       color.RGBA{0xEA, 0xEF, 0xF6, 0xFF},
		Accent:          color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Text:            color.RGBA{0x20, 0x20, 0x20, 0xFF},
		Code:            color.RGBA{0xA3, 0x15, 0x15, 0xFF},
		Link:            color.RGBA{0x00, 0x57, 0xB8, 0xFF},
		Spoiler:         color.RGBA{0x45, 0x5A, 0x64, 0xFF},
		MenuHeightDp:    34,
		ToolbarHeightDp: 42,
		StatusHeightDp:  28,
		InputMarginDp:   24,
		TooltipRowDp:    26,
	}
}

// Hex formats c as #rrggbb for consumers that take CSS colors.
func Hex(c color.RGBA) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0F]
	}
	return string(b)
}
