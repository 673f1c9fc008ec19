package app

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type fontKey struct {
	size   int
	bold   bool
	italic bool
	mono   bool
	scale  int
}

type fontBank struct {
	regular    *opentype.Font
	bold       *opentype.Font
	italic     *opentype.Font
	boldItalic *opentype.Font
	mono       *opentype.Font
	cache      map[fontKey]font.Face
}

func newFontBank() fontBank {
	bank := fontBank{cache: map[fontKey]font.Face{}}
	parse := func(ttf []byte) *opentype.Font {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil
		}
		return f
	}
	bank.regular = parse(goregular.TTF)
	bank.bold = parse(gobold.TTF)
	bank.italic = parse(goitalic.TTF)
	bank.boldItalic = parse(gobolditalic.TTF)
	bank.mono = parse(gomono.TTF)
	return bank
}

// face returns a cached face. Missing fonts fall back to the fixed bitmap
// face.
func (b *fontBank) face(size int, scale float32, bold, italic, mono bool) font.Face {
	key := fontKey{size: size, bold: bold, italic: italic, mono: mono, scale: int(math.Round(float64(scale) * 1000))}
	if f, ok := b.cache[key]; ok {
		return f
	}
	var base *opentype.Font
	switch {
	case mono:
		base = b.mono
	case bold && italic:
		base = b.boldItalic
	case bold:
		base = b.bold
	case italic:
		base = b.italic
	default:
		base = b.regular
	}
	if base == nil {
		return basicfont.Face7x13
	}
	opts := &opentype.FaceOptions{Size: float64(size) * float64(scale), DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(base, opts)
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = face
	return face
}

func measureString(face font.Face, s string) int {
	if face == nil || s == "" {
		return 0
	}
	px := (int(font.MeasureString(face, s)) + 32) >> 6
	if px < 0 {
		px = 0
	}
	return px
}
