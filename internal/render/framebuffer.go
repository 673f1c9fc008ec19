package render

import (
	"image"
	"image/color"
)

// FrameBuffer is a straight-alpha RGBA canvas. The emoji overlay draws its
// players into shared framebuffers that the host composites over the text.
type FrameBuffer struct {
	W      int
	H      int
	Pixels []uint8 // RGBA
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &FrameBuffer{W: w, H: h, Pixels: make([]uint8, w*h*4)}
}

// Resize reallocates the pixels when the size changes. Contents are lost.
func (fb *FrameBuffer) Resize(w, h int) bool {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if w == fb.W && h == fb.H {
		return false
	}
	fb.W, fb.H = w, h
	fb.Pixels = make([]uint8, w*h*4)
	return true
}

// Image shares the pixels as a straight-alpha image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return &image.NRGBA{Pix: fb.Pixels, Stride: fb.W * 4, Rect: image.Rect(0, 0, fb.W, fb.H)}
}

func (fb *FrameBuffer) Clear(c color.RGBA) {
	for i := 0; i < len(fb.Pixels); i += 4 {
		fb.Pixels[i+0] = c.R
		fb.Pixels[i+1] = c.G
		fb.Pixels[i+2] = c.B
		fb.Pixels[i+3] = c.A
	}
}

func (fb *FrameBuffer) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return color.RGBA{}
	}
	i := (y*fb.W + x) * 4
	return color.RGBA{R: fb.Pixels[i], G: fb.Pixels[i+1], B: fb.Pixels[i+2], A: fb.Pixels[i+3]}
}

func (fb *FrameBuffer) clip(x, y, w, h int) (int, int, int, int, bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0, false
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > fb.W {
		w = fb.W - x
	}
	if y+h > fb.H {
		h = fb.H - y
	}
	return x, y, w, h, w > 0 && h > 0
}

func (fb *FrameBuffer) FillRect(x, y, w, h int, c color.RGBA) {
	x, y, w, h, ok := fb.clip(x, y, w, h)
	if !ok {
		return
	}
	for row := 0; row < h; row++ {
		off := ((y+row)*fb.W + x) * 4
		for col := 0; col < w; col++ {
			idx := off + col*4
			fb.Pixels[idx+0] = c.R
			fb.Pixels[idx+1] = c.G
			fb.Pixels[idx+2] = c.B
			fb.Pixels[idx+3] = c.A
		}
	}
}

func (fb *FrameBuffer) StrokeRect(x, y, w, h, line int, c color.RGBA) {
	if line <= 0 {
		line = 1
	}
	fb.FillRect(x, y, w, line, c)
	fb.FillRect(x, y+h-line, w, line, c)
	fb.FillRect(x, y, line, h, c)
	fb.FillRect(x+w-line, y, line, h, c)
}

// Blit scales src into the w*h box at (x, y) with nearest-neighbour sampling
// and source-over blending. With a tint, the source keeps its alpha and takes
// the tint's color, which is how text-colored emoji follow the theme.
func (fb *FrameBuffer) Blit(src image.Image, x, y, w, h int, tint *color.RGBA) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	if sb.Empty() {
		return
	}
	dx, dy, dw, dh, ok := fb.clip(x, y, w, h)
	if !ok {
		return
	}
	for row := dy; row < dy+dh; row++ {
		sy := sb.Min.Y + (row-y)*sb.Dy()/h
		for col := dx; col < dx+dw; col++ {
			sx := sb.Min.X + (col-x)*sb.Dx()/w
			c := color.NRGBAModel.Convert(src.At(sx, sy)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			if tint != nil {
				c.R, c.G, c.B = tint.R, tint.G, tint.B
			}
			fb.blend(col, row, c)
		}
	}
}

func (fb *FrameBuffer) blend(x, y int, c color.NRGBA) {
	i := (y*fb.W + x) * 4
	a := uint32(c.A)
	if a == 255 {
		fb.Pixels[i+0], fb.Pixels[i+1], fb.Pixels[i+2], fb.Pixels[i+3] = c.R, c.G, c.B, 255
		return
	}
	inv := 255 - a
	da := uint32(fb.Pixels[i+3])
	outA := a + da*inv/255
	if outA == 0 {
		return
	}
	mix := func(s uint8, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*da*inv/255) / outA)
	}
	fb.Pixels[i+0] = mix(c.R, fb.Pixels[i+0])
	fb.Pixels[i+1] = mix(c.G, fb.Pixels[i+1])
	fb.Pixels[i+2] = mix(c.B, fb.Pixels[i+2])
	fb.Pixels[i+3] = uint8(outA)
}

// ParseHexColor reads #rgb or #rrggbb.
func ParseHexColor(s string) (color.RGBA, bool) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	hex := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	var v [6]uint8
	switch len(s) {
	case 3:
		for i := 0; i < 3; i++ {
			h, ok := hex(s[i])
			if !ok {
				return color.RGBA{}, false
			}
			v[2*i], v[2*i+1] = h, h
		}
	case 6:
		for i := 0; i < 6; i++ {
			h, ok := hex(s[i])
			if !ok {
				return color.RGBA{}, false
			}
			v[i] = h
		}
	default:
		return color.RGBA{}, false
	}
	return color.RGBA{R: v[0]<<4 | v[1], G: v[2]<<4 | v[3], B: v[4]<<4 | v[5], A: 255}, true
}
