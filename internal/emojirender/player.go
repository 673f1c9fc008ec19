package emojirender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"time"

	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/render"
)

var ErrUnsupportedMedia = errors.New("emojirender: unsupported custom emoji type")

type MediaKind uint8

const (
	MediaUnknown MediaKind = iota
	MediaLottie
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaLottie:
		return "lottie"
	case MediaVideo:
		return "video"
	}
	return "unknown"
}

// Media is the decoded backing data of one custom emoji.
type Media struct {
	DocumentID   string
	Kind         MediaKind
	URL          string
	Frames       []image.Image
	FrameDelay   time.Duration
	UseTextColor bool
	HighQuality  bool
}

type MediaResolver interface {
	Resolve(documentID string) (Media, bool)
}

type ResolverFunc func(documentID string) (Media, bool)

func (f ResolverFunc) Resolve(documentID string) (Media, bool) { return f(documentID) }

// Point is a position as a fraction of the shared canvas size.
type Point struct {
	X float64
	Y float64
}

type Player interface {
	Play()
	Pause()
	Destroy()
	UpdatePosition(x, y float64)
}

// Drawer is implemented by players that paint into a shared framebuffer.
type Drawer interface {
	Draw(now time.Time)
}

type PlayerRequest struct {
	ViewID    string
	RenderID  string
	Media     Media
	Position  Point
	SizePx    int
	Tint      *color.RGBA
	Canvas    *render.FrameBuffer
	Container *html.Node
}

type PlayerFactory interface {
	NewPlayer(req PlayerRequest) (Player, error)
}

// FrameFactory builds players that draw media frames into the shared
// canvases. Lottie media paints into the request canvas; video media also
// gets an absolutely positioned element in the overlay container.
type FrameFactory struct{}

func (FrameFactory) NewPlayer(req PlayerRequest) (Player, error) {
	var tint *color.RGBA
	if req.Media.UseTextColor {
		tint = req.Tint
	}
	p := &framePlayer{
		media:  req.Media,
		canvas: req.Canvas,
		pos:    req.Position,
		size:   req.SizePx,
		tint:   tint,
	}
	switch req.Media.Kind {
	case MediaLottie:
		return p, nil
	case MediaVideo:
		el := dom.NewElement("video",
			html.Attribute{Key: "class", Val: "absolute-video"},
			html.Attribute{Key: "data-view-id", Val: req.ViewID},
		)
		if req.Container != nil {
			req.Container.AppendChild(el)
		}
		p.element = el
		p.syncElement()
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, req.Media.Kind)
}

type framePlayer struct {
	media   Media
	canvas  *render.FrameBuffer
	element *html.Node
	pos     Point
	size    int
	tint    *color.RGBA

	playing   bool
	destroyed bool
	frame     int
	last      time.Time
}

func (p *framePlayer) Play() {
	if !p.destroyed {
		p.playing = true
	}
}

func (p *framePlayer) Pause() { p.playing = false }

func (p *framePlayer) Destroy() {
	p.destroyed = true
	p.playing = false
	dom.Detach(p.element)
}

func (p *framePlayer) UpdatePosition(x, y float64) {
	p.pos = Point{X: x, Y: y}
	p.syncElement()
}

func (p *framePlayer) syncElement() {
	if p.element == nil {
		return
	}
	dom.SetAttr(p.element, "style", "left: "+percent(p.pos.X)+"; top: "+percent(p.pos.Y)+";")
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

func (p *framePlayer) Draw(now time.Time) {
	if p.destroyed || p.canvas == nil || len(p.media.Frames) == 0 {
		return
	}
	if p.playing && len(p.media.Frames) > 1 {
		delay := p.media.FrameDelay
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		if p.last.IsZero() {
			p.last = now
		}
		if steps := int(now.Sub(p.last) / delay); steps > 0 {
			p.frame = (p.frame + steps) % len(p.media.Frames)
			p.last = p.last.Add(time.Duration(steps) * delay)
		}
	}
	x := int(math.Round(p.pos.X * float64(p.canvas.W)))
	y := int(math.Round(p.pos.Y * float64(p.canvas.H)))
	p.canvas.Blit(p.media.Frames[p.frame], x, y, p.size, p.size, p.tint)
}
