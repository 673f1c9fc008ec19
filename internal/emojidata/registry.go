package emojidata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"richinput/internal/emojirender"
)

var (
	ErrUnknownDocument = errors.New("emojidata: unknown custom emoji")
	ErrNoMedia         = errors.New("emojidata: custom emoji has no media")
)

const (
	DefaultMediaTTL = 30 * time.Minute
	defaultDelay    = 100 * time.Millisecond
)

// CustomEmoji describes a custom emoji sticker bound to a standard emoji.
type CustomEmoji struct {
	DocumentID   string `yaml:"document_id"`
	Emoji        string `yaml:"emoji"`
	Title        string `yaml:"title"`
	File         string `yaml:"file"`
	Video        bool   `yaml:"video"`
	UseTextColor bool   `yaml:"text_color"`
	HighQuality  bool   `yaml:"high_quality"`

	Data []byte `yaml:"-"`
}

type manifest struct {
	Emoji []CustomEmoji `yaml:"custom_emoji"`
}

// Registry holds custom emoji and decodes their media on demand. Decoded
// media is cached with a TTL so rarely shown emoji do not stay in memory.
type Registry struct {
	log     zerolog.Logger
	items   map[string]CustomEmoji
	byEmoji map[string][]string
	media   *cache.Cache
}

func NewRegistry(log zerolog.Logger, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultMediaTTL
	}
	return &Registry{
		log:     log,
		items:   map[string]CustomEmoji{},
		byEmoji: map[string][]string{},
		media:   cache.New(ttl, ttl/3),
	}
}

func (r *Registry) Add(ce CustomEmoji) {
	if ce.DocumentID == "" {
		return
	}
	if old, ok := r.items[ce.DocumentID]; ok {
		r.unindex(old)
	}
	r.items[ce.DocumentID] = ce
	r.byEmoji[ce.Emoji] = append(r.byEmoji[ce.Emoji], ce.DocumentID)
	r.media.Delete(ce.DocumentID)
}

func (r *Registry) unindex(ce CustomEmoji) {
	ids := r.byEmoji[ce.Emoji]
	for i, id := range ids {
		if id == ce.DocumentID {
			r.byEmoji[ce.Emoji] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byEmoji[ce.Emoji]) == 0 {
		delete(r.byEmoji, ce.Emoji)
	}
}

func (r *Registry) Len() int { return len(r.items) }

func (r *Registry) Get(documentID string) (CustomEmoji, bool) {
	ce, ok := r.items[documentID]
	return ce, ok
}

// ForEmoji lists the custom emoji bound to a standard emoji, in the order
// they were added.
func (r *Registry) ForEmoji(emoji string) []CustomEmoji {
	ids := r.byEmoji[emoji]
	out := make([]CustomEmoji, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id])
	}
	return out
}

func (r *Registry) DocumentIDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadManifest reads a YAML list of custom emoji. Relative media paths are
// resolved against the manifest's directory.
func (r *Registry) LoadManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("emojidata: read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("emojidata: parse manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, ce := range m.Emoji {
		if ce.File != "" && !filepath.IsAbs(ce.File) {
			ce.File = filepath.Join(dir, ce.File)
		}
		r.Add(ce)
	}
	r.log.Info().Int("count", len(m.Emoji)).Str("path", path).Msg("[emojidata] manifest loaded")
	return nil
}

// Resolve implements emojirender.MediaResolver.
func (r *Registry) Resolve(documentID string) (emojirender.Media, bool) {
	m, err := r.Media(documentID)
	if err != nil {
		r.log.Debug().Err(err).Str("document_id", documentID).Msg("[emojidata] media unavailable")
		return emojirender.Media{}, false
	}
	return m, true
}

func (r *Registry) Media(documentID string) (emojirender.Media, error) {
	if v, ok := r.media.Get(documentID); ok {
		return v.(emojirender.Media), nil
	}
	ce, ok := r.items[documentID]
	if !ok {
		return emojirender.Media{}, ErrUnknownDocument
	}
	m, err := r.decode(ce)
	if err != nil {
		return emojirender.Media{}, err
	}
	r.media.Set(documentID, m, cache.DefaultExpiration)
	return m, nil
}

func (r *Registry) decode(ce CustomEmoji) (emojirender.Media, error) {
	data := ce.Data
	if data == nil && ce.File != "" {
		b, err := os.ReadFile(ce.File)
		if err != nil {
			return emojirender.Media{}, fmt.Errorf("emojidata: read %s: %w", ce.File, err)
		}
		data = b
	}
	if len(data) == 0 {
		return emojirender.Media{}, ErrNoMedia
	}
	frames, delay, err := DecodeFrames(data)
	if err != nil {
		return emojirender.Media{}, fmt.Errorf("emojidata: decode %s: %w", ce.DocumentID, err)
	}
	kind := emojirender.MediaLottie
	if ce.Video {
		kind = emojirender.MediaVideo
	}
	return emojirender.Media{
		DocumentID:   ce.DocumentID,
		Kind:         kind,
		URL:          ce.File,
		Frames:       frames,
		FrameDelay:   delay,
		UseTextColor: ce.UseTextColor,
		HighQuality:  ce.HighQuality,
	}, nil
}

// DecodeFrames turns an animated GIF into fully composed frames. Other
// image formats registered with the image package yield a single frame.
func DecodeFrames(data []byte) ([]image.Image, time.Duration, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		img, _, ierr := image.Decode(bytes.NewReader(data))
		if ierr != nil {
			return nil, 0, err
		}
		return []image.Image{img}, defaultDelay, nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	frames := make([]image.Image, 0, len(g.Image))
	for i, frame := range g.Image {
		var restore *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			restore = image.NewRGBA(bounds)
			draw.Draw(restore, bounds, canvas, bounds.Min, draw.Src)
		}
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out := image.NewRGBA(bounds)
		draw.Draw(out, bounds, canvas, bounds.Min, draw.Src)
		frames = append(frames, out)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}

	delay := defaultDelay
	if len(g.Delay) > 0 && g.Delay[0] > 0 {
		delay = time.Duration(g.Delay[0]) * 10 * time.Millisecond
	}
	return frames, delay, nil
}
