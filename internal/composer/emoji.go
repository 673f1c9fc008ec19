package composer

import (
	"regexp"
	"strings"
	"time"

	"richinput/internal/editable"
	"richinput/internal/emojidata"
	"richinput/internal/schedule"
)

const shortcodeLimit = 20

var reShortcode = regexp.MustCompile(`(?i)(^|\s):[-+_\p{L}\p{N}]{2,}$`)

// EmojiTooltip completes :shortcodes with standard emoji and offers custom
// emoji for a standard emoji right before the caret.
type EmojiTooltip struct {
	ed       *editable.Editable
	provider *emojidata.Provider
	registry *emojidata.Registry
	throttle *schedule.Throttler
	nav      *navigator

	enabled        bool
	shortcode      string
	lastEmoji      string
	emoji          []emojidata.Emoji
	custom         []emojidata.CustomEmoji
	manuallyClosed bool

	unsubscribe []func()
}

func NewEmojiTooltip(ed *editable.Editable, provider *emojidata.Provider, registry *emojidata.Registry, throttle time.Duration) *EmojiTooltip {
	if throttle <= 0 {
		throttle = DefaultTooltipThrottle
	}
	t := &EmojiTooltip{
		ed:       ed,
		provider: provider,
		registry: registry,
		throttle: schedule.NewThrottler(ed.Scheduler(), throttle),
		enabled:  true,
	}
	t.nav = newNavigator(ed, t.IsOpen, t.count, t.Close, t.selectAt)
	t.unsubscribe = append(t.unsubscribe,
		ed.Matchable().Subscribe(func(string) {
			t.manuallyClosed = false
			t.throttle.Call(t.update)
		}),
	)
	return t
}

func (t *EmojiTooltip) SetEnabled(enabled bool) {
	t.enabled = enabled
	t.update()
}

func (t *EmojiTooltip) Shortcode() string                    { return t.shortcode }
func (t *EmojiTooltip) LastEmoji() string                    { return t.lastEmoji }
func (t *EmojiTooltip) Emoji() []emojidata.Emoji             { return t.emoji }
func (t *EmojiTooltip) CustomEmoji() []emojidata.CustomEmoji { return t.custom }
func (t *EmojiTooltip) Selected() int                        { return t.nav.selected }

func (t *EmojiTooltip) count() int { return len(t.emoji) + len(t.custom) }

func (t *EmojiTooltip) IsOpen() bool {
	return t.count() > 0 && !t.manuallyClosed
}

func (t *EmojiTooltip) Close() { t.manuallyClosed = true }

func (t *EmojiTooltip) Destroy() {
	for _, fn := range t.unsubscribe {
		fn()
	}
	t.unsubscribe = nil
	t.throttle.Cancel()
	t.nav.remove()
}

func (t *EmojiTooltip) clear() {
	t.shortcode, t.lastEmoji = "", ""
	t.emoji, t.custom = nil, nil
	t.nav.reset()
}

func (t *EmojiTooltip) update() {
	t.clear()
	matchable := t.ed.Matchable().Get()
	if !t.enabled || matchable == "" || !t.ed.Selection().Get().Collapsed {
		return
	}
	if strings.HasPrefix(matchable, editable.ImgAltPrefix) {
		return
	}
	if err := t.provider.Load(); err != nil {
		t.ed.Logger().Warn().Err(err).Msg("[composer] emoji data unavailable")
		return
	}

	if code := reShortcode.FindString(matchable); code != "" {
		t.shortcode = strings.TrimSpace(code)
		t.emoji = t.provider.Search(t.shortcode, shortcodeLimit)
		return
	}
	if t.registry == nil {
		return
	}
	if last := t.provider.TrailingEmoji(matchable); last != "" {
		t.lastEmoji = last
		t.custom = t.registry.ForEmoji(last)
	}
}

func (t *EmojiTooltip) selectAt(i int) bool {
	if i < len(t.emoji) {
		return t.InsertEmoji(t.emoji[i])
	}
	return t.InsertCustomEmoji(t.custom[i-len(t.emoji)])
}

// InsertEmoji replaces the :shortcode before the caret.
func (t *EmojiTooltip) InsertEmoji(e emojidata.Emoji) bool {
	if t.shortcode == "" {
		return false
	}
	t.clear()
	return t.ed.InsertMatchableHTML(e.Native, func(r rune) bool { return r == ':' })
}

// InsertCustomEmoji replaces the standard emoji before the caret with ce on
// the next mutation frame.
func (t *EmojiTooltip) InsertCustomEmoji(ce emojidata.CustomEmoji) bool {
	last := t.lastEmoji
	if !t.enabled || last == "" {
		return false
	}
	markup := t.ed.Marshaler().EmojiHTML(last, ce.DocumentID)
	t.clear()
	t.ed.Scheduler().RequestNextMutation(func() {
		t.ed.InsertMatchableHTML(markup, func(r rune) bool { return !strings.ContainsRune(last, r) })
	})
	return true
}
