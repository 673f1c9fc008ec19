package fmttext

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

type EntityType string

const (
	EntityBold        EntityType = "bold"
	EntityItalic      EntityType = "italic"
	EntityUnderline   EntityType = "underline"
	EntityStrike      EntityType = "strike"
	EntityCode        EntityType = "code"
	EntityPre         EntityType = "pre"
	EntitySpoiler     EntityType = "spoiler"
	EntityBlockquote  EntityType = "blockquote"
	EntityTextURL     EntityType = "url"
	EntityMentionName EntityType = "mention-name"
	EntityCustomEmoji EntityType = "custom-emoji"
)

// Entity is a typed span over FormattedText.Text. Offset and Length are byte
// offsets into the UTF-8 text.
type Entity struct {
	Type       EntityType `yaml:"type" json:"type"`
	Offset     int        `yaml:"offset" json:"offset"`
	Length     int        `yaml:"length" json:"length"`
	URL        string     `yaml:"url,omitempty" json:"url,omitempty"`
	Language   string     `yaml:"language,omitempty" json:"language,omitempty"`
	UserID     string     `yaml:"user_id,omitempty" json:"user_id,omitempty"`
	DocumentID string     `yaml:"document_id,omitempty" json:"document_id,omitempty"`
}

type FormattedText struct {
	Text     string   `yaml:"text" json:"text"`
	Entities []Entity `yaml:"entities,omitempty" json:"entities,omitempty"`
}

var (
	ErrUnknownEntity = errors.New("fmttext: unknown entity type")
	ErrEntityRange   = errors.New("fmttext: entity outside text")
	ErrInvalidUTF8   = errors.New("fmttext: text is not valid UTF-8")
)

func (e Entity) End() int { return e.Offset + e.Length }

func Plain(text string) FormattedText {
	return FormattedText{Text: text}
}

func (ft FormattedText) Clone() FormattedText {
	out := FormattedText{Text: ft.Text}
	if len(ft.Entities) > 0 {
		out.Entities = append([]Entity(nil), ft.Entities...)
	}
	return out
}

func (ft FormattedText) Empty() bool {
	return ft.Text == "" && len(ft.Entities) == 0
}

// IsBreakable reports whether overlapping spans of t are merged into maximal
// spans during normalization.
func IsBreakable(t EntityType) bool {
	switch t {
	case EntityBold, EntityItalic, EntityStrike, EntitySpoiler:
		return true
	}
	return false
}

func KnownType(t EntityType) bool {
	switch t {
	case EntityBold, EntityItalic, EntityUnderline, EntityStrike, EntityCode, EntityPre,
		EntitySpoiler, EntityBlockquote, EntityTextURL, EntityMentionName, EntityCustomEmoji:
		return true
	}
	return false
}

func (ft FormattedText) Validate() error {
	if !utf8.ValidString(ft.Text) {
		return ErrInvalidUTF8
	}
	for i, e := range ft.Entities {
		if !KnownType(e.Type) {
			return fmt.Errorf("%w: entity[%d] %q", ErrUnknownEntity, i, e.Type)
		}
		if e.Offset < 0 || e.Length <= 0 || e.End() > len(ft.Text) {
			return fmt.Errorf("%w: entity[%d] %s %d..%d of %d", ErrEntityRange, i, e.Type, e.Offset, e.End(), len(ft.Text))
		}
	}
	return nil
}

var typeOrder = map[EntityType]int{
	EntityBlockquote:  0,
	EntityPre:         1,
	EntityTextURL:     2,
	EntityMentionName: 3,
	EntitySpoiler:     4,
	EntityBold:        5,
	EntityItalic:      6,
	EntityUnderline:   7,
	EntityStrike:      8,
	EntityCode:        9,
	EntityCustomEmoji: 10,
}

// SortEntities orders by offset ascending, then by length descending so that
// enclosing spans come before the spans they contain.
func SortEntities(es []Entity) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		return typeOrder[a.Type] < typeOrder[b.Type]
	})
}

// UTF16Offset converts a byte offset into text to a UTF-16 code unit offset.
func UTF16Offset(text string, byteOff int) int {
	if byteOff > len(text) {
		byteOff = len(text)
	}
	n := 0
	for _, r := range text[:clampToRuneBoundary(text, byteOff)] {
		n += utf16RuneLen(r)
	}
	return n
}

// UTF16Entities returns a copy of the entities with offsets and lengths
// expressed in UTF-16 code units, the unit used by messaging wire formats.
func (ft FormattedText) UTF16Entities() []Entity {
	out := make([]Entity, 0, len(ft.Entities))
	for _, e := range ft.Entities {
		start := UTF16Offset(ft.Text, e.Offset)
		end := UTF16Offset(ft.Text, e.End())
		e.Offset = start
		e.Length = end - start
		out = append(out, e)
	}
	return out
}

// FromUTF16 builds a FormattedText from entities measured in UTF-16 code units.
func FromUTF16(text string, entities []Entity) FormattedText {
	// byteAt[i] is the byte offset of UTF-16 unit i.
	byteAt := make([]int, 0, len(text)+1)
	for i, r := range text {
		for k := 0; k < utf16RuneLen(r); k++ {
			byteAt = append(byteAt, i)
		}
	}
	byteAt = append(byteAt, len(text))
	conv := func(u int) int {
		if u < 0 {
			return 0
		}
		if u >= len(byteAt) {
			return len(text)
		}
		return byteAt[u]
	}
	out := FormattedText{Text: text}
	for _, e := range entities {
		start := conv(e.Offset)
		end := conv(e.Offset + e.Length)
		if end <= start {
			continue
		}
		e.Offset = start
		e.Length = end - start
		out.Entities = append(out.Entities, e)
	}
	return out
}

func clampToRuneBoundary(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}
