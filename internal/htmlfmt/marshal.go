package htmlfmt

import (
	"html"
	"sort"
	"strconv"
	"strings"

	"richinput/pkg/fmttext"
)

const (
	ClassCustomEmoji = "custom-emoji"
	ClassSpoiler     = "spoiler"
	ClassBlockquote  = "blockquote"
	ClassCode        = "text-entity-code"
	ClassPre         = "text-entity-pre"
	ClassLink        = "text-entity-link"

	AttrEntityType = "data-entity-type"
	AttrUserID     = "data-user-id"
	AttrDocumentID = "data-document-id"
	AttrUniqueID   = "data-unique-id"
	AttrLanguage   = "data-language"
)

// Marshaler renders FormattedText as editor HTML. Custom emoji placeholders
// get ids from the marshaler's own counter, so two marshalers never need to
// coordinate.
type Marshaler struct {
	prefix string
	nextID int
}

func NewMarshaler(prefix string) *Marshaler {
	if prefix == "" {
		prefix = "ce"
	}
	return &Marshaler{prefix: prefix}
}

// NextUniqueID returns a fresh id for an inline custom emoji element.
func (m *Marshaler) NextUniqueID() string {
	m.nextID++
	return m.prefix + "-" + strconv.Itoa(m.nextID)
}

type openEntity struct {
	e   fmttext.Entity
	tag string
}

// ToHTML renders ft. Entities are nested as tags; a span that partially
// overlaps an enclosing one is closed and reopened around the boundary.
func (m *Marshaler) ToHTML(ft fmttext.FormattedText) string {
	text := ft.Text
	entities := make([]fmttext.Entity, 0, len(ft.Entities))
	for _, e := range ft.Entities {
		if e.Length <= 0 || e.Offset < 0 || e.Offset >= len(text) || !fmttext.KnownType(e.Type) {
			continue
		}
		if e.End() > len(text) {
			e.Length = len(text) - e.Offset
		}
		entities = append(entities, e)
	}
	fmttext.SortEntities(entities)

	cuts := map[int]bool{0: true, len(text): true}
	for _, e := range entities {
		cuts[e.Offset] = true
		cuts[e.End()] = true
	}
	positions := make([]int, 0, len(cuts))
	for p := range cuts {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	var b strings.Builder
	var stack []openEntity
	next := 0
	skipUntil := -1

	for i, pos := range positions {
		closing := false
		for _, o := range stack {
			if o.e.End() <= pos {
				closing = true
				break
			}
		}
		if closing {
			var reopen []openEntity
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				b.WriteString("</" + top.tag + ">")
				if top.e.End() > pos {
					reopen = append(reopen, top)
				}
				done := true
				for _, o := range stack {
					if o.e.End() <= pos {
						done = false
						break
					}
				}
				if done {
					break
				}
			}
			for j := len(reopen) - 1; j >= 0; j-- {
				b.WriteString(openTag(reopen[j].e))
				stack = append(stack, reopen[j])
			}
		}

		for next < len(entities) && entities[next].Offset == pos {
			e := entities[next]
			next++
			if pos < skipUntil {
				continue
			}
			if e.Type == fmttext.EntityCustomEmoji {
				b.WriteString(m.emojiTag(e, text[e.Offset:e.End()]))
				skipUntil = e.End()
				continue
			}
			b.WriteString(openTag(e))
			stack = append(stack, openEntity{e: e, tag: tagName(e.Type)})
		}

		if i+1 < len(positions) && pos >= skipUntil {
			writeText(&b, text[pos:positions[i+1]])
		}
	}
	for j := len(stack) - 1; j >= 0; j-- {
		b.WriteString("</" + stack[j].tag + ">")
	}
	return b.String()
}

func writeText(b *strings.Builder, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString("<br>")
		}
		b.WriteString(html.EscapeString(line))
	}
}

func tagName(t fmttext.EntityType) string {
	switch t {
	case fmttext.EntityBold:
		return "b"
	case fmttext.EntityItalic:
		return "i"
	case fmttext.EntityUnderline:
		return "u"
	case fmttext.EntityStrike:
		return "del"
	case fmttext.EntityCode:
		return "code"
	case fmttext.EntityPre:
		return "pre"
	case fmttext.EntitySpoiler:
		return "span"
	case fmttext.EntityBlockquote:
		return "blockquote"
	case fmttext.EntityTextURL, fmttext.EntityMentionName:
		return "a"
	}
	return "span"
}

func attr(k, v string) string {
	return " " + k + `="` + html.EscapeString(v) + `"`
}

func openTag(e fmttext.Entity) string {
	switch e.Type {
	case fmttext.EntityCode:
		return "<code" + attr("class", ClassCode) + ">"
	case fmttext.EntityPre:
		s := "<pre" + attr("class", ClassPre)
		if e.Language != "" {
			s += attr(AttrLanguage, e.Language)
		}
		return s + ">"
	case fmttext.EntitySpoiler:
		return "<span" + attr("class", ClassSpoiler) + attr(AttrEntityType, string(e.Type)) + ">"
	case fmttext.EntityBlockquote:
		return "<blockquote" + attr("class", ClassBlockquote) + attr(AttrEntityType, string(e.Type)) + ">"
	case fmttext.EntityTextURL:
		return "<a" + attr("href", e.URL) + attr("class", ClassLink) + attr(AttrEntityType, string(e.Type)) + ">"
	case fmttext.EntityMentionName:
		return "<a" + attr("class", ClassLink) + attr(AttrEntityType, string(e.Type)) +
			attr(AttrUserID, e.UserID) + attr("contenteditable", "false") + ">"
	}
	return "<" + tagName(e.Type) + ">"
}

func (m *Marshaler) emojiTag(e fmttext.Entity, alt string) string {
	return "<img" + attr("class", ClassCustomEmoji) + attr("draggable", "false") + attr("alt", alt) +
		attr(AttrDocumentID, e.DocumentID) + attr(AttrUniqueID, m.NextUniqueID()) + ">"
}

// EmojiHTML renders a single custom emoji placeholder for insertion at the
// caret.
func (m *Marshaler) EmojiHTML(emoji, documentID string) string {
	return m.emojiTag(fmttext.Entity{Type: fmttext.EntityCustomEmoji, DocumentID: documentID}, emoji)
}
