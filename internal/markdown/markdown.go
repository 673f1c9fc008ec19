// Package markdown turns shorthand markup typed into the composer into
// formatted text. Malformed markup is never an error: it stays literal.
package markdown

import (
	"sort"
	"strings"
	"unicode"

	"richinput/pkg/fmttext"
)

type tokenKind uint8

const (
	tokText tokenKind = iota
	tokBold
	tokItalic
	tokStrike
	tokSpoiler
	tokCode
	tokPre
)

var markerKinds = map[byte]tokenKind{
	'*': tokBold,
	'_': tokItalic,
	'~': tokStrike,
	'|': tokSpoiler,
}

var entityForKind = map[tokenKind]fmttext.EntityType{
	tokBold:    fmttext.EntityBold,
	tokItalic:  fmttext.EntityItalic,
	tokStrike:  fmttext.EntityStrike,
	tokSpoiler: fmttext.EntitySpoiler,
	tokCode:    fmttext.EntityCode,
	tokPre:     fmttext.EntityPre,
}

type token struct {
	kind tokenKind
	str  string
	lang string
}

// consumed records that n marker bytes were elided at output position pos.
type consumed struct {
	pos int
	n   int
}

// span is a byte range of the input that tokenizing leaves alone.
type span struct {
	start int
	end   int
}

// literalSpans collects the external code and pre ranges. Markers inside
// them are part of the code.
func literalSpans(external []fmttext.Entity) []span {
	var out []span
	for _, e := range external {
		if e.Type == fmttext.EntityCode || e.Type == fmttext.EntityPre {
			out = append(out, span{start: e.Offset, end: e.End()})
		}
	}
	return out
}

func inSpans(spans []span, i int) bool {
	for _, s := range spans {
		if i >= s.start && i < s.end {
			return true
		}
	}
	return false
}

// Parse converts markup to formatted text. External entities are measured
// against the raw input and are re-projected onto the stripped output.
// Text covered by an external code or pre entity stays literal.
func Parse(text string, external []fmttext.Entity) fmttext.FormattedText {
	tokens := codePass(tokenize(text, literalSpans(external)))
	ft, elided := tokensToEntities(tokens)
	ft = addExternal(ft, elided, external)
	ft = trim(ft)
	ft.Entities = Fixup(ft.Entities)
	return ft
}

func tokenize(text string, literal []span) []token {
	var tokens []token
	var accum strings.Builder
	flush := func() {
		if accum.Len() > 0 {
			tokens = append(tokens, token{kind: tokText, str: accum.String()})
			accum.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inSpans(literal, i) {
			accum.WriteByte(c)
			continue
		}
		if c == '`' {
			flush()
			if strings.HasPrefix(text[i:], "```") {
				tokens = append(tokens, token{kind: tokPre, str: "```"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokCode, str: "`"})
			}
			continue
		}
		if kind, ok := markerKinds[c]; ok && i+1 < len(text) && text[i+1] == c && !inSpans(literal, i+1) {
			flush()
			tokens = append(tokens, token{kind: kind, str: text[i : i+2]})
			i++
			continue
		}
		accum.WriteByte(c)
	}
	flush()
	return tokens
}

func countTokens(tokens []token) map[tokenKind]int {
	counts := map[tokenKind]int{}
	for _, t := range tokens {
		if t.kind != tokText {
			counts[t.kind]++
		}
	}
	return counts
}

func isCode(k tokenKind) bool { return k == tokCode || k == tokPre }

// codePass flattens every marker inside a code region into literal text.
// Region delimiters survive as an open/close pair around one text token.
func codePass(tokens []token) []token {
	counts := countTokens(tokens)
	res := make([]token, 0, len(tokens))
	literal := func(s string) {
		if s == "" {
			return
		}
		if n := len(res); n > 0 && res[n-1].kind == tokText {
			res[n-1].str += s
			return
		}
		res = append(res, token{kind: tokText, str: s})
	}

	var open *token
	var accum strings.Builder
	for _, t := range tokens {
		switch {
		case open == nil && isCode(t.kind):
			counts[t.kind]--
			if counts[t.kind] >= 1 {
				o := t
				open = &o
				continue
			}
			literal(t.str)
		case open == nil:
			if t.kind == tokText {
				literal(t.str)
			} else {
				res = append(res, t)
			}
		case t.kind == open.kind:
			counts[t.kind]--
			body := accum.String()
			accum.Reset()
			if open.kind == tokPre {
				lang, content, ok := preLanguage(body)
				if !ok {
					literal(open.str + body + t.str)
				} else {
					res = append(res, *open, token{kind: tokText, str: content}, token{kind: tokPre, str: t.str, lang: lang})
				}
			} else if body == "" {
				literal(open.str + t.str)
			} else {
				res = append(res, *open, token{kind: tokText, str: body}, t)
			}
			open = nil
		default:
			if t.kind != tokText {
				counts[t.kind]--
			}
			accum.WriteString(t.str)
		}
	}
	if open != nil {
		literal(open.str + accum.String())
	}
	return res
}

// preLanguage splits a pre block body into an optional language tag and the
// trimmed content. ok is false when there is no content at all.
func preLanguage(body string) (lang, content string, ok bool) {
	full := strings.TrimSpace(body)
	if full == "" {
		return "", "", false
	}
	rest := full
	if br := strings.IndexByte(body, '\n'); br != -1 {
		lang = strings.TrimSpace(body[:br])
		rest = strings.TrimSpace(body[br+1:])
	}
	if rest == "" {
		return "", full, true
	}
	return lang, rest, true
}

func tokensToEntities(tokens []token) (fmttext.FormattedText, []consumed) {
	counts := countTokens(tokens)
	starts := map[tokenKind]int{}
	var out strings.Builder
	var entities []fmttext.Entity
	var elided []consumed

	for _, t := range tokens {
		if t.kind == tokText {
			out.WriteString(t.str)
			continue
		}
		if start, ok := starts[t.kind]; ok {
			e := fmttext.Entity{Type: entityForKind[t.kind], Offset: start, Length: out.Len() - start}
			if t.kind == tokPre {
				e.Language = t.lang
			}
			entities = append(entities, e)
			elided = append(elided, consumed{pos: out.Len(), n: len(t.str)})
			counts[t.kind]--
			delete(starts, t.kind)
			continue
		}
		if counts[t.kind] >= 2 {
			elided = append(elided, consumed{pos: out.Len(), n: len(t.str)})
			counts[t.kind]--
			starts[t.kind] = out.Len()
			continue
		}
		out.WriteString(t.str)
	}
	return fmttext.FormattedText{Text: out.String(), Entities: entities}, elided
}

func addExternal(ft fmttext.FormattedText, elided []consumed, external []fmttext.Entity) fmttext.FormattedText {
	if len(external) == 0 {
		return ft
	}
	sort.Slice(elided, func(i, j int) bool { return elided[i].pos < elided[j].pos })
	ext := append([]fmttext.Entity(nil), external...)
	sort.SliceStable(ext, func(i, j int) bool { return ext[i].Offset < ext[j].Offset })

	for _, e := range ext {
		start, end := e.Offset, e.End()
		for _, c := range elided {
			if start >= c.pos {
				start -= min(c.n, start-c.pos)
			}
			if end >= c.pos {
				end -= min(c.n, end-c.pos)
			}
		}
		if end > len(ft.Text) {
			end = len(ft.Text)
		}
		if start < 0 {
			start = 0
		}
		if end <= start {
			continue
		}
		e.Offset = start
		e.Length = end - start
		ft.Entities = append(ft.Entities, e)
	}
	return ft
}

func trim(ft fmttext.FormattedText) fmttext.FormattedText {
	size := len(ft.Text)
	text := strings.TrimLeftFunc(ft.Text, unicode.IsSpace)
	shift := size - len(text)
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if len(text) == size {
		return ft
	}

	out := fmttext.FormattedText{Text: text}
	for _, e := range ft.Entities {
		if e.Offset < shift {
			e.Length = e.Offset + e.Length - shift
			e.Offset = 0
		} else {
			e.Offset -= shift
		}
		if e.Offset > len(text) {
			continue
		}
		if e.End() > len(text) {
			e.Length = len(text) - e.Offset
		}
		if e.Length <= 0 {
			continue
		}
		out.Entities = append(out.Entities, e)
	}
	return out
}
