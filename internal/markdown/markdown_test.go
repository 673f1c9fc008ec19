package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"richinput/pkg/fmttext"
)

func ent(t fmttext.EntityType, off, length int) fmttext.Entity {
	return fmttext.Entity{Type: t, Offset: off, Length: length}
}

func TestParseDoubledMarkers(t *testing.T) {
	ft := Parse("a **bold** __it__ ~~gone~~ ||hidden||", nil)
	assert.Equal(t, "a bold it gone hidden", ft.Text)
	assert.Equal(t, []fmttext.Entity{
		ent(fmttext.EntityBold, 2, 4),
		ent(fmttext.EntityItalic, 7, 2),
		ent(fmttext.EntityStrike, 10, 4),
		ent(fmttext.EntitySpoiler, 15, 6),
	}, ft.Entities)
}

func TestParseLoneMarkersStayLiteral(t *testing.T) {
	for _, in := range []string{"*a*", "_a_", "~a~", "|a|", "a * b", "**only one", "x __ y", "2*3=6"} {
		ft := Parse(in, nil)
		assert.Equal(t, in, ft.Text, in)
		assert.Empty(t, ft.Entities, in)
	}
}

func TestParseInlineCodeExcludesMarkers(t *testing.T) {
	ft := Parse("run `**not bold** __x__` now", nil)
	assert.Equal(t, "run **not bold** __x__ now", ft.Text)
	require.Len(t, ft.Entities, 1)
	assert.Equal(t, ent(fmttext.EntityCode, 4, 18), ft.Entities[0])
}

func TestParsePreWithLanguage(t *testing.T) {
	ft := Parse("```go\nfmt.Println(**x**)\n```", nil)
	assert.Equal(t, "fmt.Println(**x**)", ft.Text)
	require.Len(t, ft.Entities, 1)
	assert.Equal(t, fmttext.EntityPre, ft.Entities[0].Type)
	assert.Equal(t, "go", ft.Entities[0].Language)
	assert.Equal(t, 0, ft.Entities[0].Offset)
	assert.Equal(t, len(ft.Text), ft.Entities[0].Length)
}

func TestParsePreSingleLineHasNoLanguage(t *testing.T) {
	ft := Parse("```code here```", nil)
	assert.Equal(t, "code here", ft.Text)
	require.Len(t, ft.Entities, 1)
	assert.Equal(t, "", ft.Entities[0].Language)
}

func TestParseEmptyPreDegradesToLiteral(t *testing.T) {
	for _, in := range []string{"``` ```", "``````", "```\n\n```"} {
		ft := Parse(in, nil)
		assert.Equal(t, in, ft.Text, in)
		assert.Empty(t, ft.Entities, in)
	}
}

func TestParseUnterminatedCodeIsLiteral(t *testing.T) {
	ft := Parse("`a` and `b", nil)
	assert.Equal(t, "a and `b", ft.Text)
	assert.Equal(t, []fmttext.Entity{ent(fmttext.EntityCode, 0, 1)}, ft.Entities)

	ft = Parse("```go\nx := 1", nil)
	assert.Equal(t, "```go\nx := 1", ft.Text)
	assert.Empty(t, ft.Entities)
}

func TestParseTrimShiftsEntities(t *testing.T) {
	ft := Parse("   **hi** there  ", nil)
	assert.Equal(t, "hi there", ft.Text)
	assert.Equal(t, []fmttext.Entity{ent(fmttext.EntityBold, 0, 2)}, ft.Entities)
}

func TestParseReprojectsExternalEntities(t *testing.T) {
	// "link" sits at raw offset 9 in the marked-up text.
	raw := "**bold** link"
	ext := []fmttext.Entity{{Type: fmttext.EntityTextURL, Offset: 9, Length: 4, URL: "https://x.test"}}
	ft := Parse(raw, ext)
	assert.Equal(t, "bold link", ft.Text)
	require.Len(t, ft.Entities, 2)
	assert.Equal(t, ent(fmttext.EntityBold, 0, 4), ft.Entities[0])
	assert.Equal(t, fmttext.Entity{Type: fmttext.EntityTextURL, Offset: 5, Length: 4, URL: "https://x.test"}, ft.Entities[1])
}

func TestParseKeepsMarkersInsideExternalCode(t *testing.T) {
	ft := Parse("**x** a **b** c", []fmttext.Entity{ent(fmttext.EntityCode, 6, 9)})
	assert.Equal(t, "x a **b** c", ft.Text)
	assert.Equal(t, []fmttext.Entity{
		ent(fmttext.EntityBold, 0, 1),
		ent(fmttext.EntityCode, 2, 9),
	}, ft.Entities)
}

func TestParseNestedMarkers(t *testing.T) {
	ft := Parse("**a __b__ c**", nil)
	assert.Equal(t, "a b c", ft.Text)
	assert.Equal(t, []fmttext.Entity{
		ent(fmttext.EntityBold, 0, 5),
		ent(fmttext.EntityItalic, 2, 1),
	}, ft.Entities)
}

func TestParseNeverPanicsOnMarkerSoup(t *testing.T) {
	for _, in := range []string{"", "`", "```", "****", "||||||", "`*`*`", "``` `` ```", "~~~", " ** **"} {
		assert.NotPanics(t, func() { _ = Parse(in, nil) }, in)
		ft := Parse(in, nil)
		assert.NoError(t, ft.Validate(), in)
	}
}

func TestFixupMergesOverlappingSpans(t *testing.T) {
	in := []fmttext.Entity{
		ent(fmttext.EntityBold, 0, 4),
		ent(fmttext.EntityBold, 2, 6),
		ent(fmttext.EntityBold, 8, 2),
		ent(fmttext.EntityItalic, 3, 1),
		ent(fmttext.EntityCode, 1, 2),
		ent(fmttext.EntitySpoiler, 12, 0),
	}
	out := Fixup(in)
	assert.Equal(t, []fmttext.Entity{
		ent(fmttext.EntityBold, 0, 10),
		ent(fmttext.EntityCode, 1, 2),
		ent(fmttext.EntityItalic, 3, 1),
	}, out)
}

func TestFixupIsIdempotent(t *testing.T) {
	cases := [][]fmttext.Entity{
		{ent(fmttext.EntityBold, 0, 3), ent(fmttext.EntityBold, 1, 5), ent(fmttext.EntityStrike, 4, 2)},
		{ent(fmttext.EntitySpoiler, 5, 1), ent(fmttext.EntitySpoiler, 0, 5), ent(fmttext.EntityPre, 0, 9)},
		{ent(fmttext.EntityItalic, 2, 2), ent(fmttext.EntityItalic, 2, 2), ent(fmttext.EntityBlockquote, 0, 7)},
		Parse("**a** **b** __c__ ||d||", nil).Entities,
	}
	for _, c := range cases {
		once := Fixup(c)
		assert.Equal(t, once, Fixup(once))
	}
}
