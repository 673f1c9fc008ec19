package ui

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"richinput/pkg/fmttext"
)

const quotePrefix = "│ "

type TerminalOptions struct {
	// HideSpoilers masks spoiler text instead of showing it reversed.
	HideSpoilers bool
}

// Terminal renders formatted text with ANSI styles. Writers without color
// support get plain text with quote prefixes and spoiler masks only.
type Terminal struct {
	r    *lipgloss.Renderer
	opts TerminalOptions

	code    lipgloss.Color
	link    lipgloss.Color
	mention lipgloss.Color
	quote   lipgloss.Style
}

func NewTerminal(w io.Writer, theme Theme, opts TerminalOptions) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		r:       r,
		opts:    opts,
		code:    lipgloss.Color(Hex(theme.Code)),
		link:    lipgloss.Color(Hex(theme.Link)),
		mention: lipgloss.Color(Hex(theme.Accent)),
		quote:   r.NewStyle().Foreground(lipgloss.Color(Hex(theme.Border))),
	}
}

// Segment is a run of text covered by the same entities.
type Segment struct {
	Start, End int
	Active     []fmttext.Entity
}

// Segments cuts text at every entity boundary.
func Segments(ft fmttext.FormattedText) []Segment {
	cuts := []int{0, len(ft.Text)}
	for _, e := range ft.Entities {
		cuts = append(cuts, e.Offset, e.End())
	}
	sort.Ints(cuts)

	var out []Segment
	for i := 1; i < len(cuts); i++ {
		a, b := cuts[i-1], cuts[i]
		if a == b || a < 0 || b > len(ft.Text) {
			continue
		}
		seg := Segment{Start: a, End: b}
		for _, e := range ft.Entities {
			if e.Offset <= a && e.End() >= b {
				seg.Active = append(seg.Active, e)
			}
		}
		out = append(out, seg)
	}
	return out
}

func (t *Terminal) style(active []fmttext.Entity) (lipgloss.Style, bool, bool) {
	s := t.r.NewStyle()
	var quoted, hidden bool
	for _, e := range active {
		switch e.Type {
		case fmttext.EntityBold:
			s = s.Bold(true)
		case fmttext.EntityItalic:
			s = s.Italic(true)
		case fmttext.EntityUnderline:
			s = s.Underline(true)
		case fmttext.EntityStrike:
			s = s.Strikethrough(true)
		case fmttext.EntityCode, fmttext.EntityPre:
			s = s.Foreground(t.code)
		case fmttext.EntityTextURL:
			s = s.Underline(true).Foreground(t.link)
		case fmttext.EntityMentionName:
			s = s.Bold(true).Foreground(t.mention)
		case fmttext.EntitySpoiler:
			if t.opts.HideSpoilers {
				hidden = true
			} else {
				s = s.Reverse(true)
			}
		case fmttext.EntityBlockquote:
			quoted = true
		}
	}
	return s, quoted, hidden
}

func (t *Terminal) Render(ft fmttext.FormattedText) string {
	var sb strings.Builder
	for _, seg := range Segments(ft) {
		style, quoted, hidden := t.style(seg.Active)
		text := ft.Text[seg.Start:seg.End]
		lineStart := seg.Start == 0 || ft.Text[seg.Start-1] == '\n'
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				sb.WriteByte('\n')
				lineStart = true
			}
			if quoted && lineStart {
				sb.WriteString(t.quote.Render(quotePrefix))
			}
			lineStart = false
			if line == "" {
				continue
			}
			if hidden {
				line = strings.Repeat("░", len([]rune(line)))
			}
			sb.WriteString(style.Render(line))
		}
	}
	return sb.String()
}
