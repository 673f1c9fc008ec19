package markdown

import (
	"sort"

	"richinput/pkg/fmttext"
)

type boundary struct {
	pos   int
	start bool
	typ   fmttext.EntityType
}

// Fixup rebuilds breakable entities (bold, italic, strike, spoiler) as
// maximal contiguous spans. Overlapping or touching spans of one type merge,
// empty spans are dropped and every other entity passes through untouched.
// The result is sorted by offset, longer spans first. Fixup(Fixup(x)) equals
// Fixup(x).
func Fixup(entities []fmttext.Entity) []fmttext.Entity {
	out := make([]fmttext.Entity, 0, len(entities))
	var events []boundary
	for _, e := range entities {
		if e.Length <= 0 {
			continue
		}
		if !fmttext.IsBreakable(e.Type) {
			out = append(out, e)
			continue
		}
		events = append(events,
			boundary{pos: e.Offset, start: true, typ: e.Type},
			boundary{pos: e.End(), start: false, typ: e.Type},
		)
	}

	// Starts sort before ends at the same position so touching spans merge.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].start && !events[j].start
	})

	depth := map[fmttext.EntityType]int{}
	opened := map[fmttext.EntityType]int{}
	for _, ev := range events {
		if ev.start {
			if depth[ev.typ] == 0 {
				opened[ev.typ] = ev.pos
			}
			depth[ev.typ]++
			continue
		}
		depth[ev.typ]--
		if depth[ev.typ] == 0 {
			if from := opened[ev.typ]; ev.pos > from {
				out = append(out, fmttext.Entity{Type: ev.typ, Offset: from, Length: ev.pos - from})
			}
		}
	}

	fmttext.SortEntities(out)
	return out
}
