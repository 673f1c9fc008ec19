package editable

import (
	"richinput/internal/dom"
	"richinput/internal/htmlfmt"
	"richinput/pkg/fmttext"
)

// PasteCtx is what paste handlers see and may rewrite before the text is
// inserted. Clearing Text.Text cancels the insertion.
type PasteCtx struct {
	Text           fmttext.FormattedText
	HTML           string
	Files          []dom.TransferItem
	IsWordDocument bool
}

type pasteEntry struct {
	fn func(*PasteCtx)
	id uint64
}

// AddPasteHandler registers fn and returns its remover.
func (e *Editable) AddPasteHandler(fn func(*PasteCtx)) func() {
	e.seq++
	entry := pasteEntry{fn: fn, id: e.seq}
	e.paste = append(e.paste, entry)
	return func() {
		for i, other := range e.paste {
			if other.id == entry.id {
				e.paste = append(e.paste[:i], e.paste[i+1:]...)
				return
			}
		}
	}
}

func (e *Editable) onPaste(ev *dom.Event) {
	if !e.inRoot(ev.Target) || !e.HasFocus() {
		return
	}
	ev.PreventDefault()

	dt := ev.Clipboard
	ctx := &PasteCtx{
		HTML:  dt.GetData("text/html"),
		Files: dt.Files(),
		Text:  fmttext.Plain(dt.GetData("text/plain")),
	}
	if ctx.HTML != "" {
		ctx.IsWordDocument = htmlfmt.IsWordDocument(ctx.HTML)
		markup := ctx.HTML
		if e.cfg.SanitizePaste {
			markup = htmlfmt.Sanitize(markup)
		}
		if parsed := htmlfmt.Parse(markup, htmlfmt.ParseOptions{}); len(parsed.Entities) > 0 {
			ctx.Text = parsed
		}
	}

	for _, entry := range append([]pasteEntry(nil), e.paste...) {
		entry.fn(ctx)
	}

	e.log.Debug().
		Int("length", len(ctx.Text.Text)).
		Int("entities", len(ctx.Text.Entities)).
		Int("files", len(ctx.Files)).
		Msg("[editable] paste")
	if ctx.Text.Text != "" {
		e.InsertFormattedText(ctx.Text)
	}
}
