package platform

import (
	"golang.org/x/net/html"

	"richinput/internal/dom"
)

// Apply feeds ev into doc the way a browser would. It reports false when a
// listener prevented the default action.
func Apply(doc *dom.Document, ev Event) bool {
	switch ev.Type {
	case EventResize:
		doc.Resize(ev.Width, ev.Height)
	case EventDPIChanged:
		if ev.Scale > 0 {
			doc.SetPixelRatio(float64(ev.Scale))
		}
	case EventKeyDown:
		return doc.PressKey(ev.Key, ev.Mods)
	case EventTextInput:
		doc.TypeText(ev.Text)
	case EventPaste:
		dt := dom.NewDataTransfer()
		if ev.Text != "" {
			dt.SetData("text/plain", ev.Text)
		}
		if ev.HTML != "" {
			dt.SetData("text/html", ev.HTML)
		}
		for _, f := range ev.Files {
			dt.AddFile(f.Name, f.Type, f.Data)
		}
		return doc.Paste(dt)
	case EventFocus:
		if el := focusTarget(doc); el != nil {
			doc.Click(el)
		}
	case EventBlur:
		doc.Blur()
	case EventVisibility:
		doc.SetHidden(ev.Hidden)
	}
	return true
}

// focusTarget picks the first editing host in the document.
func focusTarget(doc *dom.Document) *html.Node {
	hosts := dom.QueryAll(doc.Body(), func(n *html.Node) bool {
		return dom.AttrOr(n, "contenteditable", "") == "true"
	})
	if len(hosts) == 0 {
		return nil
	}
	return hosts[0]
}
