package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"
)

var (
	uiBorderColor    = tcell.ColorGray
	uiFocusColor     = tcell.ColorHotPink
	uiTitleColor     = tcell.ColorHotPink
	uiDimTitleColor  = tcell.ColorSilver
	uiSelectedBg     = tcell.ColorHotPink
	uiSelectedFg     = tcell.ColorBlack
	uiSecondaryColor = tcell.ColorDarkGray
)

func accentText(s string) string {
	return accentTag + s + accentReset
}

// focusable abstracts a focusable primitive with optional scroll handling.
type focusable interface {
	Primitive() tview.Primitive
	SetFocused(focused bool)
	HandleScroll(event *tcell.EventKey) bool
}

// focusBox wraps a boxed primitive with focus styling metadata.
type focusBox struct {
	box        *tview.Box
	prim       tview.Primitive
	tv         *tview.TextView
	baseTitle  string
	scrollable bool
}

func newTextFocusBox(tv *tview.TextView, baseTitle string) *focusBox {
	return &focusBox{box: tv.Box, prim: tv, tv: tv, baseTitle: baseTitle, scrollable: true}
}

func newListFocusBox(list *tview.List, baseTitle string) *focusBox {
	return &focusBox{box: list.Box, prim: list, baseTitle: baseTitle}
}

func (b *focusBox) Primitive() tview.Primitive {
	if b == nil {
		return nil
	}
	return b.prim
}

func (b *focusBox) SetFocused(focused bool) {
	if b == nil || b.box == nil {
		return
	}
	applyFocusStyle(b.box, b.baseTitle, focused)
}

func (b *focusBox) HandleScroll(event *tcell.EventKey) bool {
	if b == nil || !b.scrollable {
		return false
	}
	return scrollTextView(b.tv, event)
}

// applyFocusStyle highlights the border and title of the focused pane.
func applyFocusStyle(box *tview.Box, title string, focused bool) {
	if focused {
		box.SetBorderColor(uiFocusColor)
		box.SetTitleColor(uiTitleColor)
		box.SetTitle(" " + title + " ")
		return
	}
	box.SetBorderColor(uiBorderColor)
	box.SetTitleColor(uiDimTitleColor)
	box.SetTitle(" " + title + " ")
}

// focusGroup manages focus cycling and scroll handling for a set of panes.
type focusGroup struct {
	items []focusable
	index int
}

func newFocusGroup(items ...focusable) focusGroup {
	filtered := make([]focusable, 0, len(items))
	for _, item := range items {
		if item == nil || item.Primitive() == nil {
			continue
		}
		filtered = append(filtered, item)
	}
	return focusGroup{items: filtered}
}

func (g *focusGroup) set(app *tview.Application, idx int) {
	if g == nil || len(g.items) == 0 {
		return
	}
	if idx < 0 || idx >= len(g.items) {
		idx = 0
	}
	g.index = idx
	for i, item := range g.items {
		item.SetFocused(i == idx)
	}
	if app != nil {
		app.SetFocus(g.items[idx].Primitive())
	}
}

func (g *focusGroup) cycle(app *tview.Application, delta int) {
	if g == nil || len(g.items) == 0 {
		return
	}
	next := g.index + delta
	if next < 0 {
		next = len(g.items) - 1
	} else if next >= len(g.items) {
		next = 0
	}
	g.set(app, next)
}

// handleScroll forwards event to the focused pane.
func (g *focusGroup) handleScroll(event *tcell.EventKey) bool {
	if g == nil || event == nil || len(g.items) == 0 {
		return false
	}
	return g.items[g.index].HandleScroll(event)
}

func scrollTextView(target *tview.TextView, event *tcell.EventKey) bool {
	if target == nil || event == nil {
		return false
	}
	row, col := target.GetScrollOffset()
	page := 10
	_, _, _, height := target.GetInnerRect()
	if height > 0 {
		page = height - 1
		if page < 1 {
			page = 1
		}
	}
	switch event.Key() {
	case tcell.KeyUp:
		if row > 0 {
			row--
		}
	case tcell.KeyDown:
		row++
	case tcell.KeyPgUp:
		row -= page
		if row < 0 {
			row = 0
		}
	case tcell.KeyPgDn:
		row += page
	case tcell.KeyHome:
		row = 0
	case tcell.KeyEnd:
		row = 1 << 30
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			if row > 0 {
				row--
			}
		case 'j':
			row++
		default:
			return false
		}
	default:
		return false
	}
	target.ScrollTo(row, col)
	return true
}
