// Package ui shows a finished analysis report in a two-pane terminal viewer:
// the section list on the left, the selected section on the right.
//
// Purpose:
//   - Browse long reports (many nodes, many error lines) without scrolling
//     the whole console output.
//
// Key aspects:
//   - Read-only. Sections are rendered once before the viewer starts.
//   - Tab/Shift-Tab move focus between panes; 1-9 jump to a section;
//     arrows, j/k, PgUp/PgDn, Home/End scroll the body; q or Esc quits.
//   - / opens a search box; the body then shows only matching lines.
//
// Upstream: report.Build output assembled by the CLI.
// Downstream: none.
package ui

import (
	"context"
	"fmt"

	"meshlog/report"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Viewer is the interactive report browser.
type Viewer struct {
	app      *tview.Application
	root     *tview.Flex
	list     *tview.List
	body     *tview.TextView
	footer   *tview.TextView
	search   *tview.InputField
	filter   *SearchFilter
	cancel   context.CancelFunc
	sections []report.Section
	emoji    bool
	focus    focusGroup
	current  int
}

// NewViewer builds the layout for sections. Nothing is drawn until Run.
func NewViewer(sections []report.Section, emoji bool) *Viewer {
	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		app:      tview.NewApplication(),
		filter:   NewSearchFilter(ctx),
		cancel:   cancel,
		sections: sections,
		emoji:    emoji,
	}

	v.list = tview.NewList().ShowSecondaryText(false)
	v.list.SetBorder(true)
	v.list.SetSelectedBackgroundColor(uiSelectedBg)
	v.list.SetSelectedTextColor(uiSelectedFg)
	v.list.SetShortcutColor(uiSecondaryColor)
	for i, s := range sections {
		var shortcut rune
		if i < 9 {
			shortcut = rune('1' + i)
		}
		v.list.AddItem(sectionLabel(s, emoji), "", shortcut, nil)
	}
	v.list.SetChangedFunc(func(index int, _ string, _ string, _ rune) {
		v.show(index)
	})

	v.body = tview.NewTextView().SetDynamicColors(true).SetWrap(false).SetScrollable(true)
	v.body.SetBorder(true)

	v.footer = tview.NewTextView().SetDynamicColors(true).SetText(
		accentText("Tab") + " Switch pane  " + accentText("1-9") + " Section  " +
			accentText("j/k") + " Scroll  " + accentText("/") + " Search  " + accentText("q") + " Quit")

	v.search = tview.NewInputField().SetLabel("/ ")
	v.search.SetLabelColor(uiTitleColor)
	v.search.SetChangedFunc(func(text string) {
		v.filter.SetQuery(text, v.refresh)
	})
	v.search.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			v.clearSearch()
		}
		v.focus.set(v.app, v.focus.index)
	})

	v.focus = newFocusGroup(
		newListFocusBox(v.list, "Sections"),
		newTextFocusBox(v.body, "Report"),
	)

	v.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(v.list, 30, 0, true).
			AddItem(v.body, 0, 1, false), 0, 1, true).
		AddItem(tview.NewFlex().
			AddItem(v.footer, 0, 2, false).
			AddItem(v.search, 0, 1, false), 1, 0, false)

	v.app.SetRoot(v.root, true)
	v.app.SetInputCapture(v.handleKey)
	v.focus.set(v.app, 0)
	v.show(0)
	return v
}

// Run blocks until the user quits.
func (v *Viewer) Run() error {
	defer func() {
		v.filter.Stop()
		v.cancel()
	}()
	if err := v.app.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// Select shows section idx and moves the list cursor to it.
func (v *Viewer) Select(idx int) {
	if idx < 0 || idx >= len(v.sections) {
		return
	}
	v.list.SetCurrentItem(idx)
	v.show(idx)
}

// Current returns the index of the displayed section.
func (v *Viewer) Current() int {
	return v.current
}

func (v *Viewer) show(idx int) {
	if idx < 0 || idx >= len(v.sections) {
		v.body.SetText("")
		return
	}
	v.current = idx
	v.body.SetText(sectionBody(v.sections[idx], v.emoji, v.filter.ActiveQuery()))
	v.body.ScrollToBeginning()
}

// refresh runs on the debounce timer goroutine.
func (v *Viewer) refresh() {
	v.app.QueueUpdateDraw(func() {
		v.show(v.current)
	})
}

func (v *Viewer) clearSearch() {
	v.search.SetText("")
	// SetText re-arms the debounce through the changed func.
	v.filter.Clear()
	v.show(v.current)
}

func (v *Viewer) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil {
		return nil
	}
	if v.app.GetFocus() == v.search {
		return event
	}
	switch event.Key() {
	case tcell.KeyTab:
		v.focus.cycle(v.app, 1)
		return nil
	case tcell.KeyBacktab:
		v.focus.cycle(v.app, -1)
		return nil
	case tcell.KeyEscape:
		v.app.Stop()
		return nil
	case tcell.KeyRune:
		r := event.Rune()
		if r == 'q' {
			v.app.Stop()
			return nil
		}
		if r == '/' {
			v.app.SetFocus(v.search)
			return nil
		}
		if r >= '1' && r <= '9' {
			v.Select(int(r - '1'))
			return nil
		}
	}
	if v.focus.index == 1 && v.focus.handleScroll(event) {
		return nil
	}
	return event
}

func sectionLabel(s report.Section, emoji bool) string {
	title := s.Title
	if title == "" {
		title = s.Key
	}
	if emoji && s.Icon != "" {
		return s.Icon + " " + title
	}
	return title
}

// sectionBody escapes the rendered text; log lines often contain brackets
// that tview would otherwise read as style tags.
func sectionBody(s report.Section, emoji bool, query string) string {
	return tview.Escape(filterLines(s.Text(emoji), query))
}
