// Package tui provides the interactive SQL console.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lflog/lflog/app"
	"github.com/lflog/lflog/output"
)

// Console is a tview application with a SQL input field, a scrollable
// results table and a status bar.
type Console struct {
	app     *tview.Application
	results *tview.Table
	status  *tview.TextView
	input   *tview.InputField

	session   *app.Session
	tableName string
	history   []string
	histPos   int
}

// Run opens the console for a session with one registered table and blocks
// until the user quits.
func Run(session *app.Session, tableName string) error {
	return NewConsole(session, tableName).Run()
}

// NewConsole builds the console UI without starting it.
func NewConsole(session *app.Session, tableName string) *Console {
	c := &Console{
		app:       tview.NewApplication(),
		results:   tview.NewTable(),
		status:    tview.NewTextView(),
		input:     tview.NewInputField(),
		session:   session,
		tableName: tableName,
	}

	c.results.
		SetFixed(1, 0).
		SetSelectable(true, false).
		SetBorder(true).
		SetTitle(" results ")

	c.status.
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	c.setStatus(fmt.Sprintf("table %q registered; type SQL and press Enter, Ctrl-C or .exit to quit", tableName))

	c.input.
		SetLabel("lflog> ").
		SetFieldBackgroundColor(tcell.ColorDefault)
	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := strings.TrimSpace(c.input.GetText())
		if line == "" {
			return
		}
		if line == ".exit" || line == ".quit" {
			c.app.Stop()
			return
		}
		c.history = append(c.history, line)
		c.histPos = len(c.history)
		c.input.SetText("")
		c.execute(line)
	})
	c.input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyUp:
			if c.histPos > 0 {
				c.histPos--
				c.input.SetText(c.history[c.histPos])
			}
			return nil
		case tcell.KeyDown:
			if c.histPos < len(c.history)-1 {
				c.histPos++
				c.input.SetText(c.history[c.histPos])
			} else {
				c.histPos = len(c.history)
				c.input.SetText("")
			}
			return nil
		case tcell.KeyTab:
			c.app.SetFocus(c.results)
			return nil
		}
		return ev
	})
	c.results.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyTab || ev.Key() == tcell.KeyEscape {
			c.app.SetFocus(c.input)
			return nil
		}
		return ev
	})

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.results, 0, 1, false).
		AddItem(c.status, 1, 0, false).
		AddItem(c.input, 1, 0, true)

	c.app.SetRoot(flex, true).SetFocus(c.input)
	return c
}

// Run starts the event loop.
func (c *Console) Run() error {
	return c.app.Run()
}

func (c *Console) execute(query string) {
	start := time.Now()
	rows, err := c.session.Query(context.Background(), query)
	if err != nil {
		c.setStatus(fmt.Sprintf("[red]error:[-] %v", err))
		return
	}
	defer rows.Close()

	cols, data, err := output.CollectRows(rows)
	if err != nil {
		c.setStatus(fmt.Sprintf("[red]error:[-] %v", err))
		return
	}

	c.results.Clear()
	for i, col := range cols {
		c.results.SetCell(0, i, tview.NewTableCell(col).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
	for r, row := range data {
		for i, cell := range row {
			c.results.SetCell(r+1, i, tview.NewTableCell(cell))
		}
	}
	c.results.ScrollToBeginning()
	c.setStatus(fmt.Sprintf("%d row(s) in %s", len(data), time.Since(start).Round(time.Millisecond)))
}

func (c *Console) setStatus(msg string) {
	c.status.SetText(" " + msg)
}
