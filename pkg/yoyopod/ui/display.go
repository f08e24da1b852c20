package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Display is the rendering surface screens draw onto. Pixel rendering
// lives outside this system; a hardware adapter implements this
// interface elsewhere.
type Display interface {
	// Clear empties the surface.
	Clear()
	// Line places text on the given row.
	Line(row int, text string)
	// Flush presents everything drawn since the last Clear.
	Flush()
}

// TerminalDisplay renders to a writer, one frame per flush. Used in
// development and in tests.
type TerminalDisplay struct {
	mu    sync.Mutex
	w     io.Writer
	rows  int
	lines map[int]string
}

// NewTerminalDisplay creates a display with the given number of rows.
func NewTerminalDisplay(w io.Writer, rows int) *TerminalDisplay {
	if rows <= 0 {
		rows = 8
	}
	return &TerminalDisplay{w: w, rows: rows, lines: make(map[int]string)}
}

func (d *TerminalDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = make(map[int]string)
}

func (d *TerminalDisplay) Line(row int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= d.rows {
		return
	}
	d.lines[row] = text
}

func (d *TerminalDisplay) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Repeat("-", 24) + "\n")
	for row := 0; row < d.rows; row++ {
		b.WriteString(d.lines[row] + "\n")
	}
	b.WriteString(strings.Repeat("-", 24) + "\n")
	fmt.Fprint(d.w, b.String())
}
