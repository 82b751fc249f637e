package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	runewidth "github.com/mattn/go-runewidth"
)

const (
	buttonGap     = 1
	buttonPadding = 2

	defaultBoardWidth  = 80
	defaultBoardHeight = 10
)

// button is one word on the board. activate is fixed when the button is
// created.
type button struct {
	label    string
	activate func() tea.Cmd
}

// cell is where a button sits once laid out.
type cell struct {
	row   int
	x     int
	width int
}

// board renders words as buttons flowing left to right in rows that fill
// the available width, scrolling vertically when there are more rows than
// fit.
type board struct {
	buttons []button
	cells   []cell
	rows    [][]int

	focus   int
	focused bool

	width  int
	height int
	offset int
}

func newBoard() board {
	return board{
		focus:  -1,
		width:  defaultBoardWidth,
		height: defaultBoardHeight,
	}
}

// Append adds one button per word, keeping order and duplicates. Existing
// buttons are left alone.
func (b *board) Append(words []string, activate func(word string) tea.Cmd) {
	for _, w := range words {
		b.buttons = append(b.buttons, button{
			label: w,
			activate: func() tea.Cmd {
				return activate(w)
			},
		})
	}
	b.layout()
}

// Clear removes every button.
func (b *board) Clear() {
	b.buttons = nil
	b.cells = nil
	b.rows = nil
	b.focus = -1
	b.offset = 0
}

func (b board) Len() int {
	return len(b.buttons)
}

// Words returns the button labels in order.
func (b board) Words() []string {
	out := make([]string, len(b.buttons))
	for i, btn := range b.buttons {
		out[i] = btn.label
	}
	return out
}

func (b *board) SetSize(w, h int) {
	b.width = max(w, 1)
	b.height = max(h, 0)
	b.layout()
	b.scrollToFocus()
}

func (b board) maxLabelWidth() int {
	return max(b.width-buttonPadding, 1)
}

func (b board) labelText(label string) string {
	return runewidth.Truncate(label, b.maxLabelWidth(), ellipsis)
}

func (b *board) layout() {
	b.cells = make([]cell, len(b.buttons))
	b.rows = b.rows[:0]

	var (
		row, x int
		cur    []int
	)
	for i, btn := range b.buttons {
		w := runewidth.StringWidth(b.labelText(btn.label)) + buttonPadding
		if x > 0 && x+w > b.width {
			b.rows = append(b.rows, cur)
			cur = nil
			row++
			x = 0
		}
		b.cells[i] = cell{row: row, x: x, width: w}
		cur = append(cur, i)
		x += w + buttonGap
	}
	if len(cur) > 0 {
		b.rows = append(b.rows, cur)
	}
}

// Focus gives the board keyboard focus, selecting the first button if none
// was selected yet.
func (b *board) Focus() {
	b.focused = true
	if b.focus < 0 && len(b.buttons) > 0 {
		b.focus = 0
	}
	b.scrollToFocus()
}

func (b *board) Blur() {
	b.focused = false
}

// Focused returns the word of the selected button.
func (b board) Focused() (string, bool) {
	if b.focus < 0 || b.focus >= len(b.buttons) {
		return "", false
	}
	return b.buttons[b.focus].label, true
}

func (b *board) SetFocus(i int) {
	if i < 0 || i >= len(b.buttons) {
		return
	}
	b.focus = i
	b.scrollToFocus()
}

// Move selects the button delta positions away in reading order.
func (b *board) Move(delta int) {
	if len(b.buttons) == 0 {
		return
	}
	b.SetFocus(min(max(b.focus+delta, 0), len(b.buttons)-1))
}

// MoveRow selects the button in the row delta rows away whose horizontal
// position is closest to the current one.
func (b *board) MoveRow(delta int) {
	if b.focus < 0 || len(b.rows) == 0 {
		return
	}
	cur := b.cells[b.focus]
	target := min(max(cur.row+delta, 0), len(b.rows)-1)
	if target == cur.row {
		return
	}

	center := cur.x + cur.width/2
	best, bestDist := -1, 0
	for _, i := range b.rows[target] {
		c := b.cells[i]
		d := abs(c.x + c.width/2 - center)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	b.SetFocus(best)
}

// Activate runs the selected button's callback.
func (b board) Activate() tea.Cmd {
	if b.focus < 0 || b.focus >= len(b.buttons) {
		return nil
	}
	return b.buttons[b.focus].activate()
}

// ButtonAt returns the button under the given position relative to the top
// left of the board, or -1.
func (b board) ButtonAt(x, y int) int {
	if y < 0 || y >= b.height {
		return -1
	}
	row := b.offset + y
	if row >= len(b.rows) {
		return -1
	}
	for _, i := range b.rows[row] {
		c := b.cells[i]
		if x >= c.x && x < c.x+c.width {
			return i
		}
	}
	return -1
}

// Scroll moves the view by delta rows.
func (b *board) Scroll(delta int) {
	maxOffset := max(len(b.rows)-b.height, 0)
	b.offset = min(max(b.offset+delta, 0), maxOffset)
}

func (b *board) scrollToFocus() {
	if b.focus < 0 || b.focus >= len(b.cells) || b.height == 0 {
		return
	}
	row := b.cells[b.focus].row
	switch {
	case row < b.offset:
		b.offset = row
	case row >= b.offset+b.height:
		b.offset = row - b.height + 1
	}
}

func (b board) View() string {
	lines := make([]string, 0, b.height)
	if len(b.buttons) == 0 && b.height > 0 {
		lines = append(lines, subtleStyle.Render("No words loaded."))
	}

	for r := b.offset; r < len(b.rows) && len(lines) < b.height; r++ {
		var line strings.Builder
		for j, i := range b.rows[r] {
			if j > 0 {
				line.WriteString(strings.Repeat(" ", buttonGap))
			}
			style := buttonStyle
			if b.focused && i == b.focus {
				style = focusedButtonStyle
			}
			line.WriteString(style.Render(b.labelText(b.buttons[i].label)))
		}
		lines = append(lines, line.String())
	}

	for len(lines) < b.height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
