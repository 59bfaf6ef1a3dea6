// Package editor implements the code buffer pane: a multi-line text model
// with a cursor that also serves as the highlight surface.
package editor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/Fialia9363/fialiaoi-cpp/internal/highlight"
	"github.com/Fialia9363/fialiaoi-cpp/internal/keys"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

var _ highlight.Surface = (*Model)(nil)

// pairs maps an opening character to the one auto-pair inserts after it.
var pairs = map[rune]rune{
	'(':  ')',
	'[':  ']',
	'{':  '}',
	'"':  '"',
	'\'': '\'',
}

// Model is the editor state. Columns are byte offsets into the current line
// and always sit on a grapheme boundary.
type Model struct {
	lines []string
	row   int
	col   int

	// goalCol is the display column held across vertical moves; -1 when unset.
	goalCol int

	yOffset int
	width   int
	height  int
	focused bool

	tabWidth   int
	autoIndent bool
	autoPair   bool

	ranges []highlight.StyledRange
}

// Option configures a Model.
type Option func(*Model)

// WithTabWidth sets how many cells a tab occupies.
func WithTabWidth(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.tabWidth = n
		}
	}
}

// WithAutoIndent copies leading whitespace onto new lines.
func WithAutoIndent(on bool) Option {
	return func(m *Model) { m.autoIndent = on }
}

// WithAutoPair closes brackets and quotes as they are typed.
func WithAutoPair(on bool) Option {
	return func(m *Model) { m.autoPair = on }
}

// New creates an empty editor.
func New(opts ...Option) Model {
	m := Model{
		lines:      []string{""},
		goalCol:    -1,
		tabWidth:   4,
		autoIndent: true,
		autoPair:   true,
		height:     1,
		width:      1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// SetValue replaces the buffer and moves the cursor to the start.
func (m *Model) SetValue(s string) {
	m.lines = strings.Split(s, "\n")
	m.row, m.col, m.yOffset = 0, 0, 0
	m.goalCol = -1
	m.ranges = nil
}

// Value returns the buffer text.
func (m Model) Value() string {
	return strings.Join(m.lines, "\n")
}

// LineCount returns the number of lines.
func (m Model) LineCount() int { return len(m.lines) }

// Line returns the 1-based cursor line.
func (m Model) Line() int { return m.row + 1 }

// Column returns the 1-based cursor display column.
func (m Model) Column() int { return m.displayWidth(m.lines[m.row][:m.col]) + 1 }

// Offset returns the cursor position as a byte offset into Value().
func (m Model) Offset() int {
	off := 0
	for i := 0; i < m.row; i++ {
		off += len(m.lines[i]) + 1
	}
	return off + m.col
}

// SetSize sets the content area, including the line-number gutter.
func (m *Model) SetSize(width, height int) {
	m.width = max(width, 1)
	m.height = max(height, 1)
	m.scrollToCursor()
}

// Focus gives the editor keyboard input.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard input.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the editor has keyboard input.
func (m Model) Focused() bool { return m.focused }

// ClearStyles implements highlight.Surface.
func (m *Model) ClearStyles() { m.ranges = nil }

// ApplyStyle implements highlight.Surface.
func (m *Model) ApplyStyle(start, end int, category highlight.Category, style lipgloss.Style) {
	m.ranges = append(m.ranges, highlight.StyledRange{Start: start, End: end, Category: category, Style: style})
}

// Ranges returns the styled ranges currently applied.
func (m Model) Ranges() []highlight.StyledRange { return m.ranges }

// GotoLine moves the cursor to the first non-blank of 1-based line n.
func (m *Model) GotoLine(n int) {
	m.row = clamp(n-1, 0, len(m.lines)-1)
	m.col = len(leadingWhitespace(m.lines[m.row]))
	m.goalCol = -1
	// Show the target a third of the way down rather than on the last row.
	m.yOffset = max(m.row-m.height/3, 0)
	m.scrollToCursor()
}

// ClickAt moves the cursor to a cell of the content area.
func (m *Model) ClickAt(x, y int) {
	m.row = clamp(m.yOffset+y, 0, len(m.lines)-1)
	m.col = m.colForDisplay(m.lines[m.row], x-m.gutterWidth()-1+m.xOffset())
	m.goalCol = -1
}

// Update handles key messages while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Editor.Up):
		m.moveVertical(-1)
	case key.Matches(keyMsg, keys.Editor.Down):
		m.moveVertical(1)
	case key.Matches(keyMsg, keys.Editor.PageUp):
		m.moveVertical(-m.height)
	case key.Matches(keyMsg, keys.Editor.PageDown):
		m.moveVertical(m.height)
	case key.Matches(keyMsg, keys.Editor.Left):
		m.moveLeft()
	case key.Matches(keyMsg, keys.Editor.Right):
		m.moveRight()
	case key.Matches(keyMsg, keys.Editor.LineStart):
		m.col, m.goalCol = 0, -1
	case key.Matches(keyMsg, keys.Editor.LineEnd):
		m.col, m.goalCol = len(m.lines[m.row]), -1
	case key.Matches(keyMsg, keys.Editor.Newline):
		m.Newline()
	case key.Matches(keyMsg, keys.Editor.Tab):
		m.InsertString("\t")
	case key.Matches(keyMsg, keys.Editor.Backspace):
		m.Backspace()
	case key.Matches(keyMsg, keys.Editor.Delete):
		m.DeleteForward()
	case keyMsg.Type == tea.KeyRunes && keyMsg.Paste:
		m.InsertString(string(keyMsg.Runes))
	case keyMsg.Type == tea.KeyRunes, keyMsg.Type == tea.KeySpace:
		for _, r := range keyMsg.Runes {
			m.TypeRune(r)
		}
	}
	m.scrollToCursor()
	return m, nil
}

// InsertString inserts s at the cursor verbatim, with no pairing or indent.
func (m *Model) InsertString(s string) {
	parts := strings.Split(s, "\n")
	line := m.lines[m.row]
	before, after := line[:m.col], line[m.col:]

	if len(parts) == 1 {
		m.lines[m.row] = before + s + after
		m.col += len(s)
		m.goalCol = -1
		return
	}

	inserted := make([]string, len(parts))
	inserted[0] = before + parts[0]
	copy(inserted[1:], parts[1:])
	last := len(parts) - 1
	m.col = len(parts[last])
	inserted[last] += after

	m.lines = append(m.lines[:m.row], append(inserted, m.lines[m.row+1:]...)...)
	m.row += last
	m.goalCol = -1
}

// TypeRune inserts a typed character, applying auto-pair.
func (m *Model) TypeRune(r rune) {
	if !m.autoPair {
		m.InsertString(string(r))
		return
	}

	line := m.lines[m.row]
	next, _ := utf8.DecodeRuneInString(line[m.col:])
	if isCloser(r) && next == r {
		m.col += utf8.RuneLen(r)
		m.goalCol = -1
		return
	}

	partner, ok := pairs[r]
	if ok && (r == '"' || r == '\'') {
		// Do not pair an apostrophe inside a word, e.g. don't.
		prev, _ := utf8.DecodeLastRuneInString(line[:m.col])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			ok = false
		}
	}
	if !ok {
		m.InsertString(string(r))
		return
	}
	m.InsertString(string(r) + string(partner))
	m.col -= utf8.RuneLen(partner)
}

// Newline splits the line at the cursor. With auto-indent the new line
// starts with the current line's leading whitespace.
func (m *Model) Newline() {
	line := m.lines[m.row]
	before, after := line[:m.col], line[m.col:]

	indent := ""
	if m.autoIndent {
		indent = leadingWhitespace(before)
	}

	m.lines[m.row] = before
	m.lines = append(m.lines[:m.row+1], append([]string{indent + after}, m.lines[m.row+1:]...)...)
	m.row++
	m.col = len(indent)
	m.goalCol = -1
}

// Backspace deletes the grapheme before the cursor, joining lines at column 0.
// Between an auto-inserted pair, both halves are removed.
func (m *Model) Backspace() {
	m.goalCol = -1
	if m.col == 0 {
		if m.row == 0 {
			return
		}
		prev := m.lines[m.row-1]
		m.lines[m.row-1] = prev + m.lines[m.row]
		m.lines = append(m.lines[:m.row], m.lines[m.row+1:]...)
		m.row--
		m.col = len(prev)
		return
	}

	line := m.lines[m.row]
	start := prevBoundary(line, m.col)
	end := m.col
	if m.autoPair {
		open, _ := utf8.DecodeRuneInString(line[start:])
		next, size := utf8.DecodeRuneInString(line[m.col:])
		if partner, ok := pairs[open]; ok && size > 0 && next == partner && end-start == utf8.RuneLen(open) {
			end += size
		}
	}
	m.lines[m.row] = line[:start] + line[end:]
	m.col = start
}

// DeleteForward deletes the grapheme after the cursor, joining the next line at the end.
func (m *Model) DeleteForward() {
	m.goalCol = -1
	line := m.lines[m.row]
	if m.col >= len(line) {
		if m.row == len(m.lines)-1 {
			return
		}
		m.lines[m.row] = line + m.lines[m.row+1]
		m.lines = append(m.lines[:m.row+1], m.lines[m.row+2:]...)
		return
	}
	m.lines[m.row] = line[:m.col] + line[nextBoundary(line, m.col):]
}

func (m *Model) moveLeft() {
	m.goalCol = -1
	if m.col > 0 {
		m.col = prevBoundary(m.lines[m.row], m.col)
		return
	}
	if m.row > 0 {
		m.row--
		m.col = len(m.lines[m.row])
	}
}

func (m *Model) moveRight() {
	m.goalCol = -1
	if m.col < len(m.lines[m.row]) {
		m.col = nextBoundary(m.lines[m.row], m.col)
		return
	}
	if m.row < len(m.lines)-1 {
		m.row++
		m.col = 0
	}
}

func (m *Model) moveVertical(delta int) {
	if m.goalCol < 0 {
		m.goalCol = m.displayWidth(m.lines[m.row][:m.col])
	}
	m.row = clamp(m.row+delta, 0, len(m.lines)-1)
	m.col = m.colForDisplay(m.lines[m.row], m.goalCol)
}

func (m *Model) scrollToCursor() {
	if m.row < m.yOffset {
		m.yOffset = m.row
	}
	if m.row >= m.yOffset+m.height {
		m.yOffset = m.row - m.height + 1
	}
	m.yOffset = clamp(m.yOffset, 0, max(len(m.lines)-1, 0))
}

// View renders the visible lines with a line-number gutter.
func (m Model) View() string {
	perLine := highlight.SplitLines(m.Value(), m.ranges)
	gutter := m.gutterWidth()
	xOff := m.xOffset()

	end := min(len(m.lines), m.yOffset+m.height)
	rows := make([]string, 0, end-m.yOffset)
	for i := m.yOffset; i < end; i++ {
		num := styles.LineNumberStyle.Render(fmt.Sprintf("%*d", gutter, i+1))
		line := m.renderLine(i, perLine[i])
		if xOff > 0 {
			line = ansi.TruncateLeft(line, xOff, "")
		}
		rows = append(rows, num+" "+line)
	}
	return strings.Join(rows, "\n")
}

func (m Model) gutterWidth() int {
	return len(strconv.Itoa(len(m.lines)))
}

// xOffset is the horizontal scroll that keeps the cursor on screen.
func (m Model) xOffset() int {
	textWidth := max(m.width-m.gutterWidth()-1, 1)
	cur := m.displayWidth(m.lines[m.row][:m.col])
	if cur >= textWidth {
		return cur - textWidth + 1
	}
	return 0
}

func (m Model) renderLine(i int, ranges []highlight.LineRange) string {
	line := m.lines[i]
	if !m.focused || i != m.row {
		return m.expand(highlight.RenderLine(line, ranges))
	}

	next := nextBoundary(line, m.col)
	cell := line[m.col:next]
	switch cell {
	case "", "\r":
		cell = " "
	case "\t":
		cell = strings.Repeat(" ", m.tabWidth)
	}

	before := highlight.RenderLine(line[:m.col], clipRanges(ranges, 0, m.col))
	after := highlight.RenderLine(line[next:], clipRanges(ranges, next, len(line)))
	return m.expand(before) + styles.CursorStyle.Render(cell) + m.expand(after)
}

// expand replaces tabs with spaces and drops carriage returns.
func (m Model) expand(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", m.tabWidth))
}

// displayWidth measures s in terminal cells.
func (m Model) displayWidth(s string) int {
	w := 0
	state := -1
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		w += m.clusterWidth(cluster)
	}
	return w
}

func (m Model) clusterWidth(cluster string) int {
	switch cluster {
	case "\t":
		return m.tabWidth
	case "\r":
		return 0
	}
	return runewidth.StringWidth(cluster)
}

// colForDisplay returns the byte offset of the grapheme at display column target.
func (m Model) colForDisplay(line string, target int) int {
	if target <= 0 {
		return 0
	}
	w, off := 0, 0
	rest := line
	state := -1
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		cw := m.clusterWidth(cluster)
		if w+cw > target {
			break
		}
		w += cw
		off += len(cluster)
	}
	return off
}

func clipRanges(ranges []highlight.LineRange, from, to int) []highlight.LineRange {
	var out []highlight.LineRange
	for _, r := range ranges {
		s, e := max(r.Start, from), min(r.End, to)
		if e > s {
			out = append(out, highlight.LineRange{Start: s - from, End: e - from, Style: r.Style})
		}
	}
	return out
}

func prevBoundary(line string, col int) int {
	prev, off := 0, 0
	rest := line
	state := -1
	for rest != "" && off < col {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		prev = off
		off += len(cluster)
	}
	return prev
}

func nextBoundary(line string, col int) int {
	if col >= len(line) {
		return len(line)
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(line[col:], -1)
	return col + len(cluster)
}

func isCloser(r rune) bool {
	switch r {
	case ')', ']', '}', '"', '\'':
		return true
	}
	return false
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
