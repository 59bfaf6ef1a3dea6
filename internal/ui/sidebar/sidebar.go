// Package sidebar implements the symbol list pane with a fuzzy filter.
package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sahilm/fuzzy"

	"github.com/Fialia9363/fialiaoi-cpp/internal/keys"
	"github.com/Fialia9363/fialiaoi-cpp/internal/refresh"
	"github.com/Fialia9363/fialiaoi-cpp/internal/symbols"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

// JumpToLineMsg asks the editor to move to a 1-based line.
type JumpToLineMsg struct {
	Line int
}

// symbolSource adapts a symbol list to fuzzy.Source.
type symbolSource []symbols.Symbol

func (s symbolSource) String(i int) string { return s[i].Name }
func (s symbolSource) Len() int            { return len(s) }

// Model holds the sidebar state.
type Model struct {
	symbols   []symbols.Symbol
	visible   []symbols.Symbol
	cursor    int
	scrollTop int
	width     int
	height    int
	focused   bool

	input     textinput.Model
	filtering bool
}

var _ refresh.SymbolSink = (*Model)(nil)

// New creates an empty sidebar.
func New() *Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.CharLimit = 64
	return &Model{input: ti}
}

// SetSymbols replaces the list with the latest scan, keeping the filter.
func (m *Model) SetSymbols(syms []symbols.Symbol) {
	m.symbols = syms
	m.applyFilter()
}

// Symbols returns the unfiltered list.
func (m *Model) Symbols() []symbols.Symbol { return m.symbols }

// Visible returns the symbols shown after filtering, in display order.
func (m *Model) Visible() []symbols.Symbol { return m.visible }

// Filter returns the current filter query.
func (m *Model) Filter() string { return m.input.Value() }

// SetFilter filters by a fuzzy query. An empty query shows every symbol in
// source order; otherwise best matches come first.
func (m *Model) SetFilter(q string) {
	m.input.SetValue(q)
	m.applyFilter()
}

func (m *Model) applyFilter() {
	q := m.input.Value()
	if q == "" {
		m.visible = m.symbols
	} else {
		matches := fuzzy.FindFrom(q, symbolSource(m.symbols))
		m.visible = make([]symbols.Symbol, 0, len(matches))
		for _, match := range matches {
			m.visible = append(m.visible, m.symbols[match.Index])
		}
	}
	m.cursor = max(min(m.cursor, len(m.visible)-1), 0)
	m.ensureCursorVisible()
}

// Filtering reports whether the filter input has keyboard focus.
func (m *Model) Filtering() bool { return m.filtering }

// SetSize sets the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-3, 1)
	m.ensureCursorVisible()
}

// Focus gives the sidebar keyboard input.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard input and closes the filter prompt.
func (m *Model) Blur() {
	m.focused = false
	m.filtering = false
	m.input.Blur()
}

// Selected returns the symbol under the cursor.
func (m *Model) Selected() (symbols.Symbol, bool) {
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		return m.visible[m.cursor], true
	}
	return symbols.Symbol{}, false
}

// MoveCursor moves the cursor by delta, respecting bounds.
func (m *Model) MoveCursor(delta int) {
	m.cursor = max(min(m.cursor+delta, len(m.visible)-1), 0)
	m.ensureCursorVisible()
}

// Update handles keys while focused and clicks on rows.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch {
		case key.Matches(msg, keys.List.Up):
			m.MoveCursor(-1)
		case key.Matches(msg, keys.List.Down):
			m.MoveCursor(1)
		case key.Matches(msg, keys.List.Select):
			return m.jump()
		case key.Matches(msg, keys.List.Filter):
			m.filtering = true
			return m.input.Focus()
		}
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		for i := m.scrollTop; i < min(m.scrollTop+m.listHeight(), len(m.visible)); i++ {
			if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
				m.cursor = i
				return m.jump()
			}
		}
	}
	return nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.List.Clear):
		m.filtering = false
		m.input.Blur()
		m.SetFilter("")
		return nil
	case msg.Type == tea.KeyEnter:
		m.filtering = false
		m.input.Blur()
		return m.jump()
	case msg.Type == tea.KeyUp:
		m.MoveCursor(-1)
		return nil
	case msg.Type == tea.KeyDown:
		m.MoveCursor(1)
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter()
	return cmd
}

func (m *Model) jump() tea.Cmd {
	sym, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg { return JumpToLineMsg{Line: sym.Line} }
}

func rowZoneID(i int) string {
	return fmt.Sprintf("sidebar-row-%d", i)
}

func (m *Model) showInput() bool {
	return m.filtering || m.input.Value() != ""
}

func (m *Model) listHeight() int {
	h := m.height
	if m.showInput() {
		h--
	}
	return max(h, 1)
}

func (m *Model) ensureCursorVisible() {
	h := m.listHeight()
	if m.cursor >= m.scrollTop+h {
		m.scrollTop = m.cursor - h + 1
	}
	if m.cursor < m.scrollTop {
		m.scrollTop = m.cursor
	}
	m.scrollTop = max(min(m.scrollTop, len(m.visible)-h), 0)
}

// View renders the filter prompt and the visible rows.
func (m *Model) View() string {
	var rows []string
	if m.showInput() {
		rows = append(rows, m.input.View())
	}

	if len(m.visible) == 0 {
		msg := "(no symbols)"
		if len(m.symbols) > 0 {
			msg = "(no matches)"
		}
		rows = append(rows, styles.HintStyle.Render("  "+msg))
		return strings.Join(rows, "\n")
	}

	end := min(m.scrollTop+m.listHeight(), len(m.visible))
	for i := m.scrollTop; i < end; i++ {
		rows = append(rows, zone.Mark(rowZoneID(i), m.renderRow(m.visible[i], i == m.cursor)))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(sym symbols.Symbol, selected bool) string {
	indicator := " "
	if selected && m.focused {
		indicator = styles.SelectionIndicatorStyle.Render(">")
	}
	lineNo := styles.HintStyle.Render(fmt.Sprintf(":%d", sym.Line))

	name := sym.Name
	if m.width > 0 {
		avail := m.width - 1 - lipgloss.Width(lineNo) - 1
		if avail > 0 && lipgloss.Width(name) > avail {
			name = styles.TruncateString(name, avail)
		}
	}
	row := indicator + styles.FileStyle.Render(name) + " " + lineNo
	if selected {
		return styles.SelectedRowStyle.Render(row)
	}
	return row
}
