// Package help contains the help overlay component.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/Fialia9363/fialiaoi-cpp/internal/keys"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/markdown"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/overlay"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.PaneTitleColor).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(styles.BorderDefaultColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderFocusColor)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			MarginTop(1)
)

const footer = "Press F1 or Esc to close"

// section is one table of the help text.
type section struct {
	title    string
	bindings []key.Binding
}

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	style  string
	width  int
	height int
}

// New creates a help view. style is the glamour style name.
func New(style string) Model {
	return Model{keys: keys.DefaultKeyMap(), style: style}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

func (m Model) sections() []section {
	full := m.keys.FullHelp()
	e := keys.Editor
	l := keys.List
	return []section{
		{"File", full[0]},
		{"Actions", full[1]},
		{"General", full[2]},
		{"Editor", []key.Binding{e.LineStart, e.LineEnd, e.PageUp, e.PageDown, e.Tab, e.Delete}},
		{"File tree and symbols", []key.Binding{l.Up, l.Down, l.Select, l.Filter, l.Clear}},
	}
}

// Markdown returns the keybinding tables as markdown.
func (m Model) Markdown() string {
	var sb strings.Builder
	for i, s := range m.sections() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s\n\n| Key | Action |\n|---|---|\n", s.title)
		for _, b := range s.bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	return sb.String()
}

// contentWidth is the wrap width for the rendered markdown.
func (m Model) contentWidth() int {
	w := 60
	if m.width > 0 {
		w = min(w, m.width-6)
	}
	return max(w, 20)
}

// render produces the help body. Rendering failures fall back to the raw
// markdown.
func (m Model) render() string {
	md := m.Markdown()
	r, err := markdown.New(m.contentWidth(), m.style)
	if err != nil {
		log.ErrorErr(log.CatUI, "Creating help renderer", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		log.ErrorErr(log.CatUI, "Rendering help", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

// View renders the help box centered in the window.
func (m Model) View() string {
	box := m.renderBox()
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Overlay renders the help box on top of the editor screen.
func (m Model) Overlay(background string) string {
	return overlay.Place(m.width, m.height, overlay.Center, 0, m.renderBox(), background)
}

func (m Model) renderBox() string {
	body := m.render()
	boxWidth := lipgloss.Width(body) + 4

	var content strings.Builder
	content.WriteString(titleStyle.Render("Keybindings"))
	content.WriteString("\n")
	content.WriteString(dividerStyle.Render(strings.Repeat("─", boxWidth)))
	content.WriteString("\n")
	content.WriteString(contentStyle.Render(body + "\n" + footerStyle.Render(footer)))

	return boxStyle.Width(boxWidth).Render(content.String())
}
