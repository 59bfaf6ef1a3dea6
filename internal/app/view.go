package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/overlay"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

const (
	editorZoneID  = "pane-editor"
	treeZoneID    = "pane-tree"
	sidebarZoneID = "pane-sidebar"
	consoleZoneID = "pane-console"
)

// dims are the outer sizes of the panes, borders included.
type dims struct {
	leftW, rightW     int
	treeH, sidebarH   int
	editorH, consoleH int
}

func (m Model) dims() dims {
	bodyH := m.height
	if m.showStatus {
		bodyH--
	}
	bodyH = max(bodyH, 6)

	leftW := min(max(m.width/4, 18), 36)
	if m.width < 60 {
		leftW = m.width / 3
	}
	treeH := bodyH * 3 / 5
	consoleH := max(bodyH/4, 4)
	return dims{
		leftW:    leftW,
		rightW:   max(m.width-leftW, 10),
		treeH:    treeH,
		sidebarH: bodyH - treeH,
		editorH:  bodyH - consoleH,
		consoleH: consoleH,
	}
}

// layout pushes pane sizes down to the components.
func (m *Model) layout() {
	d := m.dims()
	m.editor.SetSize(d.rightW-2, d.editorH-2)
	m.tree.SetSize(d.leftW-2, d.treeH-2)
	m.sidebar.SetSize(d.leftW-2, d.sidebarH-2)
	m.console.SetSize(d.rightW-2, d.consoleH-2)
	m.help = m.help.SetSize(m.width, m.height)
	m.prompt.Width = max(m.width-len(m.prompt.Prompt)-2, 10)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	d := m.dims()

	left := lipgloss.JoinVertical(lipgloss.Left,
		zone.Mark(treeZoneID, styles.RenderPane(m.tree.View(), "Files", d.leftW, d.treeH, m.focus == PaneTree)),
		zone.Mark(sidebarZoneID, styles.RenderPane(m.sidebar.View(), "Symbols", d.leftW, d.sidebarH, m.focus == PaneSidebar)),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		zone.Mark(editorZoneID, styles.RenderPane(m.editor.View(), m.editorTitle(), d.rightW, d.editorH, m.focus == PaneEditor)),
		zone.Mark(consoleZoneID, styles.RenderPane(m.console.View(), m.console.Title(), d.rightW, d.consoleH, m.focus == PaneConsole)),
	)
	view := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	switch {
	case m.promptKind != promptNone && m.showStatus:
		view += "\n" + styles.FitLine(m.prompt.View(), m.width)
	case m.promptKind != promptNone:
		view = overlay.Place(m.width, m.height, overlay.Bottom, 0, styles.FitLine(m.prompt.View(), m.width), view)
	case m.showStatus:
		view += "\n" + m.statusBar()
	}

	if m.showHelp {
		view = m.help.Overlay(view)
	}
	return zone.Scan(view)
}

func (m Model) editorTitle() string {
	title := m.doc.Name()
	if m.doc.Dirty(m.editor.Value()) {
		title += " " + styles.DirtyStyle.Render("●")
	}
	return title
}

// statusBar shows file, language, cursor, unsaved-change stats, whether a
// run is in flight, then the last message.
func (m Model) statusBar() string {
	parts := []string{
		m.doc.Name(),
		m.language.String(),
		fmt.Sprintf("Ln %d, Col %d", m.editor.Line(), m.editor.Column()),
	}
	if stats := m.doc.Changes(m.editor.Value()); !stats.Zero() {
		parts = append(parts,
			styles.AddedStyle.Render(fmt.Sprintf("+%d", stats.Added))+" "+
				styles.RemovedStyle.Render(fmt.Sprintf("-%d", stats.Removed)))
	}
	if m.running {
		parts = append(parts, styles.HintStyle.Render("running"))
	}

	if m.message != "" {
		msgStyle := styles.HintStyle
		if m.messageBad {
			msgStyle = styles.ErrorStyle
		}
		parts = append(parts, msgStyle.Render(m.message))
	}

	bar := styles.StatusBarStyle.Render(strings.Join(parts, "  "))
	return styles.FitLine(bar, m.width)
}
