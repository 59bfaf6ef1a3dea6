// Package filetree implements the file browser pane: a lazily expanded
// directory tree rooted at the project directory.
package filetree

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/Fialia9363/fialiaoi-cpp/internal/fsview"
	"github.com/Fialia9363/fialiaoi-cpp/internal/keys"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

// OpenFileMsg asks the app to open a file selected in the tree.
type OpenFileMsg struct {
	Path string
}

// Model holds the file tree state.
type Model struct {
	lister    *fsview.Lister
	root      *Node
	nodes     []*Node // Flattened visible nodes for navigation
	cursor    int     // Index into nodes slice
	width     int
	height    int
	scrollTop int // First visible line index
	focused   bool
}

// New creates a tree rooted at dir with the root already expanded.
func New(lister *fsview.Lister, dir string) *Model {
	dir = filepath.Clean(dir)
	m := &Model{lister: lister}
	m.root = newDirNode(fsview.Entry{Name: filepath.Base(dir), Path: dir, IsDir: true}, nil, 0)
	m.expand(m.root)
	m.RefreshNodes()
	return m
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

// Focus gives the tree keyboard input.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard input.
func (m *Model) Blur() { m.focused = false }

// Root returns the tree root.
func (m *Model) Root() *Node { return m.root }

// Nodes returns the visible nodes.
func (m *Model) Nodes() []*Node { return m.nodes }

// SelectedNode returns the currently selected node.
func (m *Model) SelectedNode() *Node {
	if m.cursor >= 0 && m.cursor < len(m.nodes) {
		return m.nodes[m.cursor]
	}
	return nil
}

// MoveCursor moves the cursor by delta, respecting bounds.
func (m *Model) MoveCursor(delta int) {
	newPos := m.cursor + delta
	newPos = min(newPos, len(m.nodes)-1)
	newPos = max(newPos, 0)
	m.cursor = newPos
	m.ensureCursorVisible()
}

// Activate acts on the selected node: a directory toggles open or closed,
// a file is returned for opening.
func (m *Model) Activate() (openPath string) {
	node := m.SelectedNode()
	if node == nil || node.IsPlaceholder() {
		return ""
	}
	if !node.Entry.IsDir {
		return node.Entry.Path
	}
	m.Toggle(node)
	return ""
}

// Toggle expands a closed directory and collapses an open one.
func (m *Model) Toggle(node *Node) {
	if node.Expanded {
		node.Expanded = false
	} else {
		m.expand(node)
	}
	m.RefreshNodes()
}

func (m *Model) expand(node *Node) {
	if !node.loaded {
		node.load(m.lister)
		log.Debug(log.CatFS, "Expanded directory", "dir", node.Entry.Path, "entries", len(node.Children))
	}
	node.Expanded = true
}

// Reload re-lists every loaded directory, keeping expansion state, e.g.
// after a save created a file.
func (m *Model) Reload() {
	m.lister.Invalidate()
	var walk func(*Node)
	walk = func(n *Node) {
		if !n.loaded || !n.Entry.IsDir {
			return
		}
		loadedDirs := make(map[string]*Node)
		for _, c := range n.Children {
			if c.Entry.IsDir && c.loaded {
				loadedDirs[c.Entry.Path] = c
			}
		}
		n.load(m.lister)
		for i, c := range n.Children {
			if prev, ok := loadedDirs[c.Entry.Path]; ok {
				n.Children[i] = prev
				walk(prev)
			}
		}
	}
	walk(m.root)
	m.RefreshNodes()
}

// RefreshNodes rebuilds the flattened nodes list after state changes.
func (m *Model) RefreshNodes() {
	m.nodes = m.root.Flatten()
	m.cursor = max(min(m.cursor, len(m.nodes)-1), 0)
	m.ensureCursorVisible()
}

// SelectPath moves the cursor to path if it is visible.
func (m *Model) SelectPath(path string) bool {
	for i, node := range m.nodes {
		if node.Entry.Path == path {
			m.cursor = i
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

// Update handles keys while focused and clicks on rows.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		switch {
		case key.Matches(msg, keys.List.Up):
			m.MoveCursor(-1)
		case key.Matches(msg, keys.List.Down):
			m.MoveCursor(1)
		case key.Matches(msg, keys.List.Select):
			return openCmd(m.Activate())
		}
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		for i := m.scrollTop; i < min(m.scrollTop+m.viewportHeight(), len(m.nodes)); i++ {
			if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
				m.cursor = i
				return openCmd(m.Activate())
			}
		}
	}
	return nil
}

func openCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg { return OpenFileMsg{Path: path} }
}

func rowZoneID(i int) string {
	return fmt.Sprintf("filetree-row-%d", i)
}

// ensureCursorVisible adjusts scrollTop to keep cursor in view.
func (m *Model) ensureCursorVisible() {
	viewportHeight := m.viewportHeight()

	if m.cursor >= m.scrollTop+viewportHeight {
		m.scrollTop = m.cursor - viewportHeight + 1
	}
	if m.cursor < m.scrollTop {
		m.scrollTop = m.cursor
	}

	maxScroll := max(len(m.nodes)-viewportHeight, 0)
	m.scrollTop = min(m.scrollTop, maxScroll)
	m.scrollTop = max(m.scrollTop, 0)
}

// viewportHeight returns the number of visible node rows.
func (m *Model) viewportHeight() int {
	return max(m.height, 1)
}

// View renders the visible part of the tree.
func (m *Model) View() string {
	if len(m.nodes) == 1 && len(m.root.Children) == 0 {
		mutedStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
		return m.renderNode(m.root, true, m.cursor == 0) + "\n" + mutedStyle.Render("  (empty)")
	}

	endIdx := min(m.scrollTop+m.viewportHeight(), len(m.nodes))
	rows := make([]string, 0, endIdx-m.scrollTop)
	for i := m.scrollTop; i < endIdx; i++ {
		node := m.nodes[i]
		line := m.renderNode(node, isLastChild(node), i == m.cursor)
		rows = append(rows, zone.Mark(rowZoneID(i), line))
	}
	return strings.Join(rows, "\n")
}

// renderNode renders a single tree row.
func (m *Model) renderNode(node *Node, isLast bool, isSelected bool) string {
	var sb strings.Builder

	if isSelected && m.focused {
		sb.WriteString(styles.SelectionIndicatorStyle.Render(">"))
	} else {
		sb.WriteString(" ")
	}
	sb.WriteString(buildPrefix(node, isLast))

	var label string
	switch {
	case node.Entry.IsDir && node.Expanded:
		label = styles.DirectoryStyle.Render("▾ " + node.Entry.Name + "/")
	case node.Entry.IsDir:
		label = styles.DirectoryStyle.Render("▸ " + node.Entry.Name + "/")
	default:
		label = styles.FileStyle.Render(node.Entry.Name)
	}

	avail := m.width - lipgloss.Width(sb.String())
	if m.width > 0 && avail > 0 && lipgloss.Width(label) > avail {
		label = styles.TruncateString(label, avail)
	}
	sb.WriteString(label)

	if isSelected {
		return styles.SelectedRowStyle.Render(sb.String())
	}
	return sb.String()
}

// isLastChild determines if node is the last child of its parent.
func isLastChild(node *Node) bool {
	if node.Parent == nil {
		return true
	}
	children := node.Parent.Children
	return len(children) > 0 && children[len(children)-1] == node
}

// buildPrefix builds the tree branch prefix for a node.
func buildPrefix(node *Node, isLast bool) string {
	if node.Depth == 0 {
		return ""
	}

	var parts []string
	var ancestors []*Node
	for cur := node.Parent; cur != nil; cur = cur.Parent {
		ancestors = append(ancestors, cur)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		ancestor := ancestors[i]
		if ancestor.Parent == nil {
			continue
		}
		if isLastChild(ancestor) {
			parts = append(parts, "  ")
		} else {
			parts = append(parts, "│ ")
		}
	}

	if isLast {
		parts = append(parts, "└─")
	} else {
		parts = append(parts, "├─")
	}
	return strings.Join(parts, "")
}
