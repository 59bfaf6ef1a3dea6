// Package console implements the output pane that shows run results and
// error messages.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

// Kind classifies the console contents.
type Kind int

const (
	KindEmpty Kind = iota
	KindInfo
	KindSuccess
	KindFailure
	KindError
)

// Model holds the console state. Every Show call replaces the contents.
type Model struct {
	viewport viewport.Model
	raw      string
	kind     Kind
	summary  string
	focused  bool
}

// New creates an empty console.
func New() Model {
	return Model{viewport: viewport.New(0, 0)}
}

// SetSize resizes the viewport and rewraps the contents.
func (m *Model) SetSize(width, height int) {
	m.viewport.Width = max(width, 1)
	m.viewport.Height = max(height, 1)
	m.rewrap()
}

// Focus lets the console scroll with keys.
func (m *Model) Focus() { m.focused = true }

// Blur stops key handling.
func (m *Model) Blur() { m.focused = false }

// Show replaces the contents with plain informational text.
func (m *Model) Show(text string) {
	m.set(text, KindInfo, "")
}

// ShowError replaces the contents with an error message, verbatim.
func (m *Model) ShowError(err error) {
	m.set(err.Error(), KindError, "error")
}

// ShowResult replaces the contents with a run's output.
func (m *Model) ShowResult(res runner.Result) {
	kind := KindSuccess
	summary := fmt.Sprintf("ok %s", res.Duration.Round(time.Millisecond))
	if !res.Success {
		kind = KindFailure
		summary = fmt.Sprintf("%s failed (exit %d)", res.Stage, res.ExitCode)
		if res.Stage == "" {
			summary = "failed"
		}
	}
	m.set(res.Output, kind, summary)
}

// Clear empties the console.
func (m *Model) Clear() {
	m.set("", KindEmpty, "")
}

func (m *Model) set(text string, kind Kind, summary string) {
	m.raw = strings.ReplaceAll(text, "\r\n", "\n")
	m.kind = kind
	m.summary = summary
	m.rewrap()
	m.viewport.GotoTop()
}

// rewrap word-wraps to the viewport width and hard-wraps anything longer.
func (m *Model) rewrap() {
	w := m.viewport.Width
	content := m.raw
	if w > 0 {
		content = wrap.String(wordwrap.String(content, w), w)
	}
	if m.kind == KindError {
		content = styles.ErrorStyle.Render(content)
	}
	m.viewport.SetContent(content)
}

// Kind reports what the console is showing.
func (m Model) Kind() Kind { return m.kind }

// Content returns the unwrapped text.
func (m Model) Content() string { return m.raw }

// Title is the pane title, including a short result summary.
func (m Model) Title() string {
	switch m.kind {
	case KindSuccess:
		return "Output " + styles.SuccessStyle.Render(m.summary)
	case KindFailure, KindError:
		return "Output " + styles.ErrorStyle.Render(m.summary)
	}
	return "Output"
}

// Update scrolls the viewport while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the visible part of the output.
func (m Model) View() string {
	if m.kind == KindEmpty {
		return styles.HintStyle.Render("Press F5 to run")
	}
	return m.viewport.View()
}
