package console

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
)

func newConsole(w, h int) Model {
	m := New()
	m.SetSize(w, h)
	return m
}

func TestEmpty_ShowsHint(t *testing.T) {
	m := newConsole(40, 5)
	require.Equal(t, KindEmpty, m.Kind())
	require.Contains(t, ansi.Strip(m.View()), "F5")
	require.Equal(t, "Output", m.Title())
}

func TestShowResult_Success(t *testing.T) {
	m := newConsole(40, 5)
	m.ShowResult(runner.Result{Output: "hello\n", Success: true, Stage: runner.StageExecute, Duration: 1234 * time.Microsecond})

	require.Equal(t, KindSuccess, m.Kind())
	require.Contains(t, ansi.Strip(m.View()), "hello")
	require.Equal(t, "Output ok 1ms", ansi.Strip(m.Title()))
}

func TestShowResult_CompileFailure(t *testing.T) {
	m := newConsole(40, 5)
	m.ShowResult(runner.Result{Output: "main.cpp:1: error", Stage: runner.StageCompile, ExitCode: 1})

	require.Equal(t, KindFailure, m.Kind())
	require.Equal(t, "Output compile failed (exit 1)", ansi.Strip(m.Title()))
	require.Contains(t, ansi.Strip(m.View()), "main.cpp:1: error")
}

func TestShowResult_ReplacesContents(t *testing.T) {
	m := newConsole(40, 5)
	m.ShowResult(runner.Result{Output: "first", Success: true})
	m.ShowResult(runner.Result{Output: "second", Success: true})

	view := ansi.Strip(m.View())
	require.NotContains(t, view, "first")
	require.Contains(t, view, "second")
}

func TestShowError_Verbatim(t *testing.T) {
	m := newConsole(60, 5)
	m.ShowError(errors.New(`starting g++: exec: "g++": executable file not found in $PATH`))

	require.Equal(t, KindError, m.Kind())
	require.Contains(t, ansi.Strip(m.View()), `exec: "g++": executable file not found`)
	require.Equal(t, "Output error", ansi.Strip(m.Title()))
}

func TestWrap_LongLines(t *testing.T) {
	m := newConsole(10, 10)
	m.Show(strings.Repeat("x", 25))

	for _, line := range strings.Split(ansi.Strip(m.View()), "\n") {
		require.LessOrEqual(t, ansi.StringWidth(line), 10)
	}
	require.Equal(t, strings.Repeat("x", 25), m.Content(), "raw text kept for rewrapping")
}

func TestUpdate_ScrollsOnlyWhenFocused(t *testing.T) {
	m := newConsole(20, 2)
	m.Show("l1\nl2\nl3\nl4\nl5")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Contains(t, ansi.Strip(m.View()), "l1")

	m.Focus()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.NotContains(t, ansi.Strip(m.View()), "l1")
}

func TestClear(t *testing.T) {
	m := newConsole(20, 2)
	m.Show("text")
	m.Clear()
	require.Equal(t, KindEmpty, m.Kind())
	require.Empty(t, m.Content())
}
