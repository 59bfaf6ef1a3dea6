package app

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fialia9363/fialiaoi-cpp/internal/config"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/symbols"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/console"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/filetree"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/sidebar"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

const addCpp = "int add(int a, int b) {\n  return a+b;\n}\n"

// echoToolchain answers every compile and execute with a fixed output.
func echoToolchain(out string) runner.CommandFactoryFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "printf '%s' \"$0\"", out)
	}
}

// createTestModel builds a sized model over an in-memory project.
func createTestModel(t *testing.T, openPath string) (Model, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/main.cpp", []byte(addCpp), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/tool.py", []byte("def run(x):\n    pass\n"), 0o644))

	cfg := config.Defaults()
	cfg.Root = "/proj"
	cfg.Watch.Enabled = false
	cfg.UI.MarkdownStyle = "notty"

	m := NewWithConfig(Services{
		FS:     fs,
		Config: &cfg,
		Runner: runner.New(runner.Options{}, runner.WithCommandFactory(echoToolchain("hello"))),
	}, openPath)

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return newModel.(Model), fs
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func symbolNames(syms []symbols.Symbol) []string {
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		out = append(out, s.Name)
	}
	return out
}

func TestApp_DefaultState(t *testing.T) {
	m, _ := createTestModel(t, "")

	assert.Equal(t, PaneEditor, m.Focus())
	assert.Equal(t, lang.Cpp, m.Language())
	assert.Equal(t, "[untitled]", m.Document().Name())
	assert.Empty(t, m.Sidebar().Symbols())
	assert.Equal(t, 1, m.Pipeline().Runs(), "initial refresh of the empty buffer")
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 50, m.height)
	lines := strings.Split(m.View(), "\n")
	assert.Len(t, lines, 50)
}

func TestApp_OpenOnStart(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")

	assert.Equal(t, addCpp, m.Editor().Value())
	assert.Equal(t, []string{"add"}, symbolNames(m.Sidebar().Symbols()))
	assert.NotEmpty(t, m.Editor().Ranges(), "buffer is painted")
}

func TestApp_OpenDetectsLanguage(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, filetree.OpenFileMsg{Path: "/proj/tool.py"})

	assert.Equal(t, lang.Python, m.Language())
	assert.Equal(t, lang.Python, m.Pipeline().Language())
	assert.Equal(t, []string{"run"}, symbolNames(m.Sidebar().Symbols()))
}

func TestApp_OpenMissingFileShowsError(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, filetree.OpenFileMsg{Path: "/proj/nope.cpp"})

	assert.Equal(t, console.KindError, m.Console().Kind())
	assert.Contains(t, m.Console().Content(), "reading /proj/nope.cpp")
	assert.Equal(t, "[untitled]", m.Document().Name(), "buffer untouched")
}

func TestApp_EditRefreshesEveryKey(t *testing.T) {
	m, _ := createTestModel(t, "")
	before := m.Pipeline().Runs()

	m = typeText(t, m, "int f(){")
	assert.Equal(t, before+len("int f(){"), m.Pipeline().Runs(), "one refresh per key")
	assert.Equal(t, []string{"f"}, symbolNames(m.Sidebar().Symbols()))
}

func TestApp_CycleLanguage(t *testing.T) {
	m, _ := createTestModel(t, "")
	m = typeText(t, m, "def go(")

	assert.Empty(t, m.Sidebar().Symbols(), "not a C++ definition")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, lang.Python, m.Language())
	assert.Equal(t, []string{"go"}, symbolNames(m.Sidebar().Symbols()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, lang.Cpp, m.Language())
}

func TestApp_SaveUntitledPrompts(t *testing.T) {
	m, fs := createTestModel(t, "")
	m = typeText(t, m, "int x;")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, promptSaveAs, m.promptKind)
	assert.Equal(t, "untitled.cpp", m.prompt.Value())
	assert.Contains(t, ansi.Strip(m.View()), "Save as: untitled.cpp")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, promptNone, m.promptKind)
	data, err := afero.ReadFile(fs, "/proj/untitled.cpp")
	require.NoError(t, err)
	assert.Equal(t, "int x;", string(data))
	assert.Equal(t, "untitled.cpp", m.Document().Name())
}

func TestApp_PromptEscCancels(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Equal(t, promptOpen, m.promptKind)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, promptNone, m.promptKind)
	assert.Equal(t, "", m.Editor().Value())
}

func TestApp_OpenPromptResolvesAgainstRoot(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = typeText(t, m, "main.cpp")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "/proj/main.cpp", m.Document().Path())
	assert.Equal(t, addCpp, m.Editor().Value())
}

func TestApp_OpenPromptRejectsDirectory(t *testing.T) {
	m, fs := createTestModel(t, "/proj/main.cpp")
	require.NoError(t, fs.MkdirAll("/proj/lib", 0o755))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = typeText(t, m, "lib")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "/proj/main.cpp", m.Document().Path())
	assert.Equal(t, addCpp, m.Editor().Value())
	assert.Equal(t, PaneTree, m.Focus())
	assert.Equal(t, "lib is a directory", m.message)
	assert.True(t, m.messageBad)
}

func TestApp_SaveWritesAndClearsDirty(t *testing.T) {
	m, fs := createTestModel(t, "/proj/main.cpp")
	m = typeText(t, m, "// ")
	assert.Contains(t, ansi.Strip(m.statusBar()), "+1 -1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	data, err := afero.ReadFile(fs, "/proj/main.cpp")
	require.NoError(t, err)
	assert.Equal(t, "// "+addCpp, string(data))
	assert.NotContains(t, ansi.Strip(m.statusBar()), "+1 -1")
}

func TestApp_RunSavesThenShowsOutput(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF5})
	require.NotNil(t, cmd)
	assert.True(t, m.running)

	msg := findMsg[runFinishedMsg](t, cmd)
	m, _ = update(t, m, msg)
	assert.False(t, m.running)
	assert.Equal(t, console.KindSuccess, m.Console().Kind())
	assert.Equal(t, "hello", m.Console().Content())
}

func TestApp_StatusBarShowsRunInFlight(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	assert.NotContains(t, ansi.Strip(m.statusBar()), "running")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF5})
	assert.Contains(t, ansi.Strip(m.statusBar()), "running")

	m, _ = update(t, m, findMsg[runFinishedMsg](t, cmd))
	assert.NotContains(t, ansi.Strip(m.statusBar()), "running")
}

func TestApp_RunErrorShownVerbatim(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	m, _ = update(t, m, runFinishedMsg{path: "/proj/main.cpp", err: assert.AnError})

	assert.Equal(t, console.KindError, m.Console().Kind())
	assert.Equal(t, assert.AnError.Error(), m.Console().Content())
}

func TestApp_JumpToLine(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	m.setFocus(PaneSidebar)

	m, _ = update(t, m, sidebar.JumpToLineMsg{Line: 2})
	assert.Equal(t, 2, m.Editor().Line())
	assert.Equal(t, PaneEditor, m.Focus())
}

func TestApp_FocusCycle(t *testing.T) {
	m, _ := createTestModel(t, "")
	want := []Pane{PaneTree, PaneSidebar, PaneConsole, PaneEditor}
	for _, p := range want {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
		assert.Equal(t, p, m.Focus())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, PaneEditor, m.Focus())
}

func TestApp_TreeOpensFile(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, filetree.OpenFileMsg{Path: "/proj/main.cpp"}, cmd())
}

func TestApp_HelpToggle(t *testing.T) {
	m, _ := createTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	require.True(t, m.showHelp)
	assert.Contains(t, ansi.Strip(m.View()), "Keybindings")

	m = typeText(t, m, "x")
	assert.Equal(t, "", m.Editor().Value(), "keys do not reach the editor under help")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestApp_ToggleStatus(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	assert.Contains(t, ansi.Strip(m.View()), "Ln 1, Col 1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.NotContains(t, ansi.Strip(m.View()), "Ln 1, Col 1")
	assert.Len(t, strings.Split(m.View(), "\n"), 30)
}

func TestApp_FileChangedReloadsCleanBuffer(t *testing.T) {
	m, fs := createTestModel(t, "/proj/main.cpp")
	require.NoError(t, afero.WriteFile(fs, "/proj/main.cpp", []byte("int sub(int a) {\n}\n"), 0o644))

	m = m.handleFileChanged("/proj/main.cpp")
	assert.Equal(t, "int sub(int a) {\n}\n", m.Editor().Value())
	assert.Equal(t, []string{"sub"}, symbolNames(m.Sidebar().Symbols()))
}

func TestApp_FileChangedKeepsDirtyBuffer(t *testing.T) {
	m, fs := createTestModel(t, "/proj/main.cpp")
	m = typeText(t, m, "x")
	require.NoError(t, afero.WriteFile(fs, "/proj/main.cpp", []byte("changed"), 0o644))

	m = m.handleFileChanged("/proj/main.cpp")
	assert.Equal(t, "x"+addCpp, m.Editor().Value())
	assert.Contains(t, m.message, "unsaved edits kept")
}

func TestApp_FileRemovedKeepsBuffer(t *testing.T) {
	m, fs := createTestModel(t, "/proj/main.cpp")
	require.NoError(t, fs.Remove("/proj/main.cpp"))

	m = m.handleFileChanged("/proj/main.cpp")
	assert.Equal(t, addCpp, m.Editor().Value())
	assert.Equal(t, "main.cpp was removed on disk", m.message)
	assert.Empty(t, m.Console().Content(), "a removed file is not a read error")
}

func TestApp_NewFile(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	m, _ = update(t, m, runFinishedMsg{path: "/proj/main.cpp", result: runner.Result{Output: "old", Success: true}})
	require.Equal(t, "old", m.Console().Content())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, console.KindEmpty, m.Console().Kind(), "new file clears the output")

	assert.Equal(t, "", m.Editor().Value())
	assert.Equal(t, "[untitled]", m.Document().Name())
	assert.Empty(t, m.Sidebar().Symbols())
}

func TestApp_CtrlCQuits(t *testing.T) {
	m, _ := createTestModel(t, "")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_Teatest_TypeAndRun(t *testing.T) {
	m, _ := createTestModel(t, "/proj/main.cpp")
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	tm.Type("// hi")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("// hi"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyF5})
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("hello"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	assert.True(t, strings.HasPrefix(final.Editor().Value(), "// hi\n"))
	assert.Equal(t, "hello", final.Console().Content())
}

// findMsg runs cmd, unpacking batches, until a message of type T appears.
func findMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	var zero T
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case T:
			return msg
		case tea.BatchMsg:
			queue = append(queue, msg...)
		}
	}
	t.Fatalf("no %T produced", zero)
	return zero
}
