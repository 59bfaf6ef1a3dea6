// Package app contains the root application model.
package app

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Fialia9363/fialiaoi-cpp/internal/config"
	"github.com/Fialia9363/fialiaoi-cpp/internal/document"
	"github.com/Fialia9363/fialiaoi-cpp/internal/fsview"
	"github.com/Fialia9363/fialiaoi-cpp/internal/highlight"
	"github.com/Fialia9363/fialiaoi-cpp/internal/keys"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/refresh"
	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/console"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/editor"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/filetree"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/help"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/sidebar"
	"github.com/Fialia9363/fialiaoi-cpp/internal/watcher"
)

// Pane identifies the focused pane.
type Pane int

const (
	PaneEditor Pane = iota
	PaneTree
	PaneSidebar
	PaneConsole
)

func (p Pane) String() string {
	switch p {
	case PaneTree:
		return "files"
	case PaneSidebar:
		return "symbols"
	case PaneConsole:
		return "output"
	default:
		return "editor"
	}
}

// promptKind is what a confirmed path prompt does.
type promptKind int

const (
	promptNone promptKind = iota
	promptOpen
	promptSaveAs
)

// Services are the collaborators the app is built from.
type Services struct {
	FS     afero.Fs
	Config *config.Config
	Runner *runner.Runner
	Tracer trace.Tracer
}

// Model is the root application state.
type Model struct {
	cfg    config.Config
	fs     afero.Fs
	lister *fsview.Lister
	root   string
	keys   keys.KeyMap
	ctx    context.Context
	tracer trace.Tracer

	doc      *document.Document
	language lang.Language
	pipeline *refresh.Pipeline
	runner   *runner.Runner
	running  bool

	editor  editor.Model
	tree    *filetree.Model
	sidebar *sidebar.Model
	console console.Model
	help    help.Model

	focus      Pane
	showHelp   bool
	showStatus bool

	prompt     textinput.Model
	promptKind promptKind
	runAfter   bool // run once the save-as prompt completes

	message    string
	messageBad bool

	watcherHandle *watcher.Watcher
	watchCh       <-chan string

	width  int
	height int
}

// NewWithConfig creates the application model. openPath, if not empty, is
// opened on start.
func NewWithConfig(svc Services, openPath string) Model {
	cfg := config.Defaults()
	if svc.Config != nil {
		cfg = *svc.Config
	}
	fs := svc.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	tracer := svc.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	run := svc.Runner
	if run == nil {
		run = runner.New(runner.Options{
			CppCompiler: cfg.Run.CppCompiler,
			CppFlags:    cfg.Run.CppFlags,
			Python:      cfg.Run.Python,
			Timeout:     cfg.Run.Timeout,
		}, runner.WithTracer(tracer))
	}

	language, err := cfg.Lang()
	if err != nil {
		log.Warn(log.CatConfig, "Unknown language, using C++", "language", cfg.Language)
		language = lang.Cpp
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	lister := fsview.NewLister(fs,
		fsview.WithTTL(cfg.Tree.CacheTTL),
		fsview.WithHidden(cfg.Tree.ShowHidden),
	)

	prompt := textinput.New()
	prompt.CharLimit = 512

	m := Model{
		cfg:    cfg,
		fs:     fs,
		lister: lister,
		root:   root,
		keys:   keys.DefaultKeyMap(),
		ctx:    context.Background(),
		tracer: tracer,

		doc:      document.New(fs),
		language: language,
		pipeline: refresh.New(highlight.NewPainter(cfg.Theme),
			refresh.WithTracer(tracer),
			refresh.WithLanguage(language),
		),
		runner: run,

		editor: editor.New(
			editor.WithTabWidth(cfg.Editor.TabWidth),
			editor.WithAutoIndent(cfg.Editor.AutoIndent),
			editor.WithAutoPair(cfg.Editor.AutoPair),
		),
		tree:    filetree.New(lister, root),
		sidebar: sidebar.New(),
		console: console.New(),
		help:    help.New(cfg.UI.MarkdownStyle),

		showStatus: cfg.UI.ShowStatus,
		prompt:     prompt,
	}
	m.editor.Focus()

	if openPath != "" {
		m, _ = m.openFile(m.resolve(openPath))
	} else {
		m.refresh()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.listenForChanges()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case filetree.OpenFileMsg:
		return m.openFile(msg.Path)

	case sidebar.JumpToLineMsg:
		m.editor.GotoLine(msg.Line)
		m.setFocus(PaneEditor)
		return m, nil

	case runFinishedMsg:
		m.running = false
		if msg.err != nil {
			log.ErrorErr(log.CatRun, "Run failed", msg.err, "path", msg.path)
			m.console.ShowError(msg.err)
			m.setMessage("run failed", true)
		} else {
			m.console.ShowResult(msg.result)
			m.setMessage("run finished", !msg.result.Success)
		}
		return m, nil

	case fileChangedMsg:
		m = m.handleFileChanged(msg.path)
		return m, m.listenForChanges()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptKind != promptNone {
		return m.updatePrompt(msg)
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || msg.Type == tea.KeyEsc {
			m.showHelp = false
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.New):
		return m.newFile(), nil
	case key.Matches(msg, m.keys.Open):
		return m.openPrompt(promptOpen, ""), textinput.Blink
	case key.Matches(msg, m.keys.Save):
		return m.save(false)
	case key.Matches(msg, m.keys.Run):
		return m.save(true)
	case key.Matches(msg, m.keys.CycleLang):
		return m.setLanguage(m.language.Next()), nil
	case key.Matches(msg, m.keys.FocusNext):
		m.setFocus((m.focus + 1) % 4)
		return m, nil
	case key.Matches(msg, m.keys.ToggleStatus):
		m.showStatus = !m.showStatus
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.FocusEditor) && m.focus != PaneEditor && !m.sidebar.Filtering():
		m.setFocus(PaneEditor)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case PaneEditor:
		m.editor, cmd = m.editor.Update(msg)
		m.refresh()
	case PaneTree:
		cmd = m.tree.Update(msg)
	case PaneSidebar:
		cmd = m.sidebar.Update(msg)
	case PaneConsole:
		m.console, cmd = m.console.Update(msg)
	}
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.promptKind != promptNone {
		return m, nil
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if z := zone.Get(editorZoneID); z != nil && z.InBounds(msg) {
			m.setFocus(PaneEditor)
			// Pane border is one cell on each side.
			m.editor.ClickAt(msg.X-z.StartX-1, msg.Y-z.StartY-1)
			return m, nil
		}
		if z := zone.Get(treeZoneID); z != nil && z.InBounds(msg) {
			m.setFocus(PaneTree)
			return m, m.tree.Update(msg)
		}
		if z := zone.Get(sidebarZoneID); z != nil && z.InBounds(msg) {
			m.setFocus(PaneSidebar)
			return m, m.sidebar.Update(msg)
		}
		if z := zone.Get(consoleZoneID); z != nil && z.InBounds(msg) {
			m.setFocus(PaneConsole)
			return m, nil
		}
		return m, nil
	}

	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		if z := zone.Get(consoleZoneID); z != nil && z.InBounds(msg) {
			var cmd tea.Cmd
			m.console, cmd = m.console.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// refresh runs the highlight and symbol pipeline over the current buffer.
func (m *Model) refresh() {
	res := m.pipeline.OnEdit(m.ctx, m.editor.Value(), &m.editor, m.sidebar)
	if res.Degraded > 0 {
		log.Debug(log.CatRefresh, "Tokens recovered as other", "count", res.Degraded)
	}
}

func (m *Model) setFocus(p Pane) {
	m.focus = p
	m.editor.Blur()
	m.tree.Blur()
	m.sidebar.Blur()
	m.console.Blur()
	switch p {
	case PaneEditor:
		m.editor.Focus()
	case PaneTree:
		m.tree.Focus()
	case PaneSidebar:
		m.sidebar.Focus()
	case PaneConsole:
		m.console.Focus()
	}
}

func (m *Model) setMessage(msg string, bad bool) {
	m.message = msg
	m.messageBad = bad
}

func (m Model) setLanguage(l lang.Language) Model {
	m.language = l
	m.pipeline.SetLanguage(l)
	m.refresh()
	m.setMessage("language: "+l.String(), false)
	log.Info(log.CatUI, "Language changed", "language", l)
	return m
}

// resolve makes a user-entered path absolute against the project root.
func (m Model) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.root, path)
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// Language returns the current language.
func (m Model) Language() lang.Language { return m.language }

// Document returns the open document.
func (m Model) Document() *document.Document { return m.doc }

// Editor returns the editor pane.
func (m Model) Editor() editor.Model { return m.editor }

// Sidebar returns the symbol pane.
func (m Model) Sidebar() *sidebar.Model { return m.sidebar }

// Console returns the output pane.
func (m Model) Console() console.Model { return m.console }

// Pipeline returns the refresh pipeline.
func (m Model) Pipeline() *refresh.Pipeline { return m.pipeline }

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}
