package app

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Fialia9363/fialiaoi-cpp/internal/document"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/watcher"
)

// runFinishedMsg carries a run's outcome back to the event loop.
type runFinishedMsg struct {
	path   string
	result runner.Result
	err    error
}

// fileChangedMsg reports that the watched file changed on disk.
type fileChangedMsg struct {
	path string
}

// openFile loads path into the editor. Errors go to the console and leave
// the current buffer untouched.
func (m Model) openFile(path string) (Model, tea.Cmd) {
	doc, text, err := document.Open(m.fs, path)
	if err != nil {
		log.ErrorErr(log.CatFS, "Open failed", err, "path", path)
		m.console.ShowError(err)
		m.setMessage("could not open "+filepath.Base(path), true)
		return m, nil
	}

	m.doc = doc
	if l, ok := document.DetectLanguage(path); ok && l != m.language {
		m.language = l
		m.pipeline.SetLanguage(l)
	}
	m.editor.SetValue(text)
	m.refresh()
	m.tree.SelectPath(path)
	m.setFocus(PaneEditor)
	m.setMessage("opened "+doc.Name(), false)
	cmd := m.watch(path)
	return m, cmd
}

// newFile replaces the buffer with an empty, unnamed document.
func (m Model) newFile() Model {
	m.doc = document.New(m.fs)
	m.editor.SetValue("")
	m.console.Clear()
	m.refresh()
	m.setFocus(PaneEditor)
	m.setMessage("new file", false)
	return m
}

// save writes the buffer. An unnamed buffer prompts for a path first. With
// andRun the saved file is run afterwards.
func (m Model) save(andRun bool) (Model, tea.Cmd) {
	if andRun && m.running {
		return m, nil
	}
	if m.doc.Path() == "" {
		m = m.openPrompt(promptSaveAs, "untitled"+m.language.Extension())
		m.runAfter = andRun
		return m, nil
	}
	return m.saveTo(m.doc.Path(), andRun)
}

func (m Model) saveTo(path string, andRun bool) (Model, tea.Cmd) {
	prev := m.doc.Path()
	m.doc.SetPath(path)
	if err := m.doc.Save(m.editor.Value()); err != nil {
		m.doc.SetPath(prev)
		log.ErrorErr(log.CatFS, "Save failed", err, "path", path)
		m.console.ShowError(err)
		m.setMessage("save failed", true)
		return m, nil
	}

	if prev != path {
		if l, ok := document.DetectLanguage(path); ok && l != m.language {
			m.language = l
			m.pipeline.SetLanguage(l)
		}
	}
	// Saving re-scans symbols.
	m.refresh()
	m.tree.Reload()
	m.tree.SelectPath(path)
	m.setMessage("saved "+m.doc.Name(), false)

	var cmds []tea.Cmd
	if prev != path {
		cmds = append(cmds, m.watch(path))
	}
	if andRun {
		m.running = true
		m.console.Show("running " + m.doc.Name() + "...")
		cmds = append(cmds, runCmd(m, path, m.language))
	}
	return m, tea.Batch(cmds...)
}

// runCmd runs path on Bubble Tea's goroutine.
func runCmd(m Model, path string, l lang.Language) tea.Cmd {
	r, ctx := m.runner, m.ctx
	return func() tea.Msg {
		res, err := r.Run(ctx, path, l)
		return runFinishedMsg{path: path, result: res, err: err}
	}
}

// openPrompt shows the path prompt.
func (m Model) openPrompt(kind promptKind, initial string) Model {
	m.promptKind = kind
	m.runAfter = false
	switch kind {
	case promptOpen:
		m.prompt.Prompt = "Open: "
	case promptSaveAs:
		m.prompt.Prompt = "Save as: "
	}
	m.prompt.SetValue(initial)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	return m
}

func (m Model) closePrompt() Model {
	m.promptKind = promptNone
	m.prompt.Blur()
	m.prompt.SetValue("")
	return m
}

func (m Model) updatePrompt(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.closePrompt(), nil
	case tea.KeyEnter:
		kind, andRun := m.promptKind, m.runAfter
		path := m.resolve(strings.TrimSpace(m.prompt.Value()))
		m = m.closePrompt()
		if path == "" {
			return m, nil
		}
		switch kind {
		case promptOpen:
			if m.lister.IsDir(path) {
				m.tree.SelectPath(path)
				m.setFocus(PaneTree)
				m.setMessage(filepath.Base(path)+" is a directory", true)
				return m, nil
			}
			return m.openFile(path)
		case promptSaveAs:
			return m.saveTo(path, andRun)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// watch points the file watcher at path, starting it on first use. The
// returned command listens when a new watcher was started.
func (m *Model) watch(path string) tea.Cmd {
	if !m.cfg.Watch.Enabled {
		return nil
	}
	if m.watcherHandle != nil {
		if err := m.watcherHandle.Retarget(path); err != nil {
			log.Warn(log.CatWatcher, "Retarget failed", "path", path, "error", err)
		}
		return nil
	}

	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: m.cfg.Watch.Debounce})
	if err != nil {
		log.Warn(log.CatWatcher, "Watcher unavailable", "error", err)
		return nil
	}
	ch, err := w.Start()
	if err != nil {
		_ = w.Stop()
		log.Warn(log.CatWatcher, "Watcher start failed", "path", path, "error", err)
		return nil
	}
	m.watcherHandle = w
	m.watchCh = ch
	return m.listenForChanges()
}

func (m Model) listenForChanges() tea.Cmd {
	ch := m.watchCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}

// handleFileChanged reloads the open file after an outside edit, unless the
// buffer has unsaved changes.
func (m Model) handleFileChanged(path string) Model {
	m.tree.Reload()
	if m.doc.Path() == "" || filepath.Clean(m.doc.Path()) != filepath.Clean(path) {
		return m
	}
	if !m.doc.Exists() {
		m.setMessage(m.doc.Name()+" was removed on disk", true)
		log.Info(log.CatWatcher, "Open file removed", "path", path)
		return m
	}
	if m.doc.Dirty(m.editor.Value()) {
		m.setMessage("file changed on disk; unsaved edits kept", true)
		log.Info(log.CatWatcher, "External change ignored, buffer dirty", "path", path)
		return m
	}

	text, err := m.doc.Reload()
	if err != nil {
		m.console.ShowError(err)
		return m
	}
	if text == m.editor.Value() {
		return m
	}
	line := m.editor.Line()
	m.editor.SetValue(text)
	m.editor.GotoLine(line)
	m.refresh()
	m.setMessage("reloaded "+m.doc.Name(), false)
	return m
}
