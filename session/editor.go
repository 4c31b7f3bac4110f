package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketforge/taskagent/agent"
)

// Editor holds the files the model currently has open, each with the page it
// is viewing. Content mirrors the file on disk; edits write through.
type Editor struct {
	root     string
	pageSize int
	files    map[string]agent.File
}

// NewEditor creates an empty editor rooted at the given directory.
func NewEditor(root string, pageSize int) *Editor {
	if pageSize <= 0 {
		pageSize = agent.DefaultPageSize
	}
	return &Editor{
		root:     root,
		pageSize: pageSize,
		files:    make(map[string]agent.File),
	}
}

// PageSize returns the configured page size.
func (e *Editor) PageSize() int { return e.pageSize }

// Files returns a copy of the current editor state keyed by path.
func (e *Editor) Files() map[string]agent.File {
	out := make(map[string]agent.File, len(e.files))
	for path, f := range e.files {
		out[path] = f
	}
	return out
}

func (e *Editor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

// Open reads a file from disk and adds it to the editor at page 0.
func (e *Editor) Open(path string) error {
	data, err := os.ReadFile(e.resolve(path))
	if err != nil {
		return fmt.Errorf("open_file: %w", err)
	}
	e.files[path] = agent.File{Content: string(data)}
	return nil
}

// Create creates an empty file on disk and opens it.
func (e *Editor) Create(path string) error {
	resolved := e.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return fmt.Errorf("create_file: %w", err)
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("create_file: %s already exists", path)
	}
	if err := os.WriteFile(resolved, nil, 0644); err != nil {
		return fmt.Errorf("create_file: %w", err)
	}
	e.files[path] = agent.File{}
	return nil
}

// Close removes a file from the editor. The file on disk is untouched.
func (e *Editor) Close(path string) error {
	if _, ok := e.files[path]; !ok {
		return fmt.Errorf("close_file: %s is not open", path)
	}
	delete(e.files, path)
	return nil
}

// ScrollDown advances a file's page, clamped to the last page.
func (e *Editor) ScrollDown(path string) error {
	f, ok := e.files[path]
	if !ok {
		return fmt.Errorf("scroll_down: %s is not open", path)
	}
	lastPage := len(splitContent(f.Content)) / e.pageSize
	if f.Page < lastPage {
		f.Page++
		e.files[path] = f
	}
	return nil
}

// ScrollUp moves a file's page back, clamped to zero.
func (e *Editor) ScrollUp(path string) error {
	f, ok := e.files[path]
	if !ok {
		return fmt.Errorf("scroll_up: %s is not open", path)
	}
	if f.Page > 0 {
		f.Page--
		e.files[path] = f
	}
	return nil
}

// Edit replaces the zero-based line range [start, end) of an open file with
// the replacement text and writes the result back to disk.
func (e *Editor) Edit(path string, start, end int, replacement string) error {
	f, ok := e.files[path]
	if !ok {
		return fmt.Errorf("%s is not open in the editor", path)
	}
	lines := splitContent(f.Content)
	if start < 0 || end < start || end > len(lines) {
		return fmt.Errorf("line range %d:%d is out of bounds for %d lines", start, end, len(lines))
	}

	var out []string
	out = append(out, lines[:start]...)
	if replacement != "" {
		out = append(out, strings.Split(strings.TrimSuffix(replacement, "\n"), "\n")...)
	}
	out = append(out, lines[end:]...)

	content := strings.Join(out, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(e.resolve(path), []byte(content), 0644); err != nil {
		return err
	}
	f.Content = content
	e.files[path] = f
	return nil
}

func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
