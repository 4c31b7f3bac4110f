package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pocketforge/taskagent/agent"
)

// Command pairs a name and documentation with an executor. The executor
// returns the observation fed back to the model; args are the whitespace
// fields after the command name and body is everything after the first line
// of the action.
type Command struct {
	Name string
	Doc  string
	Run  func(s *Session, args []string, body string) (string, error)
}

// Registry holds the commands available to the model.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds or replaces a command.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Docs returns every command's documentation sorted by name, so the order is
// stable within a turn.
func (r *Registry) Docs() []agent.CommandDoc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]agent.CommandDoc, 0, len(names))
	for _, name := range names {
		docs = append(docs, agent.CommandDoc{Name: name, Doc: r.commands[name].Doc})
	}
	return docs
}

// RegisterCoreCommands installs the standard editing command set.
func RegisterCoreCommands(r *Registry) {
	r.Register(Command{
		Name: "open_file",
		Doc: `open_file <path>
Opens the file at <path> in the editor at page 0. The file's current page is shown in the editor view each turn.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("open_file expects exactly one path")
			}
			if err := s.editor.Open(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Opened %s in the editor.", args[0]), nil
		},
	})

	r.Register(Command{
		Name: "create_file",
		Doc: `create_file <path>
Creates an empty file at <path> and opens it in the editor. Fails if the file already exists.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("create_file expects exactly one path")
			}
			if err := s.editor.Create(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Created and opened %s.", args[0]), nil
		},
	})

	r.Register(Command{
		Name: "close_file",
		Doc: `close_file <path>
Removes the file from the editor. The file on disk is untouched.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("close_file expects exactly one path")
			}
			if err := s.editor.Close(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Closed %s.", args[0]), nil
		},
	})

	r.Register(Command{
		Name: "scroll_down",
		Doc: `scroll_down <path>
Advances the file's editor view by one page.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("scroll_down expects exactly one path")
			}
			if err := s.editor.ScrollDown(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Scrolled down in %s.", args[0]), nil
		},
	})

	r.Register(Command{
		Name: "scroll_up",
		Doc: `scroll_up <path>
Moves the file's editor view back by one page.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("scroll_up expects exactly one path")
			}
			if err := s.editor.ScrollUp(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Scrolled up in %s.", args[0]), nil
		},
	})

	r.Register(Command{
		Name: "edit_file",
		Doc: `edit_file <path> <start>:<end>
<replacement lines>
Replaces the zero-based line range [start, end) of an open file with the replacement text that follows on subsequent lines. An empty replacement deletes the range.`,
		Run: func(s *Session, args []string, body string) (string, error) {
			if len(args) != 2 {
				return "Failed to edit file: edit_file expects a path and a start:end range.", nil
			}
			start, end, err := parseRange(args[1])
			if err != nil {
				return fmt.Sprintf("Failed to edit file: %v.", err), nil
			}
			if err := s.editor.Edit(args[0], start, end, body); err != nil {
				return fmt.Sprintf("Failed to edit file: %v.", err), nil
			}
			return fmt.Sprintf("Edited %s lines %d:%d.", args[0], start, end), nil
		},
	})

	r.Register(Command{
		Name: "search_dir",
		Doc: `search_dir <text> [glob]
Searches files under the project root for <text>, optionally restricted to paths matching a doublestar glob (default **/*). Reports matching files with line numbers.`,
		Run: func(s *Session, args []string, _ string) (string, error) {
			if len(args) < 1 {
				return "", fmt.Errorf("search_dir expects the text to search for")
			}
			pattern := "**/*"
			if len(args) > 1 {
				pattern = args[1]
			}
			return s.searchDir(args[0], pattern)
		},
	})

	r.Register(Command{
		Name: "exit",
		Doc: `exit
Ends the session. Issue this once the task is complete.`,
		Run: func(s *Session, _ []string, _ string) (string, error) {
			return "Exited.", nil
		},
	})
}

// parseRange parses a start:end line range.
func parseRange(spec string) (int, int, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q is not start:end", spec)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad start line %q", parts[0])
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad end line %q", parts[1])
	}
	return start, end, nil
}

// searchDir walks the project root and reports lines containing text in
// files whose relative path matches the glob pattern.
func (s *Session) searchDir(text, pattern string) (string, error) {
	var sb strings.Builder
	matches := 0

	root := s.cfg.BasePath
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, text) {
				fmt.Fprintf(&sb, "%s:%d: %s\n", rel, i+1, strings.TrimSpace(line))
				matches++
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if matches == 0 {
		return fmt.Sprintf("No matches for %q.", text), nil
	}
	return fmt.Sprintf("Found %d matching lines:\n%s", matches, sb.String()), nil
}
