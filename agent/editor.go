package agent

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPageSize is the number of lines shown per editor page.
const DefaultPageSize = 50

// File is one open file in the session's editor: its full content and the
// page the agent is currently viewing. The controller treats editor state as
// read-only input; the session's editing commands own mutation.
type File struct {
	Content string
	Page    int
}

// RenderEditor converts the editor state into the paginated, line-numbered
// textual view embedded in each prompt. Files render in sorted path order so
// the view is deterministic. Pure function; it never fails on well-formed
// input.
func RenderEditor(files map[string]File, pageSize int) string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]string, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, renderFile(path, files[path], pageSize))
	}
	return strings.Join(entries, "\n")
}

// renderFile emits one file's window: a banner with the window bounds, then
// the window's lines prefixed with their absolute 4-digit line numbers.
func renderFile(path string, f File, pageSize int) string {
	lines := splitLines(f.Content)
	total := len(lines)

	// The last page holds total mod pageSize lines (possibly zero); every
	// earlier page holds exactly pageSize.
	lastPage := total / pageSize
	windowLen := pageSize
	if f.Page == lastPage {
		windowLen = total % pageSize
	}
	start := f.Page * pageSize

	var sb strings.Builder
	for i := 0; i < windowLen; i++ {
		idx := start + i
		if idx >= total {
			break
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%04d%s", idx, lines[idx])
	}

	return fmt.Sprintf(`
************ FILE: %s, WINDOW STARTLINE: %d, WINDOW ENDLINE: %d, TOTAL FILE LINES: %d ************
%s
************************************
`, path, start, start+windowLen, total, sb.String())
}

// splitLines splits content into lines without treating a trailing newline
// as an extra empty line. Empty content has zero lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
