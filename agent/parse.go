package agent

import (
	"fmt"
	"strings"
)

const (
	commandOpen     = "<COMMAND>"
	commandClose    = "</COMMAND>"
	scratchpadOpen  = "<SCRATCHPAD>"
	scratchpadClose = "</SCRATCHPAD>"
)

// ParseError reports a model response that does not conform to the required
// structural grammar: free-form thought text, exactly one command block, and
// an optional scratchpad block.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

// Parse extracts the thought, action, and optional scratchpad from raw model
// output. The thought is the free-form text preceding the command block. A
// response with zero or multiple command blocks, or with an empty thought or
// action, fails with ParseError; partial results are never returned.
func Parse(raw string) (thought, action, scratchpad string, err error) {
	if strings.Count(raw, commandOpen) > 1 {
		return "", "", "", &ParseError{
			Reason: fmt.Sprintf("multiple actions found in response: %s", raw),
			Raw:    raw,
		}
	}

	open := strings.Index(raw, commandOpen)
	if open == -1 {
		return "", "", "", &ParseError{Reason: "missing command block", Raw: raw}
	}
	rest := raw[open+len(commandOpen):]
	close := strings.Index(rest, commandClose)
	if close == -1 {
		return "", "", "", &ParseError{Reason: "unterminated command block", Raw: raw}
	}

	action = strings.TrimSpace(rest[:close])
	thought = strings.TrimSpace(stripScratchpad(raw[:open]))
	scratchpad = extractScratchpad(raw)

	if thought == "" || action == "" {
		return "", "", "", &ParseError{
			Reason: "response did not follow the thought/action format",
			Raw:    raw,
		}
	}
	return thought, action, scratchpad, nil
}

// extractScratchpad returns the contents of the first scratchpad block, or
// empty when none is present.
func extractScratchpad(raw string) string {
	open := strings.Index(raw, scratchpadOpen)
	if open == -1 {
		return ""
	}
	rest := raw[open+len(scratchpadOpen):]
	close := strings.Index(rest, scratchpadClose)
	if close == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:close])
}

// stripScratchpad removes a scratchpad block so it is not counted as thought
// text.
func stripScratchpad(text string) string {
	open := strings.Index(text, scratchpadOpen)
	if open == -1 {
		return text
	}
	rest := text[open+len(scratchpadOpen):]
	close := strings.Index(rest, scratchpadClose)
	if close == -1 {
		return text[:open]
	}
	return text[:open] + rest[close+len(scratchpadClose):]
}
