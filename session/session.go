// Package session drives the turn controller against a local project
// directory. It owns the in-memory editor, the command registry, the event
// log, and the run loop that feeds each turn's observation into the next.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/pocketforge/taskagent/agent"
)

// Config holds session configuration.
type Config struct {
	// BasePath is the project root commands operate on.
	BasePath string

	// PageSize is the editor page size. Zero uses the default.
	PageSize int

	// MaxTurns bounds the run loop. Zero means unlimited.
	MaxTurns int
}

// Session implements the agent.Session collaborator over a local project
// directory and drives the turn loop.
type Session struct {
	id       string
	cfg      Config
	editor   *Editor
	events   *EventLog
	registry *Registry
	logger   *slog.Logger
}

// New creates a Session rooted at cfg.BasePath with the core command set
// registered.
func New(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{
		id:       uuid.New().String(),
		cfg:      cfg,
		editor:   NewEditor(cfg.BasePath, cfg.PageSize),
		events:   NewEventLog(),
		registry: NewRegistry(),
		logger:   logger,
	}
	RegisterCoreCommands(s.registry)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events returns the session's event log.
func (s *Session) Events() *EventLog { return s.events }

// Registry returns the command registry, for callers that register extra
// commands before running.
func (s *Session) Registry() *Registry { return s.registry }

// EditorFiles implements agent.Session.
func (s *Session) EditorFiles() map[string]agent.File {
	return s.editor.Files()
}

// PageSize implements agent.Session.
func (s *Session) PageSize() int {
	return s.editor.PageSize()
}

// CommandDocs implements agent.Session.
func (s *Session) CommandDocs() []agent.CommandDoc {
	return s.registry.Docs()
}

// Cwd implements agent.Session.
func (s *Session) Cwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return s.cfg.BasePath
	}
	return wd
}

// BasePath implements agent.Session.
func (s *Session) BasePath() string {
	return s.cfg.BasePath
}

// AppendEvent implements agent.Session.
func (s *Session) AppendEvent(ev agent.Event) {
	s.events.Append(ev)
}

// Execute runs one action and returns the observation for the next turn.
// Command failures become observations rather than errors so the model can
// react to them.
func (s *Session) Execute(action string) string {
	name, args, body := splitAction(action)
	if name == "" {
		return "No command given."
	}

	cmd, ok := s.registry.Get(name)
	if !ok {
		return fmt.Sprintf("Command not found: %s. Issue one of the documented commands.", name)
	}

	out, err := cmd.Run(s, args, body)
	if err != nil {
		s.logger.Warn("command failed", "session", s.id, "command", name, "error", err)
		return fmt.Sprintf("Command %s failed: %v", name, err)
	}
	return truncateObservation(out, maxObservationChars)
}

// Run drives the agent until it exits, fails, or hits the turn limit. A
// context cancellation aborts the in-flight turn and propagates.
func (s *Session) Run(ctx context.Context, ag *agent.Agent, task string) error {
	observation := fmt.Sprintf("Starting in %s. The editor is empty.", s.cfg.BasePath)

	for turn := 0; s.cfg.MaxTurns == 0 || turn < s.cfg.MaxTurns; turn++ {
		outcome, err := ag.RunTurn(ctx, task, observation, s)
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case agent.OutcomeNormal:
			if strings.TrimSpace(outcome.Action) == "exit" {
				s.logger.Info("agent exited", "session", s.id, "turns", turn+1)
				return nil
			}
			observation = s.Execute(outcome.Action)
		case agent.OutcomeHallucination:
			// Feed the format complaint back so the model can correct itself.
			observation = outcome.Raw
		default:
			return fmt.Errorf("agent aborted (%s): %s", outcome.Kind, outcome.Message)
		}
	}

	return fmt.Errorf("turn limit reached (%d)", s.cfg.MaxTurns)
}

// splitAction parses an action string into command name, argument fields,
// and the body following the first line.
func splitAction(action string) (name string, args []string, body string) {
	action = strings.TrimSpace(action)
	line := action
	if idx := strings.Index(action, "\n"); idx != -1 {
		line = action[:idx]
		body = action[idx+1:]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, ""
	}
	return fields[0], fields[1:], body
}
