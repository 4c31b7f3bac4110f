package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pocketforge/taskagent/llm"
)

// mockSession is a test double for Session.
type mockSession struct {
	files  map[string]File
	docs   []CommandDoc
	events []Event
}

func (m *mockSession) EditorFiles() map[string]File { return m.files }
func (m *mockSession) PageSize() int                { return 50 }
func (m *mockSession) CommandDocs() []CommandDoc    { return m.docs }
func (m *mockSession) Cwd() string                  { return "/work" }
func (m *mockSession) BasePath() string             { return "/work" }
func (m *mockSession) AppendEvent(e Event)          { m.events = append(m.events, e) }

// mockBackend is a test double for Backend. It records the assembled inputs
// and returns a canned response or error.
type mockBackend struct {
	raw     string
	err     error
	inputs  []PromptInputs
	queries int
}

func (b *mockBackend) Assemble(in PromptInputs) ([]llm.Message, string) {
	b.inputs = append(b.inputs, in)
	return []llm.Message{llm.UserMessage("prompt")}, "system"
}

func (b *mockBackend) Query(ctx context.Context, messages []llm.Message, systemPrompt string) (string, error) {
	b.queries++
	if b.err != nil {
		return "", b.err
	}
	return b.raw, nil
}

var modelSeq int

// registerMock wires a mockBackend under a fresh model identifier and returns
// an agent configured to use it.
func registerMock(t *testing.T, backend *mockBackend, cfg Config) *Agent {
	t.Helper()
	modelSeq++
	model := fmt.Sprintf("mock-model-%d", modelSeq)
	RegisterBackend(model, func(client *llm.Client, args ModelArgs) Backend {
		return backend
	})
	cfg.Model = model
	if cfg.Name == "" {
		cfg.Name = "tester"
	}
	return New(cfg, nil)
}

const wellFormed = "I will open the file.\n<COMMAND>open_file main.go</COMMAND>"

func TestRunTurnNormal(t *testing.T) {
	backend := &mockBackend{raw: wellFormed}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	out, err := ag.RunTurn(context.Background(), "fix the bug", "Starting up.", sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeNormal {
		t.Fatalf("expected normal outcome, got %q", out.Kind)
	}
	if out.Thought != "I will open the file." || out.Action != "open_file main.go" {
		t.Errorf("wrong parse results: %q / %q", out.Thought, out.Action)
	}

	recs := ag.History()
	if len(recs) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(recs))
	}
	if recs[0].Role != RoleUser || recs[0].Content != "Starting up." {
		t.Errorf("wrong observation record: %+v", recs[0])
	}
	if recs[1].Role != RoleAssistant || recs[1].Content != wellFormed {
		t.Errorf("wrong assistant record: %+v", recs[1])
	}
	if len(sess.events) != 0 {
		t.Errorf("normal turn should append no events, got %d", len(sess.events))
	}
}

func TestRunTurnUnsupportedModel(t *testing.T) {
	ag := New(Config{Name: "tester", Model: "no-such-model"}, nil)
	sess := &mockSession{}

	_, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	if len(ag.History()) != 0 {
		t.Error("unsupported model must fail before recording the observation")
	}
	if len(sess.events) != 0 {
		t.Error("unsupported model must not append events")
	}
}

func TestRunTurnInterruptConsumedOnce(t *testing.T) {
	backend := &mockBackend{raw: wellFormed}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	ag.Interrupt("focus on the tests")
	if _, err := ag.RunTurn(context.Background(), "task", "observation", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ag.RunTurn(context.Background(), "task", "observation", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs := ag.History()
	if recs[0].Content != "observation. also focus on the tests" {
		t.Errorf("interrupt not injected: %q", recs[0].Content)
	}
	if recs[2].Content != "observation" {
		t.Errorf("interrupt should be single-use: %q", recs[2].Content)
	}
}

func TestRunTurnHallucination(t *testing.T) {
	backend := &mockBackend{raw: "rambling with no command block"}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	out, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeHallucination {
		t.Fatalf("expected hallucination outcome, got %q", out.Kind)
	}
	if out.Thought != "hallucination" || out.Action != "hallucination" {
		t.Errorf("wrong sentinels: %q / %q", out.Thought, out.Action)
	}
	if out.Raw != "Incorrect response format" {
		t.Errorf("wrong raw sentinel: %q", out.Raw)
	}

	recs := ag.History()
	if len(recs) != 1 || recs[0].Role != RoleUser {
		t.Errorf("hallucination must record the observation but not the output: %+v", recs)
	}
	if len(sess.events) != 0 {
		t.Errorf("hallucination should append no events, got %d", len(sess.events))
	}
}

func TestRunTurnScratchpad(t *testing.T) {
	backend := &mockBackend{
		raw: "Thinking.\n<SCRATCHPAD>new plan</SCRATCHPAD>\n<COMMAND>ls</COMMAND>",
	}
	ag := registerMock(t, backend, Config{Scratchpad: "old plan"})
	sess := &mockSession{}

	if _, err := ag.RunTurn(context.Background(), "task", "obs", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ag.Scratchpad() != "new plan" {
		t.Errorf("scratchpad not replaced: %q", ag.Scratchpad())
	}

	// A response without a scratchpad block preserves the stored one.
	backend.raw = wellFormed
	if _, err := ag.RunTurn(context.Background(), "task", "obs", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ag.Scratchpad() != "new plan" {
		t.Errorf("scratchpad should persist when absent: %q", ag.Scratchpad())
	}

	// The stored scratchpad flows into prompt assembly.
	last := backend.inputs[len(backend.inputs)-1]
	if last.Scratchpad != "new plan" {
		t.Errorf("scratchpad not passed to backend: %q", last.Scratchpad)
	}
}

func TestRunTurnStagnationRecovery(t *testing.T) {
	backend := &mockBackend{raw: wellFormed}
	ag := registerMock(t, backend, Config{Temperature: 0.6})
	sess := &mockSession{}

	// Seed a transcript whose observation two turns back carries the marker.
	for i := 0; i < 9; i++ {
		ag.history.Append(NewUserRecord("tester", fmt.Sprintf("obs %d", i)))
	}
	ag.history.Append(NewUserRecord("tester", "Failed to edit file: bad range"))
	ag.history.Append(NewAssistantRecord("tester", "raw", "retrying", "edit_file 1:2"))

	if _, err := ag.RunTurn(context.Background(), "task", "Failed to edit file: bad range again", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 12 records at the check, 6 discarded, then one assistant record appended.
	if got := len(ag.History()); got != 7 {
		t.Fatalf("expected 7 records after recovery, got %d", got)
	}
	if math.Abs(ag.Temperature()-0.8) > 1e-9 {
		t.Errorf("expected temperature 0.8, got %v", ag.Temperature())
	}

	// A second trigger must not push the temperature past the ceiling.
	ag.history.Append(NewUserRecord("tester", "Failed to edit file: still stuck"))
	ag.history.Append(NewAssistantRecord("tester", "raw", "retrying", "edit_file 1:2"))
	if _, err := ag.RunTurn(context.Background(), "task", "Failed to edit file: once more", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ag.Temperature()-0.8) > 1e-9 {
		t.Errorf("temperature should stay capped at 0.8, got %v", ag.Temperature())
	}
}

func TestRunTurnNoRecoveryOnShortHistory(t *testing.T) {
	backend := &mockBackend{raw: wellFormed}
	ag := registerMock(t, backend, Config{Temperature: 0.0})
	sess := &mockSession{}

	ag.history.Append(NewUserRecord("tester", "Failed to edit file: first"))
	if _, err := ag.RunTurn(context.Background(), "task", "Failed to edit file: second", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ag.Temperature() != 0.0 {
		t.Errorf("recovery must not trigger with two records, temperature %v", ag.Temperature())
	}
	if got := len(ag.History()); got != 3 {
		t.Errorf("history should be untouched, got %d records", got)
	}
}

func TestRunTurnRuntimeFailure(t *testing.T) {
	backend := &mockBackend{err: &RuntimeError{Msg: "tool crashed"}}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	out, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeRuntimeFailure {
		t.Fatalf("expected runtime failure, got %q", out.Kind)
	}
	if out.Action != ActionExitError {
		t.Errorf("expected action %q, got %q", ActionExitError, out.Action)
	}
	if out.Thought != "Exit due to runtime error: tool crashed" {
		t.Errorf("wrong thought: %q", out.Thought)
	}
	assertSingleErrorEvent(t, sess, "tool crashed")
}

func TestRunTurnRetryExhausted(t *testing.T) {
	cause := errors.New("502 bad gateway")
	backend := &mockBackend{err: &llm.RetryExhaustedError{
		ClientError: llm.ClientError{Message: "retries exhausted", Cause: cause},
		Attempts:    3,
	}}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	out, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeRetryExhausted {
		t.Fatalf("expected retry exhausted, got %q", out.Kind)
	}
	if out.Action != ActionExitAPI {
		t.Errorf("expected action %q, got %q", ActionExitAPI, out.Action)
	}
	assertSingleErrorEvent(t, sess, "retries exhausted")
}

func TestRunTurnUnhandledFailure(t *testing.T) {
	backend := &mockBackend{err: errors.New("something odd")}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	out, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeUnhandledFailure {
		t.Fatalf("expected unhandled failure, got %q", out.Kind)
	}
	if out.Action != ActionExitError {
		t.Errorf("expected action %q, got %q", ActionExitError, out.Action)
	}
	assertSingleErrorEvent(t, sess, "something odd")
}

func TestRunTurnCancellation(t *testing.T) {
	backend := &mockBackend{err: context.Canceled}
	ag := registerMock(t, backend, Config{})
	sess := &mockSession{}

	_, err := ag.RunTurn(context.Background(), "task", "obs", sess)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must propagate unchanged, got %v", err)
	}
	if len(sess.events) != 0 {
		t.Errorf("cancellation must not append events, got %d", len(sess.events))
	}

	// The observation was already recorded when the query failed.
	if got := len(ag.History()); got != 1 {
		t.Errorf("expected the observation record to remain, got %d records", got)
	}
}

func assertSingleErrorEvent(t *testing.T, sess *mockSession, substr string) {
	t.Helper()
	if len(sess.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(sess.events))
	}
	e := sess.events[0]
	if e.Type != "Error" {
		t.Errorf("expected Error event, got %q", e.Type)
	}
	if e.Producer != "tester" || e.Consumer != "none" {
		t.Errorf("wrong routing: producer %q consumer %q", e.Producer, e.Consumer)
	}
	if !strings.Contains(e.Content, substr) {
		t.Errorf("event content %q missing %q", e.Content, substr)
	}
}
