package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pocketforge/taskagent/llm"
)

// Config holds the per-agent configuration. The controller exclusively owns
// the history's lifecycle and mutates Temperature and Scratchpad as part of
// the recovery policy. Interrupt is a single-use injected note, cleared once
// consumed.
type Config struct {
	Name        string
	Model       string
	Temperature float64
	Interrupt   string
	APIKey      string
	Scratchpad  string
}

// RecoveryPolicy governs the controller's sole self-correction heuristic:
// when the newest observation and the one two turns back both carry the
// failure marker, the stuck exchange is truncated and sampling temperature
// raised. It trades recent context for unblocking the loop.
type RecoveryPolicy struct {
	// Marker is the substring identifying a failed file edit observation.
	Marker string

	// TruncateRecords is how many recent history records to discard.
	TruncateRecords int

	// TemperatureStep is added to the temperature on each trigger.
	TemperatureStep float64

	// TemperatureCeiling disables further increments once reached.
	TemperatureCeiling float64
}

// DefaultRecoveryPolicy returns the stock recovery policy.
func DefaultRecoveryPolicy() RecoveryPolicy {
	return RecoveryPolicy{
		Marker:             "Failed to edit file",
		TruncateRecords:    6,
		TemperatureStep:    0.2,
		TemperatureCeiling: 0.8,
	}
}

// Agent is the turn controller. It is not reentrant; callers serialize
// RunTurn invocations per instance.
type Agent struct {
	cfg      Config
	recovery RecoveryPolicy
	history  *History
	client   *llm.Client
	logger   *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger injects the agent's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithRecoveryPolicy overrides the default recovery policy.
func WithRecoveryPolicy(p RecoveryPolicy) Option {
	return func(a *Agent) {
		a.recovery = p
	}
}

// New creates an Agent with the given configuration and model client.
func New(cfg Config, client *llm.Client, opts ...Option) *Agent {
	a := &Agent{
		cfg:      cfg,
		recovery: DefaultRecoveryPolicy(),
		history:  NewHistory(),
		client:   client,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.cfg.Name }

// Temperature returns the current sampling temperature.
func (a *Agent) Temperature() float64 { return a.cfg.Temperature }

// Scratchpad returns the currently stored scratchpad.
func (a *Agent) Scratchpad() string { return a.cfg.Scratchpad }

// History returns a copy of the conversation history.
func (a *Agent) History() []Record { return a.history.Records() }

// Interrupt queues a single-use note appended to the next observation.
func (a *Agent) Interrupt(note string) { a.cfg.Interrupt = note }

// RunTurn executes one full turn: render state, assemble the prompt, query
// the model, parse the response, update history, and classify the outcome.
// A context cancellation propagates unchanged as the returned error, without
// an outcome or an event; ErrUnsupportedModel is likewise returned as an
// error before any side effect. Every other failure is classified into the
// returned Outcome.
func (a *Agent) RunTurn(ctx context.Context, task, observation string, sess Session) (Outcome, error) {
	factory, ok := backendFor(a.cfg.Model)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnsupportedModel, a.cfg.Model)
	}

	// Single-use interrupt note.
	if a.cfg.Interrupt != "" {
		observation = observation + ". also " + a.cfg.Interrupt
		a.cfg.Interrupt = ""
	}

	view := RenderEditor(sess.EditorFiles(), sess.PageSize())

	// The observation is recorded even if the turn later fails.
	a.history.Append(NewUserRecord(a.cfg.Name, observation))

	a.maybeRecover()

	backend := factory(a.client, ModelArgs{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		APIKey:      a.cfg.APIKey,
	})

	messages, systemPrompt := backend.Assemble(PromptInputs{
		Task:       task,
		History:    a.history.Records(),
		EditorView: view,
		Docs:       sess.CommandDocs(),
		Cwd:        sess.Cwd(),
		BasePath:   sess.BasePath(),
		Scratchpad: a.cfg.Scratchpad,
	})

	raw, err := backend.Query(ctx, messages, systemPrompt)
	if err != nil {
		return a.classify(err, sess)
	}

	thought, action, scratchpad, perr := Parse(raw)
	if perr != nil {
		// The failed output is discarded: no assistant record, no event.
		a.logger.Warn("model response failed parsing",
			"agent", a.cfg.Name, "reason", perr.Error())
		return NewHallucinationOutcome(), nil
	}

	if scratchpad != "" {
		a.cfg.Scratchpad = scratchpad
	}
	a.history.Append(NewAssistantRecord(a.cfg.Name, raw, thought, action))

	a.logger.Info("turn completed",
		"agent", a.cfg.Name,
		"thought", thought,
		"action", action,
		"observation", observation,
		"scratchpad", scratchpad,
	)

	return NewNormalOutcome(thought, action, raw), nil
}

// maybeRecover runs the stagnation check against the two most recent
// observations (the current one and the one two turns back) and applies the
// recovery policy when both carry the failure marker.
func (a *Agent) maybeRecover() {
	if a.history.Len() <= 2 {
		return
	}
	last, ok1 := a.history.at(1)
	secondLast, ok2 := a.history.at(3)
	if !ok1 || !ok2 {
		return
	}
	if !containsMarker(last.Content, a.recovery.Marker) ||
		!containsMarker(secondLast.Content, a.recovery.Marker) {
		return
	}

	a.history.Truncate(a.recovery.TruncateRecords)
	if a.cfg.Temperature < a.recovery.TemperatureCeiling {
		a.cfg.Temperature += a.recovery.TemperatureStep
	}
	a.logger.Info("repeated failure loop detected, truncating history",
		"agent", a.cfg.Name,
		"records_removed", a.recovery.TruncateRecords,
		"temperature", a.cfg.Temperature,
	)
}

// classify maps a query-path error to the outcome taxonomy, appending the
// audit event for every non-interruption failure.
func (a *Agent) classify(err error, sess Session) (Outcome, error) {
	// User interruption propagates unmodified, bypassing logging and the
	// event sink, so the process can abort immediately.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{}, err
	}

	sess.AppendEvent(Event{
		Type:     "Error",
		Content:  err.Error(),
		Producer: a.cfg.Name,
		Consumer: "none",
	})

	var runtimeErr *RuntimeError
	if errors.As(err, &runtimeErr) {
		a.logger.Error("runtime error", "agent", a.cfg.Name, "error", err)
		return NewRuntimeFailureOutcome(err), nil
	}

	var retryErr *llm.RetryExhaustedError
	if errors.As(err, &retryErr) {
		a.logger.Error("retry error", "agent", a.cfg.Name, "error", err)
		return NewRetryExhaustedOutcome(err), nil
	}

	a.logger.Error("exception", "agent", a.cfg.Name, "error", err)
	return NewUnhandledFailureOutcome(err), nil
}

func containsMarker(content, marker string) bool {
	return marker != "" && strings.Contains(content, marker)
}
