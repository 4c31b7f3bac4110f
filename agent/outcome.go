package agent

import "fmt"

// OutcomeKind tags the result of a turn.
type OutcomeKind string

const (
	OutcomeNormal           OutcomeKind = "normal"
	OutcomeHallucination    OutcomeKind = "hallucination"
	OutcomeRuntimeFailure   OutcomeKind = "runtime_failure"
	OutcomeRetryExhausted   OutcomeKind = "retry_exhausted"
	OutcomeUnhandledFailure OutcomeKind = "unhandled_failure"
)

// Exit actions carried by failure outcomes so the session driver can route
// them like any other action.
const (
	ActionExitError = "exit_error"
	ActionExitAPI   = "exit_api"
)

// Outcome is the tagged result of one RunTurn invocation. The kind and its
// payload are the only contract the session driver needs.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Thought string      `json:"thought"`
	Action  string      `json:"action"`
	Raw     string      `json:"raw,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewNormalOutcome wraps a successfully parsed turn.
func NewNormalOutcome(thought, action, raw string) Outcome {
	return Outcome{Kind: OutcomeNormal, Thought: thought, Action: action, Raw: raw}
}

// NewHallucinationOutcome is the sentinel returned when the model's output
// failed structural parsing. The failed output is discarded.
func NewHallucinationOutcome() Outcome {
	return Outcome{
		Kind:    OutcomeHallucination,
		Thought: "hallucination",
		Action:  "hallucination",
		Raw:     "Incorrect response format",
	}
}

// NewRuntimeFailureOutcome wraps an error surfaced by the environment or
// tooling layer.
func NewRuntimeFailureOutcome(err error) Outcome {
	return Outcome{
		Kind:    OutcomeRuntimeFailure,
		Thought: fmt.Sprintf("Exit due to runtime error: %v", err),
		Action:  ActionExitError,
		Raw:     fmt.Sprintf("exit due to runtime error: %v", err),
		Message: err.Error(),
	}
}

// NewRetryExhaustedOutcome wraps the model client giving up on retries.
func NewRetryExhaustedOutcome(err error) Outcome {
	return Outcome{
		Kind:    OutcomeRetryExhausted,
		Thought: fmt.Sprintf("Exit due to retry error: %v", err),
		Action:  ActionExitAPI,
		Raw:     fmt.Sprintf("exit due to retry error: %v", err),
		Message: err.Error(),
	}
}

// NewUnhandledFailureOutcome wraps any other failure.
func NewUnhandledFailureOutcome(err error) Outcome {
	return Outcome{
		Kind:    OutcomeUnhandledFailure,
		Thought: fmt.Sprintf("Exit due to exception: %v", err),
		Action:  ActionExitError,
		Raw:     fmt.Sprintf("exit due to exception: %v", err),
		Message: err.Error(),
	}
}

// RuntimeError marks an error as originating from the environment/tooling
// layer so the controller classifies it as a RuntimeFailure outcome.
type RuntimeError struct {
	Msg   string
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}
