// Package agent implements the turn-execution control loop of an autonomous
// coding agent. Each turn renders the agent's state (conversation history and
// a paginated view of the session's open files) into a model-specific prompt,
// queries the model, parses the response into a thought/action pair, and
// classifies every failure mode into a typed Outcome the session driver can
// act on deterministically.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Agent: The turn controller. RunTurn is the sole entry point; it owns
//     the conversation history and the recovery policy that unblocks
//     repeated-failure loops by truncating history and raising temperature.
//   - Backend: A per-model variant translating agent state into one
//     provider's request shape. Backends are selected by model identifier
//     through a registry; new models are added by registering variants, not
//     by branching inside the controller.
//   - History: Append-only log of turn records with bounded truncation.
//   - Session: The collaborator interface through which the controller reads
//     editor state and command docs and appends error events.
//
// # Quick Start
//
//	client := llm.NewClientFromEnv()
//	ag := agent.New(agent.Config{Name: "taskagent", Model: "claude-opus"}, client)
//	outcome, err := ag.RunTurn(ctx, task, observation, sess)
//
// The controller is not reentrant: callers must serialize RunTurn invocations
// per agent instance.
package agent
