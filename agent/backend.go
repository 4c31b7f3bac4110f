package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/pocketforge/taskagent/llm"
)

// ErrUnsupportedModel is returned when the configured model identifier has
// no registered backend. It is fatal and raised before any side effect.
var ErrUnsupportedModel = errors.New("model not supported")

// PromptInputs carries everything a backend needs to assemble one turn's
// prompt. Scratchpad is passed explicitly each turn rather than held as
// backend state.
type PromptInputs struct {
	Task       string
	History    []Record
	EditorView string
	Docs       []CommandDoc
	Cwd        string
	BasePath   string
	Scratchpad string
}

// Backend translates agent state into one model provider's expected request
// shape and performs the query. Variants differ in how they fold history
// into messages; the controller never branches on backend identity.
type Backend interface {
	// Assemble produces the message list and system prompt for one turn.
	Assemble(in PromptInputs) (messages []llm.Message, systemPrompt string)

	// Query invokes the model and returns its raw output text.
	Query(ctx context.Context, messages []llm.Message, systemPrompt string) (string, error)
}

// ModelArgs holds the per-turn sampling configuration handed to a backend.
type ModelArgs struct {
	Model       string
	Temperature float64
	APIKey      string
}

// BackendFactory constructs a backend variant for one turn.
type BackendFactory func(client *llm.Client, args ModelArgs) Backend

var (
	backendMu       sync.RWMutex
	backendRegistry = map[string]BackendFactory{
		"claude-opus": func(client *llm.Client, args ModelArgs) Backend {
			return NewAnthropicBackend(client, args)
		},
		"gpt4-o": func(client *llm.Client, args ModelArgs) Backend {
			return NewOpenAIBackend(client, args)
		},
	}
)

// RegisterBackend adds or replaces the backend variant for a model
// identifier. New models are supported by registering variants, not by
// modifying the controller.
func RegisterBackend(model string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendRegistry[model] = factory
}

// backendFor looks up the factory for a model identifier.
func backendFor(model string) (BackendFactory, bool) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	f, ok := backendRegistry[model]
	return f, ok
}
