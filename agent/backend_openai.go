package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketforge/taskagent/llm"
)

// openaiQueryDelay spaces out requests to stay inside the provider's rate
// limits. Backend policy, not a controller invariant.
const openaiQueryDelay = 3 * time.Second

// OpenAIBackend assembles prompts as an alternating user/assistant message
// list followed by a fresh user prompt holding the current editor view.
type OpenAIBackend struct {
	client *llm.Client
	args   ModelArgs
	delay  time.Duration
}

// NewOpenAIBackend creates the backend variant for OpenAI models.
func NewOpenAIBackend(client *llm.Client, args ModelArgs) *OpenAIBackend {
	return &OpenAIBackend{client: client, args: args, delay: openaiQueryDelay}
}

func (b *OpenAIBackend) Assemble(in PromptInputs) ([]llm.Message, string) {
	docs := "Custom Commands Documentation:\n" + renderCommandDocs(in.Docs) + "\n"
	systemPrompt := fmt.Sprintf(openaiSystemPromptTemplate, docs)

	var messages []llm.Message
	for _, rec := range in.History {
		switch rec.Role {
		case RoleUser:
			messages = append(messages, llm.UserMessage(rec.Content))
		case RoleAssistant:
			messages = append(messages, llm.AssistantMessage(rec.Content))
		}
	}

	prompt := fmt.Sprintf(openaiUserPromptTemplate,
		in.Task,
		in.EditorView,
		in.Cwd,
		in.BasePath,
		in.Scratchpad,
	)
	messages = append(messages, llm.UserMessage(prompt))

	return messages, systemPrompt
}

func (b *OpenAIBackend) Query(ctx context.Context, messages []llm.Message, systemPrompt string) (string, error) {
	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(b.delay):
		}
	}

	temp := b.args.Temperature
	resp, err := b.client.Complete(ctx, llm.Request{
		Model:       b.args.Model,
		Provider:    "openai",
		System:      systemPrompt,
		Messages:    messages,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

const openaiSystemPromptTemplate = `You are an autonomous programmer working inside a restricted shell session. You solve the user's task by issuing one command at a time and reacting to each observation.

%s
RESPONSE FORMAT:
First write your reasoning as plain text. Then issue exactly one command wrapped in <COMMAND></COMMAND> tags. You may optionally persist notes for your future self inside <SCRATCHPAD></SCRATCHPAD> tags; the new scratchpad replaces the old one entirely.

Never issue more than one command per response. Never leave the command block empty.`

const openaiUserPromptTemplate = `Here is your task:

<TASK>
%s
</TASK>

Here are the files currently open in the editor:

<EDITOR>
%s
</EDITOR>

Current working directory: %s
Project root: %s

<SCRATCHPAD>
%s
</SCRATCHPAD>

Respond with your reasoning followed by a single command.`
