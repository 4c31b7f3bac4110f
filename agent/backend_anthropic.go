package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketforge/taskagent/llm"
)

// AnthropicBackend assembles prompts in the shape Claude models respond to
// best: the full transcript collapsed into a single synthetic user turn
// containing the task, history, editor view, and scratchpad.
type AnthropicBackend struct {
	client *llm.Client
	args   ModelArgs
}

// NewAnthropicBackend creates the backend variant for Claude models.
func NewAnthropicBackend(client *llm.Client, args ModelArgs) *AnthropicBackend {
	return &AnthropicBackend{client: client, args: args}
}

func (b *AnthropicBackend) Assemble(in PromptInputs) ([]llm.Message, string) {
	docs := "Custom Commands Documentation:\n" + renderCommandDocs(in.Docs) + "\n"
	systemPrompt := fmt.Sprintf(anthropicSystemPromptTemplate, docs)

	prompt := fmt.Sprintf(anthropicUserPromptTemplate,
		in.Task,
		historyToTranscript(in.History),
		in.EditorView,
		in.Cwd,
		in.BasePath,
		in.Scratchpad,
	)

	return []llm.Message{llm.UserMessage(prompt)}, systemPrompt
}

func (b *AnthropicBackend) Query(ctx context.Context, messages []llm.Message, systemPrompt string) (string, error) {
	temp := b.args.Temperature
	resp, err := b.client.Complete(ctx, llm.Request{
		Model:       b.args.Model,
		Provider:    "anthropic",
		System:      systemPrompt,
		Messages:    messages,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// historyToTranscript collapses the turn history into a shell-session style
// transcript: each assistant action appears as an issued command and each
// observation as its output.
func historyToTranscript(history []Record) string {
	var sb strings.Builder
	for _, rec := range history {
		switch rec.Role {
		case RoleUser:
			if rec.Content != "" {
				fmt.Fprintf(&sb, "<OBSERVATION>\n%s\n</OBSERVATION>\n", rec.Content)
			}
		case RoleAssistant:
			fmt.Fprintf(&sb, "<THOUGHT>\n%s\n</THOUGHT>\n<COMMAND>\n%s\n</COMMAND>\n", rec.Thought, rec.Action)
		}
	}
	return sb.String()
}

// renderCommandDocs formats each command's documentation as its own block.
func renderCommandDocs(docs []CommandDoc) string {
	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(d.Doc)
		sb.WriteString("\n")
	}
	return sb.String()
}

const anthropicSystemPromptTemplate = `You are an autonomous programmer working inside a restricted shell session. You solve the user's task by issuing one command at a time and reacting to each observation.

%s
RESPONSE FORMAT:
First write your reasoning as plain text. Then issue exactly one command wrapped in <COMMAND></COMMAND> tags. You may optionally persist notes for your future self inside <SCRATCHPAD></SCRATCHPAD> tags; the new scratchpad replaces the old one entirely.

Never issue more than one command per response. Never leave the command block empty.`

const anthropicUserPromptTemplate = `Here is your task:

<TASK>
%s
</TASK>

Here is the session history so far:

<HISTORY>
%s
</HISTORY>

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
