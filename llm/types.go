// Package llm provides a provider-agnostic chat completion client. It routes
// requests to registered provider adapters, classifies provider failures into
// a typed error taxonomy, and applies a bounded retry policy with exponential
// backoff. Callers that need to distinguish "the provider kept failing" from
// other failures can unwrap RetryExhaustedError.
package llm

import "strings"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the prompt sent to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Request is the input to Client.Complete.
type Request struct {
	Model       string    `json:"model"`
	Provider    string    `json:"provider,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Usage tracks token consumption for a single completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns a new Usage that is the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Response is the output of Client.Complete.
type Response struct {
	ID       string `json:"id"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Text     string `json:"text"`
	Usage    Usage  `json:"usage"`
}

// PromptText flattens the request messages into a single prompt body.
// System messages are excluded; Request.System carries those.
func (r Request) PromptText() string {
	var sb strings.Builder
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if msg.Role == RoleAssistant {
			sb.WriteString("[Assistant]: ")
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}
