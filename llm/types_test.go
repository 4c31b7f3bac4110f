package llm

import "testing"

func TestMessageConstructors(t *testing.T) {
	if m := SystemMessage("rules"); m.Role != RoleSystem || m.Content != "rules" {
		t.Errorf("SystemMessage: %+v", m)
	}
	if m := UserMessage("hi"); m.Role != RoleUser || m.Content != "hi" {
		t.Errorf("UserMessage: %+v", m)
	}
	if m := AssistantMessage("hello"); m.Role != RoleAssistant || m.Content != "hello" {
		t.Errorf("AssistantMessage: %+v", m)
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	b := Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}
	sum := a.Add(b)
	if sum.InputTokens != 13 || sum.OutputTokens != 7 || sum.TotalTokens != 20 {
		t.Errorf("wrong sum: %+v", sum)
	}
}

func TestRequestPromptText(t *testing.T) {
	req := Request{
		Messages: []Message{
			SystemMessage("ignored"),
			UserMessage("question"),
			AssistantMessage("answer"),
			UserMessage("follow-up"),
		},
	}
	got := req.PromptText()
	want := "question\n[Assistant]: answer\nfollow-up"
	if got != want {
		t.Errorf("PromptText = %q, want %q", got, want)
	}
}
