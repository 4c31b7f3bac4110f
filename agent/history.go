package agent

// Role discriminates who produced a history record.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Record is a single entry in the conversation history. Records are immutable
// once appended. Assistant records always carry a non-empty thought and
// action; a parse failure never produces a Record.
type Record struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Thought string `json:"thought,omitempty"`
	Action  string `json:"action,omitempty"`
	Agent   string `json:"agent"`
}

// NewUserRecord creates a user-role Record holding an observation.
func NewUserRecord(agentName, content string) Record {
	return Record{Role: RoleUser, Content: content, Agent: agentName}
}

// NewAssistantRecord creates an assistant-role Record holding the raw model
// output plus its parsed thought and action.
func NewAssistantRecord(agentName, content, thought, action string) Record {
	return Record{
		Role:    RoleAssistant,
		Content: content,
		Thought: thought,
		Action:  action,
		Agent:   agentName,
	}
}

// History is the ordered, append-only log of turn records. It is not
// internally synchronized; the controller's caller contract serializes
// access per agent.
type History struct {
	records []Record
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds a record to the end of the history.
func (h *History) Append(r Record) {
	h.records = append(h.records, r)
}

// Truncate removes the n most recent records. Removing more records than
// exist empties the history rather than slicing negative.
func (h *History) Truncate(n int) {
	if n <= 0 {
		return
	}
	if n >= len(h.records) {
		h.records = h.records[:0]
		return
	}
	h.records = h.records[:len(h.records)-n]
}

// Len returns the number of records.
func (h *History) Len() int {
	return len(h.records)
}

// Records returns a copy of the history in insertion order.
func (h *History) Records() []Record {
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// at returns the record at index i counted from the end, where 1 is the most
// recent record. ok is false when the history is too short.
func (h *History) at(i int) (Record, bool) {
	idx := len(h.records) - i
	if idx < 0 || idx >= len(h.records) {
		return Record{}, false
	}
	return h.records[idx], true
}
