package agent

// Event is one record appended to the session's event sink. Every
// non-interruption, non-hallucination failure path appends exactly one.
type Event struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Producer string `json:"producer"`
	Consumer string `json:"consumer"`
}

// CommandDoc pairs a command name with its documentation. Docs are delivered
// as a slice so their order is stable within a turn.
type CommandDoc struct {
	Name string
	Doc  string
}

// Session is the collaborator the controller runs against. It owns editor
// state, command documentation, path resolution, and the event sink; the
// controller only reads the first three and appends to the last.
type Session interface {
	// EditorFiles returns the current editor state keyed by path.
	EditorFiles() map[string]File

	// PageSize returns the configured editor page size.
	PageSize() int

	// CommandDocs returns documentation for the commands available to the
	// model, in stable order.
	CommandDocs() []CommandDoc

	// Cwd resolves the current working directory.
	Cwd() string

	// BasePath returns the configured project root.
	BasePath() string

	// AppendEvent appends a record to the session's event sink.
	AppendEvent(Event)
}
