package events

const (
	// KindToolCallStarted identifies tool call execution start.
	KindToolCallStarted Kind = "tool_call.started"
	// KindToolCallCompleted identifies successful tool call completion.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies tool call failure.
	KindToolCallFailed Kind = "tool_call.failed"
)

// ToolCallStarted marks start of tool execution.
type ToolCallStarted struct {
	Base
	Name  string
	Query string
}

// NewToolCallStarted creates a tool call started event.
func NewToolCallStarted(name, query string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), Name: name, Query: query}
}

// ToolCallCompleted marks successful tool execution.
type ToolCallCompleted struct {
	Base
	Name   string
	Result string
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(name, result string) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted), Name: name, Result: result}
}

// ToolCallFailed marks failed tool execution.
type ToolCallFailed struct {
	Base
	Name  string
	Error string
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(name, err string) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed), Name: name, Error: err}
}
