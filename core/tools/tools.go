package tools

import "context"

// Tool is one auxiliary capability the orchestrator may invoke on a
// finalized transcript before generation.
type Tool interface {
	// Name is the tool's capability name, reported in errors and logs.
	Name() string
	// Match inspects a finalized transcript and extracts this tool's query
	// from it. ok is false when the transcript does not ask for the tool.
	Match(transcript string) (query string, ok bool)
	// Execute runs the tool with a query produced by Match. The returned
	// text is folded into the generation context.
	Execute(ctx context.Context, query string) (string, error)
}

// Registry holds tools in fixed priority order. When several tools match a
// transcript, the one registered first wins.
type Registry struct {
	tools []Tool
}

func NewRegistry(tools ...Tool) *Registry {
	registered := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		if tool != nil {
			registered = append(registered, tool)
		}
	}
	return &Registry{tools: registered}
}

// Select returns the first registered tool whose matcher accepts the
// transcript, together with the query the matcher extracted.
func (r *Registry) Select(transcript string) (Tool, string, bool) {
	if r == nil {
		return nil, "", false
	}
	for _, tool := range r.tools {
		if query, ok := tool.Match(transcript); ok {
			return tool, query, true
		}
	}
	return nil, "", false
}

// Names lists the registered tools in priority order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tools))
	for _, tool := range r.tools {
		names = append(names, tool.Name())
	}
	return names
}
