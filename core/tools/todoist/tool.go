package todoist

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// TaskArgs are the structured arguments for task creation, extracted from a
// transcript either heuristically or by a structured-output extractor.
type TaskArgs struct {
	// Content is the task title, e.g. "buy milk".
	Content string `json:"content" jsonschema:"description=The task to create,example=buy milk"`
	// DueString is a natural-language due date like "today" or "next
	// Monday". Empty when the transcript names none.
	DueString string `json:"due_string,omitempty" jsonschema:"description=Natural-language due date if the request names one,example=tomorrow"`
}

// Tool matches task-creation requests in a transcript and creates the task.
type Tool struct {
	client *Client

	// extractArgs refines the matched query into structured task arguments.
	// When unset, or when it fails, the raw query becomes the task content.
	extractArgs func(ctx context.Context, query string) (*TaskArgs, error)
}

type ToolOption func(*Tool)

// WithArgExtractor installs a structured argument extractor, typically
// backed by the generation collaborator's schema-constrained mode.
func WithArgExtractor(extract func(ctx context.Context, query string) (*TaskArgs, error)) ToolOption {
	return func(t *Tool) { t.extractArgs = extract }
}

func NewTool(client *Client, opts ...ToolOption) *Tool {
	tool := &Tool{client: client}
	for _, opt := range opts {
		opt(tool)
	}
	return tool
}

func (t *Tool) Name() string { return "task-creation" }

// taskPhrases are checked in order; the query is whatever follows the
// phrase.
var taskPhrases = []string{
	"remind me to ",
	"add a task to ",
	"create a task to ",
	"add a task ",
	"create a task ",
	"add to my to-do list ",
	"add to my todo list ",
	"put on my to-do list ",
	"put on my todo list ",
}

func (t *Tool) Match(transcript string) (string, bool) {
	lowered := strings.ToLower(transcript)
	for _, phrase := range taskPhrases {
		idx := strings.Index(lowered, phrase)
		if idx < 0 {
			continue
		}

		query := strings.TrimSpace(transcript[idx+len(phrase):])
		query = strings.TrimRight(query, ".!?")
		if query == "" {
			continue
		}
		return query, true
	}
	return "", false
}

func (t *Tool) Execute(ctx context.Context, query string) (string, error) {
	args := TaskArgs{Content: query}
	if t.extractArgs != nil {
		extracted, err := t.extractArgs(ctx, query)
		if err != nil || extracted == nil || extracted.Content == "" {
			log.Printf("Task argument extraction failed, using raw query: %v", err)
		} else {
			args = *extracted
		}
	}

	task, err := t.client.CreateTask(ctx, args.Content, args.DueString)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	result := fmt.Sprintf("Created the task %q in the to-do list.", task.Content)
	if args.DueString != "" {
		result = fmt.Sprintf("Created the task %q due %s in the to-do list.", task.Content, args.DueString)
	}
	return result, nil
}
