package tavily

import (
	"context"
	"fmt"
	"strings"
)

// Tool matches live web-search requests in a transcript and folds the top
// results into a text block for generation.
type Tool struct {
	client     *Client
	maxResults int
}

func NewTool(client *Client) *Tool {
	return &Tool{client: client, maxResults: 3}
}

func (t *Tool) Name() string { return "web-search" }

// searchPhrases are checked in order; the query is whatever follows the
// phrase.
var searchPhrases = []string{
	"search the web for ",
	"search online for ",
	"search for ",
	"look up ",
	"google ",
	"what's the latest on ",
	"what is the latest on ",
	"latest news on ",
	"latest news about ",
}

func (t *Tool) Match(transcript string) (string, bool) {
	lowered := strings.ToLower(transcript)
	for _, phrase := range searchPhrases {
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
	answer, err := t.client.Search(ctx, query, t.maxResults)
	if err != nil {
		return "", fmt.Errorf("failed to search the web: %w", err)
	}

	var result strings.Builder
	if answer.Answer != "" {
		result.WriteString(answer.Answer)
		result.WriteString("\n\n")
	}
	if len(answer.Results) > 0 {
		result.WriteString("Sources:\n")
		for i, hit := range answer.Results {
			fmt.Fprintf(&result, "%d. %s: %s\n", i+1, hit.Title, hit.Content)
		}
	}

	if result.Len() == 0 {
		return "No results found.", nil
	}
	return strings.TrimSpace(result.String()), nil
}
