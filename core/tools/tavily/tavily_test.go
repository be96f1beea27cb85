package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMatchExtractsSearchQuery(t *testing.T) {
	tool := NewTool(NewClient("key"))

	tests := []struct {
		transcript string
		wantQuery  string
		wantMatch  bool
	}{
		{"search for the tallest building in the world", "the tallest building in the world", true},
		{"can you look up Go generics?", "Go generics", true},
		{"what's the latest on the mars rover", "the mars rover", true},
		{"remind me to buy milk", "", false},
		{"search for ", "", false},
	}

	for _, test := range tests {
		query, ok := tool.Match(test.transcript)
		if ok != test.wantMatch {
			t.Fatalf("Match(%q) matched=%v, want %v", test.transcript, ok, test.wantMatch)
		}
		if query != test.wantQuery {
			t.Fatalf("Match(%q) query=%q, want %q", test.transcript, query, test.wantQuery)
		}
	}
}

func TestExecuteFormatsAnswerAndSources(t *testing.T) {
	var gotRequest searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"query":  gotRequest.Query,
			"answer": "The Burj Khalifa is the tallest building.",
			"results": []map[string]any{
				{"title": "Burj Khalifa", "url": "https://example.com/burj", "content": "828 metres tall.", "score": 0.97},
				{"title": "List of tallest buildings", "url": "https://example.com/list", "content": "Rankings by height.", "score": 0.81},
			},
		})
	}))
	defer server.Close()

	tool := NewTool(NewClient("key", WithBaseURL(server.URL), WithHTTPClient(server.Client())))

	result, err := tool.Execute(context.Background(), "tallest building")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotRequest.Query != "tallest building" {
		t.Fatalf("unexpected query sent: %q", gotRequest.Query)
	}
	if gotRequest.SearchDepth != "basic" {
		t.Fatalf("unexpected search depth: %q", gotRequest.SearchDepth)
	}
	if !strings.HasPrefix(result, "The Burj Khalifa is the tallest building.") {
		t.Fatalf("answer missing from result: %q", result)
	}
	if !strings.Contains(result, "1. Burj Khalifa: 828 metres tall.") {
		t.Fatalf("sources missing from result: %q", result)
	}
}

func TestExecuteReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	tool := NewTool(NewClient("key", WithBaseURL(server.URL), WithHTTPClient(server.Client())))

	if _, err := tool.Execute(context.Background(), "anything"); err == nil {
		t.Fatalf("expected error on non-OK status")
	}
}

func TestExecuteWithEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"query": "q", "results": []any{}})
	}))
	defer server.Close()

	tool := NewTool(NewClient("key", WithBaseURL(server.URL), WithHTTPClient(server.Client())))

	result, err := tool.Execute(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "No results found." {
		t.Fatalf("unexpected result: %q", result)
	}
}
