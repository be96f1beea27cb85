package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchExtractsTaskQuery(t *testing.T) {
	tool := NewTool(NewClient("token"))

	tests := []struct {
		transcript string
		wantQuery  string
		wantMatch  bool
	}{
		{"remind me to buy milk", "buy milk", true},
		{"Remind me to call mom tomorrow.", "call mom tomorrow", true},
		{"please add a task to water the plants", "water the plants", true},
		{"create a task review the budget", "review the budget", true},
		{"what's the weather like", "", false},
		{"remind me to ", "", false},
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

func TestExecuteCreatesTask(t *testing.T) {
	var gotBody createTaskRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("expected an idempotency request id")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Task{ID: "42", Content: gotBody.Content, URL: "https://todoist.com/showTask?id=42"})
	}))
	defer server.Close()

	tool := NewTool(NewClient("token", WithBaseURL(server.URL), WithHTTPClient(server.Client())))

	result, err := tool.Execute(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotAuth != "Bearer token" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotBody.Content != "buy milk" {
		t.Fatalf("unexpected task content: %q", gotBody.Content)
	}
	if result != `Created the task "buy milk" in the to-do list.` {
		t.Fatalf("unexpected result: %q", result)
	}
}

func TestExecuteUsesArgExtractor(t *testing.T) {
	var gotBody createTaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Task{ID: "7", Content: gotBody.Content})
	}))
	defer server.Close()

	tool := NewTool(
		NewClient("token", WithBaseURL(server.URL), WithHTTPClient(server.Client())),
		WithArgExtractor(func(_ context.Context, query string) (*TaskArgs, error) {
			return &TaskArgs{Content: "call mom", DueString: "tomorrow"}, nil
		}),
	)

	result, err := tool.Execute(context.Background(), "call mom tomorrow")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotBody.Content != "call mom" || gotBody.DueString != "tomorrow" {
		t.Fatalf("extractor args not used: %+v", gotBody)
	}
	if result != `Created the task "call mom" due tomorrow in the to-do list.` {
		t.Fatalf("unexpected result: %q", result)
	}
}

func TestExecuteFallsBackWhenExtractorFails(t *testing.T) {
	var gotBody createTaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Task{ID: "8", Content: gotBody.Content})
	}))
	defer server.Close()

	tool := NewTool(
		NewClient("token", WithBaseURL(server.URL), WithHTTPClient(server.Client())),
		WithArgExtractor(func(context.Context, string) (*TaskArgs, error) {
			return nil, fmt.Errorf("extractor unavailable")
		}),
	)

	if _, err := tool.Execute(context.Background(), "buy milk"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotBody.Content != "buy milk" {
		t.Fatalf("expected raw query fallback, got %+v", gotBody)
	}
}

func TestCreateTaskReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-token", WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	if _, err := client.CreateTask(context.Background(), "buy milk", ""); err == nil {
		t.Fatalf("expected error on non-OK status")
	}
}
