package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Client talks to the Todoist REST API.
type Client struct {
	apiToken string
	baseURL  string
	client   *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

func NewClient(apiToken string, opts ...Option) *Client {
	client := &Client{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Task is a created Todoist task.
type Task struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type createTaskRequest struct {
	Content   string `json:"content"`
	DueString string `json:"due_string,omitempty"`
	DueLang   string `json:"due_lang,omitempty"`
}

// CreateTask creates a task in the user's inbox. dueString takes Todoist's
// natural-language due dates ("today", "tomorrow", "next Monday"); empty
// means no due date.
func (c *Client) CreateTask(ctx context.Context, content, dueString string) (*Task, error) {
	if content == "" {
		return nil, fmt.Errorf("task content is empty")
	}

	reqBody := createTaskRequest{Content: content, DueString: dueString}
	if dueString != "" {
		reqBody.DueLang = "en"
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/tasks", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	// Retries of the same request must not duplicate the task.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, string(errorBody))
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	return &task, nil
}
