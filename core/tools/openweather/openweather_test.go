package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMatchExtractsCity(t *testing.T) {
	tool := NewTool(nil)

	cases := []struct {
		transcript string
		wantCity   string
		wantOk     bool
	}{
		{"What's the weather in Prague?", "Prague", true},
		{"what is the weather like in New York today", "New York", true},
		{"weather in san francisco", "san francisco", true},
		{"How is the weather for London right now?", "London", true},
		{"weather at St. John's", "St. John's", true},
		{"How's the weather?", "", false},
		{"Tell me whether this works.", "", false},
		{"Remind me to check the weather.", "", false},
	}

	for _, c := range cases {
		city, ok := tool.Match(c.transcript)
		if ok != c.wantOk {
			t.Fatalf("Match(%q) ok = %v, expected %v", c.transcript, ok, c.wantOk)
		}
		if city != c.wantCity {
			t.Fatalf("Match(%q) city = %q, expected %q", c.transcript, city, c.wantCity)
		}
	}
}

func TestExecuteFormatsConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Prague" {
			t.Fatalf("expected city query %q, got %q", "Prague", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Fatalf("expected app id %q, got %q", "test-key", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Fatalf("expected metric units, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Prague",
			"main": {"temp": 21.4, "feels_like": 20.6, "humidity": 40},
			"weather": [{"description": "clear sky"}],
			"wind": {"speed": 3.1}
		}`))
	}))
	defer server.Close()

	tool := NewTool(NewClient("test-key", WithBaseURL(server.URL)))

	result, err := tool.Execute(context.Background(), "Prague")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := "Current weather in Prague: clear sky, 21°C (feels like 21°C), humidity 40%, wind 3.1 m/s."
	if result != expected {
		t.Fatalf("expected result %q, got %q", expected, result)
	}
}

func TestExecuteReportsUnknownCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer server.Close()

	tool := NewTool(NewClient("test-key", WithBaseURL(server.URL)))

	_, err := tool.Execute(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("expected an error for an unknown city, got none")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}
