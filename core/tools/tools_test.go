package tools

import (
	"context"
	"strings"
	"testing"
)

type fakeTool struct {
	name   string
	phrase string
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Match(transcript string) (string, bool) {
	idx := strings.Index(strings.ToLower(transcript), f.phrase)
	if idx == -1 {
		return "", false
	}
	return strings.TrimSpace(transcript[idx+len(f.phrase):]), true
}

func (f *fakeTool) Execute(_ context.Context, query string) (string, error) {
	return f.name + ": " + query, nil
}

func TestSelectPrefersEarlierRegistration(t *testing.T) {
	registry := NewRegistry(
		&fakeTool{name: "task-creation", phrase: "remind me to "},
		&fakeTool{name: "web-search", phrase: "look up "},
	)

	tool, query, ok := registry.Select("Remind me to look up flights tomorrow.")
	if !ok {
		t.Fatal("expected a tool to match")
	}
	if tool.Name() != "task-creation" {
		t.Fatalf("expected the first registered tool to win, got %q", tool.Name())
	}
	if query != "look up flights tomorrow." {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestSelectReturnsFalseWhenNothingMatches(t *testing.T) {
	registry := NewRegistry(&fakeTool{name: "web-search", phrase: "look up "})

	if _, _, ok := registry.Select("How are you today?"); ok {
		t.Fatal("expected no tool to match")
	}
}

func TestRegistrySkipsNilTools(t *testing.T) {
	registry := NewRegistry(nil, &fakeTool{name: "web-search", phrase: "look up "}, nil)

	names := registry.Names()
	if len(names) != 1 || names[0] != "web-search" {
		t.Fatalf("expected only the non-nil tool to register, got %v", names)
	}
}
