package orchestration

import (
	"slices"
	"testing"
)

func TestCapabilityBundleDropsEmptyCredentials(t *testing.T) {
	bundle := NewCapabilityBundle(map[string]string{
		"generation": "key-1",
		"weather":    "",
	})

	if !bundle.Has(CapabilityGeneration) {
		t.Fatalf("expected generation to be configured")
	}
	if bundle.Has(CapabilityWeather) {
		t.Fatalf("expected an empty credential to count as absent")
	}
	if got := bundle.Credential(CapabilityGeneration); got != "key-1" {
		t.Fatalf("expected the stored credential, got %q", got)
	}
	if got := bundle.Credential(CapabilityWeather); got != "" {
		t.Fatalf("expected no credential, got %q", got)
	}
}

func TestCapabilityBundleKeepsUnknownKeys(t *testing.T) {
	bundle := NewCapabilityBundle(map[string]string{
		"future-capability": "token",
	})

	if !bundle.Has(Capability("future-capability")) {
		t.Fatalf("expected unknown capabilities to be kept")
	}
}

func TestCapabilityBundleConfiguredListsNames(t *testing.T) {
	bundle := NewCapabilityBundle(map[string]string{
		"generation":    "a",
		"synthesis":     "b",
		"task-creation": "c",
	})

	configured := bundle.Configured()
	if len(configured) != 3 {
		t.Fatalf("expected 3 configured capabilities, got %d", len(configured))
	}
	for _, want := range []Capability{CapabilityGeneration, CapabilitySynthesis, CapabilityTaskCreation} {
		if !slices.Contains(configured, want) {
			t.Fatalf("expected %q in %v", want, configured)
		}
	}
}

func TestZeroCapabilityBundleHasNothing(t *testing.T) {
	bundle := NewCapabilityBundle(nil)

	if bundle.Has(CapabilityGeneration) {
		t.Fatalf("expected an empty bundle to have no capabilities")
	}
	if got := len(bundle.Configured()); got != 0 {
		t.Fatalf("expected no configured capabilities, got %d", got)
	}
}
