package orchestration

// Capability identifies one externally powered ability of a session. The
// values double as tool names and wire identifiers in error events.
type Capability string

const (
	CapabilityTranscription Capability = "transcription"
	CapabilityGeneration    Capability = "generation"
	CapabilitySynthesis     Capability = "synthesis"
	CapabilityTaskCreation  Capability = "task-creation"
	CapabilityWebSearch     Capability = "web-search"
	CapabilityWeather       Capability = "weather"
)

// CapabilityBundle holds the per-session credentials received during the
// handshake. It is read-only after construction; an absent capability means
// "not configured", never an error.
type CapabilityBundle struct {
	credentials map[Capability]string
}

// NewCapabilityBundle builds a bundle from handshake credentials. Unknown
// keys are kept so a newer client degrades to ignored extras rather than a
// rejected handshake. Empty values count as absent.
func NewCapabilityBundle(credentials map[string]string) CapabilityBundle {
	bundle := CapabilityBundle{credentials: map[Capability]string{}}
	for name, credential := range credentials {
		if credential == "" {
			continue
		}
		bundle.credentials[Capability(name)] = credential
	}
	return bundle
}

// Has reports whether a credential was supplied for the capability.
func (b CapabilityBundle) Has(capability Capability) bool {
	_, ok := b.credentials[capability]
	return ok
}

// Credential returns the raw credential for the capability, empty when
// absent. Never log the returned value.
func (b CapabilityBundle) Credential(capability Capability) string {
	return b.credentials[capability]
}

// Configured lists the configured capabilities in no particular order,
// without their credentials. Safe to log.
func (b CapabilityBundle) Configured() []Capability {
	configured := make([]Capability, 0, len(b.credentials))
	for capability := range b.credentials {
		configured = append(configured, capability)
	}
	return configured
}
