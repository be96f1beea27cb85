package events

const (
	// KindSessionStateChanged identifies session lifecycle state transitions.
	KindSessionStateChanged Kind = "session.state_changed"
	// KindSessionFailure identifies a reported capability failure.
	KindSessionFailure Kind = "session.failure"
)

// SessionStateChanged marks a session lifecycle state transition.
type SessionStateChanged struct {
	Base
	State string
}

// NewSessionStateChanged creates a session state changed event.
func NewSessionStateChanged(state string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), State: state}
}

// SessionFailure reports one capability failure. The session survives it;
// receivers surface the failure and carry on.
type SessionFailure struct {
	Base
	Category   string
	Capability string
	Message    string
}

// NewSessionFailure creates a session failure event.
func NewSessionFailure(category, capability, message string) SessionFailure {
	return SessionFailure{Base: NewBase(KindSessionFailure), Category: category, Capability: capability, Message: message}
}
