package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedMessage reports a control message that is not valid JSON.
	ErrMalformedMessage = errors.New("malformed control message")
	// ErrUnexpectedMessage reports a well-formed message whose type does not
	// fit the session phase.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)

// DecodeConfig parses the handshake control message. Anything other than a
// well-formed config message is a protocol violation for the caller to
// report; the session stays open either way.
func DecodeConfig(data []byte) (Config, error) {
	messageType, err := peekType(data)
	if err != nil {
		return Config{}, err
	}
	if messageType != TypeConfig {
		return Config{}, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedMessage, messageType, TypeConfig)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return config, nil
}

// DecodeServerEvent parses one server event into its concrete message type.
func DecodeServerEvent(data []byte) (any, error) {
	messageType, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch messageType {
	case TypeTranscript:
		return decodeAs[Transcript](data)
	case TypeAIResponse:
		return decodeAs[AIResponse](data)
	case TypeAudioChunk:
		return decodeAs[AudioChunk](data)
	case TypeError:
		return decodeAs[ErrorEvent](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedMessage, messageType)
	}
}

func peekType(data []byte) (Type, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return envelope.Type, nil
}

func decodeAs[T any](data []byte) (T, error) {
	var message T
	if err := json.Unmarshal(data, &message); err != nil {
		return message, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return message, nil
}
