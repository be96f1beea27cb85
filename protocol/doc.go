// Package protocol defines the wire contract of a voice session.
//
// A session runs over one WebSocket connection. The client sends exactly one
// JSON control message first (Config, the capability handshake), then binary
// frames of raw PCM audio. The server replies with JSON events, each carrying
// a "type" discriminator:
//
//   - transcript: finalized user utterance text.
//   - ai_response: the complete assistant reply, once per turn.
//   - audio_chunk: one ordered synthesized audio chunk; final marks the
//     turn's last chunk.
//   - error: a recoverable session failure; never closes the connection by
//     itself.
//
// Per turn the server emits transcript, then ai_response, then audio chunks
// with strictly increasing indexes. Audio frames arriving before the
// handshake are rejected with a protocol_violation error and are not
// buffered.
package protocol
