package orchestration

import events "github.com/auravoice/aura-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionStateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(State(typedEvent.State))
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptInterimUpdated:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.AssistantResponseSegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.AssistantResponseFinal:
			if opts.onResponseEnd != nil {
				opts.onResponseEnd(typedEvent.Text)
			}
		case events.AssistantSpeechChunk:
			if opts.onAudioChunk != nil {
				opts.onAudioChunk(typedEvent.Index, typedEvent.Audio, typedEvent.Final)
			}
		case events.ToolCallStarted:
			if opts.onToolCall != nil {
				opts.onToolCall(typedEvent.Name, typedEvent.Query)
			}
		case events.SessionFailure:
			if opts.onFailure != nil {
				opts.onFailure(ErrorCategory(typedEvent.Category), Capability(typedEvent.Capability), typedEvent.Message)
			}
		}
	}
}
