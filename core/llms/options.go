package llms

// PromptOptions carries everything a provider needs beyond the prompt
// itself: the system instruction, the ordered turn history, and an optional
// per-fragment stream callback.
type PromptOptions struct {
	Instructions string
	Turns        []Turn
	Stream       func(fragment string)
}

type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system instruction for the prompt. Repeating
// this option overwrites the previous instruction.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTurns appends turns to the context window. Repeating this option
// sequentially adds more turns.
func WithTurns(turns ...Turn) PromptOption {
	return func(opts *PromptOptions) {
		opts.Turns = append(opts.Turns, turns...)
	}
}

// WithStream registers a callback invoked for every streamed text fragment
// as it arrives.
func WithStream(stream func(fragment string)) PromptOption {
	return func(opts *PromptOptions) {
		opts.Stream = stream
	}
}
