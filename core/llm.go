package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/auravoice/aura-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultHistoryCharBudget = 4000
	defaultMaxTurnPairs      = 10
)

type llm struct {
	// client stores the configured generation implementation.
	client Generator

	// instructions is the system instruction sent with every generation.
	instructions string

	// charBudget and maxTurnPairs bound the history handed to the model.
	charBudget   int
	maxTurnPairs int
}

func newLLM() llm {
	return llm{
		instructions: DefaultInstructions,
		charBudget:   defaultHistoryCharBudget,
		maxTurnPairs: defaultMaxTurnPairs,
	}
}

func (runtime *llm) set(client Generator) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

func (runtime *llm) setInstructions(instructions string) {
	if runtime == nil || instructions == "" {
		return
	}

	runtime.instructions = instructions
}

func (runtime *llm) isConfigured() bool {
	return runtime != nil && runtime.client != nil
}

// generate streams a reply for the prompt turn on top of the truncated
// history and returns the full text. onFragment observes raw fragments in
// stream order.
func (runtime *llm) generate(
	ctx context.Context,
	history []llms.Turn,
	prompt llms.Turn,
	onFragment func(fragment string),
) (string, error) {
	if !runtime.isConfigured() {
		return "", newCapabilityError(ErrorCategoryConfiguration, CapabilityGeneration, ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()

	turns := llms.TruncateTurns(append(history, prompt), runtime.charBudget, runtime.maxTurnPairs)
	span.SetAttributes(attribute.Int("generation.prompt_turns", len(turns)))

	stream := runtime.client.PromptWithStream(ctx, nil,
		llms.WithSystemPrompt(runtime.instructions),
		llms.WithTurns(turns...),
	)

	var message strings.Builder
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			err = fmt.Errorf("failed to stream response: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", newCapabilityError(ErrorCategoryCollaborator, CapabilityGeneration, err)
		}

		switch chunk := chunk.(type) {
		case llms.StreamContentChunk:
			message.WriteString(chunk.Content())
			if onFragment != nil {
				onFragment(chunk.Content())
			}

		case llms.StreamUsageChunk:
			usage := chunk.Usage()
			span.SetAttributes(
				attribute.Int("generation.input_tokens", usage.InputTokens),
				attribute.Int("generation.output_tokens", usage.OutputTokens),
			)
		}
	}

	return message.String(), nil
}
