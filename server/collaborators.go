package server

import (
	"context"
	"fmt"

	"github.com/auravoice/aura-core/config"
	orchestration "github.com/auravoice/aura-core/core"
	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/core/llms/gemini"
	"github.com/auravoice/aura-core/core/speechtotext/assemblyai"
	deepgramstt "github.com/auravoice/aura-core/core/speechtotext/deepgram"
	deepgramtts "github.com/auravoice/aura-core/core/texttospeech/deepgram"
	"github.com/auravoice/aura-core/core/texttospeech/murf"
	"github.com/auravoice/aura-core/core/tools"
	"github.com/auravoice/aura-core/core/tools/openweather"
	"github.com/auravoice/aura-core/core/tools/tavily"
	"github.com/auravoice/aura-core/core/tools/todoist"
)

// Collaborators builds the per-session external clients. Unset factories use
// the real vendors; tests replace them with scripted fakes.
type Collaborators struct {
	NewTranscriber func(vendor, apiKey string) (orchestration.Transcriber, error)
	NewGenerator   func(model, apiKey string) orchestration.Generator
	NewSynthesizer func(cfg config.SynthesisConfig, apiKey string) (orchestration.Synthesizer, error)
}

func (c Collaborators) newTranscriber(vendor, apiKey string) (orchestration.Transcriber, error) {
	if c.NewTranscriber != nil {
		return c.NewTranscriber(vendor, apiKey)
	}
	switch vendor {
	case "assemblyai":
		return assemblyai.NewTranscriptionClient(apiKey), nil
	case "deepgram":
		return deepgramstt.NewTranscriptionClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown transcription vendor %q", vendor)
	}
}

func (c Collaborators) newGenerator(model, apiKey string) orchestration.Generator {
	if c.NewGenerator != nil {
		return c.NewGenerator(model, apiKey)
	}
	return geminiGenerator{apiKey: apiKey, model: model}
}

func (c Collaborators) newSynthesizer(cfg config.SynthesisConfig, apiKey string) (orchestration.Synthesizer, error) {
	if c.NewSynthesizer != nil {
		return c.NewSynthesizer(cfg, apiKey)
	}
	switch cfg.Vendor {
	case "murf":
		opts := []murf.ClientOption{}
		// An unlisted voice falls through to the vendor default rather than
		// failing the session.
		for _, voice := range murf.GetAvailableVoices() {
			if string(voice) == cfg.Voice {
				opts = append(opts, murf.WithVoice(voice))
				break
			}
		}
		if cfg.Style != "" {
			opts = append(opts, murf.WithStyle(cfg.Style))
		}
		return murf.NewTextToSpeechClient(apiKey, opts...)
	case "deepgram":
		opts := []deepgramtts.ClientOption{}
		for _, voice := range deepgramtts.GetAvailableVoices() {
			if string(voice) == cfg.Voice {
				opts = append(opts, deepgramtts.WithVoice(voice))
				break
			}
		}
		return deepgramtts.NewTextToSpeechClient(apiKey, opts...)
	default:
		return nil, fmt.Errorf("unknown synthesis vendor %q", cfg.Vendor)
	}
}

// geminiGenerator adapts the Gemini streaming client to the orchestrator's
// Generator interface. The positional system prompt stays empty so the
// orchestrator's instructions option wins.
type geminiGenerator struct {
	apiKey string
	model  string
}

func (g geminiGenerator) PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream {
	return gemini.PromptWithStream(ctx, g.apiKey, g.model, prompt, "", opts...)
}

const taskExtractionInstructions = "Extract the to-do task from the user's request. " +
	"content is the task itself, without filler words. " +
	"due_string is a natural-language due date like \"today\" or \"next monday\", only when the request names one."

// buildToolRegistry wires the auxiliary tools in fixed priority order:
// task creation, then web search, then weather. Execution is gated by the
// capability bundle, so tools built from absent credentials never run.
func buildToolRegistry(cfg config.Config, bundle orchestration.CapabilityBundle) *tools.Registry {
	taskTool := todoist.NewTool(
		todoist.NewClient(bundle.Credential(orchestration.CapabilityTaskCreation)),
		todoist.WithArgExtractor(taskArgExtractor(cfg.Generation.Model, bundle)),
	)
	searchTool := tavily.NewTool(tavily.NewClient(bundle.Credential(orchestration.CapabilityWebSearch)))
	weatherTool := openweather.NewTool(openweather.NewClient(bundle.Credential(orchestration.CapabilityWeather)))

	return tools.NewRegistry(taskTool, searchTool, weatherTool)
}

// taskArgExtractor refines a matched task request into structured arguments
// through schema-constrained generation. Without a generation credential it
// reports failure and the tool falls back to the raw query.
func taskArgExtractor(model string, bundle orchestration.CapabilityBundle) func(ctx context.Context, query string) (*todoist.TaskArgs, error) {
	return func(ctx context.Context, query string) (*todoist.TaskArgs, error) {
		if !bundle.Has(orchestration.CapabilityGeneration) {
			return nil, orchestration.ErrNotConfigured
		}
		return gemini.PromptJSONSchema(ctx,
			bundle.Credential(orchestration.CapabilityGeneration),
			model,
			query,
			taskExtractionInstructions,
			todoist.TaskArgs{},
		)
	}
}
