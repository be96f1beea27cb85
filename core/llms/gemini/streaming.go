package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	chunkPrefix = "data:"
)

func PromptWithStream(
	_ context.Context,
	apiKey string,
	model string,
	prompt *string,
	systemPrompt string,
	opts ...llms.PromptOption,
) *Stream {
	options := llms.PromptOptions{
		Instructions: systemPrompt,
	}
	for _, opt := range opts {
		opt(&options)
	}

	contents := toContents(options.Turns)
	if prompt != nil {
		contents = append(contents, content{
			Role:  contentRoleUser,
			Parts: []part{{Text: *prompt}},
		})
	}

	return &Stream{
		apiKey:            apiKey,
		model:             model,
		contents:          contents,
		systemInstruction: systemInstruction(options.Instructions),
	}
}

type Stream struct {
	apiKey string

	model             string
	contents          []content
	systemInstruction *content
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		reqBody := requestBody{
			Contents:          s.contents,
			SystemInstruction: s.systemInstruction,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST",
			baseURL+"/"+s.model+":streamGenerateContent?alt=sse",
			bytes.NewBuffer(requestBodyBytes),
		)
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", s.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				err = fmt.Errorf("error reading error body: %w", err)
				span.RecordError(err)
				span.SetAttributes(attribute.String("error", err.Error()))
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		// There is no end-of-stream sentinel, the stream is done when the
		// body closes. The last chunk carries the finish reason and the
		// complete usage counts.
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			var responseBody streamingResponseBody
			err := json.Unmarshal([]byte(chunk), &responseBody)
			if err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(nil, err) {
					return
				}
				continue
			}

			var finishReason *string
			if len(responseBody.Candidates) > 0 {
				candidate := responseBody.Candidates[0]

				if candidate.FinishReason != "" {
					finishReason = utils.Ptr(candidate.FinishReason)
					span.SetAttributes(attribute.String("response.finish_reason", candidate.FinishReason))
				}

				var text strings.Builder
				for _, part := range candidate.Content.Parts {
					text.WriteString(part.Text)
				}

				if text.Len() > 0 {
					if !yield(StreamContentChunk{
						finishReason: finishReason,
						content:      text.String(),
					}, nil) {
						return
					}
				}
			}

			if responseBody.UsageMetadata != nil {
				span.SetAttributes(attribute.Int("usage.input", responseBody.UsageMetadata.PromptTokenCount))
				span.SetAttributes(attribute.Int("usage.output", responseBody.UsageMetadata.CandidatesTokenCount))
				span.SetAttributes(attribute.Int("usage.total", responseBody.UsageMetadata.TotalTokenCount))

				if finishReason != nil {
					if !yield(StreamUsageChunk{
						finishReason: finishReason,
						usage: llms.Usage{
							InputTokens:  responseBody.UsageMetadata.PromptTokenCount,
							OutputTokens: responseBody.UsageMetadata.CandidatesTokenCount,
							TotalTokens:  responseBody.UsageMetadata.TotalTokenCount,
						},
					}, nil) {
						return
					}
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type requestBody struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType   string `json:"responseMimeType,omitempty"`
	ResponseJSONSchema any    `json:"responseJsonSchema,omitempty"`
}

type streamingResponseBody struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}
