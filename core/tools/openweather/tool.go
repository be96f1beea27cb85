package openweather

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Tool answers weather questions that name a city. Questions without a
// recognizable city don't match, so they flow to plain generation instead of
// failing a lookup.
type Tool struct {
	client *Client
}

func NewTool(client *Client) *Tool {
	return &Tool{client: client}
}

func (t *Tool) Name() string {
	return "weather"
}

var (
	cityPattern    = regexp.MustCompile(`(?i)\bweather\b(?:\s+(?:like|forecast|today|now))*\s+(?:in|for|at)\s+([a-zA-Z][a-zA-Z .'-]*)`)
	trailingFiller = regexp.MustCompile(`(?i)\s+(?:right now|today|tomorrow|now|currently|please)$`)
)

func (t *Tool) Match(transcript string) (string, bool) {
	matches := cityPattern.FindStringSubmatch(transcript)
	if matches == nil {
		return "", false
	}

	city := strings.TrimSpace(matches[1])
	city = strings.TrimRight(city, ".!?,")
	for {
		trimmed := trailingFiller.ReplaceAllString(city, "")
		if trimmed == city {
			break
		}
		city = trimmed
	}
	if city == "" {
		return "", false
	}
	return city, true
}

func (t *Tool) Execute(ctx context.Context, query string) (string, error) {
	conditions, err := t.client.CurrentWeather(ctx, query)
	if err != nil {
		return "", fmt.Errorf("error fetching weather: %w", err)
	}

	summary := fmt.Sprintf("Current weather in %s: %s, %d°C (feels like %d°C), humidity %d%%, wind %.1f m/s.",
		conditions.City,
		conditions.Description,
		int(math.Round(conditions.TempC)),
		int(math.Round(conditions.FeelsLikeC)),
		conditions.Humidity,
		conditions.WindSpeed,
	)
	return summary, nil
}
