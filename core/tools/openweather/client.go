package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client talks to the OpenWeather current-weather API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Conditions are the current weather conditions for one city.
type Conditions struct {
	City        string
	Description string
	TempC       float64
	FeelsLikeC  float64
	Humidity    int
	WindSpeed   float64
}

type weatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// CurrentWeather fetches current conditions for a city by name, in metric
// units.
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Conditions, error) {
	if city == "" {
		return nil, fmt.Errorf("city is empty")
	}

	queryParams := url.Values{}
	queryParams.Set("q", city)
	queryParams.Set("appid", c.apiKey)
	queryParams.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+"/weather?"+queryParams.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("city %q not found", city)
	}
	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, string(errorBody))
	}

	var weatherResp weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&weatherResp); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	conditions := Conditions{
		City:       weatherResp.Name,
		TempC:      weatherResp.Main.Temp,
		FeelsLikeC: weatherResp.Main.FeelsLike,
		Humidity:   weatherResp.Main.Humidity,
		WindSpeed:  weatherResp.Wind.Speed,
	}
	if len(weatherResp.Weather) > 0 {
		conditions.Description = weatherResp.Weather[0].Description
	}

	return &conditions, nil
}
