// Package config loads the server configuration from an optional YAML file,
// applies AURA_ environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerName    string              `yaml:"server_name"`
	Environment   string              `yaml:"environment"`
	HTTP          HTTPConfig          `yaml:"http"`
	Session       SessionConfig       `yaml:"session"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Generation    GenerationConfig    `yaml:"generation"`
	Synthesis     SynthesisConfig     `yaml:"synthesis"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

/// Addr is the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Bind, h.Port)
}

type SessionConfig struct {
	RetentionMinutes    int `yaml:"retention_minutes"`
	QueueCapacity       int `yaml:"queue_capacity"`
	GenerationTimeoutMS int `yaml:"generation_timeout_ms"`
	ToolTimeoutMS       int `yaml:"tool_timeout_ms"`
	TurnTimeoutMS       int `yaml:"turn_timeout_ms"`
}

// Retention is how long session history survives after disconnect, for
// reconnect-resume.
func (s SessionConfig) Retention() time.Duration {
	return time.Duration(s.RetentionMinutes) * time.Minute
}

func (s SessionConfig) GenerationTimeout() time.Duration {
	return time.Duration(s.GenerationTimeoutMS) * time.Millisecond
}

func (s SessionConfig) ToolTimeout() time.Duration {
	return time.Duration(s.ToolTimeoutMS) * time.Millisecond
}

func (s SessionConfig) TurnTimeout() time.Duration {
	return time.Duration(s.TurnTimeoutMS) * time.Millisecond
}

type TranscriptionConfig struct {
	Vendor string `yaml:"vendor"`
}

type GenerationConfig struct {
	Model string `yaml:"model"`
}

type SynthesisConfig struct {
	Vendor string `yaml:"vendor"`
	Voice  string `yaml:"voice"`
	Style  string `yaml:"style"`
}

// CredentialsConfig carries server-side credentials used as fallbacks for
// capabilities the client handshake did not supply. Values are secrets;
// never log them.
type CredentialsConfig struct {
	Transcription string `yaml:"transcription"`
	Generation    string `yaml:"generation"`
	Synthesis     string `yaml:"synthesis"`
	WebSearch     string `yaml:"web_search"`
	Weather       string `yaml:"weather"`
	TaskCreation  string `yaml:"task_creation"`
}

// AsMap returns the non-empty credentials keyed by wire capability name.
func (c CredentialsConfig) AsMap() map[string]string {
	credentials := map[string]string{}
	for name, value := range map[string]string{
		"transcription": c.Transcription,
		"generation":    c.Generation,
		"synthesis":     c.Synthesis,
		"web-search":    c.WebSearch,
		"weather":       c.Weather,
		"task-creation": c.TaskCreation,
	} {
		if strings.TrimSpace(value) != "" {
			credentials[name] = value
		}
	}
	return credentials
}

type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

func Default() Config {
	return Config{
		ServerName:  "aura-core",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Session: SessionConfig{
			RetentionMinutes:    30,
			QueueCapacity:       8,
			GenerationTimeoutMS: 30_000,
			ToolTimeoutMS:       10_000,
			TurnTimeoutMS:       120_000,
		},
		Transcription: TranscriptionConfig{
			Vendor: "assemblyai",
		},
		Generation: GenerationConfig{
			Model: "gemini-2.5-pro",
		},
		Synthesis: SynthesisConfig{
			Vendor: "murf",
			Voice:  "en-US-natalie",
			Style:  "Conversational",
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Path:          "./data/aura-sessions.db",
			RetentionDays: 7,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
	}
}

// Load reads the config at path when path is non-empty, starting from
// Default. Environment overrides apply on top of the file either way.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServerName, "AURA_SERVER_NAME")
	overrideString(&cfg.Environment, "AURA_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "AURA_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "AURA_HTTP_PORT")
	overrideInt(&cfg.Session.RetentionMinutes, "AURA_SESSION_RETENTION_MINUTES")
	overrideInt(&cfg.Session.QueueCapacity, "AURA_SESSION_QUEUE_CAPACITY")
	overrideInt(&cfg.Session.GenerationTimeoutMS, "AURA_SESSION_GENERATION_TIMEOUT_MS")
	overrideInt(&cfg.Session.ToolTimeoutMS, "AURA_SESSION_TOOL_TIMEOUT_MS")
	overrideInt(&cfg.Session.TurnTimeoutMS, "AURA_SESSION_TURN_TIMEOUT_MS")
	overrideString(&cfg.Transcription.Vendor, "AURA_TRANSCRIPTION_VENDOR")
	overrideString(&cfg.Generation.Model, "AURA_GENERATION_MODEL")
	overrideString(&cfg.Synthesis.Vendor, "AURA_SYNTHESIS_VENDOR")
	overrideString(&cfg.Synthesis.Voice, "AURA_SYNTHESIS_VOICE")
	overrideString(&cfg.Synthesis.Style, "AURA_SYNTHESIS_STYLE")
	overrideString(&cfg.Credentials.Transcription, "AURA_TRANSCRIPTION_API_KEY")
	overrideString(&cfg.Credentials.Generation, "AURA_GENERATION_API_KEY")
	overrideString(&cfg.Credentials.Synthesis, "AURA_SYNTHESIS_API_KEY")
	overrideString(&cfg.Credentials.WebSearch, "AURA_WEB_SEARCH_API_KEY")
	overrideString(&cfg.Credentials.Weather, "AURA_WEATHER_API_KEY")
	overrideString(&cfg.Credentials.TaskCreation, "AURA_TASK_CREATION_API_KEY")
	overrideBool(&cfg.Archive.Enabled, "AURA_ARCHIVE_ENABLED")
	overrideString(&cfg.Archive.Path, "AURA_ARCHIVE_PATH")
	overrideInt(&cfg.Archive.RetentionDays, "AURA_ARCHIVE_RETENTION_DAYS")
	overrideString(&cfg.Telemetry.LogLevel, "AURA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "AURA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "AURA_TELEMETRY_OTLP_INSECURE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServerName == "" {
		return errors.New("server_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Session.RetentionMinutes <= 0 {
		return errors.New("session.retention_minutes must be positive")
	}
	if cfg.Session.QueueCapacity <= 0 {
		return errors.New("session.queue_capacity must be positive")
	}
	if cfg.Session.GenerationTimeoutMS <= 0 {
		return errors.New("session.generation_timeout_ms must be positive")
	}
	if cfg.Session.ToolTimeoutMS <= 0 {
		return errors.New("session.tool_timeout_ms must be positive")
	}
	if cfg.Session.TurnTimeoutMS <= 0 {
		return errors.New("session.turn_timeout_ms must be positive")
	}
	switch cfg.Transcription.Vendor {
	case "assemblyai", "deepgram":
	default:
		return errors.New("transcription.vendor must be one of assemblyai|deepgram")
	}
	if cfg.Generation.Model == "" {
		return errors.New("generation.model must not be empty")
	}
	switch cfg.Synthesis.Vendor {
	case "murf", "deepgram":
	default:
		return errors.New("synthesis.vendor must be one of murf|deepgram")
	}
	if cfg.Archive.Enabled && cfg.Archive.Path == "" {
		return errors.New("archive.path must not be empty when archive is enabled")
	}
	if cfg.Archive.RetentionDays < 0 {
		return errors.New("archive.retention_days must be >= 0")
	}
	switch cfg.Telemetry.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("telemetry.log_level must be one of debug|info|warn|error")
	}
	return nil
}
