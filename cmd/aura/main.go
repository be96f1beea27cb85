package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/auravoice/aura-core/client"
	"github.com/auravoice/aura-core/client/tui"
	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/audio/miniaudio"
	"github.com/auravoice/aura-core/core/audio/portaudio"
	"github.com/auravoice/aura-core/protocol"
)

var version = "0.1.0-dev"

var (
	serverURL string
	sessionID string
	backend   string
	recordTo  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aura",
		Short: "Terminal client for the Aura voice agent",
		Long:  "Connects the local microphone and speakers to an Aura voice agent server.",
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "ws://localhost:8080", "Server base URL")

	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Start a voice session",
		Long:  "Opens a session against the server and talks through the local microphone and speakers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Capability credentials are read from the environment, with
			// .env as a fallback, and travel only in the handshake.
			_ = godotenv.Load()

			device, err := newDevice(backend)
			if err != nil {
				return err
			}
			defer device.Close()

			program := tea.NewProgram(tui.New(serverURL, sessionID), tea.WithAltScreen())

			handlers := client.Handlers{
				OnTranscript: func(text string) { program.Send(tui.TranscriptMsg(text)) },
				OnResponse:   func(text string) { program.Send(tui.ResponseMsg(text)) },
				OnAudio: func(index int, final bool) {
					program.Send(tui.AudioMsg{Index: index, Final: final})
				},
				OnInputLevel: func(level float64) { program.Send(tui.InputLevelMsg(level)) },
				OnError: func(category protocol.Category, capability, message string) {
					program.Send(tui.ErrorMsg{
						Category:   string(category),
						Capability: capability,
						Message:    message,
					})
				},
				OnClosed: func(err error) { program.Send(tui.DisconnectedMsg{Err: err}) },
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			session, err := client.Dial(ctx, client.Config{
				ServerURL:     serverURL,
				SessionID:     sessionID,
				Credentials:   credentialsFromEnv(),
				RecordingPath: recordTo,
			}, device, handlers)
			if err != nil {
				return err
			}
			defer session.Close()

			// Send unblocks once Run starts draining messages.
			go program.Send(tui.ReadyMsg{})
			go func() {
				<-ctx.Done()
				program.Quit()
			}()

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("terminal ui failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to resume; empty for a new session")
	cmd.Flags().StringVar(&backend, "backend", "miniaudio", "Audio backend: miniaudio or portaudio")
	cmd.Flags().StringVar(&recordTo, "record", "", "Append reply audio to this WAV file")
	return cmd
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Probe the local audio backends",
		Long:  "Opens each audio backend and reports its capture and playback encodings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			probe("miniaudio", func() (audioDevice, error) { return miniaudio.NewClient() })
			probe("portaudio", func() (audioDevice, error) { return portaudio.NewClient() })
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// audioDevice is what the session consumes plus the lifecycle and probing
// surface of the concrete backends.
type audioDevice interface {
	client.Device
	Close()
	CaptureEncodingInfo() audio.EncodingInfo
}

func newDevice(backend string) (audioDevice, error) {
	switch backend {
	case "miniaudio":
		return miniaudio.NewClient()
	case "portaudio":
		return portaudio.NewClient()
	default:
		return nil, fmt.Errorf("unknown audio backend %q, want miniaudio or portaudio", backend)
	}
}

func probe(name string, open func() (audioDevice, error)) {
	device, err := open()
	if err != nil {
		fmt.Printf("%-10s unavailable: %v\n", name, err)
		return
	}
	defer device.Close()

	capture := device.CaptureEncodingInfo()
	playback := device.PlaybackEncodingInfo()
	fmt.Printf("%-10s capture %d Hz %s, playback %d Hz %s\n",
		name,
		capture.SampleRate, capture.Format.Name(),
		playback.SampleRate, playback.Format.Name())
}

// credentialsFromEnv collects capability credentials from the same
// environment variables the server accepts, keyed by wire capability name.
// Unset capabilities stay absent; the server treats them as not configured.
func credentialsFromEnv() map[string]string {
	credentials := map[string]string{}
	for capability, envKey := range map[string]string{
		"transcription": "AURA_TRANSCRIPTION_API_KEY",
		"generation":    "AURA_GENERATION_API_KEY",
		"synthesis":     "AURA_SYNTHESIS_API_KEY",
		"web-search":    "AURA_WEB_SEARCH_API_KEY",
		"weather":       "AURA_WEATHER_API_KEY",
		"task-creation": "AURA_TASK_CREATION_API_KEY",
	} {
		if value := os.Getenv(envKey); value != "" {
			credentials[capability] = value
		}
	}
	return credentials
}
