// Package tui renders a live voice session in the terminal: the session
// phase, a rolling conversation transcript, the microphone level and any
// recoverable errors.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// ReadyMsg reports that the session dialed and both devices started.
type ReadyMsg struct{}

// TranscriptMsg carries a finalized user utterance.
type TranscriptMsg string

// ResponseMsg carries the full assistant reply for a turn.
type ResponseMsg string

// AudioMsg reports one reply chunk queued for playback.
type AudioMsg struct {
	Index int
	Final bool
}

// InputLevelMsg carries the peak level of one captured frame in [0, 1].
type InputLevelMsg float64

// ErrorMsg carries one recoverable session failure.
type ErrorMsg struct {
	Category   string
	Capability string
	Message    string
}

// DisconnectedMsg reports that the session ended. Err is nil on a clean
// close.
type DisconnectedMsg struct {
	Err error
}

type phase int

const (
	phaseConnecting phase = iota
	phaseListening
	phaseThinking
	phaseSpeaking
	phaseClosed
)

func (p phase) label() string {
	switch p {
	case phaseConnecting:
		return "connecting"
	case phaseListening:
		return "listening"
	case phaseThinking:
		return "thinking"
	case phaseSpeaking:
		return "speaking"
	case phaseClosed:
		return "disconnected"
	}
	return "unknown"
}

type entry struct {
	speaker string
	text    string
}

// Model is the bubbletea model for one session.
type Model struct {
	serverURL string
	sessionID string

	phase    phase
	entries  []entry
	level    float64
	errLine  string
	closeErr error

	width  int
	height int

	transcript viewport.Model
	spinner    spinner.Model

	theme theme
}

// New creates a model for a session against serverURL. sessionID may be
// empty when the server assigns one.
func New(serverURL, sessionID string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	th := newTheme()
	sp.Style = th.status

	return Model{
		serverURL:  serverURL,
		sessionID:  sessionID,
		phase:      phaseConnecting,
		transcript: viewport.New(0, 0),
		spinner:    sp,
		theme:      th,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReadyMsg:
		m.phase = phaseListening

	case TranscriptMsg:
		m.entries = append(m.entries, entry{speaker: "you", text: string(msg)})
		m.phase = phaseThinking
		m.errLine = ""
		m.renderTranscript()

	case ResponseMsg:
		m.entries = append(m.entries, entry{speaker: "aura", text: string(msg)})
		m.phase = phaseListening
		m.renderTranscript()

	case AudioMsg:
		if msg.Final {
			m.phase = phaseListening
		} else {
			m.phase = phaseSpeaking
		}

	case InputLevelMsg:
		m.level = float64(msg)

	case ErrorMsg:
		m.errLine = fmt.Sprintf("%s: %s", msg.Category, msg.Message)
		if msg.Capability != "" {
			m.errLine = fmt.Sprintf("%s (%s): %s", msg.Category, msg.Capability, msg.Message)
		}
		// Failures end the turn; the microphone is live again.
		if m.phase == phaseThinking || m.phase == phaseSpeaking {
			m.phase = phaseListening
		}

	case DisconnectedMsg:
		m.phase = phaseClosed
		m.closeErr = msg.Err
	}

	return m, nil
}

func (m Model) View() string {
	header := m.renderHeader()
	status := m.renderStatus()
	meter := m.renderMeter()
	help := m.theme.help.Render("q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		status,
		m.transcript.View(),
		meter,
		help,
	)
}

func (m *Model) resize() {
	m.transcript.Width = max(20, m.width-2)
	m.transcript.Height = max(3, m.height-6)
}

func (m *Model) renderTranscript() {
	if len(m.entries) == 0 {
		m.transcript.SetContent(m.theme.help.Render("Say something to start the conversation."))
		return
	}

	width := max(24, m.transcript.Width-2)
	var b strings.Builder
	for _, entry := range m.entries {
		style := m.theme.you
		if entry.speaker == "aura" {
			style = m.theme.aura
		}
		b.WriteString(style.Render(entry.speaker))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(entry.text, width))
		b.WriteString("\n\n")
	}

	m.transcript.SetContent(strings.TrimRight(b.String(), "\n"))
	m.transcript.GotoBottom()
}

func (m Model) renderHeader() string {
	title := "Aura · " + m.serverURL
	if m.sessionID != "" {
		title += " · session " + m.sessionID
	}
	return m.theme.header.Render(title)
}

func (m Model) renderStatus() string {
	status := m.theme.status.Render(m.phase.label())
	if m.phase == phaseThinking {
		status = m.spinner.View() + " " + status
	}
	if m.phase == phaseClosed && m.closeErr != nil {
		status += " " + m.theme.errorLine.Render(m.closeErr.Error())
	}
	if m.errLine != "" {
		status += "  " + m.theme.errorLine.Render(m.errLine)
	}
	return status
}

func (m Model) renderMeter() string {
	width := max(10, min(40, m.width-8))
	filled := int(m.level * float64(width))
	filled = min(filled, width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return m.theme.help.Render("mic ") + m.theme.meter.Render(bar)
}
