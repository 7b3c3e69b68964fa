package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/engine"
)

// ChatPort is the TUI-facing subset of the generation engine.
type ChatPort interface {
	Stream(ctx context.Context, question string) (*engine.Session, error)
}

type streamStartedMsg struct{ sess *engine.Session }
type streamEventMsg struct{ ev engine.Event }
type streamClosedMsg struct{}
type streamFailedMsg struct{ err error }

// Model is the Bubble Tea model for the chat application. Tokens arrive as
// messages pumped from the active stream session, one command per event.
type Model struct {
	service    ChatPort
	input      textinput.Model
	viewport   viewport.Model
	transcript string
	sess       *engine.Session
	streaming  bool
	status     string
	ready      bool
}

// New creates a new chat model instance.
func New(service ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: "Ready. Type a question and press Enter."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.transcript)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.streaming {
				m.streaming = true
				m.status = "Thinking..."
				m.input.Reset()
				m.appendTranscript(youStyle.Render("You: ") + q + "\n" + aiStyle.Render("AI: "))
				return m, startStream(m.service, q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case streamStartedMsg:
		m.sess = msg.sess
		return m, waitForEvent(msg.sess)

	case streamEventMsg:
		switch {
		case msg.ev.Err != nil:
			m.appendTranscript("\n" + errStyle.Render("Error: "+msg.ev.Err.Error()) + "\n\n")
			m.streaming = false
			m.status = "Error. Try again."
		case msg.ev.Done:
			if len(msg.ev.Sources) > 0 {
				m.appendTranscript("\n" + sourceStyle.Render("Sources: "+strings.Join(msg.ev.Sources, ", ")) + "\n\n")
			} else {
				m.appendTranscript("\n\n")
			}
			m.streaming = false
			m.status = "Done. Ask another question."
		default:
			m.appendTranscript(msg.ev.Token)
		}
		if m.streaming {
			return m, waitForEvent(m.sess)
		}
		m.sess = nil
		return m, nil

	case streamClosedMsg:
		m.streaming = false
		m.sess = nil
		return m, nil

	case streamFailedMsg:
		m.appendTranscript("\n" + errStyle.Render("Error: "+msg.err.Error()) + "\n\n")
		m.streaming = false
		m.status = "Error. Try again."
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) appendTranscript(text string) {
	m.transcript += text
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

func startStream(service ChatPort, question string) tea.Cmd {
	return func() tea.Msg {
		sess, err := service.Stream(context.Background(), question)
		if err != nil {
			return streamFailedMsg{err: err}
		}
		return streamStartedMsg{sess: sess}
	}
}

func waitForEvent(sess *engine.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sess.Events()
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{ev: ev}
	}
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	youStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	aiStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
