package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

// QueryPort is the TUI-facing subset of the query engine.
type QueryPort interface {
	Ask(ctx context.Context, question string) (domain.QueryResult, error)
}

type exchange struct {
	question string
	result   domain.QueryResult
}

type answerMsg struct {
	question string
	result   domain.QueryResult
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	port        QueryPort
	channelName string
	input       textinput.Model
	viewport    viewport.Model
	spin        spinner.Model
	history     []exchange
	thinking    bool
	status      string
	ready       bool
}

// New creates a chat model for the given channel.
func New(port QueryPort, channelName string) Model {
	ti := textinput.New()
	ti.Prompt = "💬 "
	ti.Placeholder = "Ask about the channel's videos (help for commands)"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		port:        port,
		channelName: channelName,
		input:       ti,
		viewport:    vp,
		spin:        sp,
		status:      "Ask me anything about the videos from this channel.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := chatBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderConversation())
		return m, nil
	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.history = append(m.history, exchange{question: msg.question, result: msg.result})
		m.status = fmt.Sprintf("%d exchange(s). Type your next question.", len(m.history))
		m.viewport.SetContent(m.renderConversation())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			return m.handleSubmit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	switch strings.ToLower(question) {
	case "":
		return m, nil
	case "exit", "quit", "q", "bye":
		return m, tea.Quit
	case "help":
		m.input.Reset()
		m.viewport.SetContent(helpText)
		m.status = "Showing help."
		return m, nil
	case "history":
		m.input.Reset()
		m.viewport.SetContent(m.renderHistorySummary())
		m.status = fmt.Sprintf("%d exchange(s) so far.", len(m.history))
		return m, nil
	case "clear":
		m.input.Reset()
		m.history = nil
		m.viewport.SetContent(m.renderConversation())
		m.status = "History cleared."
		return m, nil
	}
	if m.thinking {
		m.status = "Still thinking about the previous question..."
		return m, nil
	}
	m.input.Reset()
	m.thinking = true
	m.status = "Thinking..."
	return m, tea.Batch(m.spin.Tick, m.askCmd(question))
}

func (m Model) askCmd(question string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		result, err := port.Ask(context.Background(), question)
		return answerMsg{question: question, result: result, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("🎬 " + m.channelName + " — channel chat")
	conversation := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.thinking {
		status = m.spin.View() + " " + status
	}
	return header + "\n" + conversation + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderConversation() string {
	if len(m.history) == 0 {
		return "No conversation yet. Ask your first question!"
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("You: " + ex.question))
		sb.WriteString("\n\n")
		sb.WriteString(ex.result.AnswerText)
		if len(ex.result.Citations) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(sourceStyle.Render(fmt.Sprintf("📚 Sources (%d):", len(ex.result.Citations))))
			for j, citation := range ex.result.Citations {
				sb.WriteString(fmt.Sprintf("\n  [%d] %s", j+1, renderCitation(citation)))
			}
		}
	}
	return sb.String()
}

func (m Model) renderHistorySummary() string {
	if len(m.history) == 0 {
		return "No conversation history yet."
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] You: %s\n    Bot: %s", i+1, ex.question, preview(ex.result.AnswerText, 200)))
	}
	return sb.String()
}

func renderCitation(c domain.Citation) string {
	if c.DisplayText != "" {
		return preview(c.DisplayText, 100)
	}
	return c.SourceLabel
}

func preview(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

const helpText = `This is a RAG chatbot over the channel's video transcripts.

Tips:
  - Ask specific questions about topics covered in the videos
  - Request summaries or comparisons between videos
  - Citations show which transcript passages were used

Commands:
  help      show this message
  history   view conversation history
  clear     clear conversation history
  exit      quit the chat`

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
