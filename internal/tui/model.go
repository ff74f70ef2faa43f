// Package tui is the interactive question-answering session used by
// "pdfrag chat".
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfrag/internal/domain"
)

// Answerer is the TUI-facing subset of the pipeline service.
type Answerer interface {
	Answer(ctx context.Context, question string) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	service  Answerer
	input    textinput.Model
	viewport viewport.Model
	answer   *domain.Answer
	status   string
	ready    bool
}

// New creates a new chat model.
func New(service Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Type a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: "Store loaded. Ask away, Ctrl+C to quit."}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events. The answer call is synchronous; the
// pipeline is one blocking round-trip per question by design.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			m.status = "Thinking..."
			answer, err := m.service.Answer(context.Background(), q)
			if err != nil {
				m.status = "Error: " + err.Error()
				m.answer = nil
			} else {
				m.status = fmt.Sprintf("Answered %q", q)
				m.answer = &answer
				m.input.SetValue("")
			}
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
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
	header := lipgloss.NewStyle().Bold(true).Render("pdfrag chat")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := questionBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet. Ask a question about the indexed PDFs."
	}
	var b strings.Builder
	b.WriteString(m.answer.Text)
	if len(m.answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceHeaderStyle.Render("Sources"))
		for _, src := range m.answer.Sources {
			b.WriteString(fmt.Sprintf("\n  %s, page %d", src.Source, src.Page))
		}
	}
	return b.String()
}

var (
	answerBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
