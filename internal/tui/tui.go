// Package tui is the terminal front end of ema-chat.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"github.com/muesli/reflow/wordwrap"
)

// Session is the part of the orchestrator the UI drives.
type Session interface {
	Submit(prompt string) error
	StartListening() error
	StopListening() error
	ClearConversation() error
	Listening() bool
	Events() <-chan events.Event
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true)
	interimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	noticeStyles   = map[events.NoticeLevel]lipgloss.Style{
		events.NoticeLevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7")),
		events.NoticeLevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")),
		events.NoticeLevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")),
	}
	stateStyles = map[conversations.VoiceState]lipgloss.Style{
		conversations.VoiceStateIdle:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		conversations.VoiceStateListening:  lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")),
		conversations.VoiceStateProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")),
		conversations.VoiceStateError:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")),
	}
)

type eventMsg struct {
	event events.Event
	ok    bool
}

type Model struct {
	session Session
	title   string

	viewport viewport.Model
	input    textinput.Model
	ready    bool

	messages []conversations.Message
	interim  string
	state    conversations.VoiceState
	online   bool
	status   string
	level    events.NoticeLevel
}

func New(session Session, title string) Model {
	input := textinput.New()
	input.Placeholder = "Type a message, ctrl+r to talk"
	input.CharLimit = 4000
	input.Focus()

	return Model{
		session: session,
		title:   title,
		input:   input,
		state:   conversations.VoiceStateIdle,
		online:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.session.Events()))
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		return eventMsg{event: event, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			prompt := strings.TrimSpace(m.input.Value())
			if prompt != "" {
				if err := m.session.Submit(prompt); err != nil {
					m.setStatus(events.NoticeLevelWarning, err.Error())
				} else {
					m.input.Reset()
				}
			}
			return m, nil
		case "ctrl+r":
			var err error
			if m.session.Listening() {
				err = m.session.StopListening()
			} else {
				err = m.session.StartListening()
			}
			if err != nil {
				m.setStatus(events.NoticeLevelError, err.Error())
			}
			return m, nil
		case "ctrl+l":
			if err := m.session.ClearConversation(); err != nil {
				m.setStatus(events.NoticeLevelError, err.Error())
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-headerHeight-footerHeight))
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-headerHeight-footerHeight)
		}
		m.input.Width = max(10, msg.Width-4)
		m.refresh()

	case eventMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.apply(msg.event)
		m.refresh()
		cmds = append(cmds, waitForEvent(m.session.Events()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) apply(event events.Event) {
	switch event := event.(type) {
	case events.MessageAppended:
		m.messages = append(m.messages, event.Message)
	case events.MessageUpdated:
		for i := len(m.messages) - 1; i >= 0; i-- {
			if m.messages[i].ID == event.Message.ID {
				m.messages[i] = event.Message
				break
			}
		}
	case events.ConversationCleared:
		m.messages = nil
		m.interim = ""
	case events.UserTranscriptInterimUpdated:
		m.interim = event.Transcript
	case events.VoiceStateChanged:
		m.state = event.To
	case events.ConnectivityChanged:
		m.online = event.Online
	case events.Notice:
		m.setStatus(event.Level, event.Text)
	}
}

func (m *Model) setStatus(level events.NoticeLevel, text string) {
	m.level, m.status = level, text
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.conversationView())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m Model) conversationView() string {
	width := max(20, m.viewport.Width-2)

	var b strings.Builder
	for _, message := range m.messages {
		label := assistantStyle.Render("Assistant")
		if message.Role == conversations.RoleUser {
			label = userStyle.Render("You")
		}
		content := message.Content
		if content == "" {
			content = "…"
		}
		fmt.Fprintf(&b, "%s  %s\n%s\n\n", label, message.Timestamp.Format("15:04"), wordwrap.String(content, width))
	}
	if m.interim != "" {
		b.WriteString(interimStyle.Render(wordwrap.String(m.interim, width)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render(m.title)
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, line)
}

func (m Model) footerView() string {
	state := stateStyles[m.state].Render("● " + m.state.String())
	if !m.online {
		state += noticeStyles[events.NoticeLevelError].Render("  offline")
	}
	status := ""
	if m.status != "" {
		status = "  " + noticeStyles[m.level].Render(m.status)
	}
	help := interimStyle.Render("enter send · ctrl+r voice · ctrl+l clear · esc quit")

	return lipgloss.JoinVertical(lipgloss.Left, m.input.View(), state+status, help)
}
