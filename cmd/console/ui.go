package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/room-director/internal/handlers"
)

const PlaceHolderText = "Say something, or /help for commands..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	streamClient *http.Client
	character    *handlers.CharacterView
	roomView     *handlers.RoomView

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error

	showQuitModal bool

	// transcript holds unstyled lines; it is re-wrapped on every resize.
	transcript []string

	// lastSuggestion is the most recent "say computer, ..." line the room
	// suggested, ready for /copy.
	lastSuggestion string

	events       chan roomEvent
	streamCtx    context.Context
	streamCancel context.CancelFunc
}

type roomEventMsg roomEvent

type streamClosedMsg struct{ err error }

type roomViewMsg struct {
	view *handlers.RoomView
	err  error
}

type sayResultMsg struct{ err error }

type digResultMsg struct {
	result string
	err    error
}

type copiedMsg struct{ err error }

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	roomStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client, streamClient *http.Client, character *handlers.CharacterView) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ctx, cancel := context.WithCancel(context.Background())

	return ConsoleUI{
		streamCtx:    ctx,
		streamCancel: cancel,
		config:       cfg,
		client:       client,
		streamClient: streamClient,
		character:    character,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		events:       make(chan roomEvent, 16),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.startStream(), m.waitForEvent(), m.fetchRoomView(), textarea.Blink)
}

// startStream opens the SSE connection in the background. Events arrive on
// m.events; waitForEvent feeds them back into Update one at a time.
func (m ConsoleUI) startStream() tea.Cmd {
	ctx := m.streamCtx
	events := m.events
	cfg := m.config
	client := m.streamClient
	return func() tea.Msg {
		err := streamEvents(ctx, client, cfg.APIBaseURL, cfg.RoomDbref, events)
		return streamClosedMsg{err}
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{nil}
		}
		return roomEventMsg(ev)
	}
}

func (m ConsoleUI) fetchRoomView() tea.Cmd {
	return func() tea.Msg {
		view, err := getRoom(m.client, m.config.APIBaseURL, m.config.RoomDbref)
		return roomViewMsg{view, err}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.appendLine(userStyle.Render("You: ") + input)
			return m, m.submitSay(input)
		}

	case roomEventMsg:
		m.applyEvent(roomEvent(msg))
		return m, tea.Batch(m.waitForEvent(), m.eventFollowup(roomEvent(msg)))

	case streamClosedMsg:
		if msg.err != nil && msg.err != context.Canceled {
			m.appendLine(errorStyle.Render("Event stream closed: " + msg.err.Error()))
		}

	case roomViewMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.roomView = msg.view
			m.writeMetadata()
		}

	case sayResultMsg:
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
		}

	case digResultMsg:
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
		} else {
			m.appendLine(roomStyle.Render(msg.result))
			return m, m.fetchRoomView()
		}

	case copiedMsg:
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Clipboard error: " + msg.err.Error()))
		} else {
			m.appendLine(promptStyle.Render("Copied to clipboard."))
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// applyEvent folds one stream event into the transcript.
func (m *ConsoleUI) applyEvent(ev roomEvent) {
	switch ev.Type {
	case "connected":
		m.appendLine(promptStyle.Render("Connected to room event stream."))
	case "room.message":
		text, _ := ev.Data["message"].(string)
		if text == "" {
			return
		}
		m.rememberSuggestion(text)
		m.appendLine(roomStyle.Render(text))
	case "room.desc_updated":
		m.appendLine(promptStyle.Render("[the room description has changed]"))
	case "object.created":
		key, _ := ev.Data["key"].(string)
		dbref, _ := ev.Data["dbref"].(string)
		m.appendLine(promptStyle.Render(fmt.Sprintf("[%s manifested as %s]", key, dbref)))
	case "object.destroyed":
		key, _ := ev.Data["key"].(string)
		m.appendLine(promptStyle.Render(fmt.Sprintf("[%s removed]", key)))
	case "object.edited":
		dbref, _ := ev.Data["dbref"].(string)
		m.appendLine(promptStyle.Render(fmt.Sprintf("[%s edited]", dbref)))
	case "intent.suggested":
		command, _ := ev.Data["command"].(string)
		if command != "" {
			m.lastSuggestion = "say computer, " + command
			m.appendLine(suggestionStyle.Render("Suggested: " + m.lastSuggestion))
			m.appendLine(promptStyle.Render("Use /copy to put it on the clipboard."))
		}
	}
}

// eventFollowup refreshes the metadata panel after events that change the
// room's contents or description.
func (m ConsoleUI) eventFollowup(ev roomEvent) tea.Cmd {
	switch ev.Type {
	case "room.desc_updated", "object.created", "object.destroyed", "object.edited":
		return m.fetchRoomView()
	}
	return nil
}

// rememberSuggestion captures "say computer, ..." lines from plain room text
// so /copy works on the intent router's copy/paste hints.
func (m *ConsoleUI) rememberSuggestion(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "say computer, ") {
			m.lastSuggestion = line
		}
	}
}

func (m *ConsoleUI) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.writeChatContent()
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ROOM DIRECTOR") + "\n\n")
	content.WriteString("Speak to the room. Address the computer with \"computer, ...\".\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.transcript {
		content.WriteString(wordwrap.String(line, chatWidth) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ROOM") + "\n\n")

	content.WriteString("You:\n")
	content.WriteString(fmt.Sprintf("%s (%s)\n\n", m.character.Key, m.character.Dbref))

	if m.roomView != nil {
		width := m.metaViewport.Width
		if width < 16 {
			width = 16
		}

		content.WriteString(fmt.Sprintf("%s (%s)\n\n", m.roomView.Key, m.roomView.Dbref))
		content.WriteString(wordwrap.String(m.roomView.Desc, width) + "\n\n")

		if len(m.roomView.Notables) > 0 {
			content.WriteString("Notables:\n")
			for _, n := range m.roomView.Notables {
				content.WriteString(fmt.Sprintf("• %s (%s)\n", n.Key, n.Dbref))
			}
			content.WriteString("\n")
		}
		if len(m.roomView.Exits) > 0 {
			content.WriteString("Exits:\n")
			for _, e := range m.roomView.Exits {
				content.WriteString(fmt.Sprintf("• %s → %s\n", e.Key, e.Destination))
			}
			content.WriteString("\n")
		}
		if len(m.roomView.PinnedFacts) > 0 {
			content.WriteString("Pinned facts:\n")
			for _, f := range m.roomView.PinnedFacts {
				content.WriteString(wordwrap.String("• "+f, width) + "\n")
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /look: Refresh room\n")
	content.WriteString("• /copy: Copy suggestion\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		m.appendLine(titleStyle.Render("Help:") + `
• /look - Refresh the room panel
• /dig <exit> [room key or #dbref] - Create or remove an exit
• /copy - Copy the last suggested command to the clipboard
• Ctrl+C - Quit

Talk to the room by addressing the computer:
• computer, create a brass cat idol
• computer, pin This is a seaside lounge
• computer, facts`)

	case "/look":
		return m, m.fetchRoomView()

	case "/dig":
		if len(fields) < 2 {
			m.appendLine(errorStyle.Render("Usage: /dig <exit> [room key or #dbref]"))
			return m, nil
		}
		exit := fields[1]
		target := strings.Join(fields[2:], " ")
		return m, m.submitDig(exit, target)

	case "/copy":
		if m.lastSuggestion == "" {
			m.appendLine(errorStyle.Render("Nothing to copy yet."))
			return m, nil
		}
		suggestion := m.lastSuggestion
		return m, func() tea.Msg {
			return copiedMsg{clipboard.WriteAll(suggestion)}
		}

	default:
		m.appendLine(errorStyle.Render("Unknown command. Try /help."))
	}

	return m, nil
}

func (m ConsoleUI) submitSay(message string) tea.Cmd {
	return func() tea.Msg {
		return sayResultMsg{sendSay(m.client, m.config.APIBaseURL, m.character.Dbref, message)}
	}
}

func (m ConsoleUI) submitDig(exit, target string) tea.Cmd {
	return func() tea.Msg {
		result, err := sendDig(m.client, m.config.APIBaseURL, m.config.RoomDbref, exit, target)
		return digResultMsg{result, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m, m.quit()
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() tea.Cmd {
	if m.streamCancel != nil {
		m.streamCancel()
	}
	return tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Room?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to disconnect?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to stay, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
