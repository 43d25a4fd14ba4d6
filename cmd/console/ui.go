package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kalandor/engine/internal/config"
	"github.com/kalandor/engine/internal/engine"
)

const (
	PlaceHolderText = "What do you do next?"

	// Inventory pane geometry, carried from the original game.
	inventoryRows = 2
	inventoryCols = 3
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	effectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	slotStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	slotSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("205")).
				Padding(0, 1)
)

// transcriptEntry is one line group in the chat transcript.
type transcriptEntry struct {
	speaker string // "You", "Narrator", "", "error"
	text    string
}

// ConsoleUI is the BubbleTea model that runs the UI.
type ConsoleUI struct {
	cfg    *config.Config
	eng    *engine.Engine
	driver *engine.SelfPlayDriver

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int

	transcript   []transcriptEntry
	lastAnswer   string
	lastImageRef string
	loading      bool
	selfPlaying  bool
	selectedSlot int

	// idleSeq invalidates stale idle timers: every completed turn
	// bumps it, so only the newest timer can trigger self-play.
	idleSeq int
}

type turnResultMsg struct {
	input    string
	selfPlay bool
	result   *engine.TurnResult
	err      error
}

type idleTickMsg struct {
	seq int
}

// NewConsoleUI creates the UI model around a ready engine.
func NewConsoleUI(cfg *config.Config, eng *engine.Engine, driver *engine.SelfPlayDriver) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(24, 20)

	return ConsoleUI{
		cfg:          cfg,
		eng:          eng,
		driver:       driver,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		loading:      true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.startSession())
}

// startSession fills the starting inventory and runs the opening turn.
func (m ConsoleUI) startSession() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		result, err := eng.StartSession(context.Background())
		return turnResultMsg{result: result, err: err}
	}
}

// runTurn feeds one input through the engine.
func (m ConsoleUI) runTurn(input string, selfPlay bool) tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		eng.AddUserMessage(input)
		result, err := eng.GenerateResponse(context.Background())
		return turnResultMsg{input: input, selfPlay: selfPlay, result: result, err: err}
	}
}

// runSelfPlay generates a synthetic input and plays it as a turn.
func (m ConsoleUI) runSelfPlay() tea.Cmd {
	eng := m.eng
	driver := m.driver
	return func() tea.Msg {
		input, err := driver.SelfPlay(context.Background(), eng.LastScenario())
		if err != nil {
			return turnResultMsg{selfPlay: true, err: err}
		}
		eng.AddUserMessage(input)
		result, err := eng.GenerateResponse(context.Background())
		return turnResultMsg{input: input, selfPlay: true, result: result, err: err}
	}
}

// scheduleIdle arms the self-play idle timer for the current sequence.
func (m ConsoleUI) scheduleIdle() tea.Cmd {
	if m.cfg.SelfPlayIdle <= 0 {
		return nil
	}
	seq := m.idleSeq
	return tea.Tick(m.cfg.SelfPlayIdle, func(time.Time) tea.Msg {
		return idleTickMsg{seq: seq}
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.66) - 2
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth
		m.chatViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 2)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case turnResultMsg:
		m.loading = false
		m.selfPlaying = false
		m.idleSeq++

		if msg.input != "" {
			speaker := "You"
			if msg.selfPlay {
				speaker = "Auto"
			}
			m.transcript = append(m.transcript, transcriptEntry{speaker: speaker, text: msg.input})
		}
		switch {
		case msg.err != nil:
			m.transcript = append(m.transcript, transcriptEntry{speaker: "error", text: msg.err.Error()})
		case msg.result == nil:
			m.transcript = append(m.transcript, transcriptEntry{text: "(the narrator falters; nothing happens this turn)"})
		default:
			m.lastAnswer = msg.result.Answer
			m.lastImageRef = msg.result.ImageRef
			m.transcript = append(m.transcript, transcriptEntry{speaker: "Narrator", text: msg.result.Answer})
			for _, effect := range msg.result.Effects {
				m.transcript = append(m.transcript, transcriptEntry{speaker: "effect", text: effect})
			}
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, m.scheduleIdle()

	case idleTickMsg:
		// Stale timers fire with an old sequence number; drop them.
		if msg.seq != m.idleSeq || m.loading {
			return m, nil
		}
		m.loading = true
		m.selfPlaying = true
		m.writeChatContent()
		return m, m.runSelfPlay()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlY:
			if m.lastAnswer != "" {
				_ = clipboard.WriteAll(m.lastAnswer)
			}
			return m, nil
		case tea.KeyTab:
			if n := m.eng.Inventory().Len(); n > 0 {
				m.selectedSlot = (m.selectedSlot + 1) % n
				m.writeMetadata()
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.loading = true
			m.idleSeq++
			m.writeChatContent()
			return m, m.runTurn(input, false)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 4
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("KALANDOR") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, entry := range m.transcript {
		switch entry.speaker {
		case "You", "Auto":
			content.WriteString(userStyle.Render(entry.speaker+": ") + wordwrap.String(entry.text, chatWidth) + "\n\n")
		case "Narrator":
			content.WriteString(narratorStyle.Render("Narrator: ") + wordwrap.String(entry.text, chatWidth) + "\n\n")
		case "effect":
			content.WriteString(effectStyle.Render("* "+wordwrap.String(entry.text, chatWidth)) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render("Error: "+wordwrap.String(entry.text, chatWidth)) + "\n\n")
		default:
			content.WriteString(wordwrap.String(entry.text, chatWidth) + "\n\n")
		}
	}

	if m.loading {
		if m.selfPlaying {
			content.WriteString(loadingStyle.Render("The story continues on its own..."))
		} else {
			content.WriteString(loadingStyle.Render("The narrator is thinking..."))
		}
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME STATE") + "\n\n")

	location := m.eng.Location()
	if location == "" {
		location = "Unknown"
	}
	content.WriteString("Location:\n" + location + "\n\n")
	content.WriteString(fmt.Sprintf("Score: %d\n\n", m.eng.Score()))

	if m.lastImageRef != "" {
		content.WriteString("Scene image:\n" + m.lastImageRef + "\n\n")
	}

	content.WriteString("Inventory:\n")
	content.WriteString(m.renderInventory() + "\n")

	if item, ok := m.eng.Inventory().ItemAt(m.selectedSlot); ok {
		content.WriteString("\n" + titleStyle.Render(item.Name) + "\n")
		content.WriteString(wordwrap.String(item.Description, m.metaViewport.Width-2) + "\n")
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• Tab: Next item\n")
	content.WriteString("• Ctrl+Y: Copy reply\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

// renderInventory draws the fixed 2x3 slot grid.
func (m *ConsoleUI) renderInventory() string {
	rows := make([]string, 0, inventoryRows)
	for r := 0; r < inventoryRows; r++ {
		cells := make([]string, 0, inventoryCols)
		for c := 0; c < inventoryCols; c++ {
			pos := r*inventoryCols + c
			label := "·"
			if item, ok := m.eng.Inventory().ItemAt(pos); ok {
				label = item.Name
				if len(label) > 8 {
					label = label[:8]
				}
			}
			style := slotStyle
			if pos == m.selectedSlot {
				style = slotSelectedStyle
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Starting your adventure..."
	}

	chat := lipgloss.NewStyle().
		Width(m.chatViewport.Width).
		Render(m.chatViewport.View() + "\n" + m.textarea.View())

	meta := lipgloss.NewStyle().
		Width(m.metaViewport.Width).
		PaddingLeft(2).
		Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, chat, meta)
}
