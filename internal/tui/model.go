// Package tui renders the chat session in the terminal. All session rules
// live in the client package; this layer only draws state and forwards input.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"perpology/internal/client"
	"perpology/internal/extract"
	"perpology/internal/models"
	"perpology/internal/service/market"
)

const (
	countdownTickInterval = 50 * time.Millisecond
	enrichmentDelay       = 200 * time.Millisecond
	pulseDuration         = 300 * time.Millisecond
)

type countdownMsg struct{}

type thinkMsg struct{}

type revealMsg struct {
	seq      int
	metadata *models.ResponseMetadata
}

type sendDoneMsg struct {
	seq    int
	result *client.SendResult
	err    error
}

type focusArea int

const (
	focusInput focusArea = iota
	focusChatList
)

type Model struct {
	controller *client.Controller
	theme      Theme

	width  int
	height int
	ready  bool

	focus focusArea

	input  textarea.Model
	chatVP viewport.Model

	thinkingPhrases []string
	thinkingIndex   int

	listSel       int
	confirmDelete bool

	pulseUntil time.Time

	sendCh chan sendDoneMsg

	statusText string
}

func NewModel(controller *client.Controller) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about the markets. Enter sends."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &Model{
		controller: controller,
		theme:      NewTheme(),
		width:      100,
		height:     30,
		input:      ta,
		statusText: "Ready",
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatH := m.height - 7
		if chatH < 5 {
			chatH = 5
		}
		if !m.ready {
			m.chatVP = viewport.New(m.width-2, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = m.width - 2
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(max(10, m.width-6))
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sendDoneMsg:
		now := time.Now()
		if msg.err != nil {
			m.controller.ApplyFailure(msg.seq, msg.err, now)
			m.statusText = "Ready"
			m.refreshChat()
			m.chatVP.GotoBottom()
			return m, nil
		}
		// Show the text first; metadata enrichment lands a beat later.
		reply := *msg.result
		metadata := reply.Metadata
		reply.Metadata = nil
		m.controller.ApplyResponse(msg.seq, &reply, now)
		m.statusText = "Ready"
		m.refreshChat()
		m.chatVP.GotoBottom()
		if metadata != nil {
			seq := msg.seq
			return m, tea.Tick(enrichmentDelay, func(_ time.Time) tea.Msg {
				return revealMsg{seq: seq, metadata: metadata}
			})
		}
		return m, nil

	case revealMsg:
		if msg.seq != m.controller.ViewSeq {
			return m, nil
		}
		if n := len(m.controller.History); n > 0 {
			last := m.controller.History[n-1]
			if last.Role == models.RoleAssistant && last.Metadata == nil {
				last.Metadata = msg.metadata
			}
		}
		m.refreshChat()
		m.chatVP.GotoBottom()
		return m, nil

	case thinkMsg:
		if !m.controller.IsThinking {
			return m, nil
		}
		m.thinkingIndex = (m.thinkingIndex + 1) % len(m.thinkingPhrases)
		m.refreshChat()
		m.chatVP.GotoBottom()
		return m, m.thinkTick()

	case countdownMsg:
		if m.controller.Remaining(time.Now()) > 0 {
			return m, m.countdownTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.confirmDelete = false
			if m.listSel < len(m.controller.Chats) {
				target := m.controller.Chats[m.listSel].ID
				if err := m.controller.DeleteChat(target); err != nil {
					m.statusText = fmt.Sprintf("delete failed: %v", err)
				} else {
					m.statusText = "Chat deleted"
				}
				if m.listSel >= len(m.controller.Chats) && m.listSel > 0 {
					m.listSel--
				}
			}
			m.refreshChat()
		default:
			m.confirmDelete = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit
	case "ctrl+l":
		if m.focus == focusChatList {
			m.focus = focusInput
			m.input.Focus()
		} else {
			m.focus = focusChatList
			m.input.Blur()
			if err := m.controller.LoadChats(); err != nil {
				m.statusText = fmt.Sprintf("load chats failed: %v", err)
			}
		}
		return m, nil
	case "ctrl+n":
		m.controller.NewChat()
		m.focus = focusInput
		m.input.Focus()
		m.refreshChat()
		return m, nil
	}

	if m.focus == focusChatList {
		switch msg.String() {
		case "up", "k":
			if m.listSel > 0 {
				m.listSel--
			}
		case "down", "j":
			if m.listSel < len(m.controller.Chats)-1 {
				m.listSel++
			}
		case "enter":
			if m.listSel < len(m.controller.Chats) {
				if err := m.controller.LoadChat(m.controller.Chats[m.listSel].ID); err != nil {
					m.statusText = fmt.Sprintf("open chat failed: %v", err)
				}
				m.focus = focusInput
				m.input.Focus()
				m.refreshChat()
				m.chatVP.GotoBottom()
			}
		case "d":
			if len(m.controller.Chats) > 0 {
				m.confirmDelete = true
			}
		case "esc":
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	}

	if msg.String() == "enter" {
		return m, m.onEnter()
	}

	if m.controller.IsRateLimited {
		m.pulseUntil = time.Now().Add(pulseDuration)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) onEnter() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	now := time.Now()
	if err := m.controller.Submit(text, now); err != nil {
		switch err {
		case client.ErrRateLimited:
			m.statusText = "Slow down: one message per cooldown."
		case client.ErrWalletNotConnected:
			m.statusText = "Connect a wallet first."
		default:
			m.statusText = err.Error()
		}
		return nil
	}

	m.input.Reset()
	m.thinkingPhrases = client.ThinkingMessages(text)
	m.thinkingIndex = 0
	m.statusText = "Thinking"
	m.refreshChat()
	m.chatVP.GotoBottom()

	// Snapshot the session before handing off to the goroutine; the Update
	// loop may switch chats while the request is in flight.
	chatID := m.controller.CurrentChatID
	wallet := m.controller.WalletAddress()
	seq := m.controller.ViewSeq

	m.sendCh = make(chan sendDoneMsg, 1)
	go func(done chan sendDoneMsg) {
		result, err := m.controller.Send(text, chatID, wallet)
		done <- sendDoneMsg{seq: seq, result: result, err: err}
	}(m.sendCh)

	return tea.Batch(m.waitSend(), m.thinkTick(), m.countdownTick())
}

func (m *Model) waitSend() tea.Cmd {
	done := m.sendCh
	return func() tea.Msg {
		if done == nil {
			return nil
		}
		return <-done
	}
}

func (m *Model) thinkTick() tea.Cmd {
	return tea.Tick(client.ThinkingInterval, func(_ time.Time) tea.Msg { return thinkMsg{} })
}

func (m *Model) countdownTick() tea.Cmd {
	return tea.Tick(countdownTickInterval, func(_ time.Time) tea.Msg { return countdownMsg{} })
}

func (m *Model) View() string {
	if !m.ready {
		return "loading"
	}
	top := m.renderTopBar()
	var body string
	if m.focus == focusChatList {
		body = m.renderChatList()
	} else {
		body = m.theme.Pane.Width(m.width - 2).Render(m.chatVP.View())
	}
	input := m.theme.InputBox.Width(m.width - 4).Render(m.input.View())
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, top, body, input, footer)
}

func (m *Model) renderTopBar() string {
	title := m.theme.TopBar.Render("Perpology")
	wallet := m.controller.WalletAddress()
	if wallet == "" {
		wallet = "no wallet"
	} else {
		wallet = shortAddress(wallet)
	}
	right := m.theme.Footer.Render(wallet)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFooter() string {
	now := time.Now()
	remaining := m.controller.Remaining(now)
	var timer string
	if remaining > 0 {
		display := fmt.Sprintf("Next message in: %s", client.FormatCountdown(remaining))
		style := m.theme.TimerReady
		switch client.CountdownPhase(remaining) {
		case client.PhaseWait:
			style = m.theme.TimerWait
		case client.PhaseSoon:
			style = m.theme.TimerSoon
		}
		if now.Before(m.pulseUntil) {
			// Typing during the cooldown flashes the timer.
			style = style.Bold(true)
		}
		timer = style.Render(display)
	} else {
		timer = m.theme.TimerReady.Render("Ready to send")
	}
	if m.confirmDelete {
		return m.theme.RoleErr.Render("Delete this chat? y/n")
	}
	help := m.theme.Footer.Render("ctrl+l chats  ctrl+n new  ctrl+c quit")
	return timer + "  " + m.theme.Footer.Render(m.statusText) + "  " + help
}

func (m *Model) renderChatList() string {
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("Chats"))
	b.WriteString("\n")
	if len(m.controller.Chats) == 0 {
		b.WriteString(m.theme.Footer.Render("No chats yet. ctrl+n starts one."))
	}
	for i, c := range m.controller.Chats {
		line := fmt.Sprintf("%s  %s", c.UpdatedAt.Format("Jan 02 15:04"), c.Title)
		if i == m.listSel {
			b.WriteString(m.theme.ListSel.Render("> " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return m.theme.Pane.Width(m.width - 2).Render(b.String())
}

func (m *Model) refreshChat() {
	var b strings.Builder
	for _, msg := range m.controller.History {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n\n")
	}
	if m.controller.IsThinking && len(m.thinkingPhrases) > 0 {
		b.WriteString(m.theme.Thinking.Render(m.thinkingPhrases[m.thinkingIndex]))
		b.WriteString("\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderMessage(msg *models.Message) string {
	var label string
	switch msg.Role {
	case models.RoleUser:
		label = m.theme.RoleYou.Render("YOU")
	case models.RoleAssistant:
		label = m.theme.RoleAI.Render("AI")
	default:
		label = m.theme.RoleSys.Render("SYS")
	}
	body := lipgloss.NewStyle().Width(m.width - 8).Render(msg.Content)
	out := label + "\n" + body
	if enrichment := m.renderEnrichment(msg.Metadata); enrichment != "" {
		out += "\n" + enrichment
	}
	return out
}

// renderEnrichment draws the chart link and trading levels carried in the
// message metadata, mirroring the rich cards the web client shows.
func (m *Model) renderEnrichment(metadata *models.ResponseMetadata) string {
	if metadata == nil {
		return ""
	}
	var parts []string
	if metadata.HasChart {
		symbol := extract.DefaultSymbol
		if len(metadata.CryptoSymbols) > 0 {
			symbol = metadata.CryptoSymbols[0]
		}
		chart := market.ChartEmbed(symbol)
		parts = append(parts, m.theme.ChartLink.Render(fmt.Sprintf("Chart %s: %s", chart.Symbol, chart.EmbedURL)))
	}
	if metadata.HasTradingSignal && metadata.TradingData != nil {
		td := metadata.TradingData
		var levels []string
		if td.Direction != "" {
			levels = append(levels, strings.ToUpper(td.Direction))
		}
		if td.Entry != nil {
			levels = append(levels, m.theme.SignalEntry.Render(fmt.Sprintf("entry %.2f", *td.Entry)))
		}
		if td.StopLoss != nil {
			levels = append(levels, m.theme.SignalStop.Render(fmt.Sprintf("stop %.2f", *td.StopLoss)))
		}
		if td.TakeProfit != nil {
			levels = append(levels, m.theme.SignalTake.Render(fmt.Sprintf("target %.2f", *td.TakeProfit)))
		}
		if len(levels) > 0 {
			parts = append(parts, strings.Join(levels, "  "))
		}
	}
	return strings.Join(parts, "\n")
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
