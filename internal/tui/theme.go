package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor

	TopBar    lipgloss.Style
	Footer    lipgloss.Style
	InputBox  lipgloss.Style
	Pane      lipgloss.Style
	PaneTitle lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	RoleSys lipgloss.Style
	RoleErr lipgloss.Style

	Thinking lipgloss.Style

	// Countdown colors run inverted: hot at the start, green near ready.
	TimerWait  lipgloss.Style
	TimerSoon  lipgloss.Style
	TimerReady lipgloss.Style

	ChartLink   lipgloss.Style
	SignalEntry lipgloss.Style
	SignalStop  lipgloss.Style
	SignalTake  lipgloss.Style

	ListItem lipgloss.Style
	ListSel  lipgloss.Style
}

func NewTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1a1a2e", Dark: "#e8e8f0"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#5a5a72", Dark: "#9a9ab0"},
		Accent:      lipgloss.AdaptiveColor{Light: "#5b4bc4", Dark: "#667eea"},
		Border:      lipgloss.AdaptiveColor{Light: "#c0c0d0", Dark: "#3a3a52"},
	}
	if os.Getenv("PERPOLOGY_NO_COLOR") == "1" {
		t.Accent = t.TextPrimary
	}

	t.TopBar = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.Pane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#0a7a4a", Dark: "#4ade80"})
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleSys = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.RoleErr = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#b00020", Dark: "#ff5c5c"})

	t.Thinking = lipgloss.NewStyle().Italic(true).Foreground(t.TextMuted)

	t.TimerWait = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#b00020", Dark: "#ff5c5c"})
	t.TimerSoon = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#a05a00", Dark: "#ffb454"})
	t.TimerReady = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#0a7a4a", Dark: "#4ade80"})

	t.ChartLink = lipgloss.NewStyle().Underline(true).Foreground(t.Accent)
	t.SignalEntry = lipgloss.NewStyle().Foreground(t.TextPrimary)
	t.SignalStop = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b00020", Dark: "#ff5c5c"})
	t.SignalTake = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0a7a4a", Dark: "#4ade80"})

	t.ListItem = lipgloss.NewStyle().Foreground(t.TextPrimary)
	t.ListSel = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)

	return t
}
