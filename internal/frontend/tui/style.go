package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleWall = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleFloor = lipgloss.NewStyle().
			Foreground(lipgloss.Color("235"))

	styleStairs = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Bold(true)

	stylePlayer = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	styleMonster = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleBoss = lipgloss.NewStyle().
			Foreground(lipgloss.Color("201")).
			Bold(true)

	styleInfo = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleHungry = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 2).
			Bold(true)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func entityStyle(e gameserver.EntityView) lipgloss.Style {
	switch {
	case e.Player:
		return stylePlayer
	case e.Boss:
		return styleBoss
	default:
		return styleMonster
	}
}

func messageStyle(level event.LogLevel) lipgloss.Style {
	switch level {
	case event.LogWarning:
		return styleWarning
	case event.LogError:
		return styleError
	default:
		return styleInfo
	}
}
