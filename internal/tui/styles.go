package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7931a"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a69a"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef5350"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef5350")).Bold(true)
	tipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e6edf3"))
	fadeStyle  = tipStyle.Faint(true)
)

const (
	gridColor      = "#1f2837"
	crosshairColor = "#484f58"
	maColor        = "#59a6ff"
	emaColor       = "#c792ea"
	bandColor      = "#8b949e"
)
