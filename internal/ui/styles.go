package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorOrange  = lipgloss.Color("#FFAF00")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	LoadingStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SourceLabelStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SwitchBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta).
				Bold(true)

	PosStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)

// Token styles by language tag.
var (
	EnglishStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	SpanishStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	OtherLanguageStyle = lipgloss.NewStyle().
				Foreground(ColorWhite)
)

// LanguageStyle returns the token style for a language tag.
func LanguageStyle(lang string) lipgloss.Style {
	switch lang {
	case "eng":
		return EnglishStyle
	case "spa":
		return SpanishStyle
	default:
		return OtherLanguageStyle
	}
}
