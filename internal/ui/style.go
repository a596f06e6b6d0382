package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Primary colors
	PrimaryColor   = "#7C3AED" // Vibrant purple
	SecondaryColor = "#2563EB" // Deep blue

	// Status colors
	SuccessColor = "#10B981" // Emerald green
	ErrorColor   = "#EF4444" // Red
	WarningColor = "#F59E0B" // Amber
	InfoColor    = "#3B82F6" // Blue

	// Text colors
	HeaderColor  = "#F9FAFB" // Near white
	TextColor    = "#E5E7EB" // Light gray
	DimTextColor = "#9CA3AF" // Dimmed gray

	// Border and accents
	BorderColor        = "#374151" // Dark gray border
	HighlightColor     = "#8B5CF6" // Bright purple for highlights
	AlternatingRowDark = "#1F2937" // Slightly lighter than background

	// Language colors
	PythonColor     = "#3776AB"
	JavaScriptColor = "#F7DF1E"
	CColor          = "#EF4444"
	WasmColor       = "#654FF0"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(HeaderColor)).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(SuccessColor))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ErrorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(WarningColor))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(InfoColor))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(DimTextColor))

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(PrimaryColor)).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(SecondaryColor)).
			MarginBottom(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(BorderColor)).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(HeaderColor))

	TableRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(TextColor))

	// Node currently visited by the traversal animation
	ActiveNodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(HeaderColor)).
			Background(lipgloss.Color(HighlightColor)).
			Bold(true)
)

// LanguageColor returns the color a language is drawn with.
func LanguageColor(language string) string {
	switch strings.ToLower(language) {
	case "python", "py":
		return PythonColor
	case "javascript", "js":
		return JavaScriptColor
	case "c":
		return CColor
	case "wasm":
		return WasmColor
	default:
		return TextColor
	}
}

// LanguageStyle is the node style for a language.
func LanguageStyle(language string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(LanguageColor(language))).
		Bold(true)
}

// Terminal width detection (for responsive layouts)
func TerminalWidth() int {
	return 80
}

// Check if we're in a CI environment
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("TRAVIS") != ""
}

// Center text on the terminal line
func CenterText(text string) string {
	width := TerminalWidth()
	padding := (width - lipgloss.Width(text)) / 2
	if padding < 0 {
		padding = 0
	}
	return fmt.Sprintf("%s%s", strings.Repeat(" ", padding), text)
}
