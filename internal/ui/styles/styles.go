// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // Status bar, file names
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, line numbers, placeholders

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused panes
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focused pane
	PaneTitleColor     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#C9C9C9"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Success states
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"} // Warnings
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Errors

	// Selection indicator color (used for ">" prefix in lists)
	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	SelectionBgColor        = lipgloss.AdaptiveColor{Light: "#D6EAF8", Dark: "#2D3436"}

	// Selection indicator style (used for ">" prefix in the file tree and sidebar)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
	SelectedRowStyle        = lipgloss.NewStyle().Background(SelectionBgColor)

	// Editor
	LineNumberStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	CursorStyle     = lipgloss.NewStyle().Reverse(true)

	// File tree
	DirectoryStyle = lipgloss.NewStyle().Foreground(BorderFocusColor).Bold(true)
	FileStyle      = lipgloss.NewStyle().Foreground(TextPrimaryColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)
	DirtyStyle   = lipgloss.NewStyle().Foreground(StatusWarningColor)
	AddedStyle   = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	RemovedStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	HintStyle    = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
)

// ApplyTheme applies custom UI colors. Empty strings keep the defaults.
// - accent: BorderFocusColor (focused pane, directories)
// - muted: TextMutedColor + BorderDefaultColor (hints, line numbers, borders)
func ApplyTheme(accent, muted string) {
	if accent != "" {
		BorderFocusColor = lipgloss.AdaptiveColor{Light: accent, Dark: accent}
		DirectoryStyle = DirectoryStyle.Foreground(BorderFocusColor)
	}
	if muted != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		BorderDefaultColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		LineNumberStyle = LineNumberStyle.Foreground(TextMutedColor)
		HintStyle = HintStyle.Foreground(TextMutedColor)
	}
}
