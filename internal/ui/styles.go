package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/tut2nb/internal/config"
)

// StyleManager holds the styles of the cell browser and the conversion summary
type StyleManager struct {
	// Cell list
	Index    lipgloss.Style
	Code     lipgloss.Style
	Markdown lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style

	// Preview pane
	PreviewHeader   lipgloss.Style
	PreviewCode     lipgloss.Style
	PreviewMarkdown lipgloss.Style

	// Frame
	Border  lipgloss.Style
	Divider lipgloss.Style

	SelectedBg lipgloss.Color
}

// DefaultStyles is used until the config is loaded
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Index:           lipgloss.NewStyle().Bold(true),
		Code:            lipgloss.NewStyle(),
		Markdown:        lipgloss.NewStyle(),
		Selected:        lipgloss.NewStyle().Background(lipgloss.Color("236")),
		Cursor:          lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Dim:             lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		PreviewHeader:   lipgloss.NewStyle().Bold(true),
		PreviewCode:     lipgloss.NewStyle(),
		PreviewMarkdown: lipgloss.NewStyle(),
		Border:          lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		Divider:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SelectedBg:      lipgloss.Color("236"),
	}
}

// LoadFromConfig applies the color_* settings
func (s *StyleManager) LoadFromConfig() {
	headerColor := parseANSIColor(config.GetColorHeader())
	codeColor := parseANSIColor(config.GetColorCode())
	markdownColor := parseANSIColor(config.GetColorMarkdown())
	borderColor := lipgloss.Color(config.GetColorBorder())
	cursorColor := lipgloss.Color(config.GetColorCursor())
	selectedBg := lipgloss.Color(config.GetColorSelected())
	dimColor := lipgloss.Color(config.GetColorDim())

	s.Index = lipgloss.NewStyle().Foreground(headerColor)
	s.Code = lipgloss.NewStyle().Foreground(codeColor)
	s.Markdown = lipgloss.NewStyle().Foreground(markdownColor)
	s.Selected = lipgloss.NewStyle().Background(selectedBg)
	s.Cursor = lipgloss.NewStyle().Foreground(cursorColor)
	s.Dim = lipgloss.NewStyle().Foreground(dimColor)

	s.PreviewHeader = lipgloss.NewStyle().Bold(true).Foreground(headerColor)
	s.PreviewCode = lipgloss.NewStyle().Foreground(codeColor)
	s.PreviewMarkdown = lipgloss.NewStyle().Foreground(markdownColor)

	s.Border = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor)
	s.Divider = lipgloss.NewStyle().Foreground(borderColor)
	s.SelectedBg = selectedBg
}

// WithSelection adds the selected row background to style
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor maps ANSI foreground codes (31, 92) to palette indexes.
// Anything else is passed to lipgloss unchanged.
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}

var styles = DefaultStyles()

// RefreshStyles reloads styles from the config. Call it after getTTY so
// colors are detected on the right terminal.
func RefreshStyles() {
	styles.LoadFromConfig()
}
