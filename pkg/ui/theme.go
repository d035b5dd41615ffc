package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so the blit and every style helper can branch without
// re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background behind the status bar.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorBar     = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
)

// Theme holds the pre-built styles of the chrome around the frame.
type Theme struct {
	Renderer *lipgloss.Renderer

	Bar     lipgloss.Style
	Badge   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Overlay lipgloss.Style
}

// DefaultTheme returns the status bar and overlay styles.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{Renderer: r}
	t.Bar = r.NewStyle().Background(ColorBar).Foreground(ColorText)
	t.Badge = r.NewStyle().
		Background(ThemeBg("#6B47D9")).
		Foreground(ThemeFg("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
	t.Label = r.NewStyle().Background(ColorBar).Foreground(ColorMuted)
	t.Value = r.NewStyle().Background(ColorBar).Foreground(ColorText).Bold(true)
	t.Muted = r.NewStyle().Foreground(ColorMuted)
	t.Info = r.NewStyle().Background(ColorBar).Foreground(ColorInfo)
	t.Success = r.NewStyle().Background(ColorBar).Foreground(ColorSuccess)
	t.Warning = r.NewStyle().Background(ColorBar).Foreground(ColorWarning)
	t.Error = r.NewStyle().Background(ColorBar).Foreground(ColorDanger).Bold(true)
	t.Overlay = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ThemeFg("#BD93F9")).
		Padding(0, 1)
	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
