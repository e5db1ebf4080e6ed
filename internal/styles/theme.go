package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color scheme for the application
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color

	TextPrimary lipgloss.Color
	TextMuted   lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border lipgloss.Color

	// Mode badges
	ModeChat     lipgloss.Color
	ModeGenerate lipgloss.Color
}

var DarkTheme = Theme{
	Primary:   lipgloss.Color("#80CBC4"), // Teal 200
	Secondary: lipgloss.Color("#90CAF9"), // Blue 200

	TextPrimary: lipgloss.Color("#F1F5F9"),
	TextMuted:   lipgloss.Color("#64748B"),

	Success: lipgloss.Color("#34D399"),
	Warning: lipgloss.Color("#FBBF24"),
	Error:   lipgloss.Color("#FB7185"),

	Border: lipgloss.Color("#333333"),

	ModeChat:     lipgloss.Color("#81D4FA"),
	ModeGenerate: lipgloss.Color("#FFCC80"),
}

var LightTheme = Theme{
	Primary:   lipgloss.Color("#00897B"), // Teal 600
	Secondary: lipgloss.Color("#1E88E5"), // Blue 600

	TextPrimary: lipgloss.Color("#18181B"),
	TextMuted:   lipgloss.Color("#A1A1AA"),

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),

	Border: lipgloss.Color("#E4E4E7"),

	ModeChat:     lipgloss.Color("#0288D1"),
	ModeGenerate: lipgloss.Color("#EF6C00"),
}

// CurrentTheme holds the active theme (set at runtime based on terminal)
var CurrentTheme = DarkTheme

// InitTheme sets the current theme based on terminal background
func InitTheme() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}

// ModeBadge renders the status bar badge for a mode name.
func ModeBadge(mode string, generate bool) string {
	bg := CurrentTheme.ModeChat
	if generate {
		bg = CurrentTheme.ModeGenerate
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(bg).
		Padding(0, 1).
		Render(mode)
}

// IsDark reports whether the dark theme is active.
func IsDark() bool {
	return CurrentTheme == DarkTheme
}
