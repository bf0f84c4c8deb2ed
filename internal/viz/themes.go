package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view. Bodies cycles when there
// are more bodies than colours.
type Theme struct {
	Name    string
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Bodies  []lipgloss.Color
}

func (t Theme) Body(k int) lipgloss.Color {
	if len(t.Bodies) == 0 {
		return t.Text
	}
	return t.Bodies[k%len(t.Bodies)]
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Accent:  lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Warning: lipgloss.Color("#ff8800"),
		Bodies:  []lipgloss.Color{"#ff00ff", "#00ffff", "#ffff00", "#00ff00", "#ff8800"},
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
		Bodies:  []lipgloss.Color{"#00ff00", "#88ff88", "#00cc00"},
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
		Bodies:  []lipgloss.Color{"#ffffff"},
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Warning: lipgloss.Color("#ffcc00"),
		Bodies:  []lipgloss.Color{"#0077be", "#00a8cc", "#ffd700", "#00ff88"},
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Accent:  lipgloss.Color("#ff9ff3"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Warning: lipgloss.Color("#ffc048"),
		Bodies:  []lipgloss.Color{"#ff6b6b", "#feca57", "#ff9ff3", "#5fd068"},
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// NextTheme is the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
