package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/settings"
)

type palette struct {
	title    lipgloss.Style
	command  lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	notice   lipgloss.Style
	badges   map[console.Status]lipgloss.Style
}

func newPalette(r *lipgloss.Renderer, theme string) palette {
	fg, muted, accent := lipgloss.Color("#EEEEEE"), lipgloss.Color("#777777"), lipgloss.Color("#55FFFF")
	if theme == settings.ThemeLight {
		fg, muted, accent = lipgloss.Color("#1E1E1E"), lipgloss.Color("#888888"), lipgloss.Color("#0000AA")
	}
	badge := func(bg string) lipgloss.Style {
		return r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color(bg))
	}
	return palette{
		title:    r.NewStyle().Bold(true).Foreground(accent),
		command:  r.NewStyle().Foreground(fg).Bold(true),
		selected: r.NewStyle().Foreground(accent).Bold(true),
		muted:    r.NewStyle().Foreground(muted),
		notice:   r.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		badges: map[console.Status]lipgloss.Style{
			console.StatusUnknown: badge("#55FF55"),
			console.StatusError:   badge("#FF5555"),
			console.StatusInvalid: badge("#FFAA00"),
			console.StatusCom:     badge("#AAAAAA"),
		},
	}
}
