package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	cfg := config.Get()

	color := lipgloss.Color(m.color)
	highlight := lipgloss.NewStyle().Foreground(color)
	white := lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // ANSI white

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	labelStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	if m.picking {
		header := highlight.Render("󰝰 Open Audio File") + "\n" +
			dimStyle.Render(m.picker.CurrentDirectory) + "\n\n"
		content := borderStyle.Width(cfg.UI.MaxWidth).Render(header + m.picker.View())
		hint := mutedStyle.Render("enter: open  esc: cancel")
		// Hide any artwork while the picker covers the screen
		var deleteCmd string
		if m.supportsKitty {
			deleteCmd = "\033_Ga=d,d=A\033\\"
		}
		return deleteCmd + lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, "\n"+hint),
		)
	}

	var textContent strings.Builder
	var progressBarContent string

	track := m.player.Track()
	switch {
	case m.loading != "":
		textContent.WriteString(highlight.Render("󰓃 IndyAudio") + "\n\n")
		textContent.WriteString(mutedStyle.Render("Loading "+filepath.Base(m.loading)+"…") + "\n")

	case track == nil:
		textContent.WriteString(highlight.Render("󰓃 IndyAudio") + "\n\n")
		textContent.WriteString(mutedStyle.Render("No track loaded") + "\n\n")
		textContent.WriteString(dimStyle.Render("Press o to open a file"))

	default:
		textContent.WriteString(highlight.Render("󰓃 Now Playing") + "\n\n")

		addLine := func(label, value string) {
			if value != "" {
				textContent.WriteString(
					fmt.Sprintf("%s %s\n",
						labelStyle.Render(label),
						value,
					),
				)
			}
		}

		maxLen := m.textWidth(cfg)
		addLine("󰎈 ", scrollText(track.Display(), maxLen, m.scrollOffset))
		addLine("󰀥 ", scrollText(track.Album, maxLen, m.scrollOffset))

		statusIcon := "󰐊 "
		switch m.player.Status() {
		case StatusPaused:
			statusIcon = "󰏤 "
		case StatusStopped:
			statusIcon = "󰓛 "
		}
		addLine(statusIcon, string(m.player.Status()))

		// Bar width leaves room for "MM:SS / MM:SS"
		barWidth := cfg.UI.MaxWidth - 19
		filled, empty := barCells(barWidth, m.player.Progress())
		progressBar := highlight.Render(strings.Repeat("█", filled)) +
			white.Render(strings.Repeat("─", empty))

		progressBarContent = fmt.Sprintf(
			"\n%s %s",
			progressBar,
			highlight.Render(formatPosition(m.player.Elapsed(), m.player.Length())),
		)
	}

	if m.lastError != nil {
		textContent.WriteString("\n" + errorStyle.Render("Error: "+m.lastError.Error()))
	}

	// Combine artwork and text content
	var topSection string
	if m.artworkEncoded != "" && m.supportsKitty && cfg.Artwork.Enabled && track != nil {
		paddedText := lipgloss.NewStyle().
			PaddingLeft(cfg.Artwork.Padding).
			Render(textContent.String())

		topSection = m.artworkEncoded + paddedText
	} else if m.supportsKitty {
		// Send delete command for all images
		topSection = "\033_Ga=d,d=A\033\\" + textContent.String()
	} else {
		topSection = textContent.String()
	}

	mainContent := topSection + progressBarContent

	contentStr := borderStyle.
		Width(cfg.UI.MaxWidth).
		Render(mainContent)

	var helpText string
	if m.showHelp {
		helpText = lipgloss.NewStyle().
			Width(cfg.UI.MaxWidth).
			Align(lipgloss.Center).
			Render(lipgloss.JoinHorizontal(
				lipgloss.Center,
				"Play/Pause: "+highlight.Render("space"),
				"  Open: "+highlight.Render("o"),
				"  Seek: "+highlight.Render("←/→ 0-9"),
				"  Toggle Art: "+highlight.Render("a"),
				"  Quit: "+highlight.Render("q"),
				"  Hide: "+highlight.Render("?"),
			))
	} else {
		helpText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("Press ? for help")
	}

	fullUI := lipgloss.JoinVertical(lipgloss.Center, contentStr, "\n"+helpText)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		fullUI,
	)
}
