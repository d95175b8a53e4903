package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(m.spin.View())
		b.WriteString(" " + subtleStyle.Render("thinking..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderFooter() string {
	// Typing a slash command shows the command list instead of status.
	if strings.HasPrefix(m.input.Value(), "/") && !m.busy {
		return subtleStyle.Render("/mode, /switch, /clear, /quit, /help")
	}

	left := "☂ parasol"
	mode := m.agent.Selector().Describe()

	var right string
	if m.busy {
		elapsed := time.Since(m.turnStart).Round(time.Second)
		right = fmt.Sprintf("%s · working %s · esc to cancel", mode, elapsed)
	} else {
		right = fmt.Sprintf("%s · %d turns · ctrl+c to quit", mode, m.turns)
	}

	w := m.width
	if w < 40 {
		w = 80
	}
	gap := w - runewidth.StringWidth(left) - runewidth.StringWidth(right) - 2
	if gap < 2 {
		gap = 2
	}
	return promptStyle.Render(left) + strings.Repeat(" ", gap) + subtleStyle.Render(right)
}

// wrapText wraps a string to fit within maxWidth display columns,
// correctly handling emoji and CJK characters.
func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}
	if len(text) == 0 {
		return []string{""}
	}
	if runewidth.StringWidth(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	for runewidth.StringWidth(text) > maxWidth {
		// Find the byte offset that fits within maxWidth display columns
		colW := 0
		byteOff := 0
		for i, r := range text {
			rw := runewidth.RuneWidth(r)
			if colW+rw > maxWidth {
				break
			}
			colW += rw
			byteOff = i + len(string(r))
		}
		if byteOff == 0 {
			// Single character wider than maxWidth; force advance
			byteOff = len(string([]rune(text)[0]))
		}
		// Try to break on a space within the last third
		cut := byteOff
		if idx := strings.LastIndex(text[:byteOff], " "); idx > byteOff/3 {
			cut = idx
		}
		lines = append(lines, text[:cut])
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		lines = append(lines, text)
	}
	return lines
}
