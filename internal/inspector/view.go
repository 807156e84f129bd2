package inspector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/careplus/careguide/internal/flags"
	"github.com/careplus/careguide/internal/styles"
)

// View renders the flag table.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	keyWidth := 0
	for _, row := range m.rows {
		if w := runewidth.StringWidth(row.Key); w > keyWidth {
			keyWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("CareGuide feature flags"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("space toggle · p phase · c clear all · y copy env · q quit"))
	b.WriteString("\n\n")

	for i, row := range m.rows {
		line := m.renderRow(row, keyWidth)
		if i == m.cursor {
			line = styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(ansi.Truncate(line, width, "…"))
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(ansi.Truncate(styles.StatusBar.Width(width).Render(m.statusMsg), width, "…"))
	}
	return b.String()
}

func (m *Model) renderRow(row flags.Status, keyWidth int) string {
	state := styles.Disabled.Render("off")
	if row.Enabled {
		state = styles.Enabled.Render("on ")
	}

	source := row.Source.String()
	if row.Source == flags.SourceOverride {
		source = styles.Accent.Render(source)
	} else {
		source = styles.Muted.Render(source)
	}

	return fmt.Sprintf("%s  P%d  %s  %s  %s",
		runewidth.FillRight(row.Key, keyWidth),
		row.Phase,
		state,
		source,
		styles.Muted.Render(row.Description),
	)
}
