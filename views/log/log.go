package log

import (
	"fmt"

	"ec-console/helpers"
	"ec-console/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Height is how many log lines fit below a screen of the given height.
func Height(height int) int {
	// header, nav, title and borders
	reserved := 10
	available := helpers.Max(5, height-reserved)
	return helpers.Min(available, helpers.Min(height/3, 15))
}

// Render renders the log panel. vp is resized to fit.
func Render(width, height int, vp viewport.Model) string {
	title := styles.TitleStyle.Render("Log")

	vp.Height = Height(height)

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(vp.Height + 2)

	if vp.TotalLineCount() > vp.Height {
		title += styles.MutedStyle.Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + "\n\n" + vp.View())
}
