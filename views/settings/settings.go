package settings

import (
	"fmt"
	"strings"

	"ec-console/config"
	"ec-console/styles"

	"github.com/charmbracelet/lipgloss"
)

// Mode is what the settings screen is doing.
type Mode int

const (
	ModeList Mode = iota
	ModeAdd
	ModeEdit
)

// Input backs the endpoint form.
type Input struct {
	Name string
	URL  string
}

// Endpoint converts the input. The result is validated by the caller.
func (in *Input) Endpoint() config.Endpoint {
	return config.Endpoint{Name: strings.TrimSpace(in.Name), URL: strings.TrimSpace(in.URL)}
}

// Nav returns the navigation bar for settings view
func Nav(width int, mode Mode) string {
	if mode != ModeList {
		return styles.Nav(width,
			styles.Key("Tab")+" next field",
			styles.Key("Enter")+" save",
			styles.Key("Esc")+" cancel",
		)
	}
	return styles.Nav(width,
		styles.Key("↑/↓")+" select",
		styles.Key("Enter")+" activate",
		styles.Key("a")+" add",
		styles.Key("e")+" edit",
		styles.Key("d")+" delete",
		styles.Key("l")+" debug log",
		styles.Key("Esc")+" back",
	)
}

// Render renders the node endpoint settings
func Render(cfg *config.Config, selectedIdx int) string {
	h := styles.TitleStyle.Render("Node Settings")
	lines := []string{h, ""}

	if len(cfg.Endpoints) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No endpoints configured."))
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("a")+styles.MutedStyle.Render(" to add the first one."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, styles.MutedStyle.Render("Configured endpoints:"))
	lines = append(lines, "")

	for i, e := range cfg.Endpoints {
		var marker string
		if e.Active {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
		} else {
			marker = styles.MutedStyle.Render("○ ")
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := styles.MutedStyle

		if i == selectedIdx {
			nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
			urlStyle = urlStyle.Background(styles.CPanel)
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
		}

		lines = append(lines, marker+nameStyle.Render(e.Name))
		lines = append(lines, "  "+urlStyle.Render(e.URL))
		lines = append(lines, "")
	}

	lines = append(lines, styles.MutedStyle.Render(fmt.Sprintf(
		"module %s · timeout %s · auto-refresh %s",
		cfg.ModulePath, cfg.Timeout(), refreshLabel(cfg),
	)))
	return strings.Join(lines, "\n")
}

func refreshLabel(cfg *config.Config) string {
	if cfg.RefreshInterval() == 0 {
		return "off"
	}
	return cfg.RefreshInterval().String()
}
