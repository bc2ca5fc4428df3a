package main

import (
	"strings"

	"ec-console/config"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/styles"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	logview "ec-console/views/log"
	"ec-console/views/markers"
	"ec-console/views/settings"
	"ec-console/views/tangle"
	"ec-console/views/transactions"
	"ec-console/views/transfers"
	"ec-console/views/wallet"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

var pageTitles = []string{"Wallet", "Actors", "Cluster", "Transfers", "Transactions", "Markers", "Tangle", "Settings"}

func (m *model) renderDeleteDialog() string {
	name := ""
	if m.selectedEndpoint < len(m.cfg.Endpoints) {
		name = m.cfg.Endpoints[m.selectedEndpoint].Name
	}
	msg := helpers.FadeString("Are you sure you want to delete the endpoint "+name+"?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	// Apply active style to the selected button
	var okButton, cancelButton string
	if m.deleteDialogYesSelected {
		okButton = activeButtonStyle.MarginRight(2).Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

// noticeWidth fits a full identifier on one line whenever the terminal has room.
func noticeWidth(w int) int {
	return helpers.Max(20, helpers.Min(ledger.IDLength+20, w-10))
}

// renderNotice shows the error notice on top of everything
func (m *model) renderNotice() string {
	n, _ := m.presenter.Current()

	width := noticeWidth(m.w)
	title := styles.ErrorStyle.Render("✘ " + n.Title)
	body := lipgloss.NewStyle().Width(width).Foreground(cText).Render(n.Body)
	help := styles.MutedStyle.Render("Press Enter or Esc to dismiss")

	ui := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.BorderForeground(lipgloss.Color("#FF5F56")).Render(ui),
	)
}

func (m *model) renderQRPanel() string {
	addr := m.qrAddress.String()
	content := styles.TitleStyle.Render("Address") + "\n\n" +
		helpers.QRCode(addr) + "\n" +
		styles.Code(addr) + "\n\n" +
		styles.MutedStyle.Render("Press c to copy • Esc or Enter to close")
	if m.copiedMsg != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render(m.copiedMsg)
	}
	centered := lipgloss.NewStyle().Width(helpers.Max(0, m.w-8)).Align(lipgloss.Center).Render(content)
	return styles.AppStyle.Render(lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		panelStyle.Width(helpers.Max(0, m.w-4)).Render(centered),
	))
}

func (m *model) globalHeader() string {
	availableWidth := helpers.Max(0, m.w-8) // Account for panel padding

	var seedDisplay string
	if m.seed != "" {
		seedDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Seed: " + helpers.FadeString(helpers.ShortenID(m.seed.String()), "#F25D94", "#EDFF82"))
	} else {
		seedDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Seed: not set")
	}

	// Node status: busy while any refresh is out
	endpoint, _ := m.cfg.Active()
	statusIcon := "●"
	statusColor := cAccent
	for _, n := range m.inflight {
		if n > 0 {
			statusIcon = m.spin.View()
			statusColor = cAccent2
			break
		}
	}
	nodeDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + endpoint.Name)

	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("ec console", "#7EE787", "#82CFFD"))

	seedWidth := lipgloss.Width(seedDisplay)
	nodeWidth := lipgloss.Width(nodeDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := seedWidth + nodeWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = seedDisplay + "\n" + titleText + "\n" + nodeDisplay
	} else {
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		headerLine = seedDisplay +
			strings.Repeat(" ", helpers.Max(1, leftPadding)) +
			titleText +
			strings.Repeat(" ", helpers.Max(1, rightPadding)) +
			nodeDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.CBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator + "\n" + m.tabs()
}

// tabs lists the pages with their number keys
func (m *model) tabs() string {
	out := make([]string, len(pageTitles))
	for i, t := range pageTitles {
		label := string(rune('1'+i)) + " " + t
		if config.Page(i) == m.activePage {
			out[i] = activeTabStyle.Render(label)
		} else {
			out[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

// pageContent renders the active page and its navigation bar
func (m *model) pageContent() (string, string) {
	width := m.w - 2
	tableWidth := helpers.Max(0, m.w-8)

	id, t, ok := m.currentView()
	sel := m.sel[id]

	var content, nav string
	switch m.activePage {
	case config.PageWallet:
		content = wallet.Render(t, sel, tableWidth, m.seed, wallet.Total(m.walletEntries), m.loadedAt(id))
		nav = wallet.Nav(width)
	case config.PageActors:
		content = actors.Render(t, sel, tableWidth, m.loadedAt(id))
		nav = actors.Nav(width)
	case config.PageCluster:
		content = cluster.Render(t, sel, tableWidth, m.loadedAt(id))
		nav = cluster.Nav(width)
	case config.PageTransfers:
		content = transfers.Render(t, sel, tableWidth, m.loadedAt(id))
		nav = transfers.Nav(width)
	case config.PageTransactions:
		content = transactions.Render(t, sel, tableWidth, m.bundle, m.selectedTransaction(), m.loadedAt(id))
		nav = transactions.Nav(width)
	case config.PageMarkers:
		content = markers.Render(t, sel, tableWidth, m.markersActor, m.loadedAt(id))
		nav = markers.Nav(width)
	case config.PageTangle:
		content = tangle.Render(t, sel, tableWidth, m.tangleRoot, m.tangleSummary)
		nav = tangle.Nav(width)
	case config.PageSettings:
		content = settings.Render(m.cfg, m.selectedEndpoint)
		nav = settings.Nav(width, m.settingsMode)
	}
	if !ok && m.activePage != config.PageSettings {
		content = styles.MutedStyle.Render("Nothing to show")
	}

	// Show form if one is open
	if m.form != nil {
		title := "Node Settings"
		if m.openForm != nil {
			title = m.openForm.title
		}
		content = styles.TitleStyle.Render(title) + "\n\n" + m.form.View()
		nav = styles.Nav(width,
			styles.Key("Tab")+" next field",
			styles.Key("Enter")+" next/submit",
			styles.Key("Esc")+" cancel",
			styles.Key("Ctrl+v")+" paste",
		)
	}

	if m.copiedMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render(m.copiedMsg)
	}
	return panelStyle.Width(helpers.Max(0, width)).Render(content), nav
}

func (m *model) View() string {
	if m.w == 0 {
		return m.spin.View() + " Loading…"
	}

	// Overlays in the same order Update routes keys
	if _, ok := m.presenter.Current(); ok {
		return m.renderNotice()
	}
	if m.qrAddress != "" && m.form == nil {
		return m.renderQRPanel()
	}
	if m.showDeleteDialog {
		return m.renderDeleteDialog()
	}

	headerPanel := panelStyle.Width(helpers.Max(0, m.w-2)).Render(m.globalHeader())
	pageContent, nav := m.pageContent()

	sections := []string{headerPanel, pageContent, nav}
	if m.logEnabled {
		// Keep the viewport height in sync with the rendered panel
		m.logViewport.Height = logview.Height(m.h)
		sections = append(sections, logview.Render(m.w, m.h, m.logViewport))
	}

	return styles.AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
