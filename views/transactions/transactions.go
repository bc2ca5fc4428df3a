package transactions

import (
	"strings"

	"ec-console/actions"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/styles"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

const ID = "transactions"

var Columns = []string{"hash", "address", "value", "confidence", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Tangle func(hash ledger.ID) tea.Cmd
	Copy   func(text string) tea.Cmd
}

// New declares the view of the transactions in one bundle.
func New(b *actions.Binder, h Handlers) *table.View[ledger.Transaction] {
	return table.MakeView(ID, Columns, func(tx ledger.Transaction, _ int) table.Row {
		key := tx.Hash.String()
		var controls []table.Control
		if h.Tangle != nil {
			controls = append(controls, b.Local("tangle", key, func() tea.Cmd { return h.Tangle(tx.Hash) }))
		}
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		value := "0"
		if tx.Value != nil {
			value = tx.Value.String()
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Text(helpers.ShortenID(tx.Address.String())),
			table.Text(value),
			table.Text(helpers.Percent(tx.Confidence)),
			table.Controls(controls...),
		}}
	})
}

// Breakdown renders the confidence each cluster peer has in tx.
func Breakdown(tx ledger.Transaction) string {
	title := styles.TitleStyle.Render("Confidence by peer")
	if len(tx.Confidences) == 0 {
		return title + "\n" + styles.MutedStyle.Render("No peer has referenced this transaction yet.")
	}
	tbl := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.CBorder)).
		Headers("peer", "confidence")
	for _, pc := range tx.Confidences {
		tbl = tbl.Row(helpers.ShortenID(pc.Actor.String()), helpers.Percent(pc.Confidence))
	}
	return title + "\n" + tbl.Render()
}

// Nav returns the navigation bar for the transactions view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("r")+" refresh",
		styles.Key("Esc")+" back",
		styles.Key("q")+" quit",
	)
}

// Render renders the transactions of bundle together with the breakdown of
// the selected one.
func Render(t table.Table, sel table.Selection, width int, bundle ledger.ID, selected *ledger.Transaction, loadedAt string) string {
	subtitle := "Open the status of a watched transfer to list its transactions."
	if bundle != "" {
		subtitle = "Bundle " + styles.Code(helpers.ShortenID(bundle.String()))
	}
	var b strings.Builder
	b.WriteString(table.Page("Transactions", subtitle, t, sel, width, table.Rows(t)+" · refreshed "+loadedAt))
	if selected != nil {
		b.WriteString("\n\n")
		b.WriteString(Breakdown(*selected))
	}
	return b.String()
}
