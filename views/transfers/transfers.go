package transfers

import (
	"context"

	"ec-console/actions"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/styles"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
)

const ID = "transfers"

var Columns = []string{"transfer", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Status func(head ledger.ID) tea.Cmd
	Copy   func(text string) tea.Cmd
}

// New declares the watched transfers view.
func New(b *actions.Binder, client *rpc.Client, h Handlers) *table.View[ledger.Transfer] {
	return table.MakeView(ID, Columns, func(t ledger.Transfer, _ int) table.Row {
		key := t.BundleHead.String()
		var controls []table.Control
		if h.Status != nil {
			controls = append(controls, b.Local("status", key, func() tea.Cmd { return h.Status(t.BundleHead) }))
		}
		controls = append(controls, b.Control("✘", Unwatch(client, t.BundleHead)))
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Controls(controls...),
		}}
	})
}

// Unwatch stops watching the bundle headed by head.
func Unwatch(client *rpc.Client, head ledger.ID) actions.Action {
	return actions.Action{
		Name:    rpc.ActionUnwatchTransfer,
		Key:     head.String(),
		Refresh: []string{ID},
		Run: func(ctx context.Context) (any, error) {
			return nil, client.UnwatchTransfer(ctx, head)
		},
	}
}

// Nav returns the navigation bar for the transfers view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("r")+" refresh",
		styles.Key("l")+" debug log",
		styles.Key("q")+" quit",
	)
}

// Render renders the transfers view
func Render(t table.Table, sel table.Selection, width int, loadedAt string) string {
	return table.Page("Transfers", "Bundles watched by the node", t, sel, width, table.Rows(t)+" · refreshed "+loadedAt)
}
