package cluster

import (
	"context"
	"fmt"
	"strconv"

	"ec-console/actions"
	"ec-console/form"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/styles"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	ID          = "cluster"
	FormCluster = "cluster"
)

var Columns = []string{"address", "trust", "share", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Markers func(address ledger.ID) tea.Cmd
	Edit    func(e ledger.ClusterEntry) tea.Cmd
	Copy    func(text string) tea.Cmd
}

// New declares the cluster view.
func New(b *actions.Binder, client *rpc.Client, h Handlers) *table.View[ledger.ClusterEntry] {
	return table.MakeView(ID, Columns, func(e ledger.ClusterEntry, _ int) table.Row {
		key := e.Address.String()
		controls := []table.Control{b.Control("✘", Remove(client, e.Address))}
		if h.Markers != nil {
			controls = append(controls, b.Local("markers", key, func() tea.Cmd { return h.Markers(e.Address) }))
		}
		if h.Edit != nil {
			controls = append(controls, b.Local("trust", key, func() tea.Cmd { return h.Edit(e) }))
		}
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Text(helpers.Trust(e.TrustAbs)),
			table.Text(helpers.Percent(e.TrustRel)),
			table.Controls(controls...),
		}}
	})
}

// Remove drops the peer at address from the cluster by zeroing its trust.
func Remove(client *rpc.Client, address ledger.ID) actions.Action {
	return actions.Action{
		Name:    rpc.ActionSetTrust,
		Key:     address.String(),
		Refresh: []string{ID},
		Run: func(ctx context.Context) (any, error) {
			return nil, client.SetTrust(ctx, address, 0)
		},
	}
}

// Input backs the cluster form.
type Input struct {
	Address string
	Trust   string
}

// EditInput prefills the form from e.
func EditInput(e ledger.ClusterEntry) *Input {
	return &Input{Address: e.Address.String(), Trust: helpers.Trust(e.TrustAbs)}
}

func (in *Input) Fields() []*form.Field {
	return []*form.Field{
		{Name: "address", Label: "Address", Pattern: form.ID, Value: func() string { return in.Address }},
		{Name: "trust", Label: "Trust", Pattern: form.Trust, Value: func() string { return in.Trust }},
	}
}

// Apply submits the cluster form.
func Apply(client *rpc.Client, in *Input) actions.Action {
	return actions.Action{
		Name:    rpc.ActionSetTrust,
		Key:     in.Address,
		Form:    FormCluster,
		Refresh: []string{ID},
		Run: func(ctx context.Context) (any, error) {
			addr, err := ledger.ParseID(in.Address)
			if err != nil {
				return nil, fmt.Errorf("address: %w", err)
			}
			trust, err := strconv.ParseFloat(in.Trust, 64)
			if err != nil {
				return nil, fmt.Errorf("trust: %w", err)
			}
			return nil, client.SetTrust(ctx, addr, trust)
		},
	}
}

// Nav returns the navigation bar for the cluster view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("a")+" add peer",
		styles.Key("r")+" refresh",
		styles.Key("l")+" debug log",
		styles.Key("q")+" quit",
	)
}

// Render renders the cluster view
func Render(t table.Table, sel table.Selection, width int, loadedAt string) string {
	return table.Page("Cluster", "Trusted peers and their share of total trust", t, sel, width, table.Rows(t)+" · refreshed "+loadedAt)
}
