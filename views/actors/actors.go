package actors

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
	"ec-console/views/cluster"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	ID        = "actors"
	FormActor = "actor"
)

var Columns = []string{"address", "index", "capacity", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Mark  func(a ledger.Actor) tea.Cmd
	Trust func(a ledger.Actor) tea.Cmd
	Copy  func(text string) tea.Cmd
}

// New declares the actors view. The mark control is left out for actors
// without signatures left.
func New(b *actions.Binder, client *rpc.Client, h Handlers) *table.View[ledger.Actor] {
	return table.MakeView(ID, Columns, func(a ledger.Actor, _ int) table.Row {
		key := a.Address.String()
		controls := []table.Control{b.Control("✘", Delete(client, a.Address))}
		if h.Mark != nil && !a.Exhausted() {
			controls = append(controls, b.Local("mark", key, func() tea.Cmd { return h.Mark(a) }))
		}
		if h.Trust != nil {
			controls = append(controls, b.Local("trust", key, func() tea.Cmd { return h.Trust(a) }))
		}
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Text(strconv.FormatUint(a.MerkleTreeIndex, 10)),
			table.Text(strconv.FormatUint(a.MerkleTreeCapacity, 10)),
			table.Controls(controls...),
		}}
	})
}

// Delete removes the actor at address from the node.
func Delete(client *rpc.Client, address ledger.ID) actions.Action {
	return actions.Action{
		Name:    rpc.ActionDeleteActor,
		Key:     address.String(),
		Refresh: []string{ID},
		Run: func(ctx context.Context) (any, error) {
			return nil, client.DeleteActor(ctx, address)
		},
	}
}

// Input backs the actor form. Trust is optional; when set, the new actor
// is trusted right after it is created.
type Input struct {
	Seed     string
	Depth    string
	Index    string
	Security string
	Trust    string
}

// NewInput returns the form defaults.
func NewInput() *Input {
	return &Input{Depth: "3", Index: "0", Security: "2"}
}

func (in *Input) Fields() []*form.Field {
	return []*form.Field{
		{Name: "seed", Label: "Seed", Pattern: form.ID, Value: func() string { return in.Seed }},
		{Name: "depth", Label: "Merkle tree depth", Pattern: form.Depth, Value: func() string { return in.Depth }},
		{Name: "index", Label: "Start index", Pattern: form.Number, Value: func() string { return in.Index }},
		{Name: "security", Label: "Security level", Pattern: form.Security, Value: func() string { return in.Security }},
		{Name: "trust", Label: "Initial trust", Pattern: form.OptionalTrust, Value: func() string { return in.Trust }},
	}
}

// Request converts validated input.
func (in *Input) Request() (rpc.CreateActor, error) {
	var (
		req rpc.CreateActor
		err error
	)
	if req.Seed, err = ledger.ParseID(in.Seed); err != nil {
		return req, fmt.Errorf("seed: %w", err)
	}
	if req.Depth, err = strconv.Atoi(in.Depth); err != nil {
		return req, fmt.Errorf("depth: %w", err)
	}
	if req.Index, err = strconv.Atoi(in.Index); err != nil {
		return req, fmt.Errorf("index: %w", err)
	}
	if req.SecurityLevel, err = strconv.Atoi(in.Security); err != nil {
		return req, fmt.Errorf("security: %w", err)
	}
	return req, nil
}

// Create submits the actor form. The result is the new actor's address.
func Create(client *rpc.Client, in *Input) actions.Action {
	refresh := []string{ID}
	if in.Trust != "" {
		refresh = append(refresh, cluster.ID)
	}
	return actions.Action{
		Name:    rpc.ActionCreateActor,
		Key:     in.Seed + "/" + in.Index,
		Form:    FormActor,
		Refresh: refresh,
		Run: func(ctx context.Context) (any, error) {
			req, err := in.Request()
			if err != nil {
				return nil, err
			}
			addr, err := client.CreateActor(ctx, req)
			if err != nil {
				return nil, err
			}
			if in.Trust == "" {
				return addr, nil
			}
			// the actor exists from here on, so failures still reload the list
			trust, err := strconv.ParseFloat(in.Trust, 64)
			if err != nil {
				return addr, &actions.Partial{Err: fmt.Errorf("trust: %w", err), Refresh: []string{ID}}
			}
			if err := client.SetTrust(ctx, addr, trust); err != nil {
				return addr, &actions.Partial{Err: err, Refresh: []string{ID}}
			}
			return addr, nil
		},
	}
}

// Nav returns the navigation bar for the actors view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("a")+" create",
		styles.Key("r")+" refresh",
		styles.Key("l")+" debug log",
		styles.Key("q")+" quit",
	)
}

// Render renders the actors view
func Render(t table.Table, sel table.Selection, width int, loadedAt string) string {
	return table.Page("Actors", "Local signing identities", t, sel, width, table.Rows(t)+" · refreshed "+loadedAt)
}
