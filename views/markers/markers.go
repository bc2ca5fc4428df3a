package markers

import (
	"context"
	"fmt"

	"ec-console/actions"
	"ec-console/form"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/styles"
	"ec-console/views/actors"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	ID         = "markers"
	FormMarker = "marker"
)

var Columns = []string{"ref1", "ref2", "confidence", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Copy func(text string) tea.Cmd
}

// New declares the markers view of one actor. Markers have no identity of
// their own, so rows are keyed by position and references.
func New(b *actions.Binder, h Handlers) *table.View[ledger.Marker] {
	return table.MakeView(ID, Columns, func(m ledger.Marker, pos int) table.Row {
		key := fmt.Sprintf("%d/%s/%s", pos, m.Ref1, m.Ref2)
		var controls []table.Control
		if h.Copy != nil {
			refs := m.Ref1.String() + "," + m.Ref2.String()
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(refs) }))
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(m.Ref1.String())),
			table.Text(helpers.ShortenID(m.Ref2.String())),
			table.Text(helpers.Percent(m.Confidence)),
			table.Controls(controls...),
		}}
	})
}

// Input backs the marker form. Empty references let the actor choose.
type Input struct {
	Actor  string
	Trunk  string
	Branch string
}

func (in *Input) Fields() []*form.Field {
	return []*form.Field{
		{Name: "actor", Label: "Actor", Pattern: form.ID, Value: func() string { return in.Actor }},
		{Name: "trunk", Label: "Trunk", Pattern: form.OptionalID, Value: func() string { return in.Trunk }},
		{Name: "branch", Label: "Branch", Pattern: form.OptionalID, Value: func() string { return in.Branch }},
	}
}

// Issue submits the marker form. Issuing spends a leaf of the actor's
// Merkle tree, so the actors view is reloaded as well.
func Issue(client *rpc.Client, in *Input) actions.Action {
	return actions.Action{
		Name:    rpc.ActionIssueMarker,
		Key:     in.Actor,
		Form:    FormMarker,
		Refresh: []string{ID, actors.ID},
		Run: func(ctx context.Context) (any, error) {
			actor, err := ledger.ParseID(in.Actor)
			if err != nil {
				return nil, fmt.Errorf("actor: %w", err)
			}
			return nil, client.IssueMarker(ctx, actor, in.Trunk, in.Branch)
		},
	}
}

// Nav returns the navigation bar for the markers view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("Enter")+" copy",
		styles.Key("m")+" issue",
		styles.Key("r")+" refresh",
		styles.Key("Esc")+" back",
		styles.Key("q")+" quit",
	)
}

// Render renders the markers of actor
func Render(t table.Table, sel table.Selection, width int, actor ledger.ID, loadedAt string) string {
	subtitle := "Open the markers of a cluster peer to list them here."
	if actor != "" {
		subtitle = "Markers issued by " + styles.Code(helpers.ShortenID(actor.String()))
	}
	return table.Page("Markers", subtitle, t, sel, width, table.Rows(t)+" · refreshed "+loadedAt)
}
