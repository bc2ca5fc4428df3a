package tangle

import (
	"fmt"
	"strconv"

	"ec-console/actions"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/styles"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const ID = "tangle"

var Columns = []string{"transaction", "value", "parents", "children", ""}

// Node is a tangle node with its link counts.
type Node struct {
	ledger.TangleNode
	Parents  int
	Children int
}

// Nodes counts the links of every node in g, keeping node order.
func Nodes(g ledger.TangleGraph) []Node {
	parents := map[ledger.ID]int{}
	children := map[ledger.ID]int{}
	for _, l := range g.Links {
		parents[l.Source]++
		children[l.Target]++
	}
	out := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, Node{TangleNode: n, Parents: parents[n.ID], Children: children[n.ID]})
	}
	return out
}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Open func(tx ledger.ID) tea.Cmd
	Copy func(text string) tea.Cmd
}

// New declares the ancestry view of one transaction.
func New(b *actions.Binder, h Handlers) *table.View[Node] {
	return table.MakeView(ID, Columns, func(n Node, _ int) table.Row {
		key := n.ID.String()
		var controls []table.Control
		if h.Open != nil {
			controls = append(controls, b.Local("open", key, func() tea.Cmd { return h.Open(n.ID) }))
		}
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Text(signStyle(n.Sign).Render(n.Sign.String())),
			table.Text(strconv.Itoa(n.Parents)),
			table.Text(strconv.Itoa(n.Children)),
			table.Controls(controls...),
		}}
	})
}

func signStyle(s ledger.ValueSign) lipgloss.Style {
	switch s {
	case ledger.ValuePositive:
		return lipgloss.NewStyle().Foreground(styles.CAccent)
	case ledger.ValueNegative:
		return lipgloss.NewStyle().Foreground(styles.CWarn)
	default:
		return styles.MutedStyle
	}
}

// Summary describes g in one line.
func Summary(g ledger.TangleGraph) string {
	c := g.Counts()
	return fmt.Sprintf("%d transactions (%d positive, %d negative, %d zero) · %d links · %d leave the projection",
		len(g.Nodes), c[ledger.ValuePositive], c[ledger.ValueNegative], c[ledger.ValueZero], len(g.Links), len(g.Dangling()))
}

// Nav returns the navigation bar for the tangle view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("Esc")+" back",
		styles.Key("q")+" quit",
	)
}

// Render renders the ancestry of root.
func Render(t table.Table, sel table.Selection, width int, root ledger.ID, summary string) string {
	subtitle := "Open the tangle of a transaction to explore its ancestry."
	if root != "" {
		subtitle = "Ancestry of " + styles.Code(helpers.ShortenID(root.String()))
	}
	return table.Page("Tangle", subtitle, t, sel, width, summary)
}
