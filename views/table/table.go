// Package table binds record collections to on-screen tables.
package table

import (
	"errors"
	"fmt"
	"strings"

	"ec-console/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// EmptyText fills the single row of a table with no records.
const EmptyText = "no data"

// NotLoadedText fills the single row of a table no response has reached.
const NotLoadedText = "not loaded yet"

// ErrUnknownView is returned by Registry.Lookup.
var ErrUnknownView = errors.New("unknown view")

// Control is an interactive element inside a cell. Invoke runs on the
// Update thread.
type Control struct {
	Label  string
	Key    string
	Invoke func() tea.Cmd
}

// Cell is either text or a row of controls.
type Cell struct {
	Text     string
	Controls []Control
}

// Text is a plain cell.
func Text(s string) Cell { return Cell{Text: s} }

// Controls is a cell holding controls.
func Controls(cs ...Control) Cell { return Cell{Controls: cs} }

// Row is one serialized record.
type Row struct {
	Key   string
	Cells []Cell
}

// Table is the rendered content of a view.
type Table struct {
	View    string
	Header  []string
	Rows    []Row
	Empty   bool
	Version uint64
	// Loaded is false until records have been rendered into the table.
	// An unloaded table is also Empty.
	Loaded bool
}

// Len is the number of body rows, counting the empty-state row.
func (t Table) Len() int {
	if t.Empty {
		return 1
	}
	return len(t.Rows)
}

// Row returns the body row with key.
func (t Table) Row(key string) (Row, int, bool) {
	for i, r := range t.Rows {
		if r.Key == key {
			return r, i, true
		}
	}
	return Row{}, -1, false
}

// Binding is the type-erased side of a View.
type Binding interface {
	ID() string
	Current() Table
}

// View turns records of type T into a Table.
type View[T any] struct {
	id        string
	columns   []string
	serialize func(rec T, pos int) Row

	issued  uint64
	applied uint64
	current Table
}

// MakeView declares a view. The table starts out not loaded.
func MakeView[T any](id string, columns []string, serialize func(rec T, pos int) Row) *View[T] {
	v := &View[T]{id: id, columns: append([]string(nil), columns...), serialize: serialize}
	v.current = Table{View: id, Header: v.columns, Empty: true}
	return v
}

func (v *View[T]) ID() string { return v.id }

// Current is the last applied table.
func (v *View[T]) Current() Table { return v.current }

// Render builds a fresh table from records in order.
func (v *View[T]) Render(records []T) Table {
	t := Table{View: v.id, Header: v.columns, Version: v.applied, Loaded: true}
	if len(records) == 0 {
		t.Empty = true
		return t
	}
	t.Rows = make([]Row, 0, len(records))
	for i, rec := range records {
		t.Rows = append(t.Rows, v.serialize(rec, i))
	}
	return t
}

// Begin issues a ticket for a refresh about to be dispatched.
func (v *View[T]) Begin() uint64 {
	v.issued++
	return v.issued
}

// Deliver renders records for ticket unless a later-issued refresh has
// already been applied. It reports whether the table changed.
func (v *View[T]) Deliver(ticket uint64, records []T) bool {
	if ticket <= v.applied {
		return false
	}
	v.applied = ticket
	v.current = v.Render(records)
	return true
}

// Pending reports whether a refresh was issued and has not been applied.
func (v *View[T]) Pending() bool { return v.issued > v.applied }

// Registry holds the views of one program run.
type Registry struct {
	views map[string]Binding
	order []string
}

func NewRegistry() *Registry {
	return &Registry{views: map[string]Binding{}}
}

// Register adds b. Registering the same id twice is a programming error.
func (r *Registry) Register(b Binding) {
	if _, dup := r.views[b.ID()]; dup {
		panic(fmt.Sprintf("table: view %q registered twice", b.ID()))
	}
	r.views[b.ID()] = b
	r.order = append(r.order, b.ID())
}

// Lookup finds a view by id.
func (r *Registry) Lookup(id string) (Binding, error) {
	b, ok := r.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, id)
	}
	return b, nil
}

// IDs lists registered views in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Selection points at a row and, within it, a control.
type Selection struct {
	Row     int
	Control int
}

var (
	headerStyle   = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Foreground(styles.CText).Padding(0, 1)
	selectedStyle = cellStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
	emptyStyle    = cellStyle.Foreground(styles.CMuted).Italic(true)
	controlStyle  = lipgloss.NewStyle().Foreground(styles.CMuted)
	focusStyle    = lipgloss.NewStyle().Foreground(styles.CBg).Background(styles.CAccent).Bold(true)
)

// Draw renders t with the selected row and control highlighted.
func Draw(t Table, sel Selection, width int) string {
	tbl := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.CBorder)).
		Headers(t.Header...)
	if width > 0 {
		tbl = tbl.Width(width)
	}

	if t.Empty {
		row := make([]string, len(t.Header))
		if len(row) > 0 {
			row[0] = EmptyText
			if !t.Loaded {
				row[0] = NotLoadedText
			}
		}
		tbl = tbl.Row(row...).StyleFunc(func(r, _ int) lipgloss.Style {
			if r == ltable.HeaderRow {
				return headerStyle
			}
			return emptyStyle
		})
		return tbl.Render()
	}

	for i, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		n := 0
		for j, c := range r.Cells {
			if c.Controls == nil {
				cells[j] = c.Text
				continue
			}
			labels := make([]string, len(c.Controls))
			for k, ctl := range c.Controls {
				if i == sel.Row && n == sel.Control {
					labels[k] = focusStyle.Render(ctl.Label)
				} else {
					labels[k] = controlStyle.Render(ctl.Label)
				}
				n++
			}
			cells[j] = strings.Join(labels, " ")
		}
		tbl = tbl.Row(cells...)
	}
	tbl = tbl.StyleFunc(func(r, _ int) lipgloss.Style {
		switch {
		case r == ltable.HeaderRow:
			return headerStyle
		case r == sel.Row:
			return selectedStyle
		default:
			return cellStyle
		}
	})
	return tbl.Render()
}

// ControlsOf returns the controls of row i, across all cells.
func ControlsOf(t Table, i int) []Control {
	if t.Empty || i < 0 || i >= len(t.Rows) {
		return nil
	}
	var out []Control
	for _, c := range t.Rows[i].Cells {
		out = append(out, c.Controls...)
	}
	return out
}

// Page renders a titled screen around t. Status goes below the table.
func Page(title, subtitle string, t Table, sel Selection, width int, status string) string {
	header := styles.TitleStyle.Render(title)
	if subtitle != "" {
		header += "\n" + styles.MutedStyle.Render(subtitle)
	}
	body := header + "\n\n" + Draw(t, sel, width)
	if status != "" {
		body += "\n\n" + styles.MutedStyle.Render(status)
	}
	return body
}

// Rows counts the records behind t.
func Rows(t Table) string {
	if !t.Loaded {
		return "not loaded"
	}
	if t.Empty {
		return "0 rows"
	}
	if len(t.Rows) == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", len(t.Rows))
}
