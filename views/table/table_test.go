package table

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	key string
	n   int
}

func newView() *View[rec] {
	return MakeView("numbers", []string{"key", "n", ""}, func(r rec, _ int) Row {
		return Row{Key: r.key, Cells: []Cell{Text(r.key), Text(strconv.Itoa(r.n)), Controls(Control{Label: "x", Key: r.key})}}
	})
}

func TestRender_EmptyStateIsOneRow(t *testing.T) {
	v := newView()

	tbl := v.Render(nil)
	assert.True(t, tbl.Empty)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"key", "n", ""}, tbl.Header)

	drawn := Draw(tbl, Selection{}, 0)
	assert.Contains(t, drawn, EmptyText)
	assert.Equal(t, "0 rows", Rows(tbl))
}

func TestMakeView_StartsNotLoaded(t *testing.T) {
	v := newView()

	cur := v.Current()
	assert.False(t, cur.Loaded)
	assert.Equal(t, 1, cur.Len())
	assert.Equal(t, "not loaded", Rows(cur))
	drawn := Draw(cur, Selection{}, 0)
	assert.Contains(t, drawn, NotLoadedText)
	assert.NotContains(t, drawn, EmptyText)
	assert.Nil(t, ControlsOf(cur, 0))

	require.True(t, v.Deliver(v.Begin(), nil))
	cur = v.Current()
	assert.True(t, cur.Loaded)
	assert.True(t, cur.Empty)
	assert.Contains(t, Draw(cur, Selection{}, 0), EmptyText)
}

func TestRender_OneRowPerRecordInOrder(t *testing.T) {
	v := newView()
	for _, n := range []int{1, 2, 7, 50} {
		records := make([]rec, n)
		for i := range records {
			records[i] = rec{key: "k" + strconv.Itoa(n-i), n: i}
		}
		tbl := v.Render(records)
		require.Len(t, tbl.Rows, n)
		assert.False(t, tbl.Empty)
		for i, r := range tbl.Rows {
			assert.Equal(t, records[i].key, r.Key)
		}
	}
}

func TestRender_ReplacesPriorContent(t *testing.T) {
	v := newView()
	require.True(t, v.Deliver(v.Begin(), []rec{{key: "a"}, {key: "b"}}))
	require.True(t, v.Deliver(v.Begin(), []rec{{key: "c"}}))

	cur := v.Current()
	require.Len(t, cur.Rows, 1)
	assert.Equal(t, "c", cur.Rows[0].Key)
}

func TestDeliver_LastIssuedWins(t *testing.T) {
	v := newView()
	first := v.Begin()
	second := v.Begin()
	assert.True(t, v.Pending())

	assert.True(t, v.Deliver(second, []rec{{key: "new"}}))
	assert.False(t, v.Deliver(first, []rec{{key: "stale"}}), "an older response must not overwrite a newer one")
	assert.False(t, v.Pending())

	assert.Equal(t, "new", v.Current().Rows[0].Key)
	assert.Equal(t, second, v.Current().Version)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	v := newView()
	r.Register(v)

	b, err := r.Lookup("numbers")
	require.NoError(t, err)
	assert.Equal(t, "numbers", b.ID())

	_, err = r.Lookup("missing")
	assert.True(t, errors.Is(err, ErrUnknownView))

	assert.Panics(t, func() { r.Register(newView()) })
	assert.Equal(t, []string{"numbers"}, r.IDs())
}

func TestDraw_HeaderAndRows(t *testing.T) {
	v := newView()
	tbl := v.Render([]rec{{key: "alpha", n: 117}, {key: "beta", n: 3}})

	out := Draw(tbl, Selection{Row: 1}, 60)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "117")
	assert.Contains(t, out, "beta")
	assert.False(t, strings.Contains(out, EmptyText))
}

func TestControlsOf(t *testing.T) {
	v := newView()
	tbl := v.Render([]rec{{key: "alpha"}})

	cs := ControlsOf(tbl, 0)
	require.Len(t, cs, 1)
	assert.Equal(t, "alpha", cs[0].Key)
	assert.Nil(t, ControlsOf(tbl, 3))
	assert.Nil(t, ControlsOf(v.Render(nil), 0))
}
