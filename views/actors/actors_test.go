package actors

import (
	"context"
	"strings"
	"testing"
	"time"

	"ec-console/actions"
	"ec-console/form"
	"ec-console/ledger"
	"ec-console/nodetest"
	"ec-console/rpc"
	"ec-console/views/cluster"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = ledger.ID(strings.Repeat("A", ledger.IDLength))

func newClient(t *testing.T) (*rpc.Client, *nodetest.Node) {
	t.Helper()
	node := nodetest.New(rpc.DefaultModulePath, "pw")
	srv, url := node.Serve()
	t.Cleanup(srv.Close)
	return rpc.New(rpc.Options{URL: url, Password: "pw", Timeout: 2 * time.Second}), node
}

func labels(cs []table.Control) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Label)
	}
	return out
}

func TestActorsView_HidesMarkWhenExhausted(t *testing.T) {
	client, _ := newClient(t)
	noop := func(ledger.Actor) tea.Cmd { return nil }
	v := New(actions.New(form.NewValidator(), false), client, Handlers{Mark: noop, Trust: noop})

	fresh := ledger.Actor{Address: nodetest.Address(seed, 1), MerkleTreeIndex: 1, MerkleTreeCapacity: 8}
	spent := ledger.Actor{Address: nodetest.Address(seed, 2), MerkleTreeIndex: 8, MerkleTreeCapacity: 8}
	v.Deliver(v.Begin(), []ledger.Actor{fresh, spent})

	tbl := v.Current()
	assert.Equal(t, []string{"address", "index", "capacity", ""}, tbl.Header)
	assert.Equal(t, []string{"✘", "mark", "trust"}, labels(table.ControlsOf(tbl, 0)))
	assert.Equal(t, []string{"✘", "trust"}, labels(table.ControlsOf(tbl, 1)))
	assert.Equal(t, "8", tbl.Rows[1].Cells[1].Text)
}

func TestDelete(t *testing.T) {
	client, node := newClient(t)
	a := nodetest.Address(seed, 1)
	node.AddActor(a, 0, 4)
	v := New(actions.New(form.NewValidator(), false), client, Handlers{})

	actors, err := client.GetActors(context.Background())
	require.NoError(t, err)
	v.Deliver(v.Begin(), actors)

	msg, ok := table.ControlsOf(v.Current(), 0)[0].Invoke()().(actions.DoneMsg)
	require.True(t, ok)
	assert.Equal(t, a.String(), msg.Key)

	actors, err = client.GetActors(context.Background())
	require.NoError(t, err)
	v.Deliver(v.Begin(), actors)
	assert.True(t, v.Current().Empty)
}

func TestCreate_WithTrustRefreshesCluster(t *testing.T) {
	client, node := newClient(t)
	validator := form.NewValidator()
	in := NewInput()
	in.Seed = seed.String()
	in.Trust = "1"
	validator.Register(FormActor, in.Fields()...)

	msg, ok := actions.New(validator, false).Submit(Create(client, in))().(actions.DoneMsg)
	require.True(t, ok)
	assert.Equal(t, []string{ID, cluster.ID}, msg.Refresh)

	addr, _ := msg.Result.(ledger.ID)
	assert.Equal(t, addr.String(), node.LastRequest(rpc.ActionSetTrust)["address"])

	actors, err := client.GetActors(context.Background())
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.EqualValues(t, 8, actors[0].MerkleTreeCapacity)
}

func TestCreate_WithoutTrust(t *testing.T) {
	client, node := newClient(t)
	validator := form.NewValidator()
	in := NewInput()
	in.Seed = seed.String()
	validator.Register(FormActor, in.Fields()...)

	msg, ok := actions.New(validator, false).Submit(Create(client, in))().(actions.DoneMsg)
	require.True(t, ok)
	assert.Equal(t, []string{ID}, msg.Refresh)
	assert.Zero(t, node.Calls(rpc.ActionSetTrust))
}

func TestCreate_BadDepthRejected(t *testing.T) {
	client, node := newClient(t)
	validator := form.NewValidator()
	in := NewInput()
	in.Seed = seed.String()
	in.Depth = "0"
	g := validator.Register(FormActor, in.Fields()...)

	_, ok := actions.New(validator, false).Submit(Create(client, in))().(actions.FailedMsg)
	require.True(t, ok)
	assert.Zero(t, node.Calls(rpc.ActionCreateActor))
	f, _ := g.Field("depth")
	assert.True(t, f.Invalid)
}

func TestCreate_TrustFailureStillReloadsActors(t *testing.T) {
	client, node := newClient(t)
	node.Fail(rpc.ActionSetTrust, "cluster locked")
	validator := form.NewValidator()
	in := NewInput()
	in.Seed = seed.String()
	in.Trust = "1"
	validator.Register(FormActor, in.Fields()...)

	msg, ok := actions.New(validator, true).Submit(Create(client, in))().(actions.FailedMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Err.Error(), "cluster locked")
	assert.Equal(t, []string{ID}, msg.Refresh)

	actors, err := client.GetActors(context.Background())
	require.NoError(t, err)
	assert.Len(t, actors, 1)
}
