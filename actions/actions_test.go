package actions

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"ec-console/apperror"
	"ec-console/form"
	"ec-console/ledger"
	"ec-console/nodetest"
	"ec-console/rpc"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = ledger.ID(strings.Repeat("S", ledger.IDLength))

func newClient(t *testing.T) (*rpc.Client, *nodetest.Node) {
	t.Helper()
	node := nodetest.New(rpc.DefaultModulePath, "pw")
	srv, url := node.Serve()
	t.Cleanup(srv.Close)
	return rpc.New(rpc.Options{URL: url, Password: "pw", Timeout: 2 * time.Second}), node
}

func TestSubmit_ValidationBlocksGateway(t *testing.T) {
	client, node := newClient(t)
	v := form.NewValidator()

	receiver, value := "NOT-AN-ADDRESS", "5"
	g := v.Register("transfer",
		&form.Field{Name: "receiver", Label: "Receiver", Pattern: form.Anchored(ledger.IDPattern), Value: func() string { return receiver }},
		&form.Field{Name: "value", Label: "Value", Pattern: form.Anchored(`[0-9]+`), Value: func() string { return value }},
	)

	b := New(v, false)
	cmd := b.Submit(Action{
		Name: rpc.ActionSubmitTransfer,
		Form: "transfer",
		Run: func(ctx context.Context) (any, error) {
			return client.SubmitTransfer(ctx, rpc.Transfer{Seed: seed, Receiver: ledger.ID(receiver), Value: big.NewInt(5)})
		},
	})
	require.NotNil(t, cmd)

	msg, ok := cmd().(FailedMsg)
	require.True(t, ok)
	assert.True(t, apperror.Is(msg.Err, apperror.KindValidation))
	assert.Zero(t, node.Calls(rpc.ActionSubmitTransfer))
	assert.True(t, g.Fields[0].Invalid)
}

func TestControl_BindsKeyNotPosition(t *testing.T) {
	client, node := newClient(t)
	a := nodetest.Address(seed, 20)
	b2 := nodetest.Address(seed, 21)
	node.AddActor(a, 0, 8)
	node.AddActor(b2, 0, 8)

	binder := New(form.NewValidator(), false)
	del := func(addr ledger.ID) table.Control {
		return binder.Control("✘", Action{
			Name:    rpc.ActionDeleteActor,
			Key:     addr.String(),
			Refresh: []string{"actors"},
			Run: func(ctx context.Context) (any, error) {
				return nil, client.DeleteActor(ctx, addr)
			},
		})
	}

	first := []table.Control{del(a), del(b2)}
	// The collection is re-rendered in a different order before the click.
	_ = []table.Control{del(b2), del(a)}

	msg, ok := first[1].Invoke()().(DoneMsg)
	require.True(t, ok)
	assert.Equal(t, b2.String(), msg.Key)
	assert.Equal(t, []string{"actors"}, msg.Refresh)
	assert.Equal(t, b2.String(), node.LastRequest(rpc.ActionDeleteActor)["address"])

	actors, err := client.GetActors(context.Background())
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.Equal(t, a, actors[0].Address)
}

func TestSubmit_NodeErrorBecomesFailedMsg(t *testing.T) {
	client, _ := newClient(t)
	b := New(form.NewValidator(), false)
	missing := nodetest.Address(seed, 3)

	msg, ok := b.Submit(Action{
		Name: rpc.ActionDeleteActor,
		Key:  missing.String(),
		Run:  func(ctx context.Context) (any, error) { return nil, client.DeleteActor(ctx, missing) },
	})().(FailedMsg)
	require.True(t, ok)
	assert.True(t, apperror.Is(msg.Err, apperror.KindApplication))
}

func TestSubmit_PanicInRunIsReported(t *testing.T) {
	b := New(form.NewValidator(), false)
	msg, ok := b.Submit(Action{
		Name: "explode",
		Run:  func(context.Context) (any, error) { panic("bad") },
	})().(FailedMsg)
	require.True(t, ok)
	assert.True(t, apperror.Is(msg.Err, apperror.KindTransport))
}

func TestSubmit_GuardSingleOutstanding(t *testing.T) {
	b := New(form.NewValidator(), true)
	a := Action{Name: rpc.ActionUnwatchTransfer, Key: "K", Run: func(context.Context) (any, error) { return nil, nil }}

	cmd := b.Submit(a)
	require.NotNil(t, cmd)
	assert.True(t, b.InFlight(a.Name, a.Key))
	assert.Nil(t, b.Submit(a), "second submit while in flight is ignored")

	other := a
	other.Key = "L"
	assert.NotNil(t, b.Submit(other), "other keys are independent")

	b.Settle(cmd())
	assert.False(t, b.InFlight(a.Name, a.Key))
	assert.NotNil(t, b.Submit(a))
}

func TestSettle_RejectedResubmitKeepsGuard(t *testing.T) {
	v := form.NewValidator()
	value := "5"
	v.Register("balance", &form.Field{Name: "to_add", Label: "Amount", Pattern: form.Anchored(`-?[0-9]+`), Value: func() string { return value }})
	b := New(v, true)
	a := Action{Name: rpc.ActionChangeBalance, Key: "K", Form: "balance", Run: func(context.Context) (any, error) { return nil, nil }}

	first := b.Submit(a)
	require.NotNil(t, first)
	require.True(t, b.InFlight(a.Name, a.Key))

	value = "five"
	rejected, ok := b.Submit(a)().(FailedMsg)
	require.True(t, ok)
	assert.True(t, apperror.Is(rejected.Err, apperror.KindValidation))
	assert.Equal(t, "balance", rejected.Form)

	b.Settle(rejected)
	assert.True(t, b.InFlight(a.Name, a.Key))
	value = "5"
	assert.Nil(t, b.Submit(a), "first call still holds the guard")

	b.Settle(first())
	assert.False(t, b.InFlight(a.Name, a.Key))
}

func TestSubmit_PartialFailureCarriesRefresh(t *testing.T) {
	b := New(form.NewValidator(), true)
	cause := apperror.Application(rpc.ActionSetTrust, "cluster locked")
	a := Action{
		Name:    rpc.ActionCreateActor,
		Key:     "K",
		Form:    "actor",
		Refresh: []string{"actors", "cluster"},
		Run: func(context.Context) (any, error) {
			return nil, &Partial{Err: cause, Refresh: []string{"actors"}}
		},
	}

	msg, ok := b.Submit(a)().(FailedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"actors"}, msg.Refresh)
	assert.Equal(t, "actor", msg.Form)
	assert.True(t, apperror.Is(msg.Err, apperror.KindApplication))

	b.Settle(msg)
	assert.False(t, b.InFlight(a.Name, a.Key))
}

func TestLocal(t *testing.T) {
	b := New(form.NewValidator(), false)
	called := false
	c := b.Local("copy", "K", func() tea.Cmd { called = true; return nil })
	assert.Equal(t, "K", c.Key)
	assert.Nil(t, c.Invoke())
	assert.True(t, called)
}
