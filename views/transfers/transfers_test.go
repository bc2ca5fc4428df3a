package transfers

import (
	"context"
	"strings"
	"testing"
	"time"

	"ec-console/actions"
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

func TestTransfersView_StatusAndUnwatch(t *testing.T) {
	node := nodetest.New(rpc.DefaultModulePath, "pw")
	srv, url := node.Serve()
	defer srv.Close()
	client := rpc.New(rpc.Options{URL: url, Password: "pw", Timeout: 2 * time.Second})

	head := ledger.ID(strings.Repeat("H", ledger.IDLength))
	node.Watch(head)

	var opened ledger.ID
	v := New(actions.New(form.NewValidator(), false), client, Handlers{
		Status: func(h ledger.ID) tea.Cmd { opened = h; return nil },
	})
	list, err := client.GetTransfers(context.Background())
	require.NoError(t, err)
	v.Deliver(v.Begin(), list)

	tbl := v.Current()
	assert.Equal(t, []string{"transfer", ""}, tbl.Header)
	controls := table.ControlsOf(tbl, 0)
	require.Len(t, controls, 2)

	controls[0].Invoke()
	assert.Equal(t, head, opened)

	msg, ok := controls[1].Invoke()().(actions.DoneMsg)
	require.True(t, ok)
	assert.Equal(t, []string{ID}, msg.Refresh)

	// a second unwatch of the same bundle is refused by the node
	failed, ok := controls[1].Invoke()().(actions.FailedMsg)
	require.True(t, ok)
	assert.True(t, apperror.Is(failed.Err, apperror.KindApplication))
}
