package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ec-console/actions"
	"ec-console/apperror"
	"ec-console/config"
	"ec-console/ledger"
	"ec-console/nodetest"
	"ec-console/rpc"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	"ec-console/views/markers"
	"ec-console/views/transfers"
	"ec-console/views/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeed = ledger.ID(strings.Repeat("9", ledger.IDLength))

func newTestModel(t *testing.T) (*model, *nodetest.Node) {
	t.Helper()
	node := nodetest.New(rpc.DefaultModulePath, "pw")
	srv, url := node.Serve()
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Endpoints:      []config.Endpoint{{Name: "test", URL: url, Active: true}},
		ModulePath:     rpc.DefaultModulePath,
		Password:       "pw",
		TimeoutSeconds: 2,
		GuardActions:   true,
	}
	return newModel(cfg, filepath.Join(t.TempDir(), "config.json"), testSeed), node
}

func update(t *testing.T, m *model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func TestRefresh_StaleResponseIsDropped(t *testing.T) {
	m, node := newTestModel(t)

	first := m.refreshView(actors.ID)
	staleMsg := first()

	node.AddActor(nodetest.Address(testSeed, 1), 0, 8)
	second := m.refreshView(actors.ID)
	freshMsg := second()

	update(t, m, freshMsg)
	update(t, m, staleMsg)

	tbl := m.actorsView.Current()
	require.False(t, tbl.Empty)
	assert.Len(t, tbl.Rows, 1)
	assert.Equal(t, 0, m.inflight[actors.ID])
	assert.Contains(t, m.logBuffer.String(), "Dropped stale actors response #1")
}

func TestRefresh_WalletNeedsSeed(t *testing.T) {
	m, _ := newTestModel(t)
	m.seed = ""

	assert.Nil(t, m.refreshView(wallet.ID))
	assert.Equal(t, 0, m.inflight[wallet.ID])
}

func TestRefresh_ErrorIsPresented(t *testing.T) {
	m, node := newTestModel(t)
	node.Fail(rpc.ActionGetCluster, "module not loaded")

	update(t, m, m.refreshView(cluster.ID)())

	n, ok := m.presenter.Current()
	require.True(t, ok)
	assert.Equal(t, apperror.KindApplication, n.Kind)
	assert.Contains(t, n.Body, "module not loaded")
	assert.Equal(t, "never", m.loadedAt(cluster.ID))
}

func TestDone_RefreshesNamedViews(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := update(t, m, actions.DoneMsg{
		Action:  rpc.ActionUnwatchTransfer,
		Key:     "X",
		Refresh: []string{transfers.ID, actors.ID},
	})

	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.inflight[transfers.ID])
	assert.Equal(t, 1, m.inflight[actors.ID])
	assert.Equal(t, 0, m.inflight[cluster.ID])
}

func TestDone_UseSeed(t *testing.T) {
	m, _ := newTestModel(t)
	next := ledger.ID(strings.Repeat("B", ledger.IDLength))

	update(t, m, actions.DoneMsg{Action: wallet.ActionUseSeed, Refresh: []string{wallet.ID}, Result: next})

	assert.Equal(t, next, m.seed)
	assert.Equal(t, 1, m.inflight[wallet.ID])
}

func TestFailedValidation_ReopensFormMarked(t *testing.T) {
	m, node := newTestModel(t)

	m.openClusterForm(&cluster.Input{Address: "not-an-address", Trust: "1"})
	require.NotNil(t, m.openForm)

	cmd := m.submitForm()
	require.NotNil(t, cmd)
	assert.Nil(t, m.form)

	update(t, m, cmd())
	n, ok := m.presenter.Current()
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, n.Kind)
	assert.NotNil(t, m.rejected)
	assert.Zero(t, node.Calls(rpc.ActionSetTrust))

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, ok = m.presenter.Current()
	assert.False(t, ok)
	require.NotNil(t, m.form)
	require.NotNil(t, m.openForm)
	assert.Equal(t, cluster.FormCluster, m.openForm.id)
	assert.Nil(t, m.rejected)

	g, ok := m.validator.Group(cluster.FormCluster)
	require.True(t, ok)
	f, ok := g.Field("address")
	require.True(t, ok)
	assert.True(t, f.Invalid)
}

func TestFailedNodeError_DropsForm(t *testing.T) {
	m, node := newTestModel(t)
	node.Fail(rpc.ActionSetTrust, "refused")

	m.openClusterForm(&cluster.Input{Address: nodetest.Address(testSeed, 3).String(), Trust: "1"})
	cmd := m.submitForm()
	require.NotNil(t, cmd)

	update(t, m, cmd())
	_, ok := m.presenter.Current()
	require.True(t, ok)
	assert.Nil(t, m.rejected)
	assert.Empty(t, m.pending)

	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.form)
}

func TestSettledAction_LeavesLaterFormOpen(t *testing.T) {
	m, node := newTestModel(t)
	funded := nodetest.Address(testSeed, 1)
	peer := nodetest.Address(testSeed, 2)

	m.openBalanceForm(&wallet.BalanceInput{Address: funded.String(), ToAdd: "5"})
	balance := m.submitForm()
	require.NotNil(t, balance)

	m.openClusterForm(&cluster.Input{Address: peer.String(), Trust: "1"})
	require.NotNil(t, m.form)

	// the balance change lands while the cluster form is being filled in
	update(t, m, balance())
	require.NotNil(t, m.openForm)
	assert.Equal(t, cluster.FormCluster, m.openForm.id)
	require.NotNil(t, m.form)

	trust := m.submitForm()
	require.NotNil(t, trust)
	done, ok := trust().(actions.DoneMsg)
	require.True(t, ok)
	assert.Equal(t, cluster.FormCluster, done.Form)
	assert.Equal(t, 1, node.Calls(rpc.ActionSetTrust))
	assert.Equal(t, 1, node.Calls(rpc.ActionChangeBalance))
}

func TestFailedAfterStateChange_Refreshes(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := update(t, m, actions.FailedMsg{
		Action:  rpc.ActionCreateActor,
		Key:     "K",
		Refresh: []string{actors.ID},
		Err:     apperror.Application(rpc.ActionSetTrust, "cluster locked"),
	})

	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.inflight[actors.ID])
	_, ok := m.presenter.Current()
	assert.True(t, ok)
}

func TestDone_IssueMarkerRefreshesShownActorOnly(t *testing.T) {
	m, _ := newTestModel(t)
	shown := nodetest.Address(testSeed, 1)
	other := nodetest.Address(testSeed, 2)
	m.markersActor = shown

	update(t, m, actions.DoneMsg{Action: rpc.ActionIssueMarker, Key: other.String(), Refresh: []string{markers.ID, actors.ID}})
	assert.Equal(t, 0, m.inflight[markers.ID])
	assert.Equal(t, 1, m.inflight[actors.ID])

	update(t, m, actions.DoneMsg{Action: rpc.ActionIssueMarker, Key: shown.String(), Refresh: []string{markers.ID, actors.ID}})
	assert.Equal(t, 1, m.inflight[markers.ID])
	assert.Equal(t, 2, m.inflight[actors.ID])
}

func TestSelection_FollowsRecordAcrossRefresh(t *testing.T) {
	m, node := newTestModel(t)
	first := nodetest.Address(testSeed, 1)
	second := nodetest.Address(testSeed, 2)
	node.AddActor(first, 0, 8)
	node.AddActor(second, 0, 8)

	m.activePage = config.PageActors
	update(t, m, m.refreshView(actors.ID)())
	update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.sel[actors.ID].Row)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.client.DeleteActor(ctx, first))

	update(t, m, m.refreshView(actors.ID)())
	assert.Equal(t, 0, m.sel[actors.ID].Row)
	assert.Equal(t, second.String(), m.selKey[actors.ID])
}

func TestPageKeys(t *testing.T) {
	m, _ := newTestModel(t)

	update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("4")})
	assert.Equal(t, config.PageTransfers, m.activePage)

	update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, config.PageCluster, m.activePage)

	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, config.PageCluster, m.activePage)

	m.activePage = config.PageTangle
	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, config.PageTransactions, m.activePage)
}

func TestToggleLog_SavesConfig(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	require.NotNil(t, cmd)
	msg, ok := cmd().(configSavedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	cfg, err := config.Load(m.configPath)
	require.NoError(t, err)
	assert.True(t, cfg.Logger)
	assert.True(t, m.logEnabled)
}

func TestView_RendersNotice(t *testing.T) {
	m, _ := newTestModel(t)
	update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Contains(t, m.View(), "Wallet")

	m.presenter.Present(apperror.Application(rpc.ActionDeleteActor, "no such actor"))
	out := m.View()
	assert.Contains(t, out, "Node reported an error")
	assert.Contains(t, out, "no such actor")
}

func TestView_NoticeKeepsIdentifierOnOneLine(t *testing.T) {
	m, _ := newTestModel(t)
	update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	addr := nodetest.Address(testSeed, 4).String()

	m.presenter.Present(apperror.Application(rpc.ActionDeleteActor, "no actor with address "+addr+" is known to this node"))
	assert.Contains(t, m.View(), addr)

	assert.Equal(t, 20, noticeWidth(10))
	assert.Equal(t, ledger.IDLength+20, noticeWidth(200))
}
