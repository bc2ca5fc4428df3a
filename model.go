package main

import (
	"fmt"
	"time"

	"ec-console/actions"
	"ec-console/config"
	"ec-console/form"
	"ec-console/ledger"
	"ec-console/present"
	"ec-console/rpc"
	"ec-console/styles"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	"ec-console/views/markers"
	"ec-console/views/settings"
	"ec-console/views/table"
	"ec-console/views/tangle"
	"ec-console/views/transactions"
	"ec-console/views/transfers"
	"ec-console/views/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	cfg        *config.Config
	configPath string

	client    *rpc.Client
	validator *form.Validator
	binder    *actions.Binder
	presenter *present.Presenter
	registry  *table.Registry

	// session context; the seed is never written to disk
	seed         ledger.ID
	bundle       ledger.ID
	markersActor ledger.ID
	tangleRoot   ledger.ID

	walletView       *table.View[ledger.WalletEntry]
	actorsView       *table.View[ledger.Actor]
	clusterView      *table.View[ledger.ClusterEntry]
	transfersView    *table.View[ledger.Transfer]
	transactionsView *table.View[ledger.Transaction]
	markersView      *table.View[ledger.Marker]
	tangleView       *table.View[tangle.Node]

	// records kept beside their tables
	walletEntries []ledger.WalletEntry
	txs           []ledger.Transaction
	tangleSummary string

	sel         map[string]table.Selection
	selKey      map[string]string
	inflight    map[string]int
	refreshedAt map[string]time.Time

	// open form; submitted forms wait in pending until their action
	// settles, and a rejected one is shown again once its notice is gone
	form     *huh.Form
	openForm *formSpec
	pending  map[string]*formSpec
	rejected *formSpec

	// settings state
	settingsMode            settings.Mode
	selectedEndpoint        int
	endpointInput           *settings.Input
	showDeleteDialog        bool
	deleteDialogYesSelected bool

	// QR panel
	qrAddress ledger.ID

	// clipboard feedback
	copiedMsg string

	spin spinner.Model

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logBuffer
	logShown    int
	logViewport viewport.Model
}

// pageViews maps table pages to their view ids
var pageViews = map[config.Page]string{
	config.PageWallet:       wallet.ID,
	config.PageActors:       actors.ID,
	config.PageCluster:      cluster.ID,
	config.PageTransfers:    transfers.ID,
	config.PageTransactions: transactions.ID,
	config.PageMarkers:      markers.ID,
	config.PageTangle:       tangle.ID,
}

// -------------------- INIT --------------------

// newModel creates a model talking to the active endpoint of cfg
func newModel(cfg *config.Config, configPath string, seed ledger.ID) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	vp := viewport.New(0, 20)
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	buf := &logBuffer{}
	logger := newLogger(buf)
	validator := form.NewValidator()

	m := &model{
		activePage:  config.PageWallet,
		cfg:         cfg,
		configPath:  configPath,
		validator:   validator,
		binder:      actions.New(validator, cfg.GuardActions),
		presenter:   present.New(logger.WithPrefix("notice"), styles.Code),
		registry:    table.NewRegistry(),
		seed:        seed,
		sel:         map[string]table.Selection{},
		selKey:      map[string]string{},
		pending:     map[string]*formSpec{},
		inflight:    map[string]int{},
		refreshedAt: map[string]time.Time{},
		spin:        sp,
		logEnabled:  cfg.Logger,
		logger:      logger,
		logBuffer:   buf,
		logViewport: vp,
	}
	m.connect()
	return m
}

// connect builds the gateway and the views bound to it for the active
// endpoint. Views are rebuilt so their controls capture the new client.
func (m *model) connect() {
	endpoint, _ := m.cfg.Active()
	m.client = rpc.New(rpc.Options{
		URL:        endpoint.URL,
		ModulePath: m.cfg.ModulePath,
		Password:   m.cfg.Password,
		Timeout:    m.cfg.Timeout(),
		Logger:     m.logger,
	})

	copyCmd := func(text string) tea.Cmd { return copyToClipboard(text) }

	m.walletView = wallet.New(m.binder, wallet.Handlers{
		Send: m.openTransferForm,
		Fund: func(e ledger.WalletEntry) tea.Cmd {
			return m.openBalanceForm(&wallet.BalanceInput{Address: e.Address.String()})
		},
		Copy: copyCmd,
		QR: func(addr ledger.ID) tea.Cmd {
			m.qrAddress = addr
			return nil
		},
	})
	m.actorsView = actors.New(m.binder, m.client, actors.Handlers{
		Mark: func(a ledger.Actor) tea.Cmd {
			return m.openMarkerForm(&markers.Input{Actor: a.Address.String()})
		},
		Trust: func(a ledger.Actor) tea.Cmd {
			return m.openClusterForm(&cluster.Input{Address: a.Address.String(), Trust: "1"})
		},
		Copy: copyCmd,
	})
	m.clusterView = cluster.New(m.binder, m.client, cluster.Handlers{
		Markers: m.showMarkers,
		Edit: func(e ledger.ClusterEntry) tea.Cmd {
			return m.openClusterForm(cluster.EditInput(e))
		},
		Copy: copyCmd,
	})
	m.transfersView = transfers.New(m.binder, m.client, transfers.Handlers{
		Status: m.showTransactions,
		Copy:   copyCmd,
	})
	m.transactionsView = transactions.New(m.binder, transactions.Handlers{
		Tangle: m.showTangle,
		Copy:   copyCmd,
	})
	m.markersView = markers.New(m.binder, markers.Handlers{Copy: copyCmd})
	m.tangleView = tangle.New(m.binder, tangle.Handlers{
		Open: m.showTangle,
		Copy: copyCmd,
	})

	m.registry = table.NewRegistry()
	for _, b := range []table.Binding{
		m.walletView, m.actorsView, m.clusterView, m.transfersView,
		m.transactionsView, m.markersView, m.tangleView,
	} {
		m.registry.Register(b)
	}

	m.walletEntries = nil
	m.txs = nil
	m.tangleSummary = ""
	m.inflight = map[string]int{}
	m.refreshedAt = map[string]time.Time{}
	m.addLog("info", fmt.Sprintf("Using node `%s` (%s)", endpoint.Name, endpoint.URL))
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.refreshAll(wallet.ID, actors.ID, cluster.ID, transfers.ID),
		scheduleAutoRefresh(m.cfg.RefreshInterval()),
	)
}

// currentView is the table behind the active page, if any
func (m *model) currentView() (string, table.Table, bool) {
	id, ok := pageViews[m.activePage]
	if !ok {
		return "", table.Table{}, false
	}
	b, err := m.registry.Lookup(id)
	if err != nil {
		return "", table.Table{}, false
	}
	return id, b.Current(), true
}

// selectedTransaction is the transaction under the cursor
func (m *model) selectedTransaction() *ledger.Transaction {
	t := m.transactionsView.Current()
	row := m.sel[transactions.ID].Row
	if t.Empty || row >= len(t.Rows) {
		return nil
	}
	key := t.Rows[row].Key
	for i := range m.txs {
		if m.txs[i].Hash.String() == key {
			return &m.txs[i]
		}
	}
	return nil
}
