package main

import (
	"fmt"
	"time"

	"ec-console/actions"
	"ec-console/apperror"
	"ec-console/config"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
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
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.updateLogViewport()

	// results and ticks are handled whatever is on screen
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = helpers.Max(0, msg.Width-6)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshedMsg:
		return m, m.handleRefreshed(msg)

	case actions.DoneMsg:
		return m, m.handleDone(msg)

	case actions.FailedMsg:
		return m, m.handleFailed(msg)

	case autoRefreshMsg:
		m.addLog("debug", "Auto-refresh")
		return m, tea.Batch(
			m.refreshAll(transfers.ID),
			m.refreshView(transactions.ID),
			scheduleAutoRefresh(m.cfg.RefreshInterval()),
		)

	case clipboardCopiedMsg:
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Clipboard copy failed: %s", msg.err))
			return m, nil
		}
		m.copiedMsg = "✓ Copied " + helpers.ShortenID(msg.text)
		m.addLog("info", fmt.Sprintf("Copied `%s` to clipboard", msg.text))
		return m, clearClipboard()

	case clearClipboardMsg:
		m.copiedMsg = ""
		return m, nil

	case configSavedMsg:
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Saving config failed: %s", msg.err))
		} else {
			m.addLog("debug", fmt.Sprintf("Saved config to `%s`", m.configPath))
		}
		return m, nil
	}

	// Error notice is modal
	if _, ok := m.presenter.Current(); ok {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc", "enter", " ":
				m.presenter.Dismiss()
				if m.rejected != nil && m.form == nil {
					return m, m.reopenForm()
				}
			case "ctrl+c":
				return m, tea.Quit
			}
		}
		return m, nil
	}

	if m.form != nil {
		return m, m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.qrAddress != "" {
		switch keyMsg.String() {
		case "c":
			return m, copyToClipboard(m.qrAddress.String())
		case "esc", "enter", "q":
			m.qrAddress = ""
		}
		return m, nil
	}

	if m.showDeleteDialog {
		return m, m.updateDeleteDialog(keyMsg)
	}

	// global keys
	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "l", "L":
		m.logEnabled = !m.logEnabled
		m.cfg.Logger = m.logEnabled
		if m.logEnabled {
			m.logShown = 0
			m.addLog("info", "Logger enabled")
		} else {
			m.logBuffer.Reset()
		}
		return m, saveConfig(m.configPath, *m.cfg)

	case "pgup", "pgdown":
		if m.logEnabled {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case "tab":
		m.activePage = (m.activePage + 1) % (config.PageSettings + 1)
		return m, nil

	case "shift+tab":
		m.activePage = (m.activePage + config.PageSettings) % (config.PageSettings + 1)
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8":
		m.activePage = config.Page(keyMsg.String()[0] - '1')
		return m, nil
	}

	if m.activePage == config.PageSettings {
		return m, m.updateSettings(keyMsg)
	}
	return m, m.updateTablePage(keyMsg)
}

// updateForm feeds msg to the open form and acts on completion
func (m *model) updateForm(msg tea.Msg) tea.Cmd {
	// Intercept ESC key to cancel form
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.closeForm()
		m.settingsMode = settings.ModeList
		return nil
	}

	f, cmd := m.form.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		m.form = hf
	}

	switch m.form.State {
	case huh.StateAborted:
		m.closeForm()
		m.settingsMode = settings.ModeList
		return nil

	case huh.StateCompleted:
		if m.settingsMode != settings.ModeList {
			return m.saveEndpoint()
		}
		return m.submitForm()
	}
	return cmd
}

// submitForm closes the completed form and hands its action to the binder.
// The form waits in pending until the action settles.
func (m *model) submitForm() tea.Cmd {
	pf := m.openForm
	m.closeForm()
	if pf == nil {
		return nil
	}
	a := pf.action()
	submit := m.binder.Submit(a)
	if submit == nil {
		m.addLog("warning", fmt.Sprintf("`%s` is already running", a.Name))
		return nil
	}
	m.pending[pendingKey(a.Form, a.Key)] = pf
	m.addLog("info", fmt.Sprintf("Submitting %s", pf.title))
	return submit
}

// updateTablePage moves the selection and presses controls
func (m *model) updateTablePage(msg tea.KeyMsg) tea.Cmd {
	id, t, ok := m.currentView()
	if !ok {
		return nil
	}
	sel := m.sel[id]
	controls := table.ControlsOf(t, sel.Row)

	switch msg.String() {
	case "up", "k":
		sel.Row = helpers.Clamp(sel.Row-1, t.Len())
		sel.Control = 0
	case "down", "j":
		sel.Row = helpers.Clamp(sel.Row+1, t.Len())
		sel.Control = 0
	case "left", "h":
		sel.Control = helpers.Clamp(sel.Control-1, len(controls))
	case "right":
		sel.Control = helpers.Clamp(sel.Control+1, len(controls))
	case "enter":
		if sel.Control < len(controls) {
			c := controls[sel.Control]
			m.addLog("debug", fmt.Sprintf("Pressed `%s` on `%s`", c.Label, c.Key))
			return c.Invoke()
		}
		return nil
	case "r", "R":
		return m.refreshView(id)
	default:
		return m.updatePageKeys(id, msg)
	}

	m.sel[id] = sel
	if !t.Empty && sel.Row < len(t.Rows) {
		m.selKey[id] = t.Rows[sel.Row].Key
	}
	return nil
}

// updatePageKeys handles the hotkeys of single pages
func (m *model) updatePageKeys(id string, msg tea.KeyMsg) tea.Cmd {
	switch id {
	case wallet.ID:
		switch msg.String() {
		case "s":
			return m.openSeedForm()
		case "g":
			m.seed = helpers.RandomSeed()
			m.addLog("success", "Generated a new seed")
			return m.refreshView(wallet.ID)
		case "f":
			return m.openBalanceForm(&wallet.BalanceInput{})
		}

	case actors.ID:
		if msg.String() == "a" {
			return m.openActorForm()
		}

	case cluster.ID:
		if msg.String() == "a" {
			return m.openClusterForm(&cluster.Input{})
		}

	case markers.ID:
		switch msg.String() {
		case "m":
			return m.openMarkerForm(&markers.Input{Actor: m.markersActor.String()})
		case "esc":
			m.activePage = config.PageCluster
		}

	case transactions.ID:
		if msg.String() == "esc" {
			m.activePage = config.PageTransfers
		}

	case tangle.ID:
		if msg.String() == "esc" {
			m.activePage = config.PageTransactions
		}
	}
	return nil
}

// updateSettings handles the endpoint list
func (m *model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		m.selectedEndpoint = helpers.Clamp(m.selectedEndpoint-1, len(m.cfg.Endpoints))
	case "down", "j":
		m.selectedEndpoint = helpers.Clamp(m.selectedEndpoint+1, len(m.cfg.Endpoints))
	case "a", "A":
		return m.openEndpointForm(-1)
	case "e", "E":
		return m.openEndpointForm(m.selectedEndpoint)
	case "d", "delete", "backspace":
		if len(m.cfg.Endpoints) > 1 {
			m.showDeleteDialog = true
			m.deleteDialogYesSelected = false
		} else {
			m.addLog("warning", "The last endpoint cannot be deleted")
		}
	case "enter":
		return m.activateEndpoint(m.selectedEndpoint)
	case "esc":
		m.activePage = config.PageWallet
	}
	return nil
}

func (m *model) updateDeleteDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab", "h":
		m.deleteDialogYesSelected = !m.deleteDialogYesSelected
	case "esc", "n", "N":
		m.showDeleteDialog = false
	case "y", "Y":
		m.deleteDialogYesSelected = true
		fallthrough
	case "enter":
		m.showDeleteDialog = false
		if !m.deleteDialogYesSelected {
			return nil
		}
		return m.deleteEndpoint(m.selectedEndpoint)
	}
	return nil
}

// saveEndpoint stores the endpoint form
func (m *model) saveEndpoint() tea.Cmd {
	e := m.endpointInput.Endpoint()
	mode := m.settingsMode
	m.closeForm()
	m.settingsMode = settings.ModeList

	if err := e.Validate(); err != nil {
		m.presenter.Present(&apperror.Error{Kind: apperror.KindValidation, Field: "endpoint", Message: err.Error()})
		return nil
	}

	if mode == settings.ModeEdit && m.selectedEndpoint < len(m.cfg.Endpoints) {
		e.Active = m.cfg.Endpoints[m.selectedEndpoint].Active
		m.cfg.Endpoints[m.selectedEndpoint] = e
		m.addLog("success", fmt.Sprintf("Updated endpoint `%s`", e.Name))
		if e.Active {
			return tea.Batch(saveConfig(m.configPath, *m.cfg), m.reconnect())
		}
	} else {
		m.cfg.Endpoints = append(m.cfg.Endpoints, e)
		m.addLog("success", fmt.Sprintf("Added endpoint `%s` (%s)", e.Name, e.URL))
	}
	return saveConfig(m.configPath, *m.cfg)
}

func (m *model) deleteEndpoint(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.cfg.Endpoints) || len(m.cfg.Endpoints) < 2 {
		return nil
	}
	removed := m.cfg.Endpoints[idx]
	m.cfg.Endpoints = append(m.cfg.Endpoints[:idx], m.cfg.Endpoints[idx+1:]...)
	m.selectedEndpoint = helpers.Clamp(m.selectedEndpoint, len(m.cfg.Endpoints))
	m.addLog("success", fmt.Sprintf("Deleted endpoint `%s`", removed.Name))
	if !removed.Active {
		return saveConfig(m.configPath, *m.cfg)
	}
	m.cfg.Activate(0)
	return tea.Batch(saveConfig(m.configPath, *m.cfg), m.reconnect())
}

func (m *model) activateEndpoint(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.cfg.Endpoints) {
		return nil
	}
	m.cfg.Activate(idx)
	return tea.Batch(saveConfig(m.configPath, *m.cfg), m.reconnect())
}

// reconnect rebuilds the gateway and reloads every view with context
func (m *model) reconnect() tea.Cmd {
	m.connect()
	m.sel = map[string]table.Selection{}
	m.selKey = map[string]string{}
	return m.refreshAll(wallet.ID, actors.ID, cluster.ID, transfers.ID, transactions.ID, markers.ID)
}

// -------------------- RESULTS --------------------

func (m *model) handleRefreshed(msg refreshedMsg) tea.Cmd {
	if m.inflight[msg.view] > 0 {
		m.inflight[msg.view]--
	}
	if msg.err != nil {
		m.addLog("error", fmt.Sprintf("Refreshing %s failed: %s", msg.view, msg.err))
		m.presenter.Present(msg.err)
		return nil
	}
	if !msg.apply() {
		m.addLog("debug", fmt.Sprintf("Dropped stale %s response #%d", msg.view, msg.ticket))
		return nil
	}
	m.refreshedAt[msg.view] = time.Now()
	m.restoreSelection(msg.view)
	m.addLog("debug", fmt.Sprintf("Loaded %d %s records", msg.count, msg.view))
	return nil
}

// restoreSelection keeps the cursor on the same record after a refresh
func (m *model) restoreSelection(id string) {
	b, err := m.registry.Lookup(id)
	if err != nil {
		return
	}
	t := b.Current()
	sel := m.sel[id]
	if key, ok := m.selKey[id]; ok {
		if _, i, found := t.Row(key); found {
			if i != sel.Row {
				sel.Control = 0
			}
			sel.Row = i
		}
	}
	sel.Row = helpers.Clamp(sel.Row, t.Len())
	sel.Control = helpers.Clamp(sel.Control, len(table.ControlsOf(t, sel.Row)))
	m.sel[id] = sel
}

func (m *model) handleDone(msg actions.DoneMsg) tea.Cmd {
	m.binder.Settle(msg)
	delete(m.pending, pendingKey(msg.Form, msg.Key))

	switch msg.Action {
	case wallet.ActionUseSeed:
		seed, _ := msg.Result.(ledger.ID)
		m.seed = seed
		m.walletEntries = nil
		m.addLog("success", "Seed set for this session")
	case rpc.ActionSubmitTransfer:
		m.addLog("success", fmt.Sprintf("Transfer issued, bundle `%s`", msg.Result))
	case rpc.ActionCreateActor:
		m.addLog("success", fmt.Sprintf("Created actor `%s`", msg.Result))
	default:
		if msg.Key != "" {
			m.addLog("success", fmt.Sprintf("%s `%s`", msg.Action, msg.Key))
		} else {
			m.addLog("success", msg.Action)
		}
	}
	return m.refreshAll(m.refreshTargets(msg.Action, msg.Key, msg.Refresh)...)
}

func (m *model) handleFailed(msg actions.FailedMsg) tea.Cmd {
	m.binder.Settle(msg)
	m.presenter.Present(msg.Err)

	key := pendingKey(msg.Form, msg.Key)
	pf := m.pending[key]
	delete(m.pending, key)
	if pf != nil && apperror.Is(msg.Err, apperror.KindValidation) {
		// shown again once the notice is dismissed
		m.rejected = pf
	}

	if len(msg.Refresh) == 0 {
		return nil
	}
	m.addLog("warning", fmt.Sprintf("%s failed after changing node state, reloading", msg.Action))
	return m.refreshAll(m.refreshTargets(msg.Action, msg.Key, msg.Refresh)...)
}

// refreshTargets narrows the views an action asks to reload. Markers only
// show one actor, so a marker issued by another actor leaves them alone.
func (m *model) refreshTargets(action, key string, ids []string) []string {
	if action != rpc.ActionIssueMarker || key == m.markersActor.String() {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != markers.ID {
			out = append(out, id)
		}
	}
	return out
}
