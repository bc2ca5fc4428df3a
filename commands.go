package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ec-console/config"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	"ec-console/views/markers"
	"ec-console/views/table"
	"ec-console/views/tangle"
	"ec-console/views/transactions"
	"ec-console/views/transfers"
	"ec-console/views/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// refresh issues a ticket for v on the Update thread and fetches off it.
// keep, when set, receives the records once they are applied.
func refresh[T any](v *table.View[T], fetch func(ctx context.Context) ([]T, error), keep func([]T)) tea.Cmd {
	ticket := v.Begin()
	return func() tea.Msg {
		records, err := rpc.Guard(v.ID(), func() ([]T, error) {
			return fetch(context.Background())
		})
		if err != nil {
			return refreshedMsg{view: v.ID(), ticket: ticket, err: err}
		}
		return refreshedMsg{view: v.ID(), ticket: ticket, count: len(records), apply: func() bool {
			if !v.Deliver(ticket, records) {
				return false
			}
			if keep != nil {
				keep(records)
			}
			return true
		}}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardCopiedMsg{text: text, err: clipboard.WriteAll(text)}
	}
}

// clearClipboard waits 2 seconds then clears clipboard feedback
func clearClipboard() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearClipboardMsg{}
	})
}

// scheduleAutoRefresh arms the next auto-refresh tick. A zero interval
// disables it.
func scheduleAutoRefresh(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return autoRefreshMsg(t)
	})
}

// saveConfig writes cfg off the Update thread
func saveConfig(path string, cfg config.Config) tea.Cmd {
	cfg.Endpoints = append([]config.Endpoint(nil), cfg.Endpoints...)
	return func() tea.Msg {
		return configSavedMsg{err: config.Save(path, &cfg)}
	}
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// refreshView dispatches a refresh of the view with id. Views that need a
// context the operator has not picked yet are left alone.
func (m *model) refreshView(id string) tea.Cmd {
	client := m.client
	var cmd tea.Cmd

	switch id {
	case wallet.ID:
		if m.seed == "" {
			return nil
		}
		seed := m.seed
		cmd = refresh(m.walletView, func(ctx context.Context) ([]ledger.WalletEntry, error) {
			return client.GetBalances(ctx, seed)
		}, func(entries []ledger.WalletEntry) { m.walletEntries = entries })

	case actors.ID:
		cmd = refresh(m.actorsView, client.GetActors, nil)

	case cluster.ID:
		cmd = refresh(m.clusterView, client.GetCluster, nil)

	case transfers.ID:
		cmd = refresh(m.transfersView, client.GetTransfers, nil)

	case transactions.ID:
		if m.bundle == "" {
			return nil
		}
		bundle := m.bundle
		cmd = refresh(m.transactionsView, func(ctx context.Context) ([]ledger.Transaction, error) {
			return client.GetTransactions(ctx, bundle)
		}, func(txs []ledger.Transaction) { m.txs = txs })

	case markers.ID:
		if m.markersActor == "" {
			return nil
		}
		actor := m.markersActor
		cmd = refresh(m.markersView, func(ctx context.Context) ([]ledger.Marker, error) {
			return client.GetMarkers(ctx, actor)
		}, nil)

	case tangle.ID:
		if m.tangleRoot == "" {
			return nil
		}
		root := m.tangleRoot
		var graph ledger.TangleGraph
		cmd = refresh(m.tangleView, func(ctx context.Context) ([]tangle.Node, error) {
			g, err := client.GetTangle(ctx, root)
			graph = g
			return tangle.Nodes(g), err
		}, func([]tangle.Node) { m.tangleSummary = tangle.Summary(graph) })

	default:
		m.addLog("warning", fmt.Sprintf("No refresh for view `%s`", id))
		return nil
	}

	m.inflight[id]++
	return cmd
}

// refreshAll refreshes every view in ids concurrently
func (m *model) refreshAll(ids ...string) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		if _, err := m.registry.Lookup(id); err != nil {
			m.addLog("error", err.Error())
			continue
		}
		cmds = append(cmds, m.refreshView(id))
	}
	return tea.Batch(cmds...)
}

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if m.logBuffer == nil {
		return
	}
	if !m.logEnabled {
		m.logBuffer.Reset()
		return
	}
	content := m.logBuffer.String()
	if len(content) == m.logShown {
		return
	}
	m.logShown = len(content)
	m.logViewport.SetContent(content)
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// logBuffer collects log output. Gateway calls log from command goroutines
// while the Update thread reads it.
type logBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *logBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *logBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func (l *logBuffer) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.b.Reset()
}

// newLogger creates a logger that writes to buf
func newLogger(buf *logBuffer) *log.Logger {
	logger := log.NewWithOptions(buf, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.DebugLevel,
	})
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
		},
	})
	return logger
}

// loadedAt describes when view id was last refreshed
func (m *model) loadedAt(id string) string {
	return helpers.LoadedAt(m.refreshedAt[id], m.inflight[id] > 0)
}
