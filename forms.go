package main

import (
	"ec-console/actions"
	"ec-console/config"
	"ec-console/form"
	"ec-console/ledger"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	"ec-console/views/markers"
	"ec-console/views/settings"
	"ec-console/views/table"
	"ec-console/views/tangle"
	"ec-console/views/transactions"
	"ec-console/views/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// formSpec is an open form. build is called again with the invalid flags
// set when the node is never reached because an input was rejected.
type formSpec struct {
	id     string
	title  string
	fields []*form.Field
	build  func(invalid func(name string) bool) *huh.Form
	action func() actions.Action
}

// input is a text field titled with its label, marked when invalid
func input(title, description, placeholder string, value *string, invalid bool) *huh.Input {
	if invalid {
		title += " ✗ invalid"
	}
	return huh.NewInput().
		Title(title).
		Description(description).
		Placeholder(placeholder).
		Value(value)
}

const idPlaceholder = "81 trytes, A-Z and 9"

// showForm registers f with the validator and opens it
func (m *model) showForm(f *formSpec) tea.Cmd {
	m.validator.Register(f.id, f.fields...)
	m.openForm = f
	m.form = f.build(func(string) bool { return false }).WithTheme(huh.ThemeCatppuccin())
	return m.form.Init()
}

// pendingKey identifies a submitted form by its form id and action key
func pendingKey(form, key string) string { return form + "/" + key }

// reopenForm shows the rejected form again with its failing fields marked
func (m *model) reopenForm() tea.Cmd {
	if m.rejected == nil {
		return nil
	}
	m.openForm, m.rejected = m.rejected, nil
	g, ok := m.validator.Group(m.openForm.id)
	invalid := func(name string) bool {
		if !ok {
			return false
		}
		f, found := g.Field(name)
		return found && f.Invalid
	}
	m.form = m.openForm.build(invalid).WithTheme(huh.ThemeCatppuccin())
	return m.form.Init()
}

// closeForm drops the open form
func (m *model) closeForm() {
	m.form = nil
	m.openForm = nil
}

func (m *model) openSeedForm() tea.Cmd {
	in := &wallet.SeedInput{Seed: m.seed.String()}
	return m.showForm(&formSpec{
		id:     wallet.FormSeed,
		title:  "Wallet Seed",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Seed", "Kept in memory for this session only (Ctrl+v to paste)", idPlaceholder, &in.Seed, invalid("seed")).
					EchoMode(huh.EchoModePassword),
			))
		},
		action: func() actions.Action { return wallet.UseSeed(in) },
	})
}

// openTransferForm opens the transfer form prefilled from e
func (m *model) openTransferForm(e ledger.WalletEntry) tea.Cmd {
	in := wallet.NewTransfer(m.seed, e)
	client := m.client
	return m.showForm(&formSpec{
		id:     wallet.FormTransfer,
		title:  "Send Transfer",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Index", "Derivation index of the sending address", "0", &in.Index, invalid("index")),
				input("Receiver", "Address receiving the value", idPlaceholder, &in.Receiver, invalid("receiver")),
				input("Remainder", "Address receiving the change; empty keeps it on the sender", idPlaceholder, &in.Remainder, invalid("remainder")),
				input("Value", "Amount to send", "0", &in.Value, invalid("value")),
				input("Tips", "Up to two comma separated transactions to reference; empty lets the node pick", "", &in.Tips, invalid("tips")),
				huh.NewConfirm().
					Title("Check balances").
					Description("Let the node refuse transfers the sender cannot cover").
					Value(&in.CheckBalances),
			))
		},
		action: func() actions.Action { return wallet.Send(client, in) },
	})
}

func (m *model) openBalanceForm(in *wallet.BalanceInput) tea.Cmd {
	client := m.client
	return m.showForm(&formSpec{
		id:     wallet.FormBalance,
		title:  "Change Balance",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Address", "Address to fund", idPlaceholder, &in.Address, invalid("address")),
				input("Amount to add", "Negative amounts withdraw", "100", &in.ToAdd, invalid("to_add")),
			))
		},
		action: func() actions.Action { return wallet.Fund(client, in) },
	})
}

func (m *model) openActorForm() tea.Cmd {
	in := actors.NewInput()
	in.Seed = m.seed.String()
	client := m.client
	return m.showForm(&formSpec{
		id:     actors.FormActor,
		title:  "Create Actor",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Seed", "Seed the actor's keys are derived from", idPlaceholder, &in.Seed, invalid("seed")).
					EchoMode(huh.EchoModePassword),
				input("Merkle tree depth", "The actor can sign 2^depth markers", "3", &in.Depth, invalid("depth")),
				input("Start index", "Key index of the first leaf", "0", &in.Index, invalid("index")),
				input("Security level", "1 to 3", "2", &in.Security, invalid("security")),
				input("Initial trust", "Optional; trust the new actor right away", "", &in.Trust, invalid("trust")),
			))
		},
		action: func() actions.Action { return actors.Create(client, in) },
	})
}

func (m *model) openClusterForm(in *cluster.Input) tea.Cmd {
	client := m.client
	return m.showForm(&formSpec{
		id:     cluster.FormCluster,
		title:  "Trust Peer",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Address", "Actor to trust", idPlaceholder, &in.Address, invalid("address")),
				input("Trust", "Absolute trust; 0 removes the peer", "1", &in.Trust, invalid("trust")),
			))
		},
		action: func() actions.Action { return cluster.Apply(client, in) },
	})
}

func (m *model) openMarkerForm(in *markers.Input) tea.Cmd {
	client := m.client
	return m.showForm(&formSpec{
		id:     markers.FormMarker,
		title:  "Issue Marker",
		fields: in.Fields(),
		build: func(invalid func(string) bool) *huh.Form {
			return huh.NewForm(huh.NewGroup(
				input("Actor", "Actor signing the marker", idPlaceholder, &in.Actor, invalid("actor")),
				input("Trunk", "Optional; empty lets the actor choose", idPlaceholder, &in.Trunk, invalid("trunk")),
				input("Branch", "Optional; empty lets the actor choose", idPlaceholder, &in.Branch, invalid("branch")),
			))
		},
		action: func() actions.Action { return markers.Issue(client, in) },
	})
}

// openEndpointForm adds an endpoint, or edits endpoint idx when idx >= 0
func (m *model) openEndpointForm(idx int) tea.Cmd {
	m.endpointInput = &settings.Input{}
	m.settingsMode = settings.ModeAdd
	if idx >= 0 && idx < len(m.cfg.Endpoints) {
		e := m.cfg.Endpoints[idx]
		m.endpointInput = &settings.Input{Name: e.Name, URL: e.URL}
		m.settingsMode = settings.ModeEdit
	}
	in := m.endpointInput
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Description("A friendly name for this node").
			Value(&in.Name).
			Placeholder("Local node"),
		huh.NewInput().
			Title("URL").
			Description("The module bridge URL (http://host:port/getModuleResponse)").
			Value(&in.URL).
			Placeholder("http://localhost:2187/getModuleResponse").
			Validate(func(s string) error {
				return config.Endpoint{Name: "-", URL: s}.Validate()
			}),
	)).WithTheme(huh.ThemeCatppuccin())
	return m.form.Init()
}

// -------------------- NAVIGATION --------------------

// showTransactions opens the transactions of the bundle headed by head
func (m *model) showTransactions(head ledger.ID) tea.Cmd {
	m.bundle = head
	m.txs = nil
	m.sel[transactions.ID] = table.Selection{}
	delete(m.selKey, transactions.ID)
	m.activePage = config.PageTransactions
	return m.refreshView(transactions.ID)
}

// showMarkers opens the markers issued by actor
func (m *model) showMarkers(actor ledger.ID) tea.Cmd {
	m.markersActor = actor
	m.sel[markers.ID] = table.Selection{}
	delete(m.selKey, markers.ID)
	m.activePage = config.PageMarkers
	return m.refreshView(markers.ID)
}

// showTangle opens the ancestry of tx
func (m *model) showTangle(tx ledger.ID) tea.Cmd {
	m.tangleRoot = tx
	m.tangleSummary = ""
	m.sel[tangle.ID] = table.Selection{}
	delete(m.selKey, tangle.ID)
	m.activePage = config.PageTangle
	return m.refreshView(tangle.ID)
}
