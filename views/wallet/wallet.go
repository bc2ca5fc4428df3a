package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"ec-console/actions"
	"ec-console/form"
	"ec-console/helpers"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/styles"
	"ec-console/views/table"
	"ec-console/views/transfers"

	tea "github.com/charmbracelet/bubbletea"
)

const ID = "wallet"

// Form ids.
const (
	FormSeed     = "seed"
	FormTransfer = "transfer"
	FormBalance  = "balance"
)

// ActionUseSeed switches the wallet to another seed. It never reaches the node.
const ActionUseSeed = "use_seed"

var Columns = []string{"address", "balance", ""}

// Handlers react to the local row controls. A nil handler hides its control.
type Handlers struct {
	Send func(e ledger.WalletEntry) tea.Cmd
	Fund func(e ledger.WalletEntry) tea.Cmd
	Copy func(text string) tea.Cmd
	QR   func(address ledger.ID) tea.Cmd
}

// New declares the wallet view.
func New(b *actions.Binder, h Handlers) *table.View[ledger.WalletEntry] {
	return table.MakeView(ID, Columns, func(e ledger.WalletEntry, _ int) table.Row {
		key := e.Address.String()
		var controls []table.Control
		if h.Send != nil {
			controls = append(controls, b.Local("send", key, func() tea.Cmd { return h.Send(e) }))
		}
		if h.Fund != nil {
			controls = append(controls, b.Local("fund", key, func() tea.Cmd { return h.Fund(e) }))
		}
		if h.Copy != nil {
			controls = append(controls, b.Local("copy", key, func() tea.Cmd { return h.Copy(key) }))
		}
		if h.QR != nil {
			controls = append(controls, b.Local("qr", key, func() tea.Cmd { return h.QR(e.Address) }))
		}
		balance := "0"
		if e.Balance != nil {
			balance = e.Balance.String()
		}
		return table.Row{Key: key, Cells: []table.Cell{
			table.Text(helpers.ShortenID(key)),
			table.Text(balance),
			table.Controls(controls...),
		}}
	})
}

// Total sums the balances of entries.
func Total(entries []ledger.WalletEntry) *big.Int {
	total := new(big.Int)
	for _, e := range entries {
		if e.Balance != nil {
			total.Add(total, e.Balance)
		}
	}
	return total
}

// SeedInput backs the seed form.
type SeedInput struct {
	Seed string
}

func (in *SeedInput) Fields() []*form.Field {
	return []*form.Field{
		{Name: "seed", Label: "Seed", Pattern: form.ID, Value: func() string { return in.Seed }},
	}
}

// UseSeed resolves to the validated seed; the caller stores it.
func UseSeed(in *SeedInput) actions.Action {
	return actions.Action{
		Name:    ActionUseSeed,
		Form:    FormSeed,
		Refresh: []string{ID},
		Run: func(context.Context) (any, error) {
			return ledger.ParseID(in.Seed)
		},
	}
}

// TransferInput backs the transfer form.
type TransferInput struct {
	Seed          string
	Index         string
	Receiver      string
	Remainder     string
	Value         string
	Tips          string
	CheckBalances bool
}

// NewTransfer prefills a transfer from e.
func NewTransfer(seed ledger.ID, e ledger.WalletEntry) *TransferInput {
	in := &TransferInput{Seed: seed.String(), Index: strconv.Itoa(e.Index), Value: "0", CheckBalances: true}
	if e.Balance != nil && e.Balance.Sign() > 0 {
		in.Value = e.Balance.String()
	}
	return in
}

func (in *TransferInput) Fields() []*form.Field {
	return []*form.Field{
		{Name: "seed", Label: "Seed", Pattern: form.ID, Value: func() string { return in.Seed }},
		{Name: "index", Label: "Index", Pattern: form.Number, Value: func() string { return in.Index }},
		{Name: "receiver", Label: "Receiver", Pattern: form.ID, Value: func() string { return in.Receiver }},
		{Name: "remainder", Label: "Remainder", Pattern: form.OptionalID, Value: func() string { return in.Remainder }},
		{Name: "value", Label: "Value", Pattern: form.Number, Value: func() string { return in.Value }},
		{Name: "tips", Label: "Tips", Pattern: form.Tips, Value: func() string { return in.Tips }},
	}
}

// Transfer converts validated input.
func (in *TransferInput) Transfer() (rpc.Transfer, error) {
	t := rpc.Transfer{CheckBalances: in.CheckBalances}
	var err error
	if t.Seed, err = ledger.ParseID(in.Seed); err != nil {
		return t, fmt.Errorf("seed: %w", err)
	}
	if t.Receiver, err = ledger.ParseID(in.Receiver); err != nil {
		return t, fmt.Errorf("receiver: %w", err)
	}
	if in.Remainder != "" {
		if t.Remainder, err = ledger.ParseID(in.Remainder); err != nil {
			return t, fmt.Errorf("remainder: %w", err)
		}
	}
	if t.Index, err = strconv.Atoi(in.Index); err != nil {
		return t, fmt.Errorf("index: %w", err)
	}
	value, ok := new(big.Int).SetString(in.Value, 10)
	if !ok {
		return t, fmt.Errorf("value: %q is not an integer", in.Value)
	}
	t.Value = value
	if in.Tips != "" {
		for _, s := range strings.Split(in.Tips, ",") {
			tip, err := ledger.ParseID(s)
			if err != nil {
				return t, fmt.Errorf("tips: %w", err)
			}
			t.Tips = append(t.Tips, tip)
		}
	}
	return t, nil
}

// Send submits the transfer form. The result is the bundle head.
func Send(client *rpc.Client, in *TransferInput) actions.Action {
	return actions.Action{
		Name:    rpc.ActionSubmitTransfer,
		Key:     in.Seed + "/" + in.Index,
		Form:    FormTransfer,
		Refresh: []string{ID, transfers.ID},
		Run: func(ctx context.Context) (any, error) {
			t, err := in.Transfer()
			if err != nil {
				return nil, err
			}
			return client.SubmitTransfer(ctx, t)
		},
	}
}

// BalanceInput backs the balance form.
type BalanceInput struct {
	Address string
	ToAdd   string
}

func (in *BalanceInput) Fields() []*form.Field {
	return []*form.Field{
		{Name: "address", Label: "Address", Pattern: form.ID, Value: func() string { return in.Address }},
		{Name: "to_add", Label: "Amount to add", Pattern: form.SignedNumber, Value: func() string { return in.ToAdd }},
	}
}

// Fund submits the balance form.
func Fund(client *rpc.Client, in *BalanceInput) actions.Action {
	return actions.Action{
		Name:    rpc.ActionChangeBalance,
		Key:     in.Address,
		Form:    FormBalance,
		Refresh: []string{ID},
		Run: func(ctx context.Context) (any, error) {
			addr, err := ledger.ParseID(in.Address)
			if err != nil {
				return nil, fmt.Errorf("address: %w", err)
			}
			delta, ok := new(big.Int).SetString(in.ToAdd, 10)
			if !ok {
				return nil, fmt.Errorf("to_add: %q is not an integer", in.ToAdd)
			}
			return nil, client.ChangeBalance(ctx, addr, delta)
		},
	}
}

// Nav returns the navigation bar for the wallet view
func Nav(width int) string {
	return styles.Nav(width,
		styles.Key("↑/↓")+" row",
		styles.Key("←/→")+" control",
		styles.Key("Enter")+" press",
		styles.Key("s")+" seed",
		styles.Key("g")+" generate",
		styles.Key("f")+" fund",
		styles.Key("r")+" refresh",
		styles.Key("l")+" debug log",
		styles.Key("q")+" quit",
	)
}

// Render renders the wallet view
func Render(t table.Table, sel table.Selection, width int, seed ledger.ID, total *big.Int, loadedAt string) string {
	subtitle := "No seed. Press s to enter one or g to generate one."
	if seed != "" {
		subtitle = "Seed " + helpers.FadeString(helpers.ShortenID(seed.String()), "#F25D94", "#EDFF82")
	}
	status := fmt.Sprintf("%s · total %s · refreshed %s", table.Rows(t), total, loadedAt)
	return table.Page("Wallet", subtitle, t, sel, width, status)
}
