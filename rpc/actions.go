package rpc

import (
	"context"
	"math/big"
	"strconv"

	"ec-console/apperror"
	"ec-console/ledger"
)

// Node action names.
const (
	ActionGetBalances     = "get_balances"
	ActionGetActors       = "get_actors"
	ActionGetCluster      = "get_cluster"
	ActionGetConfidences  = "get_cluster_confidences"
	ActionGetTransfers    = "get_transfers"
	ActionGetTransactions = "get_transactions"
	ActionGetMarkers      = "get_markers"
	ActionGetTangle       = "get_tangle"
	ActionCreateActor     = "create_actor"
	ActionDeleteActor     = "delete_actor"
	ActionSetTrust        = "set_trust"
	ActionChangeBalance   = "change_balance"
	ActionSubmitTransfer  = "submit_transfer"
	ActionUnwatchTransfer = "unwatch_transfer"
	ActionIssueMarker     = "issue_marker"
)

func list[T any](ctx context.Context, c *Client, action, field string, params Params) ([]T, error) {
	p, err := c.Call(ctx, action, params)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := p.Decode(field, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalances lists the derived addresses of seed in derivation order.
func (c *Client) GetBalances(ctx context.Context, seed ledger.ID) ([]ledger.WalletEntry, error) {
	out, err := list[ledger.WalletEntry](ctx, c, ActionGetBalances, "balances", Params{"seed": seed.String()})
	if err != nil {
		return nil, err
	}
	return ledger.IndexWallet(out), nil
}

func (c *Client) GetActors(ctx context.Context) ([]ledger.Actor, error) {
	return list[ledger.Actor](ctx, c, ActionGetActors, "actors", nil)
}

func (c *Client) GetCluster(ctx context.Context) ([]ledger.ClusterEntry, error) {
	return list[ledger.ClusterEntry](ctx, c, ActionGetCluster, "cluster", nil)
}

// GetClusterConfidences asks how confident the cluster is in each hash.
func (c *Client) GetClusterConfidences(ctx context.Context, hashes []ledger.ID) (ledger.Confidences, error) {
	ids := make([]string, len(hashes))
	for i, h := range hashes {
		ids[i] = h.String()
	}
	p, err := c.Call(ctx, ActionGetConfidences, Params{"hashes": ids})
	if err != nil {
		return nil, err
	}
	var out ledger.Confidences
	if err := p.Decode("cluster_confidences", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTransfers(ctx context.Context) ([]ledger.Transfer, error) {
	return list[ledger.Transfer](ctx, c, ActionGetTransfers, "transfers", nil)
}

func (c *Client) GetTransactions(ctx context.Context, bundleHead ledger.ID) ([]ledger.Transaction, error) {
	return list[ledger.Transaction](ctx, c, ActionGetTransactions, "transactions", Params{"bundle_head": bundleHead.String()})
}

func (c *Client) GetMarkers(ctx context.Context, actor ledger.ID) ([]ledger.Marker, error) {
	return list[ledger.Marker](ctx, c, ActionGetMarkers, "markers", Params{"actor": actor.String()})
}

// GetTangle returns the ancestry of tx. Results are cached per hash.
func (c *Client) GetTangle(ctx context.Context, tx ledger.ID) (ledger.TangleGraph, error) {
	if cached, ok := c.tangle.Get(tx.String()); ok {
		return cached.(ledger.TangleGraph), nil
	}
	p, err := c.Call(ctx, ActionGetTangle, Params{"transaction": tx.String()})
	if err != nil {
		return ledger.TangleGraph{}, err
	}
	var g ledger.TangleGraph
	if err := p.Decode("tangle", &g); err != nil {
		return ledger.TangleGraph{}, err
	}
	c.tangle.SetDefault(tx.String(), g)
	return g, nil
}

// CreateActor asks the node to derive a new actor and returns its address.
type CreateActor struct {
	Seed          ledger.ID
	Depth         int
	Index         int
	SecurityLevel int
}

func (c *Client) CreateActor(ctx context.Context, req CreateActor) (ledger.ID, error) {
	p, err := c.Call(ctx, ActionCreateActor, Params{
		"seed":           req.Seed.String(),
		"depth":          req.Depth,
		"index":          req.Index,
		"security_level": req.SecurityLevel,
	})
	if err != nil {
		return "", err
	}
	var addr ledger.ID
	if err := p.Decode("address", &addr); err != nil {
		return "", err
	}
	return addr, nil
}

func (c *Client) DeleteActor(ctx context.Context, address ledger.ID) error {
	_, err := c.Call(ctx, ActionDeleteActor, Params{"address": address.String()})
	return err
}

// SetTrust sets the absolute trust in a peer actor. Zero removes it from
// the cluster.
func (c *Client) SetTrust(ctx context.Context, address ledger.ID, trust float64) error {
	if trust < 0 {
		return &apperror.Error{Kind: apperror.KindValidation, Field: "trust", Message: "must not be negative"}
	}
	_, err := c.Call(ctx, ActionSetTrust, Params{"address": address.String(), "trust": trust})
	return err
}

// ChangeBalance adds toAdd (possibly negative) to the balance of address on
// the node's test ledger.
func (c *Client) ChangeBalance(ctx context.Context, address ledger.ID, toAdd *big.Int) error {
	_, err := c.Call(ctx, ActionChangeBalance, Params{"address": address.String(), "to_add": toAdd.String()})
	return err
}

// Transfer is a value transfer from one derived address of Seed.
type Transfer struct {
	Seed          ledger.ID
	Index         int
	Receiver      ledger.ID
	Remainder     ledger.ID
	Value         *big.Int
	Tips          []ledger.ID
	CheckBalances bool
}

// Params renders the transfer as an envelope.
func (t Transfer) Params() Params {
	tips := make([]string, 0, len(t.Tips))
	for _, tip := range t.Tips {
		tips = append(tips, tip.String())
	}
	value := "0"
	if t.Value != nil {
		value = t.Value.String()
	}
	return Params{
		"seed":           t.Seed.String(),
		"index":          t.Index,
		"receiver":       t.Receiver.String(),
		"remainder":      t.Remainder.String(),
		"value":          value,
		"tips":           tips,
		"check_balances": t.CheckBalances,
	}
}

// SubmitTransfer returns the bundle head of the issued transfer.
func (c *Client) SubmitTransfer(ctx context.Context, t Transfer) (ledger.ID, error) {
	if len(t.Tips) > 2 {
		return "", &apperror.Error{Kind: apperror.KindValidation, Field: "tips", Message: "at most 2 tips, got " + strconv.Itoa(len(t.Tips))}
	}
	p, err := c.Call(ctx, ActionSubmitTransfer, t.Params())
	if err != nil {
		return "", err
	}
	var hash ledger.ID
	if err := p.Decode("hash", &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (c *Client) UnwatchTransfer(ctx context.Context, transfer ledger.ID) error {
	_, err := c.Call(ctx, ActionUnwatchTransfer, Params{"transfer": transfer.String()})
	return err
}

// IssueMarker makes actor reference trunk and branch. Empty references let
// the actor pick its own.
func (c *Client) IssueMarker(ctx context.Context, actor ledger.ID, trunk, branch string) error {
	_, err := c.Call(ctx, ActionIssueMarker, Params{"actor": actor.String(), "trunk": trunk, "branch": branch})
	return err
}
