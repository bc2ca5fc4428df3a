package ledger

import (
	"fmt"
	"math/big"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// WalletEntry is one derived address of the active seed.
type WalletEntry struct {
	Index   int // derivation index, assigned from response order
	Address ID
	Balance *big.Int
}

func (w *WalletEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address ID                `json:"address"`
		Balance jsoniter.RawMessage `json:"balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("wallet entry: %w", err)
	}
	if err := present(namedID{"address", raw.Address}); err != nil {
		return fmt.Errorf("wallet entry: %w", err)
	}
	bal, err := parseAmount(raw.Balance)
	if err != nil {
		return fmt.Errorf("wallet entry %s: balance: %w", raw.Address, err)
	}
	w.Address = raw.Address
	w.Balance = bal
	return nil
}

// IndexWallet stamps each entry with its derivation index.
func IndexWallet(entries []WalletEntry) []WalletEntry {
	for i := range entries {
		entries[i].Index = i
	}
	return entries
}

// Actor is a local signing identity backed by a Merkle tree.
type Actor struct {
	Address            ID
	MerkleTreeIndex    uint64
	MerkleTreeCapacity uint64
}

// Exhausted reports whether every one-time signature has been used.
// An actor with unknown capacity is never reported exhausted.
func (a Actor) Exhausted() bool {
	return a.MerkleTreeCapacity > 0 && a.MerkleTreeIndex >= a.MerkleTreeCapacity
}

// Remaining is the number of unused leaves.
func (a Actor) Remaining() uint64 {
	if a.Exhausted() {
		return 0
	}
	return a.MerkleTreeCapacity - a.MerkleTreeIndex
}

// UnmarshalJSON accepts the object form and the bare address the node
// module emits when it does not report tree usage.
func (a *Actor) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var id ID
		if err := id.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("actor: %w", err)
		}
		*a = Actor{Address: id}
		return nil
	}
	var raw struct {
		Address  ID     `json:"address"`
		Index    uint64 `json:"merkle_tree_index"`
		Capacity uint64 `json:"merkle_tree_capacity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("actor: %w", err)
	}
	if err := present(namedID{"address", raw.Address}); err != nil {
		return fmt.Errorf("actor: %w", err)
	}
	if raw.Capacity > 0 && raw.Index > raw.Capacity {
		return fmt.Errorf("actor %s: merkle tree index %d exceeds capacity %d", raw.Address, raw.Index, raw.Capacity)
	}
	*a = Actor{Address: raw.Address, MerkleTreeIndex: raw.Index, MerkleTreeCapacity: raw.Capacity}
	return nil
}

// ClusterEntry is a trusted peer actor.
type ClusterEntry struct {
	Address  ID
	TrustAbs float64
	TrustRel float64 // node-computed share of the cluster's total trust
}

func (c *ClusterEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address  ID      `json:"address"`
		TrustAbs float64 `json:"trust_abs"`
		TrustRel float64 `json:"trust_rel"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cluster entry: %w", err)
	}
	if err := present(namedID{"address", raw.Address}); err != nil {
		return fmt.Errorf("cluster entry: %w", err)
	}
	if raw.TrustAbs < 0 {
		return fmt.Errorf("cluster entry %s: negative trust %v", raw.Address, raw.TrustAbs)
	}
	if err := checkFraction("trust_rel", raw.TrustRel); err != nil {
		return fmt.Errorf("cluster entry %s: %w", raw.Address, err)
	}
	*c = ClusterEntry(raw)
	return nil
}

// Transfer is a watched bundle, keyed by its head hash.
type Transfer struct {
	BundleHead ID
}

func (t *Transfer) UnmarshalJSON(data []byte) error {
	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	t.BundleHead = id
	return nil
}

// Confidences maps transaction hashes to the cluster's confidence in them.
type Confidences map[ID]float64

func (c *Confidences) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cluster confidences: %w", err)
	}
	out := make(Confidences, len(raw))
	for k, v := range raw {
		hash, err := ParseID(k)
		if err != nil {
			return fmt.Errorf("cluster confidences: %w", err)
		}
		if err := checkFraction("confidence", v); err != nil {
			return fmt.Errorf("cluster confidences %s: %w", hash, err)
		}
		out[hash] = v
	}
	*c = out
	return nil
}

// PeerConfidence is one trusted actor's view on a transaction.
type PeerConfidence struct {
	Actor      ID      `json:"actor"`
	Confidence float64 `json:"confidence"`
}

// Transaction is one member of a bundle.
type Transaction struct {
	Hash        ID
	Address     ID
	Value       *big.Int
	Confidence  float64
	Confidences []PeerConfidence
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Hash        ID                  `json:"hash"`
		Address     ID                  `json:"address"`
		Value       jsoniter.RawMessage `json:"value"`
		Confidence  float64             `json:"confidence"`
		Confidences []PeerConfidence    `json:"confidences"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	if err := present(namedID{"hash", raw.Hash}, namedID{"address", raw.Address}); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	value, err := parseAmount(raw.Value)
	if err != nil {
		return fmt.Errorf("transaction %s: value: %w", raw.Hash, err)
	}
	if err := checkFraction("confidence", raw.Confidence); err != nil {
		return fmt.Errorf("transaction %s: %w", raw.Hash, err)
	}
	for _, pc := range raw.Confidences {
		if err := present(namedID{"actor", pc.Actor}); err != nil {
			return fmt.Errorf("transaction %s: peer: %w", raw.Hash, err)
		}
		if err := checkFraction("peer confidence", pc.Confidence); err != nil {
			return fmt.Errorf("transaction %s: actor %s: %w", raw.Hash, pc.Actor, err)
		}
	}
	*t = Transaction{
		Hash:        raw.Hash,
		Address:     raw.Address,
		Value:       value,
		Confidence:  raw.Confidence,
		Confidences: raw.Confidences,
	}
	return nil
}

// Marker is a consensus checkpoint over two references.
type Marker struct {
	Ref1       ID
	Ref2       ID
	Confidence float64
}

func (m *Marker) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ref1       ID      `json:"ref1"`
		Ref2       ID      `json:"ref2"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	if err := present(namedID{"ref1", raw.Ref1}, namedID{"ref2", raw.Ref2}); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	if err := checkFraction("confidence", raw.Confidence); err != nil {
		return fmt.Errorf("marker %s/%s: %w", raw.Ref1, raw.Ref2, err)
	}
	*m = Marker(raw)
	return nil
}

// parseAmount reads a signed integer sent either as a JSON number or as a
// decimal string.
func parseAmount(raw jsoniter.RawMessage) (*big.Int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, fmt.Errorf("missing")
	}
	s = strings.Trim(s, `"`)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return v, nil
}
