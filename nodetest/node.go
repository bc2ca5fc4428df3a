// Package nodetest is an in-memory stand-in for the node's economic
// clustering module. It speaks the same form-encoded envelope protocol and
// keeps just enough state for the console's screens to be driven end to end.
package nodetest

import (
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"ec-console/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Route is the endpoint path the node module bridge listens on.
const Route = "/getModuleResponse"

// WalletSize is how many addresses get_balances derives per seed.
const WalletSize = 10

type clusterEntry struct {
	address ledger.ID
	trust   float64
}

type override struct {
	status int
	body   string
	fail   string
}

// Node is a fake node. The zero value is not usable; call New.
type Node struct {
	mu       sync.Mutex
	password string
	path     string

	balances     map[ledger.ID]*big.Int
	actors       []ledger.Actor
	cluster      []clusterEntry
	transfers    []ledger.ID
	transactions map[ledger.ID][]map[string]any
	markers      map[ledger.ID][]map[string]any
	tangles      map[ledger.ID]map[string]any

	calls     map[string]int
	last      map[string]map[string]any
	overrides map[string]override
	seq       int
}

// New returns an empty node that accepts password for module path.
func New(path, password string) *Node {
	return &Node{
		password:     password,
		path:         path,
		balances:     map[ledger.ID]*big.Int{},
		transactions: map[ledger.ID][]map[string]any{},
		markers:      map[ledger.ID][]map[string]any{},
		tangles:      map[ledger.ID]map[string]any{},
		calls:        map[string]int{},
		last:         map[string]map[string]any{},
		overrides:    map[string]override{},
	}
}

// Router mounts the node on a chi router.
func (n *Node) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(Route, n.handle)
	return r
}

// Serve starts an httptest server and returns the full endpoint URL.
func (n *Node) Serve() (*httptest.Server, string) {
	srv := httptest.NewServer(n.Router())
	return srv, srv.URL + Route
}

// Calls reports how often action was received.
func (n *Node) Calls(action string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[action]
}

// LastRequest returns the most recent envelope received for action.
func (n *Node) LastRequest(action string) map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last[action]
}

// Fail makes action answer success=false with message.
func (n *Node) Fail(action, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overrides[action] = override{fail: message}
}

// Respond makes action answer with a raw status and body.
func (n *Node) Respond(action string, status int, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overrides[action] = override{status: status, body: body}
}

// Reset removes an override.
func (n *Node) Reset(action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.overrides, action)
}

// Address derives the index-th address of seed. It only needs to be
// deterministic and distinct per index.
func Address(seed ledger.ID, index int) ledger.ID {
	var b strings.Builder
	for j := 0; j < ledger.IDLength; j++ {
		pos := strings.IndexByte(ledger.Alphabet, seed[j])
		b.WriteByte(ledger.Alphabet[(pos+index*(j+1))%len(ledger.Alphabet)])
	}
	return ledger.ID(b.String())
}

// SetBalance seeds the ledger.
func (n *Node) SetBalance(address ledger.ID, balance int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[address] = big.NewInt(balance)
}

// AddActor registers an actor with the given tree usage.
func (n *Node) AddActor(address ledger.ID, index, capacity uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actors = append(n.actors, ledger.Actor{Address: address, MerkleTreeIndex: index, MerkleTreeCapacity: capacity})
}

// Trust sets the absolute trust of a peer.
func (n *Node) Trust(address ledger.ID, trust float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setTrust(address, trust)
}

// Watch adds a bundle with its transactions.
func (n *Node) Watch(head ledger.ID, txs ...ledger.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transfers = append(n.transfers, head)
	for _, tx := range txs {
		peers := make([]map[string]any, 0, len(tx.Confidences))
		for _, pc := range tx.Confidences {
			peers = append(peers, map[string]any{"actor": pc.Actor.String(), "confidence": pc.Confidence})
		}
		value := "0"
		if tx.Value != nil {
			value = tx.Value.String()
		}
		n.transactions[head] = append(n.transactions[head], map[string]any{
			"hash":        tx.Hash.String(),
			"address":     tx.Address.String(),
			"value":       value,
			"confidence":  tx.Confidence,
			"confidences": peers,
		})
	}
}

func (n *Node) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req map[string]any
	if err := json.Unmarshal([]byte(r.PostForm.Get("request")), &req); err != nil {
		n.write(w, failure("could not parse request: "+err.Error()))
		return
	}
	action, _ := req["action"].(string)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls[action]++
	n.last[action] = req

	if o, ok := n.overrides[action]; ok {
		if o.fail != "" {
			n.write(w, failure(o.fail))
			return
		}
		w.WriteHeader(o.status)
		_, _ = w.Write([]byte(o.body))
		return
	}

	if r.PostForm.Get("path") != n.path || r.PostForm.Get("password") != n.password {
		n.write(w, failure("invalid module path or password"))
		return
	}

	resp, err := n.dispatch(action, req)
	if err != nil {
		n.write(w, failure(err.Error()))
		return
	}
	resp["success"] = true
	n.write(w, resp)
}

func (n *Node) write(w http.ResponseWriter, inner map[string]any) {
	encoded, err := json.Marshal(inner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, _ := json.Marshal(map[string]string{"response": string(encoded)})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

func (n *Node) dispatch(action string, req map[string]any) (map[string]any, error) {
	switch action {
	case "get_balances":
		seed, err := idParam(req, "seed")
		if err != nil {
			return nil, err
		}
		entries := make([]map[string]any, 0, WalletSize)
		for i := 0; i < WalletSize; i++ {
			addr := Address(seed, i)
			bal := n.balances[addr]
			if bal == nil {
				bal = new(big.Int)
			}
			entries = append(entries, map[string]any{"address": addr.String(), "balance": bal.String()})
		}
		return map[string]any{"balances": entries}, nil

	case "get_actors":
		out := make([]map[string]any, 0, len(n.actors))
		for _, a := range n.actors {
			out = append(out, map[string]any{
				"address":              a.Address.String(),
				"merkle_tree_index":    a.MerkleTreeIndex,
				"merkle_tree_capacity": a.MerkleTreeCapacity,
			})
		}
		return map[string]any{"actors": out}, nil

	case "get_cluster":
		var total float64
		for _, c := range n.cluster {
			total += c.trust
		}
		out := make([]map[string]any, 0, len(n.cluster))
		for _, c := range n.cluster {
			out = append(out, map[string]any{"address": c.address.String(), "trust_abs": c.trust, "trust_rel": c.trust / total})
		}
		return map[string]any{"cluster": out}, nil

	case "get_cluster_confidences":
		hashes, _ := req["hashes"].([]any)
		out := make(map[string]any, len(hashes))
		for _, h := range hashes {
			id, err := ledger.ParseID(fmt.Sprint(h))
			if err != nil {
				return nil, fmt.Errorf("hashes: %w", err)
			}
			out[id.String()] = n.confidence(id)
		}
		return map[string]any{"cluster_confidences": out}, nil

	case "get_transfers":
		out := make([]string, 0, len(n.transfers))
		for _, t := range n.transfers {
			out = append(out, t.String())
		}
		return map[string]any{"transfers": out}, nil

	case "get_transactions":
		head, err := idParam(req, "bundle_head")
		if err != nil {
			return nil, err
		}
		txs := n.transactions[head]
		if txs == nil {
			txs = []map[string]any{}
		}
		return map[string]any{"transactions": txs}, nil

	case "get_markers":
		actor, err := idParam(req, "actor")
		if err != nil {
			return nil, err
		}
		ms := n.markers[actor]
		if ms == nil {
			ms = []map[string]any{}
		}
		return map[string]any{"markers": ms}, nil

	case "get_tangle":
		tx, err := idParam(req, "transaction")
		if err != nil {
			return nil, err
		}
		g, ok := n.tangles[tx]
		if !ok {
			g = map[string]any{
				"nodes": []map[string]any{{"id": tx.String(), "value": "0"}},
				"links": []map[string]any{{"source": tx.String(), "target": ledger.NullID.String()}},
			}
		}
		return map[string]any{"tangle": g}, nil

	case "create_actor":
		seed, err := idParam(req, "seed")
		if err != nil {
			return nil, err
		}
		depth, _ := req["depth"].(float64)
		index, _ := req["index"].(float64)
		addr := Address(seed, int(index)+WalletSize)
		n.actors = append(n.actors, ledger.Actor{Address: addr, MerkleTreeCapacity: 1 << uint(depth)})
		return map[string]any{"address": addr.String()}, nil

	case "delete_actor":
		addr, err := idParam(req, "address")
		if err != nil {
			return nil, err
		}
		for i, a := range n.actors {
			if a.Address == addr {
				n.actors = append(n.actors[:i], n.actors[i+1:]...)
				return map[string]any{}, nil
			}
		}
		return nil, fmt.Errorf("no actor with address %s", addr)

	case "set_trust":
		addr, err := idParam(req, "address")
		if err != nil {
			return nil, err
		}
		trust, ok := req["trust"].(float64)
		if !ok || trust < 0 {
			return nil, fmt.Errorf("trust must be a non-negative number")
		}
		n.setTrust(addr, trust)
		return map[string]any{}, nil

	case "change_balance":
		addr, err := idParam(req, "address")
		if err != nil {
			return nil, err
		}
		s, _ := req["to_add"].(string)
		delta, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("to_add is not an integer: %q", s)
		}
		bal := n.balances[addr]
		if bal == nil {
			bal = new(big.Int)
		}
		n.balances[addr] = new(big.Int).Add(bal, delta)
		return map[string]any{}, nil

	case "submit_transfer":
		return n.submitTransfer(req)

	case "unwatch_transfer":
		head, err := idParam(req, "transfer")
		if err != nil {
			return nil, err
		}
		for i, t := range n.transfers {
			if t == head {
				n.transfers = append(n.transfers[:i], n.transfers[i+1:]...)
				return map[string]any{}, nil
			}
		}
		return nil, fmt.Errorf("transfer %s is not watched", head)

	case "issue_marker":
		actor, err := idParam(req, "actor")
		if err != nil {
			return nil, err
		}
		for i := range n.actors {
			a := &n.actors[i]
			if a.Address != actor {
				continue
			}
			if a.Exhausted() {
				return nil, fmt.Errorf("actor %s has no signatures left", actor)
			}
			a.MerkleTreeIndex++
			trunk, _ := req["trunk"].(string)
			branch, _ := req["branch"].(string)
			if trunk == "" {
				trunk = ledger.NullID.String()
			}
			if branch == "" {
				branch = ledger.NullID.String()
			}
			n.markers[actor] = append(n.markers[actor], map[string]any{"ref1": trunk, "ref2": branch, "confidence": 0})
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("no actor with address %s", actor)
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

func (n *Node) submitTransfer(req map[string]any) (map[string]any, error) {
	seed, err := idParam(req, "seed")
	if err != nil {
		return nil, err
	}
	receiver, err := idParam(req, "receiver")
	if err != nil {
		return nil, err
	}
	index, _ := req["index"].(float64)
	s, _ := req["value"].(string)
	value, ok := new(big.Int).SetString(s, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("value must be a non-negative integer")
	}

	sender := Address(seed, int(index))
	bal := n.balances[sender]
	if bal == nil {
		bal = new(big.Int)
	}
	if check, _ := req["check_balances"].(bool); check && bal.Cmp(value) < 0 {
		return nil, fmt.Errorf("insufficient balance on %s", sender)
	}

	remainder := sender
	if r, _ := req["remainder"].(string); r != "" {
		if remainder, err = ledger.ParseID(r); err != nil {
			return nil, fmt.Errorf("remainder: %w", err)
		}
	}

	n.seq++
	head := Address(receiver, n.seq)
	n.balances[sender] = new(big.Int).Sub(bal, value)
	if remainder != sender {
		n.balances[remainder] = new(big.Int).Add(n.balances[sender], zeroIfNil(n.balances[remainder]))
		n.balances[sender] = new(big.Int)
	}
	n.balances[receiver] = new(big.Int).Add(zeroIfNil(n.balances[receiver]), value)

	n.transfers = append(n.transfers, head)
	n.transactions[head] = []map[string]any{
		{"hash": head.String(), "address": receiver.String(), "value": value.String(), "confidence": 0, "confidences": []map[string]any{}},
		{"hash": Address(head, 1).String(), "address": sender.String(), "value": new(big.Int).Neg(value).String(), "confidence": 0, "confidences": []map[string]any{}},
	}
	return map[string]any{"hash": head.String()}, nil
}

func (n *Node) setTrust(addr ledger.ID, trust float64) {
	for i, c := range n.cluster {
		if c.address != addr {
			continue
		}
		if trust == 0 {
			n.cluster = append(n.cluster[:i], n.cluster[i+1:]...)
		} else {
			n.cluster[i].trust = trust
		}
		return
	}
	if trust > 0 {
		n.cluster = append(n.cluster, clusterEntry{address: addr, trust: trust})
	}
}

// confidence of a watched transaction. Unknown hashes have none.
func (n *Node) confidence(hash ledger.ID) float64 {
	for _, txs := range n.transactions {
		for _, tx := range txs {
			if tx["hash"] == hash.String() {
				c, _ := tx["confidence"].(float64)
				return c
			}
		}
	}
	return 0
}

func idParam(req map[string]any, name string) (ledger.ID, error) {
	s, _ := req[name].(string)
	id, err := ledger.ParseID(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return id, nil
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
