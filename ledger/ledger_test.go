package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = strings.Repeat("A", IDLength)
	addrB = strings.Repeat("B", IDLength)
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid letters", addrA, false},
		{"null hash", strings.Repeat("9", IDLength), false},
		{"too short", addrA[:80], true},
		{"too long", addrA + "A", true},
		{"lowercase", strings.ToLower(addrA), true},
		{"digit other than nine", addrA[:80] + "1", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.True(t, MustID(strings.Repeat("9", IDLength)).IsNull())
}

func TestWalletEntries_DecodeAndIndex(t *testing.T) {
	body := `[{"address":"` + addrA + `","balance":117},{"address":"` + addrB + `","balance":"-5"}]`

	var entries []WalletEntry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	entries = IndexWallet(entries)

	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, "117", entries[0].Balance.String())
	assert.Equal(t, 1, entries[1].Index)
	assert.Equal(t, "-5", entries[1].Balance.String())
}

func TestWalletEntry_RejectsMalformedAddress(t *testing.T) {
	var e WalletEntry
	err := json.Unmarshal([]byte(`{"address":"ABC","balance":1}`), &e)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"address":"`+addrA+`"}`), &e)
	assert.Error(t, err, "missing balance")
}

func TestActor_BothForms(t *testing.T) {
	var actors []Actor
	body := `["` + addrA + `",{"address":"` + addrB + `","merkle_tree_index":4,"merkle_tree_capacity":4}]`
	require.NoError(t, json.Unmarshal([]byte(body), &actors))

	require.Len(t, actors, 2)
	assert.Equal(t, ID(addrA), actors[0].Address)
	assert.False(t, actors[0].Exhausted())
	assert.True(t, actors[1].Exhausted())
	assert.Zero(t, actors[1].Remaining())
}

func TestActor_IndexBeyondCapacity(t *testing.T) {
	var a Actor
	err := json.Unmarshal([]byte(`{"address":"`+addrA+`","merkle_tree_index":9,"merkle_tree_capacity":8}`), &a)
	assert.Error(t, err)
}

func TestClusterEntry_Fractions(t *testing.T) {
	var c ClusterEntry
	require.NoError(t, json.Unmarshal([]byte(`{"address":"`+addrA+`","trust_abs":3,"trust_rel":0.75}`), &c))
	assert.Equal(t, 3.0, c.TrustAbs)
	assert.Equal(t, 0.75, c.TrustRel)

	assert.Error(t, json.Unmarshal([]byte(`{"address":"`+addrA+`","trust_abs":3,"trust_rel":1.5}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"address":"`+addrA+`","trust_abs":-1,"trust_rel":0}`), &c))
}

func TestTransaction_Decode(t *testing.T) {
	body := `{"hash":"` + addrA + `","address":"` + addrB + `","value":"-10","confidence":0.5,
		"confidences":[{"actor":"` + addrB + `","confidence":1}]}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))
	assert.Equal(t, "-10", tx.Value.String())
	require.Len(t, tx.Confidences, 1)
	assert.Equal(t, ID(addrB), tx.Confidences[0].Actor)

	bad := strings.Replace(body, `"confidence":1}`, `"confidence":2}`, 1)
	assert.Error(t, json.Unmarshal([]byte(bad), &tx))
}

func TestTransfers_BareHashes(t *testing.T) {
	var transfers []Transfer
	require.NoError(t, json.Unmarshal([]byte(`["`+addrA+`"]`), &transfers))
	assert.Equal(t, ID(addrA), transfers[0].BundleHead)

	assert.Error(t, json.Unmarshal([]byte(`["nope"]`), &transfers))
}

func TestTangleGraph(t *testing.T) {
	body := `{"nodes":[{"id":"` + addrA + `","value":"-3"},{"id":"` + addrB + `","value":"0"}],
		"links":[{"source":"` + addrA + `","target":"` + addrB + `"},
		         {"source":"` + addrB + `","target":"` + string(NullID) + `","weight":2}]}`

	var g TangleGraph
	require.NoError(t, json.Unmarshal([]byte(body), &g))

	assert.Equal(t, ValueNegative, g.Nodes[0].Sign)
	assert.Equal(t, ValueZero, g.Nodes[1].Sign)
	assert.Equal(t, 1.0, g.Links[0].Weight)
	assert.Equal(t, 2.0, g.Links[1].Weight)

	counts := g.Counts()
	assert.Equal(t, 1, counts[ValueNegative])
	assert.Equal(t, 0, counts[ValuePositive])
	assert.Len(t, g.Dangling(), 1)
}

func TestRecords_RejectMissingIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		body string
		into any
	}{
		{"wallet entry without address", `[{"balance":1}]`, &[]WalletEntry{}},
		{"actor without address", `[{"merkle_tree_index":0,"merkle_tree_capacity":8}]`, &[]Actor{}},
		{"cluster entry without address", `[{"trust_abs":1,"trust_rel":1}]`, &[]ClusterEntry{}},
		{"transaction without hash", `[{"address":"` + addrB + `","value":"1","confidence":0}]`, &[]Transaction{}},
		{"transaction without address", `[{"hash":"` + addrA + `","value":"1","confidence":0}]`, &[]Transaction{}},
		{"peer without actor", `[{"hash":"` + addrA + `","address":"` + addrB + `","value":"1","confidence":0,"confidences":[{"confidence":1}]}]`, &[]Transaction{}},
		{"marker without ref1", `[{"ref2":"` + addrB + `","confidence":0}]`, &[]Marker{}},
		{"marker without ref2", `[{"ref1":"` + addrA + `","confidence":0}]`, &[]Marker{}},
		{"tangle node without id", `{"nodes":[{"value":"1"}],"links":[]}`, &TangleGraph{}},
		{"tangle link without target", `{"nodes":[{"id":"` + addrA + `","value":"1"}],"links":[{"source":"` + addrA + `"}]}`, &TangleGraph{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := json.Unmarshal([]byte(tt.body), tt.into)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing identifier")
		})
	}
}

func TestConfidences_KeyedByHash(t *testing.T) {
	var c Confidences
	require.NoError(t, json.Unmarshal([]byte(`{"`+addrA+`":0.25,"`+addrB+`":1}`), &c))
	assert.Equal(t, Confidences{ID(addrA): 0.25, ID(addrB): 1}, c)

	assert.Error(t, json.Unmarshal([]byte(`{"SHORT":0.5}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"`+addrA+`":1.5}`), &c))
}
