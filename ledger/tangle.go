package ledger

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ValueSign classifies a transaction by the sign of its value.
type ValueSign int

const (
	ValueZero ValueSign = iota
	ValueNegative
	ValuePositive
)

func (s ValueSign) String() string {
	switch s {
	case ValueNegative:
		return "negative"
	case ValuePositive:
		return "positive"
	default:
		return "zero"
	}
}

// TangleNode is one transaction in the ancestry projection.
type TangleNode struct {
	ID   ID
	Sign ValueSign
}

func (n *TangleNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    ID                  `json:"id"`
		Value jsoniter.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tangle node: %w", err)
	}
	if err := present(namedID{"id", raw.ID}); err != nil {
		return fmt.Errorf("tangle node: %w", err)
	}
	value, err := parseAmount(raw.Value)
	if err != nil {
		return fmt.Errorf("tangle node %s: value: %w", raw.ID, err)
	}
	n.ID = raw.ID
	switch value.Sign() {
	case -1:
		n.Sign = ValueNegative
	case 1:
		n.Sign = ValuePositive
	default:
		n.Sign = ValueZero
	}
	return nil
}

// TangleLink points from a transaction to one of its parents.
type TangleLink struct {
	Source ID
	Target ID
	Weight float64
}

func (l *TangleLink) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source ID       `json:"source"`
		Target ID       `json:"target"`
		Weight *float64 `json:"weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tangle link: %w", err)
	}
	if err := present(namedID{"source", raw.Source}, namedID{"target", raw.Target}); err != nil {
		return fmt.Errorf("tangle link: %w", err)
	}
	l.Source, l.Target, l.Weight = raw.Source, raw.Target, 1
	if raw.Weight != nil {
		if *raw.Weight <= 0 {
			return fmt.Errorf("tangle link %s->%s: weight must be positive, got %v", raw.Source, raw.Target, *raw.Weight)
		}
		l.Weight = *raw.Weight
	}
	return nil
}

// TangleGraph is the visualization-only ancestry of one transaction.
type TangleGraph struct {
	Nodes []TangleNode `json:"nodes"`
	Links []TangleLink `json:"links"`
}

// Counts tallies nodes per value sign.
func (g TangleGraph) Counts() map[ValueSign]int {
	out := map[ValueSign]int{ValueZero: 0, ValueNegative: 0, ValuePositive: 0}
	for _, n := range g.Nodes {
		out[n.Sign]++
	}
	return out
}

// Dangling returns links whose endpoints are not among the nodes. The node
// module truncates ancestry at a fixed depth, so these are expected.
func (g TangleGraph) Dangling() []TangleLink {
	known := make(map[ID]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = struct{}{}
	}
	var out []TangleLink
	for _, l := range g.Links {
		_, okS := known[l.Source]
		_, okT := known[l.Target]
		if !okS || !okT {
			out = append(out, l)
		}
	}
	return out
}
