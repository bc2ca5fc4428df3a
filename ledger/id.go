// Package ledger holds the records the node hands to the console. Every
// record validates its identifiers while decoding, so a malformed payload is
// rejected at the boundary instead of reaching a view.
package ledger

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Alphabet is the 27-symbol tryte alphabet; '9' is the zero symbol.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ9"
	// IDLength is the length of addresses, hashes and seeds.
	IDLength = 81
	// IDPattern matches exactly one identifier.
	IDPattern = `[A-Z9]{81}`
)

// NullID is the hash of the null transaction.
var NullID = ID(strings.Repeat("9", IDLength))

// ID is an 81-tryte address or hash.
type ID string

// ParseID validates s as an identifier.
func ParseID(s string) (ID, error) {
	if len(s) != IDLength {
		return "", fmt.Errorf("identifier must be %d trytes, got %d", IDLength, len(s))
	}
	for i := 0; i < len(s); i++ {
		if !IsTryte(s[i]) {
			return "", fmt.Errorf("identifier has invalid symbol %q at position %d", s[i], i)
		}
	}
	return ID(s), nil
}

// MustID is ParseID for constants and tests.
func MustID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsTryte reports whether c belongs to the alphabet.
func IsTryte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '9'
}

func (id ID) String() string { return string(id) }

// IsNull reports whether id is the null hash.
func (id ID) IsNull() bool { return id == NullID }

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// present reports a missing identifier field. ID.UnmarshalJSON only runs
// for keys that are there, so required fields are checked after decoding.
func present(fields ...namedID) error {
	for _, f := range fields {
		if f.id == "" {
			return fmt.Errorf("%s: missing identifier", f.name)
		}
	}
	return nil
}

type namedID struct {
	name string
	id   ID
}

func checkFraction(name string, v float64) error {
	if v < 0 || v > 1 || v != v {
		return fmt.Errorf("%s must be within [0,1], got %v", name, v)
	}
	return nil
}
