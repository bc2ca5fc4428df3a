// Package form gates mutating actions behind per-field pattern checks.
package form

import (
	"fmt"
	"regexp"

	"ec-console/apperror"
	"ec-console/ledger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Pattern is a declared field constraint. *regexp.Regexp satisfies it.
type Pattern interface {
	MatchString(s string) bool
	String() string
}

// Anchored compiles expr so that it must match the whole value.
func Anchored(expr string) *regexp.Regexp {
	return regexp.MustCompile("^(?:" + expr + ")$")
}

// Declared field patterns shared by the console forms.
var (
	ID            = Anchored(ledger.IDPattern)
	OptionalID    = Anchored("(" + ledger.IDPattern + ")?")
	Number        = Anchored(`[0-9]+`)
	SignedNumber  = Anchored(`-?[0-9]+`)
	Trust         = Anchored(`(0|[1-9][0-9]*)(\.[0-9]+)?`)
	OptionalTrust = Anchored(`((0|[1-9][0-9]*)(\.[0-9]+)?)?`)
	Depth         = Anchored(`[1-9][0-9]?`)
	Security      = Anchored(`[1-3]`)
	Tips          = Anchored("(" + ledger.IDPattern + "(," + ledger.IDPattern + ")?)?")
)

// Field is one input of a form. A nil Pattern leaves the field
// unconstrained.
type Field struct {
	Name    string
	Label   string
	Pattern Pattern
	Value   func() string
	Invalid bool
}

// Group is the ordered field set of one form.
type Group struct {
	ID     string
	Fields []*Field
}

// Field returns the field called name.
func (g *Group) Field(name string) (*Field, bool) {
	for _, f := range g.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Validator holds the groups of every open form.
type Validator struct {
	groups map[string]*Group
}

func NewValidator() *Validator {
	return &Validator{groups: map[string]*Group{}}
}

// Register replaces any group with the same id.
func (v *Validator) Register(id string, fields ...*Field) *Group {
	g := &Group{ID: id, Fields: fields}
	v.groups[id] = g
	return g
}

// Group looks up a registered group.
func (v *Validator) Group(id string) (*Group, bool) {
	g, ok := v.groups[id]
	return g, ok
}

// Validate checks the fields of group id in order and stops at the first
// mismatch, which is flagged and returned as a validation error. Fields
// checked before it have their flag cleared; fields after it are not read.
func (v *Validator) Validate(id string) error {
	g, ok := v.groups[id]
	if !ok {
		return fmt.Errorf("form: unknown group %q", id)
	}
	for _, f := range g.Fields {
		if f.Pattern == nil {
			f.Invalid = false
			continue
		}
		value := ""
		if f.Value != nil {
			value = f.Value()
		}
		if err := validation.Validate(value, matches(f.Pattern)); err != nil {
			f.Invalid = true
			label := f.Label
			if label == "" {
				label = f.Name
			}
			return apperror.Validation(label, f.Pattern.String())
		}
		f.Invalid = false
	}
	return nil
}

// matches is evaluated on empty values too; optional fields say so in
// their pattern.
func matches(p Pattern) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if !p.MatchString(s) {
			return validation.NewError("validation_pattern_mismatch", "must match "+p.String())
		}
		return nil
	})
}
