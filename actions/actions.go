// Package actions wires per-row controls to node requests.
package actions

import (
	"context"
	"errors"

	"ec-console/form"
	"ec-console/rpc"
	"ec-console/views/table"

	tea "github.com/charmbracelet/bubbletea"
)

// Action is a mutation bound to the identifying value of one record.
// Run must only use values captured when the Action was built, plus the
// inputs of Form when it is set.
type Action struct {
	Name    string
	Key     string
	Form    string
	Refresh []string
	Run     func(ctx context.Context) (any, error)
}

// DoneMsg reports a successful action. Refresh names the views to reload.
// Form is the form the action was submitted from, if any.
type DoneMsg struct {
	Action  string
	Key     string
	Form    string
	Refresh []string
	Result  any
}

// FailedMsg reports a failed or rejected action. Refresh is only set when
// the action changed node state before failing.
type FailedMsg struct {
	Action  string
	Key     string
	Form    string
	Refresh []string
	Err     error

	held bool
}

// Partial is returned by a Run that changed node state and then failed.
// The views in Refresh are reloaded even though the action failed.
type Partial struct {
	Err     error
	Refresh []string
}

func (p *Partial) Error() string { return p.Err.Error() }

func (p *Partial) Unwrap() error { return p.Err }

// Binder builds controls. With guard set, an action already in flight for
// the same key ignores further invocations.
type Binder struct {
	validator *form.Validator
	guard     bool
	inflight  map[string]struct{}
}

func New(validator *form.Validator, guard bool) *Binder {
	return &Binder{validator: validator, guard: guard, inflight: map[string]struct{}{}}
}

// Control returns a control that submits a.
func (b *Binder) Control(label string, a Action) table.Control {
	return table.Control{Label: label, Key: a.Key, Invoke: func() tea.Cmd { return b.Submit(a) }}
}

// Local returns a control that never talks to the node.
func (b *Binder) Local(label, key string, fn func() tea.Cmd) table.Control {
	return table.Control{Label: label, Key: key, Invoke: fn}
}

// Submit validates the action's form, then runs it off the Update thread.
func (b *Binder) Submit(a Action) tea.Cmd {
	if a.Form != "" {
		if err := b.validator.Validate(a.Form); err != nil {
			return func() tea.Msg { return FailedMsg{Action: a.Name, Key: a.Key, Form: a.Form, Err: err} }
		}
	}
	if b.guard {
		id := guardKey(a.Name, a.Key)
		if _, busy := b.inflight[id]; busy {
			return nil
		}
		b.inflight[id] = struct{}{}
	}
	return func() tea.Msg {
		res, err := rpc.Guard(a.Name, func() (any, error) {
			return a.Run(context.Background())
		})
		if err != nil {
			failed := FailedMsg{Action: a.Name, Key: a.Key, Form: a.Form, Err: err, held: true}
			var p *Partial
			if errors.As(err, &p) {
				failed.Refresh = p.Refresh
			}
			return failed
		}
		return DoneMsg{Action: a.Name, Key: a.Key, Form: a.Form, Refresh: a.Refresh, Result: res}
	}
}

// Settle releases the guard held by the action msg reports on. A
// submission rejected before dispatch never took the guard, so it leaves
// the one of an earlier call in place.
func (b *Binder) Settle(msg tea.Msg) {
	switch msg := msg.(type) {
	case DoneMsg:
		delete(b.inflight, guardKey(msg.Action, msg.Key))
	case FailedMsg:
		if msg.held {
			delete(b.inflight, guardKey(msg.Action, msg.Key))
		}
	}
}

// InFlight reports whether the guard for (action, key) is held.
func (b *Binder) InFlight(action, key string) bool {
	_, ok := b.inflight[guardKey(action, key)]
	return ok
}

func guardKey(action, key string) string { return action + "/" + key }
