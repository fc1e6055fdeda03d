/**
 * @description
 * This file contains the confirmation gate: a small yes/no dialog state
 * machine placed in front of destructive or state-changing actions (store and
 * card deletes, and the heavier edit forms). The gate does not know what the
 * confirmed action does; it only runs it with the busy flag held so neither
 * confirm nor cancel can fire twice while the action is settling.
 */

package app

import (
	"context"
	"sync"
)

// GateKind controls presentation only.
type GateKind string

const (
	GateDanger  GateKind = "danger"
	GateWarning GateKind = "warning"
	GateInfo    GateKind = "info"
)

// ConfirmGate blocks one action behind an explicit confirmation step.
type ConfirmGate struct {
	mu sync.Mutex

	open bool
	busy bool

	Kind         GateKind
	Message      string
	Description  string
	ConfirmLabel string
	CancelLabel  string

	action func(ctx context.Context) error
}

// OpenGate arms the gate with copy and the action to run on confirm.
func (g *ConfirmGate) OpenGate(kind GateKind, message, description, confirmLabel, cancelLabel string, action func(ctx context.Context) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.busy = false
	g.Kind = kind
	g.Message = message
	g.Description = description
	g.ConfirmLabel = confirmLabel
	g.CancelLabel = cancelLabel
	g.action = action
}

// Open reports whether the gate is showing. A closed gate renders nothing.
func (g *ConfirmGate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Busy reports whether the confirmed action is still running.
func (g *ConfirmGate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Confirm runs the armed action with the busy flag held, then resets and
// closes the gate. Confirm while closed or busy is a no-op; the action's
// error is returned to the caller for surfacing.
func (g *ConfirmGate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	if !g.open || g.busy || g.action == nil {
		g.mu.Unlock()
		return nil
	}
	g.busy = true
	action := g.action
	g.mu.Unlock()

	err := action(ctx)

	g.mu.Lock()
	g.busy = false
	g.open = false
	g.action = nil
	g.mu.Unlock()
	return err
}

// Cancel dismisses the gate without running the action. Cancel is refused
// while the action is in flight.
func (g *ConfirmGate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.open = false
	g.action = nil
	return true
}
