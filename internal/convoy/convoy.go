package convoy

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/statestore"
)

// events is the full transition table (spec §4.8 "Transition rules").
// A fresh *fsm.FSM is built from it for every operation, seeded with the
// owner's persisted state — the event graph is pure, ownership of a given
// owner's row is what the StateStore's per-owner discipline provides.
var events = []fsm.EventDesc{
	{Name: EventReceiveDocument, Src: []string{string(StateDefault)}, Dst: string(StatePrintSettingsMenu)},
	{Name: EventStartScan, Src: []string{string(StateDefault)}, Dst: string(StateScanSettingsMenu)},

	{Name: EventEnterSetupPrinter, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StateSetupPrinter)},
	{Name: EventEnterSetupCopies, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StateSetupCopies)},
	{Name: EventEnterSetupPages, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StateSetupPages)},
	{Name: EventEnterSetupSides, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StateSetupSides)},
	{Name: EventEnterSetupLayout, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StateSetupLayout)},
	{Name: EventLeavePrintSetup, Src: printSetupStates, Dst: string(StatePrintSettingsMenu)},
	{Name: EventConfirmPrint, Src: []string{string(StatePrintSettingsMenu)}, Dst: string(StatePrinting)},
	{Name: EventPrintDone, Src: []string{string(StatePrinting)}, Dst: string(StateDefault)},

	{Name: EventEnterSetupScanMode, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupScanMode)},
	{Name: EventEnterSetupScanner, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupScanner)},
	{Name: EventEnterSetupQuality, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupQuality)},
	{Name: EventEnterSetupScanSides, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupScanSides)},
	{Name: EventEnterSetupCrop, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupCrop)},
	{Name: EventEnterSetupName, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateSetupName)},
	{Name: EventLeaveScanSetup, Src: scanSetupStates, Dst: string(StateScanSettingsMenu)},

	{Name: EventStartScanning, Src: []string{string(StateScanSettingsMenu)}, Dst: string(StateScanning)},
	{Name: EventFetchSuccess, Src: []string{string(StateScanning)}, Dst: string(StateScanPauseMenu)},
	{Name: EventScanBusyToMenu, Src: []string{string(StateScanning)}, Dst: string(StateScanSettingsMenu)},
	{Name: EventScanBusyToPause, Src: []string{string(StateScanning)}, Dst: string(StateScanPauseMenu)},
	{Name: EventScanMore, Src: []string{string(StateScanPauseMenu)}, Dst: string(StateScanning)},
	{Name: EventScanNew, Src: []string{string(StateScanPauseMenu)}, Dst: string(StateScanning)},
	{Name: EventScanFinish, Src: []string{string(StateScanPauseMenu)}, Dst: string(StateDefault)},
	{Name: EventScanCancel, Src: []string{string(StateScanPauseMenu)}, Dst: string(StateDefault)},
}

// Convoy drives one owner's conversation row through the event graph,
// persisting the result via the StateStore port after every transition.
type Convoy struct {
	Store statestore.Store
}

// New returns a Convoy backed by store.
func New(store statestore.Store) *Convoy {
	return &Convoy{Store: store}
}

// Load fetches the owner's row, defaulting to a fresh Default-state row if
// none is persisted yet.
func (c *Convoy) Load(ctx context.Context, owner ownerid.ID) (Row, error) {
	var row Row
	found, err := c.Store.Load(ctx, owner, &row)
	if err != nil {
		return Row{}, err
	}
	if !found {
		row = Row{State: StateDefault}
	}
	return row, nil
}

// Apply fires event against the owner's current row and persists the
// resulting state. mutate, if non-nil, runs after a successful transition
// and before the row is saved — the caller's chance to update context keys.
func (c *Convoy) Apply(ctx context.Context, owner ownerid.ID, event string, mutate func(*Row)) (Row, error) {
	row, err := c.Load(ctx, owner)
	if err != nil {
		return Row{}, err
	}

	machine := newMachine(row.State)
	if err := machine.Event(ctx, event); err != nil {
		return Row{}, apperr.New(apperr.InvalidArgument, fmt.Errorf("convoy: %s from %s: %w", event, row.State, err))
	}
	row.State = State(machine.Current())

	if mutate != nil {
		mutate(&row)
	}

	if err := c.Store.Save(ctx, owner, &row); err != nil {
		return Row{}, err
	}
	return row, nil
}

func newMachine(initial State) *fsm.FSM {
	return fsm.NewFSM(string(initial), events, fsm.Callbacks{})
}

// HandleCallback enforces the confirmation-message guard (spec §4.8): an
// event tied to a stale confirmationMessageId is silently rejected rather
// than mutating state (Testable Property 8).
func (c *Convoy) HandleCallback(ctx context.Context, owner ownerid.ID, callbackMessageID int64, event string, mutate func(*Row)) (Row, bool, error) {
	row, err := c.Load(ctx, owner)
	if err != nil {
		return Row{}, false, err
	}

	if row.ConfirmationMessageID == nil || *row.ConfirmationMessageID != callbackMessageID {
		return row, false, nil
	}

	updated, err := c.Apply(ctx, owner, event, mutate)
	return updated, err == nil, err
}

// EditStructuralMessage re-reads the owner's row before running edit, and
// aborts if expectedID no longer matches the stored confirmation message id
// (spec §4.8 "Structural-message check" — guards against a write race
// between the poll loop and a user action).
func (c *Convoy) EditStructuralMessage(ctx context.Context, owner ownerid.ID, expectedID int64, edit func() error) error {
	row, err := c.Load(ctx, owner)
	if err != nil {
		return err
	}
	if row.ConfirmationMessageID == nil || *row.ConfirmationMessageID != expectedID {
		return apperr.New(apperr.Cancelled, fmt.Errorf("convoy: confirmation message id changed, aborting edit"))
	}
	return edit()
}

// Interrupt implements "gracious interruption" (spec §4.8): any new
// top-level intent first cancels whatever orchestrator flow is active and
// forces the row back to Default, regardless of the event graph — this
// bypasses fsm.FSM's normal Src/Dst validation deliberately, since an
// interruption is valid from every state.
func (c *Convoy) Interrupt(ctx context.Context, owner ownerid.ID, cancelPrint, cancelScan func() error) error {
	row, err := c.Load(ctx, owner)
	if err != nil {
		return err
	}

	// Both cancels are idempotent and tolerant of backend 404s on
	// already-cleaned jobs (spec §4.8) — always call both, regardless of
	// which flow (if any) the owner is actually in.
	if cancelPrint != nil {
		if err := cancelPrint(); err != nil {
			return err
		}
	}
	if cancelScan != nil {
		if err := cancelScan(); err != nil {
			return err
		}
	}

	row.State = StateDefault
	row.resetPrintContext()
	row.resetScanContext()

	return c.Store.Save(ctx, owner, &row)
}
