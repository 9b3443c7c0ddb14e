package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"tms/internal/pkg/errs"
)

// StartedOrderCounter counts the orders of a transport unit in a state. The
// state machine uses it to keep at most one order per unit STARTED.
type StartedOrderCounter interface {
	CountByUnitAndState(ctx context.Context, transportUnitBK string, state State) (int64, error)
}

// transitions lists the outgoing edges of every non-final state.
var transitions = map[State][]State{
	Created:     {Initialized, Canceled},
	Initialized: {Started, Canceled, OnFailure},
	Started:     {Interrupted, OnFailure, Canceled, Finished},
	Interrupted: {OnFailure, Canceled, Finished},
}

// StateMachine validates and applies lifecycle transitions. Apply is the only
// code path that changes an order's state, start date and end date.
//
// Example:
//
//	sm := NewStateMachine(repo, time.Now)
//	if err := sm.Apply(ctx, o, Started); err != nil {
//	    var sce *errs.StateChangeError
//	    if errors.As(err, &sce) {
//	        // record sce.Code as the order's problem
//	    }
//	}
type StateMachine struct {
	counter StartedOrderCounter
	now     func() time.Time
}

// NewStateMachine creates a state machine. A nil clock defaults to time.Now.
func NewStateMachine(counter StartedOrderCounter, now func() time.Time) StateMachine {
	if now == nil {
		now = time.Now
	}
	return StateMachine{counter: counter, now: now}
}

// CanTransition reports whether newState is a direct successor of current.
// It ignores the preconditions that depend on the order's data.
func CanTransition(current, newState State) bool {
	return slices.Contains(transitions[current], newState)
}

// Validate decides whether o may move to newState. Every rejection is a
// *errs.StateChangeError carrying the message code and the order's key.
// Failures to count sibling orders are returned unchanged.
func (sm StateMachine) Validate(ctx context.Context, o *TransportOrder, newState State) error {
	if err := o.Validate(); err != nil {
		return err
	}

	key := o.PKey().String()
	current := o.State()

	if newState.Validate() != nil {
		return errs.NewStateChangeError(CodeStateRequired, key, "a new state is required")
	}

	if current.IsTerminal() {
		return errs.NewStateChangeError(CodeStateFinal, key,
			fmt.Sprintf("order is in final state %s and cannot change to %s", current, newState))
	}

	if newState < current {
		return errs.NewStateChangeError(CodeBackwardsNotAllowed, key,
			fmt.Sprintf("turning back from %s to %s is not allowed", current, newState))
	}

	if !CanTransition(current, newState) {
		return errs.NewStateChangeError(CodeTransitionNotAllowed, key,
			fmt.Sprintf("transition from %s to %s is not allowed", current, newState))
	}

	switch current {
	case Created:
		if o.TransportUnitBK() == "" || !o.HasTarget() {
			return errs.NewStateChangeError(CodeNotReady, key,
				"a transport unit and a target must be set before the order leaves CREATED")
		}
	case Initialized:
		if newState == Started {
			return sm.validateNoneStarted(ctx, o)
		}
	}

	return nil
}

// Apply validates the transition and mutates the order. Entering STARTED
// stamps the start date, entering a final state stamps the end date.
func (sm StateMachine) Apply(ctx context.Context, o *TransportOrder, newState State) error {
	if err := sm.Validate(ctx, o, newState); err != nil {
		return err
	}
	o.changeState(newState, sm.now())
	return nil
}

func (sm StateMachine) validateNoneStarted(ctx context.Context, o *TransportOrder) error {
	if sm.counter == nil {
		return nil
	}
	n, err := sm.counter.CountByUnitAndState(ctx, o.TransportUnitBK(), Started)
	if err != nil {
		return fmt.Errorf("count started orders of unit %s: %w", o.TransportUnitBK(), err)
	}
	if n > 0 {
		return errs.NewStateChangeError(CodeAlreadyStartedOne, o.PKey().String(),
			fmt.Sprintf("transport unit %s already has a started order", o.TransportUnitBK()))
	}
	return nil
}
