package order

import (
	"fmt"
	"strings"

	"tms/internal/pkg/errs"
)

// State is a lifecycle state of a transport order. The numeric values define
// the total order used for monotonicity checks.
type State int

const (
	// Unknown is the zero value and never a valid target of a transition.
	Unknown State = 0

	// Created is the initial state of a new order.
	Created State = 10

	// Initialized orders are ready to be started.
	Initialized State = 20

	// Started orders are being executed by the material flow.
	Started State = 30

	// Interrupted orders were stopped during execution.
	Interrupted State = 40

	// OnFailure orders failed and are closed.
	OnFailure State = 50

	// Canceled orders were withdrawn and are closed.
	Canceled State = 60

	// Finished orders reached their target and are closed.
	Finished State = 70
)

func getStateStrings() map[State]string {
	return map[State]string{
		Created:     "CREATED",
		Initialized: "INITIALIZED",
		Started:     "STARTED",
		Interrupted: "INTERRUPTED",
		OnFailure:   "ONFAILURE",
		Canceled:    "CANCELED",
		Finished:    "FINISHED",
	}
}

// AllStates returns every valid state in ascending order.
func AllStates() []State {
	return []State{Created, Initialized, Started, Interrupted, OnFailure, Canceled, Finished}
}

// ParseState maps a state name (case-insensitive) to its State.
func ParseState(s string) (State, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for state, str := range getStateStrings() {
		if str == name {
			return state, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%q is not a lifecycle state", s))
}

func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

func (s State) Validate() error {
	if _, ok := getStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid", fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// IsTerminal reports whether the state admits no further transition.
func (s State) IsTerminal() bool {
	return s == Finished || s == OnFailure || s == Canceled
}

// EndsExecution reports whether reaching the state frees the transport unit
// for its next order. Unlike IsTerminal it includes Interrupted.
func (s State) EndsExecution() bool {
	return s.IsTerminal() || s == Interrupted
}
