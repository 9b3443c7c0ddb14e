package order

import (
	"errors"
	"strings"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when a TransportOrder was not created
	// through NewTransportOrder or Restore.
	ErrOrderIsNotConstructed = errors.New("TransportOrder must be created via NewTransportOrder or Restore")
)

// TransportOrder is the aggregate root moving one transport unit to a target
// location or location group.
//
// TransportOrder follows these invariants:
//   - Has a valid persistent key and priority
//   - State, start and end dates change only through StateMachine.Apply
//   - A replaced problem is handed back as ProblemHistory to be archived
//
// The surrogate id is assigned by storage; it is zero until the order was
// persisted for the first time.
type TransportOrder struct {
	id                   int64
	pKey                 kernel.UUID
	transportUnitBK      string
	priority             Priority
	state                State
	sourceLocation       string
	targetLocation       string
	targetLocationGroup  string
	startDate            *time.Time
	endDate              *time.Time
	createdAt            time.Time
	problem              *Message
	startRequestedAt     *time.Time
	startRequestAttempts int
	guard                guard.ConstructorGuard
}

// Snapshot is the flat representation of a TransportOrder used by persistence
// and read models.
type Snapshot struct {
	ID                   int64
	PKey                 kernel.UUID
	TransportUnitBK      string
	Priority             Priority
	State                State
	SourceLocation       string
	TargetLocation       string
	TargetLocationGroup  string
	StartDate            *time.Time
	EndDate              *time.Time
	CreatedAt            time.Time
	Problem              *Message
	StartRequestedAt     *time.Time
	StartRequestAttempts int
}

// NewTransportOrder creates an order in state CREATED.
//
// The transport unit and the targets may be empty at creation time; both are
// required before the order may leave CREATED.
//
// Example:
//
//	o, err := NewTransportOrder(kernel.NewUUID(), "4711", Highest, "", "AREA/PICK", time.Now())
//	if err != nil {
//	    // Handle validation error
//	}
func NewTransportOrder(
	pKey kernel.UUID,
	transportUnitBK string,
	priority Priority,
	targetLocation string,
	targetLocationGroup string,
	createdAt time.Time,
) (*TransportOrder, error) {
	o := &TransportOrder{
		state:               Created,
		transportUnitBK:     strings.TrimSpace(transportUnitBK),
		targetLocation:      strings.TrimSpace(targetLocation),
		targetLocationGroup: strings.TrimSpace(targetLocationGroup),
		createdAt:           createdAt.UTC(),
		guard:               guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setPKey(pKey),
		o.ChangePriority(priority),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Restore rebuilds an order from its persisted snapshot.
func Restore(s Snapshot) (*TransportOrder, error) {
	o := &TransportOrder{
		id:                   s.ID,
		transportUnitBK:      s.TransportUnitBK,
		sourceLocation:       s.SourceLocation,
		targetLocation:       s.TargetLocation,
		targetLocationGroup:  s.TargetLocationGroup,
		startDate:            s.StartDate,
		endDate:              s.EndDate,
		createdAt:            s.CreatedAt,
		problem:              s.Problem,
		startRequestedAt:     s.StartRequestedAt,
		startRequestAttempts: s.StartRequestAttempts,
		guard:                guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setPKey(s.PKey),
		o.ChangePriority(s.Priority),
		s.State.Validate(),
	); err != nil {
		return nil, err
	}
	o.state = s.State

	return o, nil
}

// Validate ensures the order was created through a constructor.
func (o *TransportOrder) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// Snapshot returns a copy of the order's fields.
func (o *TransportOrder) Snapshot() Snapshot {
	return Snapshot{
		ID:                   o.id,
		PKey:                 o.pKey,
		TransportUnitBK:      o.transportUnitBK,
		Priority:             o.priority,
		State:                o.state,
		SourceLocation:       o.sourceLocation,
		TargetLocation:       o.targetLocation,
		TargetLocationGroup:  o.targetLocationGroup,
		StartDate:            o.startDate,
		EndDate:              o.endDate,
		CreatedAt:            o.createdAt,
		Problem:              o.problem,
		StartRequestedAt:     o.startRequestedAt,
		StartRequestAttempts: o.startRequestAttempts,
	}
}

func (o *TransportOrder) ID() int64 {
	return o.id
}

func (o *TransportOrder) PKey() kernel.UUID {
	return o.pKey
}

func (o *TransportOrder) TransportUnitBK() string {
	return o.transportUnitBK
}

func (o *TransportOrder) Priority() Priority {
	return o.priority
}

func (o *TransportOrder) State() State {
	return o.state
}

func (o *TransportOrder) SourceLocation() string {
	return o.sourceLocation
}

func (o *TransportOrder) TargetLocation() string {
	return o.targetLocation
}

func (o *TransportOrder) TargetLocationGroup() string {
	return o.targetLocationGroup
}

func (o *TransportOrder) StartDate() *time.Time {
	return o.startDate
}

func (o *TransportOrder) EndDate() *time.Time {
	return o.endDate
}

func (o *TransportOrder) CreatedAt() time.Time {
	return o.createdAt
}

func (o *TransportOrder) Problem() *Message {
	return o.problem
}

func (o *TransportOrder) StartRequestedAt() *time.Time {
	return o.startRequestedAt
}

func (o *TransportOrder) StartRequestAttempts() int {
	return o.startRequestAttempts
}

// HasTarget reports whether at least one target field is set.
func (o *TransportOrder) HasTarget() bool {
	return o.targetLocation != "" || o.targetLocationGroup != ""
}

// IsEqual compares two orders by their persistent keys.
func (o *TransportOrder) IsEqual(other *TransportOrder) bool {
	return other != nil && o.pKey.IsEqual(other.pKey)
}

// AssignID stores the surrogate id handed out by storage on first insert.
func (o *TransportOrder) AssignID(id int64) error {
	if o.id != 0 && o.id != id {
		return errs.NewValueIsInvalidError("surrogate id is already assigned")
	}
	o.id = id
	return nil
}

// ChangePriority sets a new priority level.
func (o *TransportOrder) ChangePriority(p Priority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.priority = p
	return nil
}

// AssignSourceLocation records where the transport unit currently is.
func (o *TransportOrder) AssignSourceLocation(location string) {
	o.sourceLocation = strings.TrimSpace(location)
}

// IsTargetChange reports whether the proposed target fields differ from the
// current ones. A nil proposal leaves the respective field untouched.
func (o *TransportOrder) IsTargetChange(targetLocation, targetLocationGroup *string) bool {
	if targetLocation != nil && strings.TrimSpace(*targetLocation) != o.targetLocation {
		return true
	}
	if targetLocationGroup != nil && strings.TrimSpace(*targetLocationGroup) != o.targetLocationGroup {
		return true
	}
	return false
}

// RedirectToLocation sets the canonical target location.
func (o *TransportOrder) RedirectToLocation(location string) {
	o.targetLocation = strings.TrimSpace(location)
}

// RedirectToLocationGroup sets the canonical target location group.
func (o *TransportOrder) RedirectToLocationGroup(group string) {
	o.targetLocationGroup = strings.TrimSpace(group)
}

// AddProblem makes msg the current problem. When a problem was already set,
// the superseded one is returned as a history entry that the caller must
// persist together with the order.
func (o *TransportOrder) AddProblem(msg Message, now time.Time) (*ProblemHistory, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var archived *ProblemHistory
	if o.problem != nil {
		h, err := NewProblemHistory(o.id, *o.problem, now)
		if err != nil {
			return nil, err
		}
		archived = h
	}

	o.problem = &msg
	return archived, nil
}

// Unlink detaches the order from its transport unit without touching its state.
func (o *TransportOrder) Unlink() {
	o.transportUnitBK = ""
}

// MarkStartRequested records that a start request was sent to the remote
// authority and no response arrived yet.
func (o *TransportOrder) MarkStartRequested(at time.Time) {
	t := at.UTC()
	o.startRequestedAt = &t
	o.startRequestAttempts++
}

// AwaitsStartResponse reports whether a start request is outstanding.
func (o *TransportOrder) AwaitsStartResponse() bool {
	return o.startRequestedAt != nil
}

// ClearStartRequest ends the negotiation round-trip.
func (o *TransportOrder) ClearStartRequest() {
	o.startRequestedAt = nil
	o.startRequestAttempts = 0
}

// changeState is called by StateMachine.Apply only.
func (o *TransportOrder) changeState(newState State, now time.Time) {
	t := now.UTC()
	switch {
	case newState == Started:
		o.startDate = &t
		o.startRequestedAt = nil
	case newState.IsTerminal():
		o.endDate = &t
		o.startRequestedAt = nil
	}
	o.state = newState
}

func (o *TransportOrder) setPKey(pKey kernel.UUID) error {
	if err := pKey.Validate(); err != nil {
		return err
	}
	o.pKey = pKey
	return nil
}
