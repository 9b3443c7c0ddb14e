package services

import (
	"strings"

	"tms/internal/core/domain/model/order"
)

// TargetChange tells the transport unit owner about a new destination.
type TargetChange struct {
	TransportUnitBK string
	Target          string
}

// RedirectVote carries the proposed targets of an order through a VoterChain.
type RedirectVote struct {
	order               *order.TransportOrder
	targetLocation      string
	targetLocationGroup string
	complete            bool
	messages            []order.Message
	changes             []TargetChange
}

// NewRedirectVote builds a vote for the proposed targets. A nil proposal keeps
// the order's current value.
func NewRedirectVote(o *order.TransportOrder, targetLocation, targetLocationGroup *string) *RedirectVote {
	v := &RedirectVote{
		order:               o,
		targetLocation:      o.TargetLocation(),
		targetLocationGroup: o.TargetLocationGroup(),
	}
	if targetLocation != nil {
		v.targetLocation = strings.TrimSpace(*targetLocation)
	}
	if targetLocationGroup != nil {
		v.targetLocationGroup = strings.TrimSpace(*targetLocationGroup)
	}
	return v
}

func (v *RedirectVote) Order() *order.TransportOrder {
	return v.order
}

func (v *RedirectVote) TargetLocation() string {
	return v.targetLocation
}

func (v *RedirectVote) TargetLocationGroup() string {
	return v.targetLocationGroup
}

// IsComplete reports whether a voter approved the vote.
func (v *RedirectVote) IsComplete() bool {
	return v.complete
}

// Complete marks the vote approved. The chain stops afterwards.
func (v *RedirectVote) Complete() {
	v.complete = true
}

// Reject records why a voter could not approve its target.
func (v *RedirectVote) Reject(msg order.Message) {
	v.messages = append(v.messages, msg)
}

// Messages returns the collected rejections in voting order.
func (v *RedirectVote) Messages() []order.Message {
	return v.messages
}

// Notify queues a destination change to be reported once the vote is stored.
func (v *RedirectVote) Notify(change TargetChange) {
	v.changes = append(v.changes, change)
}

// TargetChanges returns the queued destination changes.
func (v *RedirectVote) TargetChanges() []TargetChange {
	return v.changes
}
