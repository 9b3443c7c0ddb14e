package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/domain/model/topology"
	"tms/internal/pkg/errs"
)

// Voter judges one kind of target. A voter that cannot resolve its target
// abstains by returning nil without touching the vote.
type Voter interface {
	Vote(ctx context.Context, v *RedirectVote) error
}

// LocationFinder resolves a location coordinate.
type LocationFinder interface {
	FindByPK(ctx context.Context, pk kernel.LocationPK) (topology.Location, error)
}

// LocationGroupFinder resolves a location group name.
type LocationGroupFinder interface {
	FindByName(ctx context.Context, name string) (topology.LocationGroup, error)
}

// LocationVoter approves single-location targets accepting incoming traffic.
type LocationVoter struct {
	locations LocationFinder
	now       func() time.Time
}

func NewLocationVoter(locations LocationFinder, now func() time.Time) LocationVoter {
	if now == nil {
		now = time.Now
	}
	return LocationVoter{locations: locations, now: now}
}

func (lv LocationVoter) Vote(ctx context.Context, v *RedirectVote) error {
	if v.TargetLocation() == "" || v.TargetLocation() == v.Order().TargetLocation() {
		return nil
	}
	pk, err := kernel.ParseLocationPK(v.TargetLocation())
	if err != nil {
		return nil
	}

	loc, err := lv.locations.FindByPK(ctx, pk)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	o := v.Order()
	if !loc.IncomingActive {
		return reject(v, lv.now(), fmt.Sprintf("location %s is blocked for incoming", loc.ID()))
	}

	o.RedirectToLocation(loc.ID())
	v.Complete()
	if o.TransportUnitBK() != "" {
		v.Notify(TargetChange{TransportUnitBK: o.TransportUnitBK(), Target: loc.ID()})
	}
	return nil
}

// LocationGroupVoter approves location group targets accepting incoming traffic.
type LocationGroupVoter struct {
	groups LocationGroupFinder
	now    func() time.Time
}

func NewLocationGroupVoter(groups LocationGroupFinder, now func() time.Time) LocationGroupVoter {
	if now == nil {
		now = time.Now
	}
	return LocationGroupVoter{groups: groups, now: now}
}

func (gv LocationGroupVoter) Vote(ctx context.Context, v *RedirectVote) error {
	if v.TargetLocationGroup() == "" || v.TargetLocationGroup() == v.Order().TargetLocationGroup() {
		return nil
	}

	group, err := gv.groups.FindByName(ctx, v.TargetLocationGroup())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !group.IncomingActive {
		return reject(v, gv.now(), fmt.Sprintf("location group %s is blocked for incoming", group.Name))
	}

	o := v.Order()
	o.RedirectToLocationGroup(group.Name)
	v.Complete()
	if o.TransportUnitBK() != "" {
		v.Notify(TargetChange{TransportUnitBK: o.TransportUnitBK(), Target: group.Name})
	}
	return nil
}

func reject(v *RedirectVote, now time.Time, text string) error {
	msg, err := order.NewMessage(now, order.CodeTargetBlocked, text, v.Order().PKey().String())
	if err != nil {
		return err
	}
	v.Reject(msg)
	return nil
}
