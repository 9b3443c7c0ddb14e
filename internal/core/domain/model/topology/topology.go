// Package topology holds read-only snapshots of warehouse entities owned by
// other services: locations, location groups and transport units.
package topology

import "tms/internal/core/domain/model/kernel"

// Location is a single addressable point as reported by the location lookup.
type Location struct {
	PK             kernel.LocationPK
	IncomingActive bool
}

// ID returns the canonical coordinate string.
func (l Location) ID() string {
	return l.PK.String()
}

// LocationGroup is a named logical area usable as a target.
type LocationGroup struct {
	Name           string
	IncomingActive bool
}

// TransportUnit is the snapshot of a handling unit by its business key.
type TransportUnit struct {
	Barcode        string
	ActualLocation string
	TargetLocation string
}
