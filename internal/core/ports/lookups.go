package ports

import (
	"context"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/topology"
)

// LocationLookup resolves single locations by coordinate.
// Unknown coordinates yield errs.ObjectNotFoundError.
type LocationLookup interface {
	FindByPK(ctx context.Context, pk kernel.LocationPK) (topology.Location, error)
}

// LocationGroupLookup resolves location groups by name.
// Unknown names yield errs.ObjectNotFoundError.
type LocationGroupLookup interface {
	FindByName(ctx context.Context, name string) (topology.LocationGroup, error)
}

// TransportUnitLookup reads transport unit snapshots and declares their target.
type TransportUnitLookup interface {
	FindByBarcode(ctx context.Context, barcode string) (topology.TransportUnit, error)
	UpdateTarget(ctx context.Context, barcode, target string) error
}
