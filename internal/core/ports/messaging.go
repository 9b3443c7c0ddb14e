package ports

import (
	"context"
	"errors"
)

// ErrUnitLocked is returned by UnitLocker when another process holds the
// lease of the transport unit.
var ErrUnitLocked = errors.New("transport unit is locked")

// StartRequest asks the remote authority whether an order may be started.
type StartRequest struct {
	OrderKey        string `json:"orderKey"`
	TransportUnitBK string `json:"transportUnitBK"`
	RequestedState  string `json:"requestedState"`
}

// StartError is the error payload of a rejected start request.
type StartError struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// StartResponse is the answer to a StartRequest, correlated by order key.
type StartResponse struct {
	OrderKey      string      `json:"orderKey"`
	AcceptedState string      `json:"acceptedState"`
	Error         *StartError `json:"error,omitempty"`
}

// StartNegotiator sends start requests. The response arrives independently.
type StartNegotiator interface {
	RequestStart(ctx context.Context, req StartRequest) error
}

// UnitRemovalConfirmer confirms to the transport unit owner that all orders
// of a unit were released.
type UnitRemovalConfirmer interface {
	ConfirmRemoval(ctx context.Context, unitBK string) error
}

// UnitLocker grants an exclusive per-unit lease. The returned release function
// must be called once the guarded work is done.
type UnitLocker interface {
	Lock(ctx context.Context, unitBK string) (release func(context.Context) error, err error)
}
