package kafka

import (
	"encoding/json"

	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"
)

// Message types accepted on the command topic.
const (
	TypeCreateTransportOrder = "CREATE_TRANSPORT_ORDER"
	TypeUpdateTransportOrder = "UPDATE_TRANSPORT_ORDER"
	TypeChangeState          = "CHANGE_STATE"
	TypeRemoveTransportUnit  = "REMOVE_TRANSPORT_UNIT"
)

// Envelope is the wire format of an inbound command.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createPayload struct {
	PKey     string `json:"pKey"`
	Barcode  string `json:"barcode"`
	Target   string `json:"target"`
	Priority string `json:"priority"`
}

type problemPayload struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type updatePayload struct {
	PKey                string          `json:"pKey"`
	Priority            *string         `json:"priority"`
	TargetLocation      *string         `json:"targetLocation"`
	TargetLocationGroup *string         `json:"targetLocationGroup"`
	Problem             *problemPayload `json:"problem"`
}

type changeStatePayload struct {
	PKey  string `json:"pKey"`
	State string `json:"state"`
}

type removePayload struct {
	TransportUnitBK string `json:"transportUnitBK"`
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errs.NewValueIsRequiredError("payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("payload", err)
	}
	return nil
}

// The sender may leave the key of a new order to the service. It is then
// derived from origin, so a redelivered record maps to the same order.
func (p createPayload) command(origin string) (commands.CreateTransportOrderCommand, error) {
	key := kernel.UUIDFromName(origin)
	if p.PKey != "" {
		var err error
		if key, err = kernel.UUIDFromString(p.PKey); err != nil {
			return commands.CreateTransportOrderCommand{}, err
		}
	}
	return commands.NewCreateTransportOrderCommand(key, p.Barcode, p.Target, p.Priority)
}

func (p updatePayload) command() (commands.UpdateTransportOrderCommand, error) {
	key, err := kernel.UUIDFromString(p.PKey)
	if err != nil {
		return commands.UpdateTransportOrderCommand{}, err
	}
	var problem *commands.ProblemPatch
	if p.Problem != nil {
		problem = &commands.ProblemPatch{Code: p.Problem.Code, Text: p.Problem.Text}
	}
	return commands.NewUpdateTransportOrderCommand(key, p.Priority, p.TargetLocation, p.TargetLocationGroup, problem)
}

func (p changeStatePayload) command() (commands.ChangeTransportOrderStateCommand, error) {
	key, err := kernel.UUIDFromString(p.PKey)
	if err != nil {
		return commands.ChangeTransportOrderStateCommand{}, err
	}
	return commands.NewChangeTransportOrderStateCommand(key, p.State)
}
