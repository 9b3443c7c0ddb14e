package commands

import (
	"context"
	"errors"
	"time"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"
)

// fileProblem makes msg the order's current problem and archives the
// replaced one in the same unit of work.
func fileProblem(ctx context.Context, uow UoW, o *order.TransportOrder, msg order.Message, now time.Time) error {
	archived, err := o.AddProblem(msg, now)
	if err != nil {
		return err
	}
	if archived == nil {
		return nil
	}
	return uow.ProblemHistoryRepository().Add(ctx, archived)
}

// fileNote files a problem built from a code and a text.
func fileNote(ctx context.Context, uow UoW, o *order.TransportOrder, code, text string, now time.Time) error {
	msg, err := order.NewMessage(now, code, text, o.PKey().String())
	if err != nil {
		return err
	}
	return fileProblem(ctx, uow, o, msg, now)
}

// fileRejection files a business rejection as the order's problem. It reports
// false for errors that are not business rejections.
func fileRejection(ctx context.Context, uow UoW, o *order.TransportOrder, rejection error, now time.Time) (bool, error) {
	var sce *errs.StateChangeError
	if errors.As(rejection, &sce) {
		return true, fileNote(ctx, uow, o, sce.Code, sce.Reason, now)
	}
	var de *errs.DeniedError
	if errors.As(rejection, &de) {
		return true, fileNote(ctx, uow, o, de.Code, de.Reason, now)
	}
	return false, nil
}

// commitRejection files the rejection, stores the order and commits. The
// rejection is returned unless storing fails.
func commitRejection(ctx context.Context, uow UoW, o *order.TransportOrder, rejection error, now time.Time) error {
	filed, err := fileRejection(ctx, uow, o, rejection, now)
	if err != nil {
		return err
	}
	if !filed {
		return rejection
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}
	return rejection
}
