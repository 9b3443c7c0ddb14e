// Package commands contains business operations that modify transport orders.
// Every command follows the same pattern: validation, an explicit unit of
// work, persistence, and publication of lifecycle events after commit.
//
// Business rejections (errs.StateChangeError, errs.DeniedError) that concern
// an existing order are filed as the order's problem and committed before the
// rejection is returned. Structural failures roll the unit of work back.
package commands

import (
	"context"

	"tms/internal/core/application/events"
	"tms/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// ProblemRepoFactory provides access to the problem history within a transaction.
	ProblemRepoFactory interface {
		ProblemHistoryRepository() ports.ProblemHistoryRepository
	}

	// UoW manages transactions across orders and their problem history.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		ProblemRepoFactory
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}
)

// EventPublisher delivers lifecycle events once their unit of work committed.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.Event)
}
