// Package order provides the transport order aggregate and its lifecycle.
//
// The package includes:
//   - TransportOrder: the aggregate root moving one transport unit to a target
//   - State: the lifecycle states with their numeric order
//   - StateMachine: the only code path that changes state, start and end dates
//   - Priority: the weighted urgency used to sequence initialization
//   - Message and ProblemHistory: the current and archived problems of an order
//
// Key business rules:
//   - At most one order per transport unit is STARTED at a time
//   - States never move backwards; FINISHED, ONFAILURE and CANCELED are final
//   - An order leaves CREATED only with a transport unit and a target
//   - A replaced problem is always archived to the problem history first
package order
