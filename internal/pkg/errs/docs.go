// Package errs provides the error taxonomy of the transport order service.
//
// Structural errors:
//   - ObjectNotFoundError: unknown order, transport unit or target
//   - ValueIsInvalidError, ValueIsRequiredError, ValueIsOutOfRangeError: malformed input
//   - ProtocolError: unexpected message from a collaborator
//
// Business rule errors, recorded as the order's problem where an order exists:
//   - StateChangeError: illegal or currently infeasible lifecycle transition
//   - DeniedError: a redirection vote was not completed by any voter
//   - RemovalNotAllowedError: a transport unit removal is blocked by its orders
//
// Each error type pairs a sentinel (for errors.Is) with a struct carrying the
// details, constructor functions, Error() and Unwrap().
package errs
