package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrAlreadyExists     = errors.New("object already exists")
	ErrValueIsInvalid    = errors.New("value is invalid")
	ErrValueIsOutOfRange = errors.New("value is out of range")
	ErrValueIsRequired   = errors.New("value is required")
	ErrStateChange       = errors.New("state change not allowed")
	ErrDenied            = errors.New("request denied")
	ErrRemovalNotAllowed = errors.New("removal not allowed")
	ErrProtocol          = errors.New("protocol error")
)

// sanitize flattens values that end up in log lines and problem texts.
func sanitize(v any) string {
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "\n", " ")
}

// ObjectNotFoundError reports an unknown order, unit or target.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)", ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// AlreadyExistsError reports a second insert of the same key.
type AlreadyExistsError struct {
	ParamName string
	ID        any
}

func NewAlreadyExistsError(paramName string, id any) *AlreadyExistsError {
	return &AlreadyExistsError{ParamName: paramName, ID: id}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrAlreadyExists, e.ParamName, sanitize(e.ID))
}

func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %s is %s, min value is %s, max value is %s",
		ErrValueIsInvalid, sanitize(e.Value), e.ParamName, sanitize(e.Min), sanitize(e.Max))
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// StateChangeError is raised for an illegal or currently infeasible lifecycle
// transition. Code is the message code filed as the order's problem.
type StateChangeError struct {
	Code     string
	OrderKey string
	Reason   string
}

func NewStateChangeError(code, orderKey, reason string) *StateChangeError {
	return &StateChangeError{Code: code, OrderKey: orderKey, Reason: reason}
}

func (e *StateChangeError) Error() string {
	return fmt.Sprintf("%s: [%s] order %s: %s", ErrStateChange, e.Code, e.OrderKey, sanitize(e.Reason))
}

func (e *StateChangeError) Unwrap() error {
	return ErrStateChange
}

// DeniedError is raised when no redirection voter approved a new target.
type DeniedError struct {
	Code     string
	OrderKey string
	Reason   string
}

func NewDeniedError(code, orderKey, reason string) *DeniedError {
	return &DeniedError{Code: code, OrderKey: orderKey, Reason: reason}
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: [%s] order %s: %s", ErrDenied, e.Code, e.OrderKey, sanitize(e.Reason))
}

func (e *DeniedError) Unwrap() error {
	return ErrDenied
}

// RemovalNotAllowedError is raised when a transport unit still has orders in
// a state that blocks its removal.
type RemovalNotAllowedError struct {
	UnitBK string
	States []string
}

func NewRemovalNotAllowedError(unitBK string, states ...string) *RemovalNotAllowedError {
	return &RemovalNotAllowedError{UnitBK: unitBK, States: states}
}

func (e *RemovalNotAllowedError) Error() string {
	return fmt.Sprintf("%s: transport unit %s has orders in blocked states [%s]",
		ErrRemovalNotAllowed, sanitize(e.UnitBK), strings.Join(e.States, ","))
}

func (e *RemovalNotAllowedError) Unwrap() error {
	return ErrRemovalNotAllowed
}

// ProtocolError marks an unexpected message from a collaborator. It is never
// retried locally.
type ProtocolError struct {
	Message string
	Cause   error
}

func NewProtocolError(message string) *ProtocolError {
	return &ProtocolError{Message: message}
}

func NewProtocolErrorWithCause(message string, cause error) *ProtocolError {
	return &ProtocolError{Message: message, Cause: cause}
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrProtocol, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrProtocol, e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// IsValidation reports whether err stems from malformed input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValueIsInvalid) ||
		errors.Is(err, ErrValueIsRequired) ||
		errors.Is(err, ErrValueIsOutOfRange)
}

// IsBusiness reports whether err is a business rule rejection that was, or
// should be, recorded as an order problem.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrStateChange) || errors.Is(err, ErrDenied)
}
