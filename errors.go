package crossdb

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned when engine text is not valid UTF-8.
	ErrEncoding = errors.New("invalid text encoding")

	// ErrQuery is matched by every engine-reported query failure.
	ErrQuery = errors.New("query failed")

	// ErrUnimplemented is returned when decoding or bridging an unsupported type.
	ErrUnimplemented = errors.New("not implemented")

	// ErrContractViolation is matched by the panic value raised when the
	// engine reports a type code or address family outside the known set.
	ErrContractViolation = errors.New("engine contract violation")

	// ErrNoMoreColumns is returned when a row map is read past its last column.
	ErrNoMoreColumns = errors.New("no more columns")

	// ErrMissingField is returned when a required record field has no column.
	ErrMissingField = errors.New("missing field")

	// ErrClosed is returned when using a closed connection or result.
	ErrClosed = errors.New("closed")

	// ErrStmtClosed is returned when executing a closed or evicted statement.
	ErrStmtClosed = errors.New("statement is closed")

	// ErrBind wraps failures while binding statement parameters.
	ErrBind = errors.New("failed to bind parameter")

	// ErrInvalidParam is returned for parameter types that cannot be bound.
	ErrInvalidParam = errors.New("invalid parameter type")

	// ErrNilEngine is returned when Open is called without an engine.
	ErrNilEngine = errors.New("engine cannot be nil")

	// ErrPrepare wraps failures while preparing a statement.
	ErrPrepare = errors.New("failed to prepare statement")
)

// QueryError is an engine-reported failure carrying the engine's code and message.
type QueryError struct {
	Code    uint16
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error %d: %s", e.Code, e.Message)
}

// Is reports whether target is ErrQuery.
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// ContractError describes an engine value outside the known contract. It is
// raised as a panic value.
type ContractError struct {
	What  string
	Value uint32
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: unknown %s %d", ErrContractViolation, e.What, e.Value)
}

// Is reports whether target is ErrContractViolation.
func (e *ContractError) Is(target error) bool { return target == ErrContractViolation }
