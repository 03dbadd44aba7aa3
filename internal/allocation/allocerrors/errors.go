// Package allocerrors contains the errors returned while computing an allocation.
//
// Errors are split into two classes. Fatal errors abort the whole run and no partial result is returned.
// Per-consumer errors only affect the consumer they name: that consumer receives zero tasks and the run
// continues for everyone else. Use IsFatal to tell them apart; errors.As works through pkg/errors wrapping.
package allocerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidCapacity is returned when a resource dimension has zero or negative capacity,
// making dominant shares undefined. Fatal.
type ErrInvalidCapacity struct {
	Resource string
	Value    string
}

func (err *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("capacity of resource %q must be positive but is %s", err.Resource, err.Value)
}

// ErrDimensionMismatch is returned when a demand vector does not share the dimensions of the capacity vector. Fatal.
type ErrDimensionMismatch struct {
	Consumer string // Optional; empty when the mismatch is not tied to a consumer
	Message  string
}

func (err *ErrDimensionMismatch) Error() string {
	if err.Consumer == "" {
		return fmt.Sprintf("dimension mismatch: %s", err.Message)
	}
	return fmt.Sprintf("dimension mismatch for consumer %q: %s", err.Consumer, err.Message)
}

// ErrInvalidArgument is a generic error returned on an invalid solver input, e.g. a non-positive tolerance. Fatal.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "tolerance"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
}

// ErrDegenerateDemand is returned for a consumer whose demand has no positive entry.
// The consumer is excluded from the run.
type ErrDegenerateDemand struct {
	Consumer string
}

func (err *ErrDegenerateDemand) Error() string {
	if err.Consumer == "" {
		return "demand must be positive in at least one resource and never negative"
	}
	return fmt.Sprintf("demand of consumer %q must be positive in at least one resource and never negative", err.Consumer)
}

// ErrInfeasibleCapacity is returned for a consumer whose single-task demand exceeds capacity in some dimension.
// The consumer receives zero tasks.
type ErrInfeasibleCapacity struct {
	Consumer string
	Resource string
	Demand   string
	Capacity string
}

func (err *ErrInfeasibleCapacity) Error() string {
	return fmt.Sprintf(
		"one task of consumer %q requires %s of resource %q but capacity is %s",
		err.Consumer, err.Demand, err.Resource, err.Capacity,
	)
}

// IsFatal returns true if err aborts an allocation run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var invalidCapacity *ErrInvalidCapacity
	var dimensionMismatch *ErrDimensionMismatch
	var invalidArgument *ErrInvalidArgument
	return errors.As(err, &invalidCapacity) ||
		errors.As(err, &dimensionMismatch) ||
		errors.As(err, &invalidArgument)
}
