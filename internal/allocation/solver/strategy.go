package solver

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// Solver computes a fair allocation of tasks to consumers.
type Solver interface {
	// Solve returns the allocation for problem.
	// Invalid input results in an error; consumers that cannot take part are reported in the result.
	Solve(ctx *runcontext.Context, problem Problem) (*Result, error)
}

// Strategy selects the algorithm used to search for an allocation.
type Strategy int

const (
	// ExactStrategy maximises the total number of tasks.
	ExactStrategy Strategy = iota
	// GreedyStrategy raises the least-served consumer one task at a time.
	GreedyStrategy
)

func (s Strategy) String() string {
	switch s {
	case ExactStrategy:
		return configuration.ExactStrategyName
	case GreedyStrategy:
		return configuration.GreedyStrategyName
	default:
		return "unknown"
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", configuration.ExactStrategyName:
		return ExactStrategy, nil
	case configuration.GreedyStrategyName:
		return GreedyStrategy, nil
	default:
		return 0, errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "strategy",
			Value:   name,
			Message: "must be one of " + configuration.ExactStrategyName + ", " + configuration.GreedyStrategyName,
		})
	}
}

// NewSolver returns the Solver implementing strategy.
func NewSolver(strategy Strategy) (Solver, error) {
	switch strategy {
	case ExactStrategy:
		return NewExactSolver(), nil
	case GreedyStrategy:
		return NewGreedySolver(), nil
	default:
		return nil, errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "strategy",
			Value:   int(strategy),
			Message: "unknown strategy",
		})
	}
}
