package solver

import (
	"time"

	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// Weighted shares closer than this are considered equal when choosing the next consumer.
const levelEpsilon = 1e-12

// GreedySolver repeatedly gives one more task to the participating consumer with the lowest weighted share,
// ties broken by name, until no consumer can fit another task.
// The result is the last allocation along that path satisfying the tolerance.
// It is fast but may allocate fewer tasks than ExactSolver.
type GreedySolver struct{}

func NewGreedySolver() *GreedySolver {
	return &GreedySolver{}
}

func (s *GreedySolver) Solve(ctx *runcontext.Context, problem Problem) (*Result, error) {
	start := time.Now()
	inst, err := newInstance(ctx, problem)
	if err != nil {
		return nil, err
	}
	tasks, steps := greedy(inst)
	ctx.WithField("strategy", GreedyStrategy.String()).
		WithField("steps", steps).
		WithField("tasks", sum(tasks)).
		WithField("duration", time.Since(start)).
		Debug("allocation complete")
	return newResult(ctx, GreedyStrategy, inst, tasks), nil
}

// greedy returns the allocation found and the number of tasks placed along the way.
func greedy(inst *instance) ([]int64, int) {
	n := len(inst.participants)
	tasks := make([]int64, n)
	best := make([]int64, n)
	blocked := make([]bool, n)
	remaining := inst.problem.Capacity
	steps := 0
	for {
		next := -1
		nextLevel := 0.0
		for i, p := range inst.participants {
			if blocked[i] {
				continue
			}
			level := float64(tasks[i]) * p.level
			if next == -1 || level < nextLevel-levelEpsilon {
				next = i
				nextLevel = level
			}
		}
		if next == -1 {
			return best, steps
		}
		demand := inst.participants[next].demand
		if demand.Exceeds(remaining) {
			blocked[next] = true
			continue
		}
		remaining = remaining.Subtract(demand)
		tasks[next]++
		steps++
		if inst.isFair(tasks) {
			copy(best, tasks)
		}
	}
}
