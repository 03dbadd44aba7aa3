package solver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

func TestPreferred(t *testing.T) {
	tests := map[string]struct {
		sumA     int64
		utilA    float64
		a        []int64
		sumB     int64
		utilB    float64
		b        []int64
		expected bool
	}{
		"more tasks": {
			sumA: 5, utilA: 0.5, a: []int64{3, 2},
			sumB: 4, utilB: 1.5, b: []int64{2, 2},
			expected: true,
		},
		"fewer tasks": {
			sumA: 4, utilA: 1.5, a: []int64{2, 2},
			sumB: 5, utilB: 0.5, b: []int64{3, 2},
			expected: false,
		},
		"higher utilisation": {
			sumA: 5, utilA: 1.5, a: []int64{2, 3},
			sumB: 5, utilB: 1.0, b: []int64{3, 2},
			expected: true,
		},
		"lexicographically greater": {
			sumA: 5, utilA: 1.0, a: []int64{3, 2},
			sumB: 5, utilB: 1.0 + 1e-14, b: []int64{2, 3},
			expected: true,
		},
		"lexicographically smaller": {
			sumA: 5, utilA: 1.0, a: []int64{2, 3},
			sumB: 5, utilB: 1.0, b: []int64{3, 2},
			expected: false,
		},
		"identical": {
			sumA: 5, utilA: 1.0, a: []int64{3, 2},
			sumB: 5, utilB: 1.0, b: []int64{3, 2},
			expected: false,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, preferred(tc.sumA, tc.utilA, tc.a, tc.sumB, tc.utilB, tc.b))
		})
	}
}

func TestRelaxation_WorkedExample(t *testing.T) {
	inst, err := newInstance(testContext(), workedExample())
	require.NoError(t, err)
	search := newBranchAndBound(inst, make([]int64, len(inst.participants)))

	bound, err := search.relaxation(0, 0, 0, false, 0)
	require.NoError(t, err)
	// The optimal integer allocation has 5 tasks; the relaxation must not cut it off.
	assert.GreaterOrEqual(t, bound, 5.0-boundSlack)
	// Capacity alone permits at most 9 cpu-bound tasks of A.
	assert.LessOrEqual(t, bound, 9.0)
}

func TestRelaxation_InfeasibleWindow(t *testing.T) {
	inst, err := newInstance(testContext(), workedExample())
	require.NoError(t, err)
	search := newBranchAndBound(inst, make([]int64, len(inst.participants)))

	// With A at 4 tasks, B needs at least 3 tasks to be within tolerance but only 5 cpu remain.
	search.tasks[0] = 4
	search.remaining = search.remaining.Subtract(resources(4, 16))
	level := 4 * inst.participants[0].level
	assert.False(t, search.mayImprove(1, 4, 4*inst.participants[0].utilisation, level, level))
}

func TestWindow(t *testing.T) {
	inst, err := newInstance(testContext(), workedExample())
	require.NoError(t, err)
	search := newBranchAndBound(inst, make([]int64, len(inst.participants)))

	lo, hi := search.window(0, 0, 0)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(4), hi)

	// With A at 3 tasks (share 2/3), B must have share within [2/3 - 0.1, 2/3 + 0.1], i.e., exactly 2 tasks.
	level := 3 * inst.participants[0].level
	lo, hi = search.window(1, level, level)
	assert.Equal(t, int64(2), lo)
	assert.Equal(t, int64(2), hi)
}

// bruteForce enumerates every allocation of inst and returns the preferred fair one.
func bruteForce(inst *instance) []int64 {
	n := len(inst.participants)
	best := make([]int64, n)
	bestUtil := 0.0
	tasks := make([]int64, n)
	var enumerate func(k int)
	enumerate = func(k int) {
		if k == n {
			if inst.usage(tasks).Exceeds(inst.problem.Capacity) || !inst.isFair(tasks) {
				return
			}
			util := inst.utilisation(tasks)
			if preferred(sum(tasks), util, tasks, sum(best), bestUtil, best) {
				copy(best, tasks)
				bestUtil = util
			}
			return
		}
		for t := int64(0); t <= inst.participants[k].demand.MaxMultipleWithin(inst.problem.Capacity); t++ {
			tasks[k] = t
			enumerate(k + 1)
		}
		tasks[k] = 0
	}
	enumerate(0)
	return best
}

func Test_ExactMatchesBruteForce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("exact finds the preferred fair allocation", prop.ForAll(
		func(problem Problem) bool {
			inst, err := newInstance(testContext(), problem)
			if err != nil {
				t.Fatal(err)
			}
			expected := bruteForce(inst)
			result := solveOrFail(t, ExactStrategy, problem)
			for i, p := range inst.participants {
				if result.Allocations[p.consumer].Tasks != expected[i] {
					return false
				}
			}
			return true
		},
		genProblemWithin(10, 3),
	))

	properties.TestingRun(t)
}

func TestBranchAndBound_Cancelled(t *testing.T) {
	inst, err := newInstance(testContext(), workedExample())
	require.NoError(t, err)
	search := newBranchAndBound(inst, make([]int64, len(inst.participants)))
	search.nodes = cancellationCheckInterval - 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = search.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), search.bestSum)
}

func TestBranchAndBound_RunWithoutCancellation(t *testing.T) {
	inst, err := newInstance(testContext(), workedExample())
	require.NoError(t, err)
	search := newBranchAndBound(inst, make([]int64, len(inst.participants)))

	require.NoError(t, search.run(context.Background()))
	assert.Equal(t, []int64{3, 2}, search.best)
}

func TestBranchAndBound_PrunesTies(t *testing.T) {
	consumers := make([]Consumer, 6)
	for i := range consumers {
		consumers[i] = consumer(fmt.Sprintf("consumer-%d", i), 1, 1)
	}
	inst, err := newInstance(testContext(), Problem{Capacity: resources(15, 15), Consumers: consumers, Tolerance: 0.1})
	require.NoError(t, err)
	seed, _ := greedy(inst)
	search := newBranchAndBound(inst, seed)

	require.NoError(t, search.run(context.Background()))
	// Every allocation of all 15 units has the same utilisation, so the tie is broken by consumer order.
	assert.Equal(t, []int64{3, 3, 3, 2, 2, 2}, search.best)
	assert.False(t, search.truncated)
	assert.Less(t, search.relaxations, DefaultMaxRelaxations)
}

// manyConsumers returns a problem with n consumers of mixed small demands sharing a large capacity.
func manyConsumers(n int) Problem {
	consumers := make([]Consumer, n)
	for i := range consumers {
		consumers[i] = consumer(fmt.Sprintf("consumer-%02d", i), float64(1+i%3), float64(1+i%5))
	}
	return Problem{Capacity: resources(1000, 1000), Consumers: consumers, Tolerance: 0.1}
}

func TestExactSolver_ManyConsumers(t *testing.T) {
	tests := map[string]int{
		"sixteen consumers":  16,
		"eighteen consumers": 18,
	}
	for name, n := range tests {
		t.Run(name, func(t *testing.T) {
			problem := manyConsumers(n)
			greedyResult, err := NewGreedySolver().Solve(testContext(), problem)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			start := time.Now()
			result, err := NewExactSolver().Solve(runcontext.New(ctx, testContext().FieldLogger), problem)
			require.NoError(t, err, "exact search did not finish after %s", time.Since(start))

			assertValidResult(t, problem, result)
			assert.GreaterOrEqual(t, result.TotalTasks(), greedyResult.TotalTasks())
		})
	}
}

func TestExactSolver_RelaxationBudget(t *testing.T) {
	problem := workedExample()
	greedyResult, err := NewGreedySolver().Solve(testContext(), problem)
	require.NoError(t, err)

	result, err := (&ExactSolver{MaxRelaxations: 1}).Solve(testContext(), problem)
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assertValidResult(t, problem, result)
	assert.GreaterOrEqual(t, result.TotalTasks(), greedyResult.TotalTasks())

	result, err = NewExactSolver().Solve(testContext(), problem)
	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Equal(t, []int64{3, 2}, result.TaskVector())
}
