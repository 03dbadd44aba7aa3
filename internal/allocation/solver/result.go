package solver

import (
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/fairshare/internal/allocation/fairness"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// Exclusion records a consumer that takes no part in the fair allocation and the reason why.
type Exclusion struct {
	Consumer string
	Reason   error
}

// ConsumerAllocation is the outcome of a run for a single consumer.
type ConsumerAllocation struct {
	Name   string
	Weight float64
	Demand internaltypes.ResourceList
	// Dominant share of a single task. Zero for excluded consumers.
	DominantShare fairness.DominantShare
	// Number of tasks allocated.
	Tasks int64
	// Resources used by the allocated tasks, i.e., Demand scaled by Tasks.
	Usage internaltypes.ResourceList
	// Tasks multiplied by the dominant share of one task.
	AllocatedShare float64
	// AllocatedShare divided by Weight. Participating consumers have weighted shares within the tolerance of each other.
	WeightedShare float64
	// True if the consumer was excluded from the fairness constraint.
	Excluded bool
}

// Result is the outcome of solving a Problem.
type Result struct {
	// Run id carried by the context passed to Solve, if any.
	RunId     string
	Strategy  Strategy
	Tolerance float64
	Capacity  internaltypes.ResourceList
	// One entry per consumer, ordered by name.
	Allocations []ConsumerAllocation
	// Total resources used by all allocations.
	Usage internaltypes.ResourceList
	// Fraction of each resource used.
	Utilisation internaltypes.ResourceFractionList
	Excluded    []Exclusion
	// True if the exact search ran out of budget and returned the best allocation found so far.
	Truncated bool
}

func newResult(ctx *runcontext.Context, strategy Strategy, inst *instance, tasks []int64) *Result {
	rv := &Result{
		RunId:       runcontext.RunId(ctx),
		Strategy:    strategy,
		Tolerance:   inst.problem.Tolerance,
		Capacity:    inst.problem.Capacity,
		Allocations: make([]ConsumerAllocation, len(inst.consumers)),
		Usage:       inst.problem.Capacity.Factory().MakeAllZero(),
		Excluded:    slices.Clone(inst.excluded),
	}
	for i, c := range inst.consumers {
		rv.Allocations[i] = ConsumerAllocation{
			Name:     c.Name,
			Weight:   c.Weight,
			Demand:   c.Demand,
			Usage:    c.Demand.Factory().MakeAllZero(),
			Excluded: true,
		}
	}
	for i, p := range inst.participants {
		allocation := &rv.Allocations[p.consumer]
		allocation.Excluded = false
		allocation.DominantShare = inst.shares[p.consumer]
		allocation.Tasks = tasks[i]
		allocation.Usage = allocation.Demand.Scale(tasks[i])
		allocation.AllocatedShare = inst.drf.UnweightedCostFromAllocation(allocation.Usage)
		allocation.WeightedShare = inst.drf.WeightedCostFromAllocation(allocation.Usage, allocation.Weight)
		rv.Usage = rv.Usage.Add(allocation.Usage)
	}
	rv.Utilisation = inst.drf.Utilisation(rv.Usage)
	return rv
}

// TotalTasks returns the number of tasks allocated across all consumers.
func (r *Result) TotalTasks() int64 {
	rv := int64(0)
	for _, a := range r.Allocations {
		rv += a.Tasks
	}
	return rv
}

// Tasks returns the number of tasks allocated to the named consumer, or zero if no such consumer exists.
func (r *Result) Tasks(consumer string) int64 {
	if a, ok := r.Allocation(consumer); ok {
		return a.Tasks
	}
	return 0
}

func (r *Result) Allocation(consumer string) (ConsumerAllocation, bool) {
	for _, a := range r.Allocations {
		if a.Name == consumer {
			return a, true
		}
	}
	return ConsumerAllocation{}, false
}

// TaskVector returns the number of tasks allocated to each consumer, ordered by consumer name.
func (r *Result) TaskVector() []int64 {
	rv := make([]int64, len(r.Allocations))
	for i, a := range r.Allocations {
		rv[i] = a.Tasks
	}
	return rv
}

// FairnessSpread returns the difference between the largest and smallest weighted share among participating consumers.
func (r *Result) FairnessSpread() float64 {
	lo, hi, n := 0.0, 0.0, 0
	for _, a := range r.Allocations {
		if a.Excluded {
			continue
		}
		if n == 0 || a.WeightedShare < lo {
			lo = a.WeightedShare
		}
		if n == 0 || a.WeightedShare > hi {
			hi = a.WeightedShare
		}
		n++
	}
	return hi - lo
}

// Warnings returns the reasons consumers were excluded as a single error, or nil if none were.
func (r *Result) Warnings() error {
	var result *multierror.Error
	for _, e := range r.Excluded {
		result = multierror.Append(result, e.Reason)
	}
	return result.ErrorOrNil()
}
