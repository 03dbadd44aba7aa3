package solver

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/fairness"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// Allowed numerical error when comparing allocated shares against the tolerance.
const fairnessSlack = 1e-9

// Consumer competes for capacity by running identical tasks.
type Consumer struct {
	// Unique name. Consumers are ordered by name whenever ties are broken.
	Name string
	// Resources required by one task.
	Demand internaltypes.ResourceList
	// Relative weight; a consumer with weight 2 is entitled to twice the dominant share. Zero means 1.
	Weight float64
}

// Problem is the input of one allocation run.
type Problem struct {
	// Total resources available. Must be positive in every dimension.
	Capacity internaltypes.ResourceList
	// Consumers competing for Capacity. Must be non-empty.
	Consumers []Consumer
	// Maximum allowed difference between the weighted allocated dominant shares of any two consumers.
	Tolerance float64
}

// participant is a consumer that takes part in the fair allocation,
// i.e. one that is neither degenerate nor unable to fit a single task.
type participant struct {
	// Index into instance.consumers.
	consumer int
	demand   internaltypes.ResourceList
	// Weighted dominant share of one task.
	level float64
	// Sum over resources of the fraction of capacity used by one task.
	utilisation float64
}

// instance is a validated problem ready to be solved. Consumers are sorted by name.
type instance struct {
	problem      Problem
	drf          *fairness.DominantResourceFairness
	consumers    []Consumer
	shares       []fairness.DominantShare
	excluded     []Exclusion
	capacity     []int64
	participants []participant
}

func newInstance(ctx *runcontext.Context, problem Problem) (*instance, error) {
	if err := validateProblem(problem); err != nil {
		return nil, err
	}
	drf, err := fairness.NewDominantResourceFairness(problem.Capacity)
	if err != nil {
		return nil, err
	}

	consumers := slices.Clone(problem.Consumers)
	slices.SortFunc(consumers, func(a, b Consumer) int {
		return strings.Compare(a.Name, b.Name)
	})
	for i := range consumers {
		if consumers[i].Weight == 0 {
			consumers[i].Weight = 1
		}
	}

	names := make([]string, len(consumers))
	demands := make([]internaltypes.ResourceList, len(consumers))
	for i, c := range consumers {
		names[i] = c.Name
		demands[i] = c.Demand
	}
	consumerShares, err := fairness.ComputeDominantShares(ctx, names, demands, problem.Capacity)
	if err != nil {
		return nil, err
	}

	inst := &instance{
		problem:   problem,
		drf:       drf,
		consumers: consumers,
		shares:    make([]fairness.DominantShare, len(consumers)),
		capacity:  problem.Capacity.Values(),
	}
	for i, c := range consumers {
		if err := consumerShares[i].Err; err != nil {
			inst.exclude(ctx, c.Name, err)
			continue
		}
		inst.shares[i] = consumerShares[i].Share
		if resourceName, available, required, exceeds := c.Demand.ExceedsAvailable(problem.Capacity); exceeds {
			inst.exclude(ctx, c.Name, errors.WithStack(&allocerrors.ErrInfeasibleCapacity{
				Consumer: c.Name,
				Resource: resourceName,
				Demand:   required.String(),
				Capacity: available.String(),
			}))
			continue
		}
		inst.participants = append(inst.participants, participant{
			consumer:    i,
			demand:      c.Demand,
			level:       drf.WeightedCostFromAllocation(c.Demand, c.Weight),
			utilisation: drf.Utilisation(c.Demand).Sum(),
		})
	}
	return inst, nil
}

func (inst *instance) exclude(ctx *runcontext.Context, consumer string, err error) {
	ctx.WithField("consumer", consumer).WithError(err).Warn("consumer receives no tasks")
	inst.excluded = append(inst.excluded, Exclusion{Consumer: consumer, Reason: err})
}

func validateProblem(problem Problem) error {
	if len(problem.Consumers) == 0 {
		return errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "consumers",
			Value:   0,
			Message: "at least one consumer is required",
		})
	}
	if !(problem.Tolerance > 0) || math.IsInf(problem.Tolerance, 1) {
		return errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "tolerance",
			Value:   problem.Tolerance,
			Message: "must be positive and finite",
		})
	}
	if err := fairness.ValidateCapacity(problem.Capacity); err != nil {
		return err
	}
	seen := make(map[string]bool, len(problem.Consumers))
	for _, c := range problem.Consumers {
		if c.Name == "" {
			return errors.WithStack(&allocerrors.ErrInvalidArgument{Name: "name", Value: `""`, Message: "consumers must be named"})
		}
		if seen[c.Name] {
			return errors.WithStack(&allocerrors.ErrInvalidArgument{Name: "name", Value: c.Name, Message: "consumer names must be unique"})
		}
		seen[c.Name] = true
		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return errors.WithStack(&allocerrors.ErrInvalidArgument{Name: "weight", Value: c.Weight, Message: "must be positive and finite"})
		}
		if c.Demand.IsEmpty() || c.Demand.Factory() != problem.Capacity.Factory() {
			return errors.WithStack(&allocerrors.ErrDimensionMismatch{
				Consumer: c.Name,
				Message:  "demand and capacity are defined over different resources",
			})
		}
	}
	return nil
}

// levels returns the weighted allocated dominant share of each participant given tasks.
func (inst *instance) levels(tasks []int64) []float64 {
	rv := make([]float64, len(tasks))
	for i, t := range tasks {
		rv[i] = float64(t) * inst.participants[i].level
	}
	return rv
}

// isFair returns true if the weighted allocated shares of all participants lie within the tolerance of each other.
func (inst *instance) isFair(tasks []int64) bool {
	if len(tasks) < 2 {
		return true
	}
	levels := inst.levels(tasks)
	return slices.Max(levels)-slices.Min(levels) <= inst.problem.Tolerance+fairnessSlack
}

// usage returns the resources used by tasks.
func (inst *instance) usage(tasks []int64) internaltypes.ResourceList {
	rv := inst.problem.Capacity.Factory().MakeAllZero()
	for i, t := range tasks {
		rv = rv.Add(inst.participants[i].demand.Scale(t))
	}
	return rv
}

// utilisation returns the sum over resources of the fraction of capacity used by tasks.
func (inst *instance) utilisation(tasks []int64) float64 {
	return inst.drf.Utilisation(inst.usage(tasks)).Sum()
}

func sum(tasks []int64) int64 {
	rv := int64(0)
	for _, t := range tasks {
		rv += t
	}
	return rv
}
