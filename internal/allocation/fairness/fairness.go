package fairness

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
)

// DominantShare is the share of its dominant resource a single task of a consumer takes up.
type DominantShare struct {
	// Largest fraction of any resource's capacity required by one task.
	Share float64
	// Index of the resource achieving Share; ties go to the lowest index.
	Resource int
	// Name of the resource achieving Share.
	ResourceName string
}

// ComputeDominantShare returns the dominant share of demand relative to capacity.
func ComputeDominantShare(demand, capacity internaltypes.ResourceList) (DominantShare, error) {
	if err := ValidateCapacity(capacity); err != nil {
		return DominantShare{}, err
	}
	if demand.IsEmpty() || demand.Factory() != capacity.Factory() {
		return DominantShare{}, errors.WithStack(&allocerrors.ErrDimensionMismatch{
			Message: "demand and capacity are defined over different resources",
		})
	}
	if demand.AllZero() || demand.HasNegativeValues() {
		return DominantShare{}, errors.WithStack(&allocerrors.ErrDegenerateDemand{})
	}
	ratios := demand.DivideZeroOnError(capacity)
	i := ratios.ArgMax()
	return DominantShare{
		Share:        ratios.At(i),
		Resource:     i,
		ResourceName: capacity.Factory().ResourceName(i),
	}, nil
}

// ValidateCapacity returns ErrInvalidCapacity unless every dimension of capacity is positive.
func ValidateCapacity(capacity internaltypes.ResourceList) error {
	if capacity.IsEmpty() {
		return errors.WithStack(&allocerrors.ErrDimensionMismatch{Message: "capacity is empty"})
	}
	for _, r := range capacity.GetResources() {
		if r.Value <= 0 {
			return errors.WithStack(&allocerrors.ErrInvalidCapacity{
				Resource: r.Name,
				Value:    fmt.Sprintf("%d", r.Value),
			})
		}
	}
	return nil
}

// DominantResourceFairness measures the cost of an allocation as its dominant share of the total resources.
type DominantResourceFairness struct {
	// Total resources available to the run.
	totalResources internaltypes.ResourceList
}

func NewDominantResourceFairness(totalResources internaltypes.ResourceList) (*DominantResourceFairness, error) {
	if err := ValidateCapacity(totalResources); err != nil {
		return nil, err
	}
	return &DominantResourceFairness{
		totalResources: totalResources,
	}, nil
}

func (f *DominantResourceFairness) WeightedCostFromAllocation(allocation internaltypes.ResourceList, weight float64) float64 {
	return f.UnweightedCostFromAllocation(allocation) / weight
}

func (f *DominantResourceFairness) UnweightedCostFromAllocation(allocation internaltypes.ResourceList) float64 {
	if allocation.IsEmpty() {
		return 0
	}
	return max(0, allocation.DivideZeroOnError(f.totalResources).Max())
}

// Utilisation returns the fraction of each resource used by allocation.
func (f *DominantResourceFairness) Utilisation(allocation internaltypes.ResourceList) internaltypes.ResourceFractionList {
	if allocation.IsEmpty() {
		return f.totalResources.Factory().MakeAllZero().DivideZeroOnError(f.totalResources)
	}
	return allocation.DivideZeroOnError(f.totalResources)
}
