package fairness

import (
	"github.com/pkg/errors"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// ConsumerShare is the outcome of computing the dominant share of one consumer.
// Exactly one of Share and Err is meaningful.
type ConsumerShare struct {
	Share DominantShare
	Err   error
}

// ComputeDominantShares computes the dominant share of each demand concurrently.
// Fatal errors (see allocerrors.IsFatal) abort the computation and are returned directly.
// Per-consumer errors, such as a degenerate demand, are recorded in the corresponding ConsumerShare.
// Results are returned in the order of demands.
func ComputeDominantShares(
	ctx *runcontext.Context,
	names []string,
	demands []internaltypes.ResourceList,
	capacity internaltypes.ResourceList,
) ([]ConsumerShare, error) {
	if len(names) != len(demands) {
		return nil, errors.Errorf("got %d names but %d demands", len(names), len(demands))
	}
	if err := ValidateCapacity(capacity); err != nil {
		return nil, err
	}
	rv := make([]ConsumerShare, len(demands))
	g, _ := runcontext.ErrGroup(ctx)
	for i := range demands {
		i := i
		g.Go(func() error {
			share, err := ComputeDominantShare(demands[i], capacity)
			if err != nil {
				err = withConsumer(err, names[i])
				if allocerrors.IsFatal(err) {
					return err
				}
			}
			rv[i] = ConsumerShare{Share: share, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rv, nil
}

// withConsumer fills in the consumer name of consumer-specific errors.
func withConsumer(err error, consumer string) error {
	var degenerate *allocerrors.ErrDegenerateDemand
	if errors.As(err, &degenerate) {
		return errors.WithStack(&allocerrors.ErrDegenerateDemand{Consumer: consumer})
	}
	var mismatch *allocerrors.ErrDimensionMismatch
	if errors.As(err, &mismatch) {
		return errors.WithStack(&allocerrors.ErrDimensionMismatch{Consumer: consumer, Message: mismatch.Message})
	}
	return err
}
