package fairshare

import (
	"fmt"

	k8sResource "k8s.io/apimachinery/pkg/api/resource"

	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

const (
	exampleConsumerA = "A"
	exampleConsumerB = "B"
)

// ExampleParams are the parameters of the two-consumer example.
type ExampleParams struct {
	// Total number of cpus.
	Cpus int
	// Total memory in GB.
	Memory int
	// Solver strategy; greedy or exact.
	Strategy string
}

// Example allocates the given capacity between consumer A, whose tasks each require 1 cpu and 4 GB of memory,
// and consumer B, whose tasks each require 3 cpus and 1 GB of memory, and prints the outcome.
func (a *App) Example(ctx *runcontext.Context, params ExampleParams) error {
	strategy, err := solver.ParseStrategy(params.Strategy)
	if err != nil {
		return err
	}
	factory, err := internaltypes.MakeResourceListFactory([]configuration.ResourceType{
		{Name: "cpu", Resolution: k8sResource.MustParse("1")},
		{Name: "memory", Resolution: k8sResource.MustParse("1")},
	})
	if err != nil {
		return err
	}
	capacity, err := factory.FromValues([]float64{float64(params.Cpus), float64(params.Memory)})
	if err != nil {
		return err
	}
	demandA, err := factory.FromValues([]float64{1, 4})
	if err != nil {
		return err
	}
	demandB, err := factory.FromValues([]float64{3, 1})
	if err != nil {
		return err
	}
	s, err := solver.NewSolver(strategy)
	if err != nil {
		return err
	}
	ctx, _ = runcontext.WithRunId(ctx)
	result, err := s.Solve(ctx, solver.Problem{
		Capacity: capacity,
		Consumers: []solver.Consumer{
			{Name: exampleConsumerA, Demand: demandA, Weight: 1},
			{Name: exampleConsumerB, Demand: demandB, Weight: 1},
		},
		Tolerance: configuration.DefaultTolerance,
	})
	if err != nil {
		return err
	}
	if warnings := result.Warnings(); warnings != nil {
		ctx.WithError(warnings).Warn("some consumers receive no tasks")
	}
	if result.Truncated {
		fmt.Fprintln(a.Out, "Search truncated; allocation may not be optimal")
	}

	allocationA, _ := result.Allocation(exampleConsumerA)
	allocationB, _ := result.Allocation(exampleConsumerB)
	fmt.Fprintf(a.Out, "Dominant share for User A: %g\n", allocationA.DominantShare.Share)
	fmt.Fprintf(a.Out, "Dominant share for User B: %g\n", allocationB.DominantShare.Share)
	fmt.Fprintln(a.Out, "-----------------------------------")
	fmt.Fprintf(a.Out, "Number of tasks for User A: %d\n", allocationA.Tasks)
	fmt.Fprintf(a.Out, "Number of tasks for User B: %d\n", allocationB.Tasks)
	totalCPU := result.Usage.QuantityAt(0)
	totalMemory := result.Usage.QuantityAt(1)
	fmt.Fprintf(a.Out, "Total CPU usage: %s\n", totalCPU.String())
	fmt.Fprintf(a.Out, "Total memory usage: %s\n", totalMemory.String())
	fmt.Fprintf(a.Out, "Total dominant share for User A: %g\n", allocationA.AllocatedShare)
	fmt.Fprintf(a.Out, "Total dominant share for User B: %g\n", allocationB.AllocatedShare)
	fmt.Fprintln(a.Out, "Resource allocation:")
	for _, allocation := range []solver.ConsumerAllocation{allocationA, allocationB} {
		cpu := allocation.Usage.QuantityAt(0)
		memory := allocation.Usage.QuantityAt(1)
		fmt.Fprintf(
			a.Out, "User %s: %s CPUs and %s GB of memory\n",
			allocation.Name, cpu.String(), memory.String(),
		)
	}
	return nil
}
