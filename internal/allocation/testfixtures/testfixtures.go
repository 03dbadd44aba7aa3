package testfixtures

// This file contains test fixtures to be used throughout the tests of the allocation packages.
import (
	"context"

	"github.com/sirupsen/logrus"
	k8sResource "k8s.io/apimachinery/pkg/api/resource"

	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
	"github.com/armadaproject/fairshare/internal/common/logging"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

const (
	ConsumerA     = "A"
	ConsumerB     = "B"
	TestTolerance = 0.1
)

var (
	TestResources = []configuration.ResourceType{
		{Name: "cpu", Resolution: k8sResource.MustParse("1")},
		{Name: "memory", Resolution: k8sResource.MustParse("1")},
	}
	TestResourceListFactory = MakeTestResourceListFactory()
)

func MakeTestResourceListFactory() *internaltypes.ResourceListFactory {
	factory, err := internaltypes.MakeResourceListFactory(TestResources)
	if err != nil {
		panic(err)
	}
	return factory
}

// Resources returns a ResourceList with the given amounts of cpu and memory.
func Resources(cpu, memory float64) internaltypes.ResourceList {
	rl, err := TestResourceListFactory.FromValues([]float64{cpu, memory})
	if err != nil {
		panic(err)
	}
	return rl
}

func Consumer(name string, cpu, memory float64) solver.Consumer {
	return solver.Consumer{Name: name, Demand: Resources(cpu, memory), Weight: 1}
}

func WithWeight(weight float64, consumer solver.Consumer) solver.Consumer {
	consumer.Weight = weight
	return consumer
}

// WorkedExampleProblem returns the problem of allocating 9 cpu and 18 memory
// between consumer A, requiring 1 cpu and 4 memory per task, and consumer B, requiring 3 cpu and 1 memory per task.
// The optimal allocation is 3 tasks for A and 2 for B.
func WorkedExampleProblem() solver.Problem {
	return solver.Problem{
		Capacity: Resources(9, 18),
		Consumers: []solver.Consumer{
			Consumer(ConsumerA, 1, 4),
			Consumer(ConsumerB, 3, 1),
		},
		Tolerance: TestTolerance,
	}
}

func WithConsumers(problem solver.Problem, consumers ...solver.Consumer) solver.Problem {
	problem.Consumers = append(append([]solver.Consumer{}, problem.Consumers...), consumers...)
	return problem
}

// WorkedExampleConfig returns the configuration describing WorkedExampleProblem.
func WorkedExampleConfig() configuration.ProblemConfig {
	return configuration.ProblemConfig{
		Name:      "worked-example",
		Tolerance: TestTolerance,
		Strategy:  configuration.ExactStrategyName,
		Resources: TestResources,
		Capacity: map[string]k8sResource.Quantity{
			"cpu":    k8sResource.MustParse("9"),
			"memory": k8sResource.MustParse("18"),
		},
		Consumers: []configuration.ConsumerConfig{
			{
				Name:   ConsumerA,
				Weight: 1,
				Demand: map[string]k8sResource.Quantity{"cpu": k8sResource.MustParse("1"), "memory": k8sResource.MustParse("4")},
			},
			{
				Name:   ConsumerB,
				Weight: 1,
				Demand: map[string]k8sResource.Quantity{"cpu": k8sResource.MustParse("3"), "memory": k8sResource.MustParse("1")},
			},
		},
	}
}

// Context returns a context whose logger discards all output.
func Context() *runcontext.Context {
	return runcontext.New(context.Background(), logrus.NewEntry(logging.NullLogger))
}

func SolveOrPanic(strategy solver.Strategy, problem solver.Problem) *solver.Result {
	s, err := solver.NewSolver(strategy)
	if err != nil {
		panic(err)
	}
	result, err := s.Solve(Context(), problem)
	if err != nil {
		panic(err)
	}
	return result
}
