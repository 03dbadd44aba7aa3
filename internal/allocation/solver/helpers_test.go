package solver

import (
	"context"

	"github.com/sirupsen/logrus"
	k8sResource "k8s.io/apimachinery/pkg/api/resource"

	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/common/logging"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

var testFactory = makeTestFactory()

func makeTestFactory() *internaltypes.ResourceListFactory {
	factory, err := internaltypes.MakeResourceListFactory([]configuration.ResourceType{
		{Name: "cpu", Resolution: k8sResource.MustParse("1")},
		{Name: "memory", Resolution: k8sResource.MustParse("1")},
	})
	if err != nil {
		panic(err)
	}
	return factory
}

func resources(cpu, memory float64) internaltypes.ResourceList {
	rl, err := testFactory.FromValues([]float64{cpu, memory})
	if err != nil {
		panic(err)
	}
	return rl
}

func consumer(name string, cpu, memory float64) Consumer {
	return Consumer{Name: name, Demand: resources(cpu, memory), Weight: 1}
}

func weighted(weight float64, c Consumer) Consumer {
	c.Weight = weight
	return c
}

func workedExample() Problem {
	return Problem{
		Capacity:  resources(9, 18),
		Consumers: []Consumer{consumer("A", 1, 4), consumer("B", 3, 1)},
		Tolerance: 0.1,
	}
}

func testContext() *runcontext.Context {
	return runcontext.New(context.Background(), logrus.NewEntry(logging.NullLogger))
}

var allStrategies = []Strategy{GreedyStrategy, ExactStrategy}
