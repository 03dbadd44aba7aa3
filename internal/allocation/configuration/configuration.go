package configuration

import (
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

const (
	GreedyStrategyName = "greedy"
	ExactStrategyName  = "exact"
	DefaultTolerance   = 0.1
)

// ResourceType defines a resource dimension of an allocation run.
type ResourceType struct {
	// Resource name, e.g. "cpu", "memory" or "nvidia.com/gpu". Names are case-insensitive.
	Name string `validate:"required"`
	// Resolution with which quantities of this resource are tracked, e.g. "1m" for cpu or "1Mi" for memory.
	// Quantities are rounded to a power of ten no coarser than this; zero means milli-units.
	Resolution resource.Quantity
}

// ConsumerConfig describes one consumer competing for capacity.
type ConsumerConfig struct {
	// Unique name; consumers are ordered by name when breaking ties.
	Name string `validate:"required"`
	// Relative weight of the consumer. Zero means 1.
	Weight float64 `validate:"gte=0"`
	// Resources required by a single task of this consumer.
	Demand map[string]resource.Quantity
}

// ProblemConfig is the on-disk description of one allocation run.
type ProblemConfig struct {
	// Name identifying the run in reports. Generated if empty.
	Name string
	// Maximum allowed difference between the allocated dominant shares of any two consumers. Zero means DefaultTolerance.
	Tolerance float64 `validate:"gte=0"`
	// Solver to use; either "greedy" or "exact". Empty means "exact".
	Strategy string `validate:"omitempty,oneof=greedy exact"`
	// Resource dimensions, in reporting order.
	Resources []ResourceType `validate:"required,min=1,dive"`
	// Total available quantity of each resource.
	Capacity map[string]resource.Quantity `validate:"required,min=1"`
	// Consumers competing for the capacity.
	Consumers []ConsumerConfig `validate:"required,min=1,dive"`
}

// WithDefaults returns a copy of c with zero-valued optional fields replaced by their defaults.
func (c ProblemConfig) WithDefaults() ProblemConfig {
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.Strategy == "" {
		c.Strategy = ExactStrategyName
	}
	c.Strategy = strings.ToLower(c.Strategy)
	consumers := make([]ConsumerConfig, len(c.Consumers))
	for i, consumer := range c.Consumers {
		if consumer.Weight == 0 {
			consumer.Weight = 1
		}
		consumers[i] = consumer
	}
	c.Consumers = consumers
	return c
}

// ResourceNames returns the names of the configured resources, lower-cased, in order.
func (c ProblemConfig) ResourceNames() []string {
	names := make([]string, len(c.Resources))
	for i, r := range c.Resources {
		names[i] = strings.ToLower(r.Name)
	}
	return names
}
