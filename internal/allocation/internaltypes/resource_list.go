package internaltypes

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
	k8sResource "k8s.io/apimachinery/pkg/api/resource"
)

// ResourceList is an immutable vector of resource quantities, one per dimension of its factory.
// The zero value is the empty list, which behaves as all zero wherever that makes sense.
type ResourceList struct {
	// Scaled values in factory order. Never modified after construction.
	resources []int64
	factory   *ResourceListFactory
}

// Resource is a single named dimension of a ResourceList.
type Resource struct {
	Name  string
	Value int64
	Scale k8sResource.Scale
}

func (rl ResourceList) IsEmpty() bool {
	return rl.factory == nil
}

func (rl ResourceList) Factory() *ResourceListFactory {
	return rl.factory
}

func (rl ResourceList) String() string {
	if rl.IsEmpty() {
		return "empty"
	}
	var sb strings.Builder
	for i, name := range rl.factory.indexToName {
		if i > 0 {
			sb.WriteByte(' ')
		}
		q := rl.QuantityAt(i)
		fmt.Fprintf(&sb, "%s=%s", name, q.String())
	}
	return sb.String()
}

// At returns the scaled value of the resource at index.
func (rl ResourceList) At(index int) int64 {
	return rl.resources[index]
}

// QuantityAt returns the quantity of the resource at index, or the zero quantity for the empty list.
func (rl ResourceList) QuantityAt(index int) k8sResource.Quantity {
	if rl.IsEmpty() {
		return k8sResource.Quantity{}
	}
	return *k8sResource.NewScaledQuantity(rl.resources[index], rl.factory.scales[index])
}

// Values returns a copy of the scaled values in factory order.
func (rl ResourceList) Values() []int64 {
	return slices.Clone(rl.resources)
}

func (rl ResourceList) GetResources() []Resource {
	rv := make([]Resource, len(rl.resources))
	for i, v := range rl.resources {
		rv[i] = Resource{Name: rl.factory.indexToName[i], Value: v, Scale: rl.factory.scales[i]}
	}
	return rv
}

func (rl ResourceList) ToMap() map[string]k8sResource.Quantity {
	rv := make(map[string]k8sResource.Quantity, len(rl.resources))
	for i := range rl.resources {
		rv[rl.factory.indexToName[i]] = rl.QuantityAt(i)
	}
	return rv
}

func (rl ResourceList) AllZero() bool {
	return !slices.ContainsFunc(rl.resources, func(v int64) bool { return v != 0 })
}

func (rl ResourceList) HasNegativeValues() bool {
	return slices.ContainsFunc(rl.resources, func(v int64) bool { return v < 0 })
}

func (rl ResourceList) Exceeds(available ResourceList) bool {
	_, _, _, exceeds := rl.ExceedsAvailable(available)
	return exceeds
}

// ExceedsAvailable reports the first resource, in factory order, of which rl requires more than is available.
// It returns the resource's name, the available and required quantities, and true;
// or false if rl fits within available. Empty lists count as all zero.
func (rl ResourceList) ExceedsAvailable(available ResourceList) (string, k8sResource.Quantity, k8sResource.Quantity, bool) {
	factory := commonFactory(rl, available)
	if factory == nil {
		return "", k8sResource.Quantity{}, k8sResource.Quantity{}, false
	}
	required, limit := rl.valuesIn(factory), available.valuesIn(factory)
	for i := range required {
		if required[i] > limit[i] {
			return factory.indexToName[i],
				*k8sResource.NewScaledQuantity(limit[i], factory.scales[i]),
				*k8sResource.NewScaledQuantity(required[i], factory.scales[i]),
				true
		}
	}
	return "", k8sResource.Quantity{}, k8sResource.Quantity{}, false
}

func (rl ResourceList) Add(other ResourceList) ResourceList {
	return combine(rl, other, func(a, b int64) int64 { return a + b })
}

func (rl ResourceList) Subtract(other ResourceList) ResourceList {
	return combine(rl, other, func(a, b int64) int64 { return a - b })
}

// Scale multiplies every dimension by n, e.g. to turn a per-task demand into the usage of n tasks.
func (rl ResourceList) Scale(n int64) ResourceList {
	if rl.IsEmpty() {
		return rl
	}
	rv := make([]int64, len(rl.resources))
	for i, v := range rl.resources {
		rv[i] = v * n
	}
	return ResourceList{resources: rv, factory: rl.factory}
}

// MaxMultipleWithin returns the largest n such that n copies of rl fit within available.
// Returns math.MaxInt64 if rl has no positive dimension.
func (rl ResourceList) MaxMultipleWithin(available ResourceList) int64 {
	rv := int64(math.MaxInt64)
	factory := commonFactory(rl, available)
	if factory == nil {
		return rv
	}
	limit := available.valuesIn(factory)
	for i, v := range rl.resources {
		if v <= 0 {
			continue
		}
		if limit[i] < 0 {
			return 0
		}
		rv = min(rv, limit[i]/v)
	}
	return rv
}

// DivideZeroOnError divides rl by other element-wise; dimensions where other is zero give zero.
func (rl ResourceList) DivideZeroOnError(other ResourceList) ResourceFractionList {
	assertSameResourceListFactory(rl.factory, other.factory)
	if rl.IsEmpty() || other.IsEmpty() {
		return ResourceFractionList{}
	}
	rv := make([]float64, len(rl.resources))
	for i, v := range rl.resources {
		if d := other.resources[i]; d != 0 {
			rv[i] = float64(v) / float64(d)
		}
	}
	return ResourceFractionList{fractions: rv, factory: rl.factory}
}

// valuesIn returns the values of rl, or zeros sized to factory if rl is empty.
func (rl ResourceList) valuesIn(factory *ResourceListFactory) []int64 {
	if rl.IsEmpty() {
		return make([]int64, len(factory.indexToName))
	}
	return rl.resources
}

// combine applies op element-wise, treating an empty operand as all zero. Two empty lists give the empty list.
func combine(a, b ResourceList, op func(int64, int64) int64) ResourceList {
	factory := commonFactory(a, b)
	if factory == nil {
		return ResourceList{}
	}
	x, y := a.valuesIn(factory), b.valuesIn(factory)
	rv := make([]int64, len(x))
	for i := range x {
		rv[i] = op(x[i], y[i])
	}
	return ResourceList{resources: rv, factory: factory}
}

// commonFactory returns the factory shared by a and b, or nil if both are empty. Panics if they differ.
func commonFactory(a, b ResourceList) *ResourceListFactory {
	assertSameResourceListFactory(a.factory, b.factory)
	if a.factory != nil {
		return a.factory
	}
	return b.factory
}

func assertSameResourceListFactory(a, b *ResourceListFactory) {
	if a != nil && b != nil && a != b {
		panic("mismatched ResourceListFactory")
	}
}
