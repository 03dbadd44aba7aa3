package internaltypes

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	k8sResource "k8s.io/apimachinery/pkg/api/resource"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/configuration"
)

// ResourceListFactory defines the resource dimensions of an allocation run: their names, order and scales.
// Every ResourceList of a run must come from the same factory.
type ResourceListFactory struct {
	nameToIndex map[string]int
	indexToName []string
	scales      []k8sResource.Scale
}

func MakeResourceListFactory(supportedResourceTypes []configuration.ResourceType) (*ResourceListFactory, error) {
	if len(supportedResourceTypes) == 0 {
		return nil, errors.New("no resource types configured")
	}
	indexToName := make([]string, len(supportedResourceTypes))
	nameToIndex := make(map[string]int, len(supportedResourceTypes))
	scales := make([]k8sResource.Scale, len(supportedResourceTypes))
	for i, t := range supportedResourceTypes {
		name := strings.ToLower(t.Name)
		if name == "" {
			return nil, errors.Errorf("resource type %d has no name", i)
		}
		if _, exists := nameToIndex[name]; exists {
			return nil, errors.Errorf("duplicate resource type name %q", name)
		}
		nameToIndex[name] = i
		indexToName[i] = name
		scales[i] = resolutionToScale(t.Resolution)
	}
	return &ResourceListFactory{
		indexToName: indexToName,
		nameToIndex: nameToIndex,
		scales:      scales,
	}, nil
}

// Convert resolution to a k8sResource.Scale
// e.g.
// 1     ->  0
// 0.001 -> -3
// 1000  ->  3
func resolutionToScale(resolution k8sResource.Quantity) k8sResource.Scale {
	if resolution.Sign() < 1 {
		return k8sResource.Milli
	}
	return k8sResource.Scale(math.Floor(math.Log10(resolution.AsApproximateFloat64())))
}

func (factory *ResourceListFactory) ResourceNames() []string {
	result := make([]string, len(factory.indexToName))
	copy(result, factory.indexToName)
	return result
}

func (factory *ResourceListFactory) ResourceName(index int) string {
	return factory.indexToName[index]
}

func (factory *ResourceListFactory) MakeAllZero() ResourceList {
	result := make([]int64, len(factory.indexToName))
	return ResourceList{resources: result, factory: factory}
}

// FromCapacityMap converts capacity quantities, rounding down. Missing resources are zero.
// Unknown resources are rejected with ErrDimensionMismatch.
func (factory *ResourceListFactory) FromCapacityMap(resources map[string]k8sResource.Quantity) (ResourceList, error) {
	return factory.fromMap("", resources, QuantityToInt64RoundDown)
}

// FromDemandMap converts the per-task demand of consumer, rounding up. Missing resources are zero.
// Unknown resources are rejected with ErrDimensionMismatch.
func (factory *ResourceListFactory) FromDemandMap(consumer string, resources map[string]k8sResource.Quantity) (ResourceList, error) {
	return factory.fromMap(consumer, resources, QuantityToInt64RoundUp)
}

func (factory *ResourceListFactory) fromMap(
	consumer string,
	resources map[string]k8sResource.Quantity,
	convert func(k8sResource.Quantity, k8sResource.Scale) int64,
) (ResourceList, error) {
	result := make([]int64, len(factory.indexToName))
	for k, v := range resources {
		index, ok := factory.nameToIndex[strings.ToLower(k)]
		if !ok {
			return ResourceList{}, errors.WithStack(&allocerrors.ErrDimensionMismatch{
				Consumer: consumer,
				Message:  fmt.Sprintf("resource type %q is not one of the configured resources %v", k, factory.indexToName),
			})
		}
		result[index] = convert(v, factory.scales[index])
	}
	return ResourceList{resources: result, factory: factory}, nil
}

// FromValues builds a ResourceList from one value per resource, in factory order, expressed in whole units
// (e.g. cores, bytes). Values are rounded to the nearest representable amount.
func (factory *ResourceListFactory) FromValues(values []float64) (ResourceList, error) {
	if len(values) != len(factory.indexToName) {
		return ResourceList{}, errors.WithStack(&allocerrors.ErrDimensionMismatch{
			Message: fmt.Sprintf("expected %d values but got %d", len(factory.indexToName), len(values)),
		})
	}
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = int64(math.Round(v * math.Pow10(-int(factory.scales[i]))))
	}
	return ResourceList{resources: result, factory: factory}, nil
}

// SummaryString describes each resource dimension with its resolution, e.g. "cpu (resolution 1m) memory (resolution 1)".
func (factory *ResourceListFactory) SummaryString() string {
	parts := make([]string, len(factory.indexToName))
	for i, name := range factory.indexToName {
		parts[i] = fmt.Sprintf("%s (resolution %s)", name, k8sResource.NewScaledQuantity(1, factory.scales[i]))
	}
	return strings.Join(parts, " ")
}

// QuantityToInt64RoundUp returns ceil(q / 10^scale).
func QuantityToInt64RoundUp(q k8sResource.Quantity, scale k8sResource.Scale) int64 {
	return q.ScaledValue(scale)
}

// QuantityToInt64RoundDown returns floor(q / 10^scale).
func QuantityToInt64RoundDown(q k8sResource.Quantity, scale k8sResource.Scale) int64 {
	result := q.ScaledValue(scale)
	if k8sResource.NewScaledQuantity(result, scale).Cmp(q) > 0 {
		result--
	}
	return result
}
