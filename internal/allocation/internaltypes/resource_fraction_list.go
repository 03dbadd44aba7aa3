package internaltypes

import (
	"math"

	"golang.org/x/exp/slices"
)

type ResourceFractionList struct {
	fractions []float64            // immutable, do not change this, return a new struct instead!
	factory   *ResourceListFactory // immutable, do not change this!
}

func (rfl ResourceFractionList) IsEmpty() bool {
	return rfl.factory == nil
}

func (rfl ResourceFractionList) Max() float64 {
	result := math.Inf(-1)
	for _, val := range rfl.fractions {
		if val > result {
			result = val
		}
	}
	return result
}

// ArgMax returns the first index holding the largest fraction, or -1 for the empty list.
func (rfl ResourceFractionList) ArgMax() int {
	result := -1
	for i, val := range rfl.fractions {
		if result == -1 || val > rfl.fractions[result] {
			result = i
		}
	}
	return result
}

func (rfl ResourceFractionList) Sum() float64 {
	result := 0.0
	for _, val := range rfl.fractions {
		result += val
	}
	return result
}

func (rfl ResourceFractionList) At(index int) float64 {
	return rfl.fractions[index]
}

func (rfl ResourceFractionList) Values() []float64 {
	return slices.Clone(rfl.fractions)
}

func (rfl ResourceFractionList) Factory() *ResourceListFactory {
	return rfl.factory
}

// ToMap returns the fractions keyed by resource name.
func (rfl ResourceFractionList) ToMap() map[string]float64 {
	result := make(map[string]float64, len(rfl.fractions))
	for i, f := range rfl.fractions {
		result[rfl.factory.indexToName[i]] = f
	}
	return result
}
