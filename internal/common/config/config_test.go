package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/armadaproject/fairshare/internal/common/logging"
)

type testConfig struct {
	Name     string                       `validate:"required"`
	Capacity map[string]resource.Quantity `validate:"required,min=1"`
	Limit    resource.Quantity
	Ratio    float64 `validate:"gt=0"`
}

func TestQuantityDecodeHook(t *testing.T) {
	hook := QuantityDecodeHook()
	tests := map[string]struct {
		data     interface{}
		expected resource.Quantity
	}{
		"string":         {data: "18Gi", expected: resource.MustParse("18Gi")},
		"milli":          {data: "500m", expected: resource.MustParse("500m")},
		"integer":        {data: 9, expected: resource.MustParse("9")},
		"floating point": {data: 0.5, expected: resource.MustParse("500m")},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			actual, err := hook(reflect.TypeOf(tc.data), reflect.TypeOf(resource.Quantity{}), tc.data)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(actual.(resource.Quantity)), "expected %s, got %v", tc.expected.String(), actual)
		})
	}
}

func TestQuantityDecodeHook_IgnoresOtherTypes(t *testing.T) {
	actual, err := QuantityDecodeHook()(reflect.TypeOf(""), reflect.TypeOf(""), "18Gi")
	require.NoError(t, err)
	assert.Equal(t, "18Gi", actual)
}

func TestQuantityDecodeHook_InvalidQuantity(t *testing.T) {
	_, err := QuantityDecodeHook()(reflect.TypeOf(""), reflect.TypeOf(resource.Quantity{}), "lots")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	contents := `
name: test
ratio: 0.25
limit: 2Gi
capacity:
  cpu: 9
  nvidia.com/gpu: "2"
  memory: 18Gi
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	var config testConfig
	require.NoError(t, LoadFile(path, &config))
	assert.Equal(t, "test", config.Name)
	assert.Equal(t, 0.25, config.Ratio)
	assert.True(t, resource.MustParse("2Gi").Equal(config.Limit))
	require.Len(t, config.Capacity, 3)
	assert.True(t, resource.MustParse("9").Equal(config.Capacity["cpu"]))
	assert.True(t, resource.MustParse("2").Equal(config.Capacity["nvidia.com/gpu"]))
	assert.True(t, resource.MustParse("18Gi").Equal(config.Capacity["memory"]))
}

func TestLoadFile_MissingFile(t *testing.T) {
	var config testConfig
	err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &config)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	log := logrus.NewEntry(logging.NullLogger)
	valid := testConfig{
		Name:     "ok",
		Capacity: map[string]resource.Quantity{"cpu": resource.MustParse("1")},
		Ratio:    1,
	}
	assert.NoError(t, Validate(log, valid))

	invalid := valid
	invalid.Name = ""
	invalid.Ratio = 0
	assert.Error(t, Validate(log, invalid))
}
