package runner

import (
	"path/filepath"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
	commonconfig "github.com/armadaproject/fairshare/internal/common/config"
)

func ProblemConfigsFromPattern(pattern string) ([]configuration.ProblemConfig, error) {
	filePaths, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to expand %s", pattern)
	}
	if len(filePaths) == 0 {
		return nil, errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "pattern",
			Value:   pattern,
			Message: "matched no files",
		})
	}
	slices.Sort(filePaths)
	return ProblemConfigsFromFilePaths(filePaths)
}

func ProblemConfigsFromFilePaths(filePaths []string) ([]configuration.ProblemConfig, error) {
	rv := make([]configuration.ProblemConfig, len(filePaths))
	for i, filePath := range filePaths {
		config, err := ProblemConfigFromFilePath(filePath)
		if err != nil {
			return nil, err
		}
		rv[i] = config
	}
	return rv, nil
}

// ProblemConfigFromFilePath loads the problem at filePath. Unnamed problems are named after the file.
func ProblemConfigFromFilePath(filePath string) (configuration.ProblemConfig, error) {
	config := configuration.ProblemConfig{}
	if err := commonconfig.LoadFile(filePath, &config); err != nil {
		return config, err
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	return config, nil
}

// ProblemFromConfig converts config, which should have defaults applied, into a problem and the strategy to solve it with.
func ProblemFromConfig(config configuration.ProblemConfig) (solver.Problem, solver.Strategy, error) {
	strategy, err := solver.ParseStrategy(config.Strategy)
	if err != nil {
		return solver.Problem{}, 0, err
	}
	factory, err := internaltypes.MakeResourceListFactory(config.Resources)
	if err != nil {
		return solver.Problem{}, 0, errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "resources",
			Value:   config.ResourceNames(),
			Message: err.Error(),
		})
	}
	capacity, err := factory.FromCapacityMap(config.Capacity)
	if err != nil {
		return solver.Problem{}, 0, err
	}
	consumers := make([]solver.Consumer, len(config.Consumers))
	for i, c := range config.Consumers {
		demand, err := factory.FromDemandMap(c.Name, c.Demand)
		if err != nil {
			return solver.Problem{}, 0, err
		}
		consumers[i] = solver.Consumer{
			Name:   c.Name,
			Demand: demand,
			Weight: c.Weight,
		}
	}
	return solver.Problem{
		Capacity:  capacity,
		Consumers: consumers,
		Tolerance: config.Tolerance,
	}, strategy, nil
}
