package runner

import (
	"time"

	"github.com/pkg/errors"
	"github.com/renstrom/shortuuid"
	"k8s.io/utils/clock"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/allocation/metrics"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
	commonconfig "github.com/armadaproject/fairshare/internal/common/config"
	"github.com/armadaproject/fairshare/internal/common/logging"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

// Options modify how problems are solved.
type Options struct {
	// If non-empty, overrides the strategy of every problem.
	Strategy string
	// If positive, overrides the tolerance of every problem.
	Tolerance float64
	// If non-nil, the outcome of every problem is recorded here.
	Metrics *metrics.Metrics
	// Used to time each solve. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Outcome is the result of solving one problem.
type Outcome struct {
	Name     string
	Result   *solver.Result
	Duration time.Duration
}

// SolveFromPattern solves every problem in the files matching pattern.
func SolveFromPattern(ctx *runcontext.Context, pattern string, options Options) ([]Outcome, error) {
	configs, err := ProblemConfigsFromPattern(pattern)
	if err != nil {
		return nil, err
	}
	return Solve(ctx, configs, options)
}

// Solve solves problems concurrently. Outcomes are returned in the order of configs.
// Any invalid problem causes the whole call to fail.
func Solve(ctx *runcontext.Context, configs []configuration.ProblemConfig, options Options) ([]Outcome, error) {
	rv := make([]Outcome, len(configs))
	g, ctx := runcontext.ErrGroup(ctx)
	for i, config := range configs {
		i, config := i, config
		g.Go(func() error {
			outcome, err := SolveOne(ctx, config, options)
			if err != nil {
				return err
			}
			rv[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rv, nil
}

func SolveOne(ctx *runcontext.Context, config configuration.ProblemConfig, options Options) (Outcome, error) {
	config = applyOptions(config.WithDefaults(), options)
	if config.Name == "" {
		config.Name = shortuuid.New()
	}
	ctx = runcontext.WithLogField(ctx, "problem", config.Name)

	if options.Clock == nil {
		options.Clock = clock.RealClock{}
	}
	outcome, err := solveOne(ctx, config, options.Clock)
	if err != nil {
		logging.WithStacktrace(ctx, err).Error("failed to solve problem")
		if options.Metrics != nil {
			options.Metrics.ReportFailure()
		}
		return Outcome{}, errors.WithMessagef(err, "failed to solve problem %s", config.Name)
	}
	if options.Metrics != nil {
		options.Metrics.ReportResult(outcome.Name, outcome.Result, outcome.Duration)
	}
	return outcome, nil
}

func solveOne(ctx *runcontext.Context, config configuration.ProblemConfig, clock clock.PassiveClock) (Outcome, error) {
	if err := commonconfig.Validate(ctx, config); err != nil {
		return Outcome{}, errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "problem",
			Value:   config.Name,
			Message: err.Error(),
		})
	}
	problem, strategy, err := ProblemFromConfig(config)
	if err != nil {
		return Outcome{}, err
	}
	s, err := solver.NewSolver(strategy)
	if err != nil {
		return Outcome{}, err
	}
	ctx.WithField("resources", problem.Capacity.Factory().SummaryString()).
		WithField("consumers", len(problem.Consumers)).
		Debug("solving problem")
	start := clock.Now()
	result, err := s.Solve(ctx, problem)
	if err != nil {
		return Outcome{}, err
	}
	duration := clock.Now().Sub(start)
	ctx.WithField("strategy", strategy.String()).
		WithField("tasks", result.TotalTasks()).
		WithField("excluded", len(result.Excluded)).
		WithField("truncated", result.Truncated).
		WithField("duration", duration).
		Info("problem solved")
	return Outcome{
		Name:     config.Name,
		Result:   result,
		Duration: duration,
	}, nil
}

func applyOptions(config configuration.ProblemConfig, options Options) configuration.ProblemConfig {
	if options.Strategy != "" {
		config.Strategy = options.Strategy
	}
	if options.Tolerance > 0 {
		config.Tolerance = options.Tolerance
	}
	return config
}
