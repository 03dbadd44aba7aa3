package fairshare

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/metrics"
	"github.com/armadaproject/fairshare/internal/allocation/report"
	"github.com/armadaproject/fairshare/internal/allocation/runner"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
	"github.com/armadaproject/fairshare/internal/fairshare/build"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
}

// Params are the parameters of the solve command.
type Params struct {
	// Glob pattern matching the problem files to solve, e.g. "./problems/**/*.yaml".
	Problems string
	// If non-empty, overrides the strategy of every problem.
	Strategy string
	// If positive, overrides the tolerance of every problem.
	Tolerance float64
	// Output format; text, json or yaml.
	Format string
	// If non-empty, metrics describing the run are written to this file in the Prometheus text format.
	MetricsFile string
}

// New instantiates an App with default parameters, including standard output.
func New() *App {
	return &App{
		Params: &Params{Format: string(report.FormatText)},
		Out:    os.Stdout,
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return w.Flush()
}

// Solve solves every problem matching Params.Problems and writes a report per problem to the app output.
func (a *App) Solve(ctx *runcontext.Context) error {
	if a.Params.Problems == "" {
		return errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "problems",
			Value:   "",
			Message: "a problem file pattern is required",
		})
	}
	format, err := report.ParseFormat(a.Params.Format)
	if err != nil {
		return err
	}
	var m *metrics.Metrics
	if a.Params.MetricsFile != "" {
		m = metrics.New()
	}

	ctx, _ = runcontext.WithRunId(ctx)
	outcomes, err := runner.SolveFromPattern(ctx, a.Params.Problems, runner.Options{
		Strategy:  a.Params.Strategy,
		Tolerance: a.Params.Tolerance,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	reports := make([]report.Report, len(outcomes))
	for i, outcome := range outcomes {
		reports[i] = report.New(outcome.Name, outcome.Result)
	}
	if err := report.Write(a.Out, format, reports...); err != nil {
		return err
	}
	if m != nil {
		if err := m.WriteToTextfile(a.Params.MetricsFile); err != nil {
			return err
		}
		ctx.Infof("metrics written to %s", a.Params.MetricsFile)
	}
	return nil
}
