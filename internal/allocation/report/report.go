package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
)

type Format string

const (
	FormatText Format = "text"
	FormatJson Format = "json"
	FormatYaml Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJson, FormatYaml:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.WithStack(&allocerrors.ErrInvalidArgument{
			Name:    "format",
			Value:   s,
			Message: fmt.Sprintf("must be one of %s, %s, %s", FormatText, FormatJson, FormatYaml),
		})
	}
}

// Report summarises the result of solving one problem.
type Report struct {
	Problem        string             `json:"problem"`
	RunId          string             `json:"runId,omitempty"`
	Strategy       string             `json:"strategy"`
	Tolerance      float64            `json:"tolerance"`
	Capacity       map[string]string  `json:"capacity"`
	Usage          map[string]string  `json:"usage"`
	Utilisation    map[string]float64 `json:"utilisation"`
	TotalTasks     int64              `json:"totalTasks"`
	FairnessSpread float64            `json:"fairnessSpread"`
	Truncated      bool               `json:"truncated,omitempty"`
	Consumers      []ConsumerReport   `json:"consumers"`
	// Resource names in capacity order; used to print maps deterministically.
	resourceNames []string
}

type ConsumerReport struct {
	Name             string            `json:"name"`
	Weight           float64           `json:"weight"`
	Tasks            int64             `json:"tasks"`
	DominantResource string            `json:"dominantResource,omitempty"`
	DominantShare    float64           `json:"dominantShare"`
	AllocatedShare   float64           `json:"allocatedShare"`
	WeightedShare    float64           `json:"weightedShare"`
	Demand           map[string]string `json:"demand"`
	Usage            map[string]string `json:"usage"`
	Excluded         bool              `json:"excluded,omitempty"`
	Reason           string            `json:"reason,omitempty"`
}

func New(problem string, result *solver.Result) Report {
	reasons := make(map[string]string, len(result.Excluded))
	for _, e := range result.Excluded {
		reasons[e.Consumer] = e.Reason.Error()
	}
	rv := Report{
		Problem:        problem,
		RunId:          result.RunId,
		Strategy:       result.Strategy.String(),
		Tolerance:      result.Tolerance,
		Capacity:       quantities(result.Capacity),
		Usage:          quantities(result.Usage),
		Utilisation:    result.Utilisation.ToMap(),
		TotalTasks:     result.TotalTasks(),
		FairnessSpread: result.FairnessSpread(),
		Truncated:      result.Truncated,
		Consumers:      make([]ConsumerReport, len(result.Allocations)),
		resourceNames:  result.Capacity.Factory().ResourceNames(),
	}
	for i, a := range result.Allocations {
		rv.Consumers[i] = ConsumerReport{
			Name:             a.Name,
			Weight:           a.Weight,
			Tasks:            a.Tasks,
			DominantResource: a.DominantShare.ResourceName,
			DominantShare:    a.DominantShare.Share,
			AllocatedShare:   a.AllocatedShare,
			WeightedShare:    a.WeightedShare,
			Demand:           quantities(a.Demand),
			Usage:            quantities(a.Usage),
			Excluded:         a.Excluded,
			Reason:           reasons[a.Name],
		}
	}
	return rv
}

func quantities(rl internaltypes.ResourceList) map[string]string {
	rv := make(map[string]string)
	for name, q := range rl.ToMap() {
		rv[name] = q.String()
	}
	return rv
}

// Write writes reports to w in the given format.
func Write(w io.Writer, format Format, reports ...Report) error {
	switch format {
	case FormatText, "":
		return writeText(w, reports)
	case FormatJson:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return errors.WithStack(encoder.Encode(reports))
	case FormatYaml:
		out, err := yaml.Marshal(reports)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = w.Write(out)
		return errors.WithStack(err)
	default:
		_, err := ParseFormat(string(format))
		return err
	}
}

func writeText(out io.Writer, reports []Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return errors.WithStack(err)
			}
		}
		w := tabwriter.NewWriter(out, 1, 1, 1, ' ', 0)
		fmt.Fprintf(w, "Problem:\t%s\n", r.Problem)
		if r.RunId != "" {
			fmt.Fprintf(w, "Run id:\t%s\n", r.RunId)
		}
		fmt.Fprintf(w, "Strategy:\t%s\n", r.Strategy)
		fmt.Fprintf(w, "Tolerance:\t%g\n", r.Tolerance)
		fmt.Fprintf(w, "Capacity:\t%s\n", r.formatQuantities(r.Capacity))
		fmt.Fprintf(w, "Usage:\t%s\n", r.formatQuantities(r.Usage))
		fmt.Fprintf(w, "Utilisation:\t%s\n", r.formatUtilisation())
		fmt.Fprintf(w, "Total tasks:\t%d\n", r.TotalTasks)
		fmt.Fprintf(w, "Fairness spread:\t%.4f\n", r.FairnessSpread)
		if r.Truncated {
			fmt.Fprintln(w, "Search:\ttruncated; allocation may not be optimal")
		}
		if err := w.Flush(); err != nil {
			return errors.WithStack(err)
		}

		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 1, 1, 2, ' ', 0)
		fmt.Fprintln(w, "CONSUMER\tWEIGHT\tTASKS\tDOMINANT RESOURCE\tDOMINANT SHARE\tALLOCATED SHARE\tUSAGE\tSTATUS")
		for _, c := range r.Consumers {
			status := "ok"
			if c.Excluded {
				status = "excluded: " + c.Reason
			}
			dominantResource := c.DominantResource
			if dominantResource == "" {
				dominantResource = "-"
			}
			fmt.Fprintf(
				w, "%s\t%g\t%d\t%s\t%.4f\t%.4f\t%s\t%s\n",
				c.Name, c.Weight, c.Tasks, dominantResource, c.DominantShare, c.AllocatedShare, r.formatQuantities(c.Usage), status,
			)
		}
		if err := w.Flush(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (r Report) formatQuantities(quantities map[string]string) string {
	var sb strings.Builder
	for i, name := range r.names() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(name + "=" + quantities[name])
	}
	return sb.String()
}

func (r Report) formatUtilisation() string {
	var sb strings.Builder
	for i, name := range r.names() {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%.1f%%", name, 100*r.Utilisation[name])
	}
	return sb.String()
}

// names returns resource names in capacity order, falling back to sorted order for reports that were decoded.
func (r Report) names() []string {
	if len(r.resourceNames) > 0 {
		return r.resourceNames
	}
	names := maps.Keys(r.Capacity)
	slices.Sort(names)
	return names
}
