package solver

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/armadaproject/fairshare/internal/allocation/internaltypes"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
)

const (
	// Utilisation values closer than this are considered equal when comparing allocations.
	utilisationEpsilon = 1e-9
	// Added to LP bounds before rounding down to absorb numerical error.
	boundSlack = 1e-6
	// Tolerance passed to the simplex solver.
	simplexTolerance = 1e-10
	// Widens the fairness rows of the relaxation so allocations exactly at the tolerance stay feasible.
	relaxationSlack = 1e-7
	// Number of search nodes visited between checks for cancellation.
	cancellationCheckInterval = 1024
	// Default number of linear programs the exact search may solve before settling for the best allocation found.
	DefaultMaxRelaxations = 1000
)

// ExactSolver finds the allocation maximising the total number of tasks subject to capacity and tolerance.
// Among allocations with equal totals, it prefers higher utilisation, summed over resources,
// and then the lexicographically greatest task vector in consumer name order.
//
// The search is a depth-first branch and bound over consumers in name order, seeded with the greedy allocation
// and pruned using linear programming relaxations of the remaining subproblem.
// Proving optimality may take time exponential in the number of consumers; once MaxRelaxations relaxations
// have been solved the search stops and the best allocation found so far is returned with Result.Truncated set.
type ExactSolver struct {
	// Maximum number of relaxations solved per problem. Zero or less means DefaultMaxRelaxations.
	MaxRelaxations int
}

func NewExactSolver() *ExactSolver {
	return &ExactSolver{MaxRelaxations: DefaultMaxRelaxations}
}

func (s *ExactSolver) Solve(ctx *runcontext.Context, problem Problem) (*Result, error) {
	start := time.Now()
	inst, err := newInstance(ctx, problem)
	if err != nil {
		return nil, err
	}
	seed, _ := greedy(inst)
	search := newBranchAndBound(inst, seed)
	if s.MaxRelaxations > 0 {
		search.maxRelaxations = s.MaxRelaxations
	}
	if err := search.run(ctx); err != nil {
		return nil, errors.WithMessagef(err, "exact search abandoned after %d nodes", search.nodes)
	}
	log := ctx.WithField("strategy", ExactStrategy.String()).
		WithField("nodes", search.nodes).
		WithField("relaxations", search.relaxations).
		WithField("seedTasks", sum(seed)).
		WithField("tasks", search.bestSum).
		WithField("duration", time.Since(start))
	if search.truncated {
		log.Warn("search budget exhausted; allocation may not be optimal")
	} else {
		log.Debug("allocation complete")
	}
	rv := newResult(ctx, ExactStrategy, inst, search.best)
	rv.Truncated = search.truncated
	return rv, nil
}

type branchAndBound struct {
	inst      *instance
	tolerance float64
	tasks     []int64
	remaining internaltypes.ResourceList
	// Best allocation found so far.
	best     []int64
	bestSum  int64
	bestUtil float64
	// The search stops once this many relaxations have been solved.
	maxRelaxations int
	nodes          int
	relaxations    int
	truncated      bool
	ctx            context.Context
	err            error
}

func newBranchAndBound(inst *instance, seed []int64) *branchAndBound {
	return &branchAndBound{
		inst:           inst,
		tolerance:      inst.problem.Tolerance + fairnessSlack,
		tasks:          make([]int64, len(inst.participants)),
		remaining:      inst.problem.Capacity,
		best:           slices.Clone(seed),
		bestSum:        sum(seed),
		bestUtil:       inst.utilisation(seed),
		maxRelaxations: DefaultMaxRelaxations,
	}
}

// run searches for the best allocation, stopping early with the context's error if ctx is cancelled.
func (b *branchAndBound) run(ctx context.Context) error {
	if len(b.inst.participants) == 0 {
		return nil
	}
	b.ctx = ctx
	b.search(0, 0, 0, math.Inf(1), math.Inf(-1))
	return b.err
}

// search assigns tasks to participants k and onwards, given that participants before k have been assigned
// fixedSum tasks using fixedUtil of the capacity, with weighted shares in [minLevel, maxLevel].
func (b *branchAndBound) search(k int, fixedSum int64, fixedUtil, minLevel, maxLevel float64) {
	if b.err != nil || b.truncated {
		return
	}
	b.nodes++
	if b.ctx != nil && b.nodes%cancellationCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			b.err = errors.WithStack(err)
			return
		}
	}
	if k == len(b.inst.participants) {
		b.consider(fixedSum)
		return
	}
	if !b.mayImprove(k, fixedSum, fixedUtil, minLevel, maxLevel) {
		return
	}
	p := b.inst.participants[k]
	lo, hi := b.window(k, minLevel, maxLevel)
	remaining := b.remaining
	for t := hi; t >= lo; t-- {
		b.remaining = remaining.Subtract(p.demand.Scale(t))
		b.tasks[k] = t
		level := float64(t) * p.level
		b.search(k+1, fixedSum+t, fixedUtil+float64(t)*p.utilisation, min(minLevel, level), max(maxLevel, level))
	}
	b.remaining = remaining
	b.tasks[k] = 0
}

// window returns the range of task counts participant k may take given remaining capacity
// and the weighted shares of participants already assigned.
func (b *branchAndBound) window(k int, minLevel, maxLevel float64) (int64, int64) {
	p := b.inst.participants[k]
	lo, hi := int64(0), p.demand.MaxMultipleWithin(b.remaining)
	if k == 0 {
		return lo, hi
	}
	if upper := math.Floor((minLevel + b.tolerance) / p.level); upper < float64(hi) {
		hi = int64(upper)
	}
	if lower := math.Ceil((maxLevel - b.tolerance) / p.level); lower > 0 {
		if lower > float64(hi) {
			return 1, 0
		}
		lo = int64(lower)
	}
	return lo, hi
}

// mayImprove returns false if no completion of the current partial allocation can be preferred over the best found
// so far. It also returns false once the relaxation budget is spent.
func (b *branchAndBound) mayImprove(k int, fixedSum int64, fixedUtil, minLevel, maxLevel float64) bool {
	capacityBound := int64(0)
	for j := k; j < len(b.inst.participants); j++ {
		_, hi := b.window(j, minLevel, maxLevel)
		capacityBound += max(hi, 0)
	}
	if fixedSum+capacityBound < b.bestSum {
		return false
	}
	if fixedSum+capacityBound > b.bestSum {
		if !b.spendRelaxation() {
			return false
		}
		bound, err := b.relaxation(k, minLevel, maxLevel, false, 0)
		if errors.Is(err, lp.ErrInfeasible) {
			return false
		} else if err != nil {
			return true
		}
		sumBound := fixedSum + int64(math.Floor(bound+boundSlack))
		if sumBound != b.bestSum {
			return sumBound > b.bestSum
		}
	}

	// Completions can at best match the incumbent's total, so they must beat it on utilisation or order.
	if !b.spendRelaxation() {
		return false
	}
	bound, err := b.relaxation(k, minLevel, maxLevel, true, b.bestSum-fixedSum)
	if errors.Is(err, lp.ErrInfeasible) {
		return false
	} else if err != nil {
		return true
	}
	utilBound := fixedUtil + bound
	if b.comparePrefix(k) < 0 {
		// Every completion comes after the incumbent in consumer order, so it needs strictly higher utilisation.
		return utilBound > b.bestUtil+utilisationEpsilon/2
	}
	return utilBound >= b.bestUtil-1.5*utilisationEpsilon
}

func (b *branchAndBound) spendRelaxation() bool {
	if b.relaxations >= b.maxRelaxations {
		b.truncated = true
		return false
	}
	b.relaxations++
	return true
}

// comparePrefix compares the task counts of participants before k against the incumbent's,
// returning -1, 0 or 1 as the current prefix is lexicographically smaller, equal or greater.
func (b *branchAndBound) comparePrefix(k int) int {
	return slices.Compare(b.tasks[:k], b.best[:k])
}

// relaxation returns the optimum of the linear programming relaxation for participants k and onwards,
// i.e., with task counts allowed to be fractional.
//
// With L the smallest weighted share, the relaxation is
//
//	max  sum_j c_j t_j
//	s.t. sum_j d_jr t_j <= remaining_r   for each resource r
//	     L <= e_j t_j <= L + tolerance   for each free participant j
//	     maxLevel - tolerance <= L <= minLevel   if any participant is fixed
//	     sum_j t_j >= minTasks           if minTasks is positive
//	     t, L >= 0
//
// where e_j is the weighted share of one task of participant j.
// The objective c_j is 1 when maximising tasks, or the utilisation of one task of participant j otherwise.
// Each inequality is given its own slack variable to obtain the standard form required by lp.Simplex.
func (b *branchAndBound) relaxation(k int, minLevel, maxLevel float64, utilisation bool, minTasks int64) (float64, error) {
	free := b.inst.participants[k:]
	m := len(free)
	numResources := len(b.inst.capacity)
	numRows := numResources + 2*m
	if k > 0 {
		numRows += 2
	}
	if minTasks > 0 {
		numRows++
	}
	levelColumn := m
	numColumns := m + 1 + numRows
	tolerance := b.tolerance + relaxationSlack

	A := mat.NewDense(numRows, numColumns, nil)
	rhs := make([]float64, numRows)
	row := 0
	addRow := func(coefficients map[int]float64, slackSign float64, value float64) {
		for column, coefficient := range coefficients {
			A.Set(row, column, coefficient)
		}
		A.Set(row, m+1+row, slackSign)
		rhs[row] = value
		row++
	}

	// Capacity rows are normalised by total capacity to keep coefficients comparable across resources.
	for r := 0; r < numResources; r++ {
		total := float64(b.inst.capacity[r])
		coefficients := make(map[int]float64, m)
		for j, p := range free {
			if d := p.demand.At(r); d != 0 {
				coefficients[j] = float64(d) / total
			}
		}
		addRow(coefficients, 1, float64(b.remaining.At(r))/total)
	}
	for j, p := range free {
		// e_j t_j - L - s = 0
		addRow(map[int]float64{j: p.level, levelColumn: -1}, -1, 0)
		// e_j t_j - L + s = tolerance
		addRow(map[int]float64{j: p.level, levelColumn: -1}, 1, tolerance)
	}
	if k > 0 {
		// L + s = minLevel
		addRow(map[int]float64{levelColumn: 1}, 1, minLevel+relaxationSlack)
		// L - s = maxLevel - tolerance
		addRow(map[int]float64{levelColumn: 1}, -1, maxLevel-tolerance)
	}
	if minTasks > 0 {
		// sum_j t_j - s = minTasks
		coefficients := make(map[int]float64, m)
		for j := range free {
			coefficients[j] = 1
		}
		addRow(coefficients, -1, float64(minTasks)-boundSlack)
	}
	for i := range rhs {
		if rhs[i] < 0 {
			rhs[i] = -rhs[i]
			for j := 0; j < numColumns; j++ {
				A.Set(i, j, -A.At(i, j))
			}
		}
	}

	c := make([]float64, numColumns)
	for j, p := range free {
		if utilisation {
			c[j] = -p.utilisation
		} else {
			c[j] = -1
		}
	}
	optF, _, err := lp.Simplex(c, A, rhs, simplexTolerance, nil)
	if err != nil {
		return 0, err
	}
	return -optF, nil
}

// consider replaces the best allocation with the current one if it is fair and preferred.
func (b *branchAndBound) consider(total int64) {
	if total < b.bestSum || !b.inst.isFair(b.tasks) {
		return
	}
	util := b.inst.utilisation(b.tasks)
	if preferred(total, util, b.tasks, b.bestSum, b.bestUtil, b.best) {
		copy(b.best, b.tasks)
		b.bestSum = total
		b.bestUtil = util
	}
}

// preferred returns true if allocation a is preferred over allocation b.
func preferred(sumA int64, utilA float64, a []int64, sumB int64, utilB float64, b []int64) bool {
	if sumA != sumB {
		return sumA > sumB
	}
	if math.Abs(utilA-utilB) > utilisationEpsilon {
		return utilA > utilB
	}
	return slices.Compare(a, b) > 0
}
