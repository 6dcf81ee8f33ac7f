package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"scenario-sim/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// chunkSize is the number of iterations handled by one pool task. Chunk
// boundaries depend only on the iteration count, which keeps the merged sums
// identical for any worker count.
const chunkSize = 256

const (
	varCut         = 0.05
	breakEvenShare = 0.5
	histogramBins  = 10
)

// EngineConfig tunes the Monte-Carlo execution.
type EngineConfig struct {
	Workers     int
	Attribution Attribution
}

// Engine performs the Monte-Carlo simulation. All runs of one Engine share a
// single pool of Workers chunk slots, whichever scenario they belong to.
type Engine struct {
	workers     int
	attribution Attribution
	slots       *semaphore.Weighted
	// chunkTrace, when set, is called with +1 when a chunk starts and -1 when it ends.
	chunkTrace func(delta int)
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Attribution == "" {
		cfg.Attribution = AttributionImpact
	}
	return &Engine{
		workers:     cfg.Workers,
		attribution: cfg.Attribution,
		slots:       semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Attribution reports the factor attribution mode in use.
func (e *Engine) Attribution() Attribution {
	return e.attribution
}

// NewSeed returns a fresh random seed for callers that did not supply one.
// Seeds stay below 2^53 so they survive a JSON round trip.
func NewSeed() uint64 {
	return rand.Uint64() >> 11
}

// aggregate holds the merged per-month sums and terminal samples of a run.
type aggregate struct {
	n          int
	finals     []float64
	revenue    []float64
	cost       []float64
	profit     []float64
	cumulative []float64
	nonNeg     []int
	// meanDraws[v][i] is the average draw of variable v over iteration i (collected on request).
	meanDraws [][]float64
}

type partial struct {
	revenue    []float64
	cost       []float64
	profit     []float64
	cumulative []float64
	nonNeg     []int
}

func newPartial(horizon int) *partial {
	return &partial{
		revenue:    make([]float64, horizon),
		cost:       make([]float64, horizon),
		profit:     make([]float64, horizon),
		cumulative: make([]float64, horizon),
		nonNeg:     make([]int, horizon),
	}
}

// RunScenario runs all iterations of one named scenario and aggregates them.
func (e *Engine) RunScenario(ctx context.Context, b Baseline, p Params, scenario string) (Result, error) {
	m, err := LookupScenario(scenario)
	if err != nil {
		return Result{}, err
	}
	start := time.Now()
	agg, err := e.run(ctx, b, p, m, false)
	if err != nil {
		var nf *NonFiniteError
		if errors.As(err, &nf) {
			nf.Scenario = scenario
		}
		return Result{}, err
	}
	res := agg.result(scenario, p.ConfidenceLevel)
	if !res.finite() {
		return Result{}, &NonFiniteError{Scenario: scenario, Variables: variableNames(p.Variables)}
	}
	log.Debug().
		Str("scenario", scenario).
		Int("iterations", p.Iterations).
		Int("horizon", p.TimeHorizon).
		Dur("elapsed", time.Since(start)).
		Msg("Scenario simulated")
	return res, nil
}

// RunScenarios runs the named scenarios concurrently. Results are keyed by name.
func (e *Engine) RunScenarios(ctx context.Context, b Baseline, p Params, scenarios []string) (map[string]Result, error) {
	results := make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range scenarios {
		g.Go(func() error {
			res, err := e.RunScenario(gctx, b, p, name)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(scenarios))
	for i, name := range scenarios {
		out[name] = results[i]
	}
	return out, nil
}

// run executes p.Iterations independent paths on the worker pool.
func (e *Engine) run(ctx context.Context, b Baseline, p Params, m Multipliers, collectDraws bool) (*aggregate, error) {
	if p.Iterations <= 0 || p.TimeHorizon <= 0 {
		return nil, fmt.Errorf("iterations and time horizon must be positive (got %d, %d)", p.Iterations, p.TimeHorizon)
	}
	ps, err := newPathSimulator(b, p.TimeHorizon, p.Variables, m, e.attribution)
	if err != nil {
		return nil, err
	}

	n := p.Iterations
	agg := &aggregate{n: n, finals: make([]float64, n)}
	if collectDraws && len(p.Variables) > 0 {
		agg.meanDraws = make([][]float64, len(ps.factors))
		for v := range agg.meanDraws {
			agg.meanDraws[v] = make([]float64, n)
		}
	}

	chunks := (n + chunkSize - 1) / chunkSize
	partials := make([]*partial, chunks)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < chunks; c++ {
		if err := e.slots.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer e.slots.Release(1)
			if e.chunkTrace != nil {
				e.chunkTrace(1)
				defer e.chunkTrace(-1)
			}
			lo := c * chunkSize
			hi := min(lo+chunkSize, n)
			part := newPartial(p.TimeHorizon)
			path := make([]MonthPoint, p.TimeHorizon)

			var drawSums []float64
			if agg.meanDraws != nil {
				drawSums = make([]float64, len(ps.factors))
			}

			src := rand.NewPCG(0, 0)
			r := rand.New(src)
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				// One stream per iteration index: the same index sees the same
				// draws in every scenario and every sensitivity rerun.
				src.Seed(p.Seed, uint64(i))
				clear(drawSums)
				ps.run(r, path, drawSums)

				for mIdx, pt := range path {
					part.revenue[mIdx] += pt.Revenue
					part.cost[mIdx] += pt.Cost
					part.profit[mIdx] += pt.Profit
					part.cumulative[mIdx] += pt.CumulativeProfit
					if pt.CumulativeProfit >= 0 {
						part.nonNeg[mIdx]++
					}
				}
				agg.finals[i] = path[len(path)-1].CumulativeProfit
				for v, s := range drawSums {
					agg.meanDraws[v][i] = s / float64(p.TimeHorizon)
				}
			}
			partials[c] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg.revenue = make([]float64, p.TimeHorizon)
	agg.cost = make([]float64, p.TimeHorizon)
	agg.profit = make([]float64, p.TimeHorizon)
	agg.cumulative = make([]float64, p.TimeHorizon)
	agg.nonNeg = make([]int, p.TimeHorizon)
	for _, part := range partials {
		for mIdx := 0; mIdx < p.TimeHorizon; mIdx++ {
			agg.revenue[mIdx] += part.revenue[mIdx]
			agg.cost[mIdx] += part.cost[mIdx]
			agg.profit[mIdx] += part.profit[mIdx]
			agg.cumulative[mIdx] += part.cumulative[mIdx]
			agg.nonNeg[mIdx] += part.nonNeg[mIdx]
		}
	}
	if !agg.finite() {
		return nil, &NonFiniteError{Variables: variableNames(p.Variables)}
	}
	return agg, nil
}

func (a *aggregate) finite() bool {
	return finite(a.finals...) && finite(a.revenue...) && finite(a.cost...) &&
		finite(a.profit...) && finite(a.cumulative...)
}

func (r Result) finite() bool {
	s, rm := r.Statistics, r.RiskMetrics
	if !finite(s.Mean, s.Median, s.StdDev, s.Min, s.Max,
		s.Percentiles.P5, s.Percentiles.P25, s.Percentiles.P75, s.Percentiles.P95,
		rm.ValueAtRisk95, rm.ExpectedShortfall, rm.ValueAtRisk, rm.ExpectedShortfallAtConfidence) {
		return false
	}
	for _, p := range r.Projections {
		if !finite(p.Revenue, p.Costs, p.Profit, p.CumulativeProfit) {
			return false
		}
	}
	for _, b := range r.Distribution {
		if !finite(b.Lower, b.Upper) {
			return false
		}
	}
	return true
}

func variableNames(vars []Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}

func (a *aggregate) mean() float64 {
	return stats.Mean(a.finals)
}

// breakEvenMonth is the first month at which at least half the iterations are non-negative.
func (a *aggregate) breakEvenMonth() *int {
	for mIdx, c := range a.nonNeg {
		if float64(c)/float64(a.n) >= breakEvenShare {
			month := mIdx + 1
			return &month
		}
	}
	return nil
}

func (a *aggregate) result(scenario string, confidence float64) Result {
	n := float64(a.n)
	sorted := stats.SortedCopy(a.finals)
	mean := stats.Mean(sorted)

	res := Result{
		Scenario: scenario,
		Statistics: Statistics{
			Mean:   mean,
			Median: stats.Percentile(sorted, 0.50),
			StdDev: stats.StdDev(sorted, mean),
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Percentiles: Percentiles{
				P5:  stats.Percentile(sorted, 0.05),
				P25: stats.Percentile(sorted, 0.25),
				P75: stats.Percentile(sorted, 0.75),
				P95: stats.Percentile(sorted, 0.95),
			},
		},
		Projections:  make([]MonthlyProjection, len(a.cumulative)),
		Distribution: OutcomeHistogram(sorted, histogramBins),
	}

	for mIdx := range a.cumulative {
		res.Projections[mIdx] = MonthlyProjection{
			Month:                mIdx + 1,
			Revenue:              a.revenue[mIdx] / n,
			Costs:                a.cost[mIdx] / n,
			Profit:               a.profit[mIdx] / n,
			CumulativeProfit:     a.cumulative[mIdx] / n,
			BreakEvenProbability: float64(a.nonNeg[mIdx]) / n,
		}
	}

	varIdx := stats.NearestRankIndex(len(sorted), varCut)
	confIdx := varIdx
	if confidence > 0 && confidence <= 1 {
		confIdx = stats.NearestRankIndex(len(sorted), 1-confidence)
	}
	res.RiskMetrics = RiskMetrics{
		ProbabilityOfLoss:             float64(stats.CountBelow(sorted, 0)) / n,
		ValueAtRisk95:                 sorted[varIdx],
		ExpectedShortfall:             stats.TailMean(sorted, varIdx),
		BreakEvenMonth:                a.breakEvenMonth(),
		ValueAtRisk:                   sorted[confIdx],
		ExpectedShortfallAtConfidence: stats.TailMean(sorted, confIdx),
	}
	return res
}
