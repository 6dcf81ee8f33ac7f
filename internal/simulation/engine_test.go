package simulation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"scenario-sim/internal/stats"
)

var referenceBaseline = Baseline{Price: 100, MonthlyCost: 50, InitialInvestment: 10000}

func revenueVariable(mean, sd float64) Variable {
	return Variable{Name: "unit_revenue", Distribution: Normal, Impact: ImpactRevenue, Parameters: Parameters{Mean: f(mean), StdDev: f(sd)}}
}

// deterministicFinal is the terminal cumulative profit of the realistic scenario with neutral factors.
func deterministicFinal(b Baseline, horizon int) float64 {
	total := -b.InitialInvestment
	for m := 0; m < horizon; m++ {
		total += b.Price*math.Pow(1.05, float64(m)) - b.MonthlyCost*math.Pow(1.02, float64(m))
	}
	return total
}

func TestEngine_ReferenceExample(t *testing.T) {
	e := NewEngine(EngineConfig{Workers: 4})
	p := Params{TimeHorizon: 24, Iterations: 1000, ConfidenceLevel: 0.95, Seed: 11}

	res, err := e.RunScenario(context.Background(), referenceBaseline, p, ScenarioRealistic)
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}

	if len(res.Projections) != 24 {
		t.Fatalf("Expected 24 projections, got %d", len(res.Projections))
	}
	if be := res.RiskMetrics.BreakEvenMonth; be != nil && (*be < 1 || *be > 24) {
		t.Errorf("Expected break-even month in [1,24] or nil, got %d", *be)
	}
	if math.IsNaN(res.Statistics.Mean) || math.IsInf(res.Statistics.Mean, 0) {
		t.Fatalf("Expected finite mean, got %v", res.Statistics.Mean)
	}

	// Without variables every path is the same deterministic trajectory.
	want := deterministicFinal(referenceBaseline, 24)
	if math.Abs(res.Statistics.Mean-want) > 1e-6 {
		t.Errorf("Mean = %f, want %f", res.Statistics.Mean, want)
	}
	if res.Statistics.StdDev > 1e-9 {
		t.Errorf("Expected zero spread without variables, got %f", res.Statistics.StdDev)
	}
	if res.RiskMetrics.BreakEvenMonth != nil {
		t.Errorf("Expected no break-even within 24 months, got %d", *res.RiskMetrics.BreakEvenMonth)
	}
	if res.RiskMetrics.ProbabilityOfLoss != 1 {
		t.Errorf("ProbabilityOfLoss = %v, want 1", res.RiskMetrics.ProbabilityOfLoss)
	}
	if res.Projections[0].Revenue != 100 || res.Projections[0].Costs != 50 {
		t.Errorf("Month 1 = %+v, want revenue 100 and costs 50", res.Projections[0])
	}
}

func TestEngine_PercentileOrdering(t *testing.T) {
	e := NewEngine(EngineConfig{})
	cases := []struct {
		name string
		b    Baseline
		vars []Variable
	}{
		{"Revenue", referenceBaseline, []Variable{revenueVariable(1, 0.4)}},
		{"Mixed", Baseline{Price: 800, MonthlyCost: 500, InitialInvestment: 5000}, []Variable{
			revenueVariable(1, 0.3),
			{Name: "ops", Distribution: Triangular, Impact: ImpactCosts, Parameters: Parameters{Min: f(0.7), Max: f(1.6), Mode: f(1)}},
			{Name: "churn", Distribution: Uniform, Impact: ImpactChurnRate, Parameters: Parameters{Min: f(0), Max: f(0.2)}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Params{TimeHorizon: 18, Iterations: 2000, ConfidenceLevel: 0.9, Variables: tc.vars, Seed: 5}
			for _, sc := range ScenarioNames() {
				res, err := e.RunScenario(context.Background(), tc.b, p, sc)
				if err != nil {
					t.Fatalf("RunScenario(%s) error = %v", sc, err)
				}
				s := res.Statistics
				chain := []float64{s.Min, s.Percentiles.P5, s.Percentiles.P25, s.Median, s.Percentiles.P75, s.Percentiles.P95, s.Max}
				for i := 1; i < len(chain); i++ {
					if chain[i-1] > chain[i] {
						t.Errorf("%s: statistics out of order at %d: %v", sc, i, chain)
					}
				}
				if pl := res.RiskMetrics.ProbabilityOfLoss; pl < 0 || pl > 1 {
					t.Errorf("%s: probabilityOfLoss out of range: %v", sc, pl)
				}
				if res.RiskMetrics.ExpectedShortfall > res.RiskMetrics.ValueAtRisk95 {
					t.Errorf("%s: expected shortfall %v above VaR %v", sc, res.RiskMetrics.ExpectedShortfall, res.RiskMetrics.ValueAtRisk95)
				}
			}
		})
	}
}

func TestEngine_ProbabilityOfLossMatchesSample(t *testing.T) {
	e := NewEngine(EngineConfig{Workers: 3})
	b := Baseline{Price: 400, MonthlyCost: 300, InitialInvestment: 2000}
	for _, n := range []int{1, 7, 300, 1001} {
		p := Params{TimeHorizon: 12, Iterations: n, ConfidenceLevel: 0.95, Variables: []Variable{revenueVariable(1, 0.5)}, Seed: 99}
		agg, err := e.run(context.Background(), b, p, scenarioTable[ScenarioRealistic], false)
		if err != nil {
			t.Fatalf("run(n=%d) error = %v", n, err)
		}
		res := agg.result(ScenarioRealistic, p.ConfidenceLevel)
		want := float64(stats.CountBelow(agg.finals, 0)) / float64(n)
		if res.RiskMetrics.ProbabilityOfLoss != want {
			t.Errorf("n=%d: ProbabilityOfLoss = %v, want %v", n, res.RiskMetrics.ProbabilityOfLoss, want)
		}
		sorted := stats.SortedCopy(agg.finals)
		if got := res.RiskMetrics.ValueAtRisk95; got != sorted[int(math.Floor(float64(n)*0.05))] {
			t.Errorf("n=%d: ValueAtRisk95 = %v, want nearest-rank value", n, got)
		}
	}
}

func TestEngine_DeterministicGivenSeed(t *testing.T) {
	p := Params{TimeHorizon: 24, Iterations: 3000, ConfidenceLevel: 0.95, Variables: []Variable{revenueVariable(1, 0.3)}, Seed: 2024}

	first, err := NewEngine(EngineConfig{Workers: 1}).RunScenario(context.Background(), referenceBaseline, p, ScenarioOptimistic)
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	for _, workers := range []int{1, 2, 8} {
		again, err := NewEngine(EngineConfig{Workers: workers}).RunScenario(context.Background(), referenceBaseline, p, ScenarioOptimistic)
		if err != nil {
			t.Fatalf("RunScenario() error = %v", err)
		}
		if !reflect.DeepEqual(first.Statistics, again.Statistics) {
			t.Errorf("workers=%d: statistics differ: %+v vs %+v", workers, first.Statistics, again.Statistics)
		}
		if !reflect.DeepEqual(first.RiskMetrics, again.RiskMetrics) {
			t.Errorf("workers=%d: risk metrics differ: %+v vs %+v", workers, first.RiskMetrics, again.RiskMetrics)
		}
	}

	p.Seed = 2025
	other, err := NewEngine(EngineConfig{}).RunScenario(context.Background(), referenceBaseline, p, ScenarioOptimistic)
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	if other.Statistics.Mean == first.Statistics.Mean {
		t.Errorf("Expected a different seed to change the sample mean")
	}
}

func TestEngine_LawOfLargeNumbers(t *testing.T) {
	e := NewEngine(EngineConfig{})
	want := deterministicFinal(referenceBaseline, 24)

	// Per-path terminal spread of N(1, 0.2) revenue factors over 24 months.
	variance := 0.0
	for m := 0; m < 24; m++ {
		s := 0.2 * 100 * math.Pow(1.05, float64(m))
		variance += s * s
	}
	pathSD := math.Sqrt(variance)

	for _, n := range []int{100, 20000} {
		p := Params{TimeHorizon: 24, Iterations: n, ConfidenceLevel: 0.95, Variables: []Variable{revenueVariable(1, 0.2)}, Seed: 77}
		res, err := e.RunScenario(context.Background(), referenceBaseline, p, ScenarioRealistic)
		if err != nil {
			t.Fatalf("RunScenario(n=%d) error = %v", n, err)
		}
		bound := 5 * pathSD / math.Sqrt(float64(n))
		if gap := math.Abs(res.Statistics.Mean - want); gap > bound {
			t.Errorf("n=%d: |mean-expected| = %f exceeds %f", n, gap, bound)
		}
	}
}

func TestEngine_ScenarioOrdering(t *testing.T) {
	e := NewEngine(EngineConfig{})
	variableSets := map[string][]Variable{
		"NoVariables": nil,
		"Stochastic": {
			revenueVariable(1, 0.5),
			{Name: "ops", Distribution: LogNormal, Impact: ImpactCosts, Parameters: Parameters{Mean: f(0), StdDev: f(0.4)}},
		},
	}

	for name, vars := range variableSets {
		t.Run(name, func(t *testing.T) {
			p := Params{TimeHorizon: 36, Iterations: 1500, ConfidenceLevel: 0.95, Variables: vars, Seed: 3}
			res, err := e.RunScenarios(context.Background(), referenceBaseline, p, ScenarioNames())
			if err != nil {
				t.Fatalf("RunScenarios() error = %v", err)
			}
			opt := res[ScenarioOptimistic].Statistics.Mean
			realistic := res[ScenarioRealistic].Statistics.Mean
			pess := res[ScenarioPessimistic].Statistics.Mean
			if !(opt >= realistic && realistic >= pess) {
				t.Errorf("Expected optimistic >= realistic >= pessimistic, got %f, %f, %f", opt, realistic, pess)
			}
		})
	}
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Params{TimeHorizon: 12, Iterations: 5000, ConfidenceLevel: 0.95, Seed: 1}
	_, err := NewEngine(EngineConfig{Workers: 2}).RunScenario(ctx, referenceBaseline, p, ScenarioRealistic)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestEngine_RejectsInvalidInput(t *testing.T) {
	e := NewEngine(EngineConfig{})
	if _, err := e.RunScenario(context.Background(), referenceBaseline, Params{TimeHorizon: 12, Iterations: 10}, "euphoric"); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("Expected ErrUnknownScenario, got %v", err)
	}
	if _, err := e.RunScenario(context.Background(), referenceBaseline, Params{TimeHorizon: 12, Iterations: 0}, ScenarioRealistic); err == nil {
		t.Error("Expected error for zero iterations")
	}
	bad := Params{TimeHorizon: 12, Iterations: 10, Variables: []Variable{{Name: "x", Distribution: Uniform, Impact: ImpactCosts}}}
	_, err := e.RunScenario(context.Background(), referenceBaseline, bad, ScenarioRealistic)
	var pe *ParameterError
	if !errors.As(err, &pe) || pe.Variable != "x" {
		t.Errorf("Expected ParameterError naming x, got %v", err)
	}
}

func TestEngine_NonFiniteOutcome(t *testing.T) {
	e := NewEngine(EngineConfig{Workers: 2})
	p := Params{
		TimeHorizon: 12, Iterations: 10, ConfidenceLevel: 0.95, Seed: 3,
		Variables: []Variable{{
			Name:         "viral_demand",
			Distribution: LogNormal,
			Impact:       ImpactRevenue,
			Parameters:   Parameters{Mean: f(800), StdDev: f(1)},
		}},
	}

	_, err := e.RunScenarios(context.Background(), referenceBaseline, p, []string{ScenarioRealistic})
	var nf *NonFiniteError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected *NonFiniteError, got %v", err)
	}
	if nf.Scenario != ScenarioRealistic || !reflect.DeepEqual(nf.Variables, []string{"viral_demand"}) {
		t.Errorf("Unexpected error: %+v", nf)
	}

	m, _ := LookupScenario(ScenarioRealistic)
	if _, err := e.AnalyzeSensitivity(context.Background(), referenceBaseline, p, m); !errors.As(err, &nf) {
		t.Errorf("AnalyzeSensitivity() error = %v, want *NonFiniteError", err)
	}
}

func TestEngine_WorkersSharedAcrossScenarios(t *testing.T) {
	const workers = 2
	e := NewEngine(EngineConfig{Workers: workers})

	var mu sync.Mutex
	active, peak := 0, 0
	e.chunkTrace = func(delta int) {
		mu.Lock()
		defer mu.Unlock()
		active += delta
		peak = max(peak, active)
	}

	p := Params{TimeHorizon: 36, Iterations: 16 * chunkSize, ConfidenceLevel: 0.95, Seed: 5, Variables: []Variable{revenueVariable(1, 0.1)}}
	if _, err := e.RunScenarios(context.Background(), referenceBaseline, p, ScenarioNames()); err != nil {
		t.Fatalf("RunScenarios() error = %v", err)
	}
	if peak < 1 || peak > workers {
		t.Errorf("Peak concurrent chunks = %d, want between 1 and %d", peak, workers)
	}
	if active != 0 {
		t.Errorf("Expected all chunks finished, %d still active", active)
	}
}
