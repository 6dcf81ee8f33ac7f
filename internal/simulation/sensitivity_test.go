package simulation

import (
	"context"
	"testing"
)

func TestAnalyzeSensitivity_Direction(t *testing.T) {
	e := NewEngine(EngineConfig{})
	p := Params{TimeHorizon: 24, Iterations: 2000, ConfidenceLevel: 0.95, Seed: 8, Variables: []Variable{
		revenueVariable(1, 0.1),
		{Name: "ops", Distribution: Normal, Impact: ImpactCosts, Parameters: Parameters{Mean: f(1), StdDev: f(0.1)}},
	}}
	m, _ := LookupScenario(ScenarioRealistic)

	results, err := e.AnalyzeSensitivity(context.Background(), referenceBaseline, p, m)
	if err != nil {
		t.Fatalf("AnalyzeSensitivity() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	rev, cost := results[0], results[1]
	if rev.Variable != "unit_revenue" || cost.Variable != "ops" {
		t.Fatalf("Unexpected result order: %s, %s", rev.Variable, cost.Variable)
	}
	if rev.ImpactOnOutcome <= 0 || rev.Correlation <= 0 {
		t.Errorf("Expected positive effect for revenue variable, got %+v", rev)
	}
	if cost.ImpactOnOutcome >= 0 || cost.Correlation >= 0 {
		t.Errorf("Expected negative effect for cost variable, got %+v", cost)
	}
	if rev.Pearson < 0.5 {
		t.Errorf("Expected strong positive pearson for revenue variable, got %f", rev.Pearson)
	}
	if got := MostSensitive(results); got != "unit_revenue" {
		t.Errorf("MostSensitive() = %q, want unit_revenue", got)
	}
}

func TestAnalyzeSensitivity_BreakEvenDelta(t *testing.T) {
	p := Params{TimeHorizon: 24, Iterations: 500, ConfidenceLevel: 0.95, Seed: 4, Variables: []Variable{revenueVariable(1, 0.1)}}
	m, _ := LookupScenario(ScenarioRealistic)

	t.Run("NeverBreaksEven", func(t *testing.T) {
		res, err := NewEngine(EngineConfig{}).Analyze(context.Background(), referenceBaseline, p, "unit_revenue", m)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if res.ImpactOnBreakEven != nil {
			t.Errorf("Expected nil break-even impact, got %d", *res.ImpactOnBreakEven)
		}
	})

	t.Run("NameAttributionCountsMissingAsZero", func(t *testing.T) {
		res, err := NewEngine(EngineConfig{Attribution: AttributionName}).Analyze(context.Background(), referenceBaseline, p, "unit_revenue", m)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if res.ImpactOnBreakEven == nil || *res.ImpactOnBreakEven != 0 {
			t.Errorf("Expected break-even impact 0, got %v", res.ImpactOnBreakEven)
		}
	})

	t.Run("BreaksEvenEarlier", func(t *testing.T) {
		b := Baseline{Price: 1000, MonthlyCost: 100, InitialInvestment: 2000}
		res, err := NewEngine(EngineConfig{}).Analyze(context.Background(), b, p, "unit_revenue", m)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if res.ImpactOnBreakEven == nil {
			t.Fatal("Expected a break-even impact")
		}
		if *res.ImpactOnBreakEven > 0 {
			t.Errorf("Expected higher revenue not to delay break-even, got %d", *res.ImpactOnBreakEven)
		}
	})
}

func TestAnalyzeSensitivity_EdgeCases(t *testing.T) {
	e := NewEngine(EngineConfig{})
	m, _ := LookupScenario(ScenarioRealistic)
	p := Params{TimeHorizon: 6, Iterations: 50, Seed: 1}

	results, err := e.AnalyzeSensitivity(context.Background(), referenceBaseline, p, m)
	if err != nil {
		t.Fatalf("AnalyzeSensitivity() error = %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", results)
	}

	if _, err := e.Analyze(context.Background(), referenceBaseline, p, "missing", m); err == nil {
		t.Error("Expected error for undeclared variable")
	}
}
