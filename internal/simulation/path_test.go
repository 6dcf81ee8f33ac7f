package simulation

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestSimulatePath_NameAttributionDefaults(t *testing.T) {
	m, _ := LookupScenario(ScenarioPessimistic)
	r := rand.New(rand.NewPCG(1, 2))

	path, err := SimulatePath(r, referenceBaseline, 3, nil, m, AttributionName)
	if err != nil {
		t.Fatalf("SimulatePath() error = %v", err)
	}
	// costEfficiency is applied once as a named factor and once as the scenario multiplier.
	if got := path[0].Cost; math.Abs(got-72) > 1e-9 {
		t.Errorf("Month 1 cost = %f, want 72", got)
	}
	if got, want := path[0].Revenue, 100*0.7/1.3; math.Abs(got-want) > 1e-9 {
		t.Errorf("Month 1 revenue = %f, want %f", got, want)
	}
}

func TestSimulatePath_Routing(t *testing.T) {
	m, _ := LookupScenario(ScenarioRealistic)
	fixed := func(name string, impact Impact, value float64) Variable {
		return Variable{Name: name, Distribution: Normal, Impact: impact, Parameters: Parameters{Mean: f(value), StdDev: f(0)}}
	}

	cases := []struct {
		name        string
		attr        Attribution
		vars        []Variable
		wantRevenue float64
		wantCost    float64
	}{
		{"ImpactRevenue", AttributionImpact, []Variable{fixed("x", ImpactRevenue, 1.2)}, 120, 50},
		{"ImpactGrowth", AttributionImpact, []Variable{fixed("x", ImpactGrowthRate, 1.1)}, 110, 50},
		{"ImpactCosts", AttributionImpact, []Variable{fixed("x", ImpactCosts, 2)}, 100, 100},
		{"ImpactChurn", AttributionImpact, []Variable{fixed("x", ImpactChurnRate, 0.2)}, 80, 50},
		{"ChurnClamped", AttributionImpact, []Variable{fixed("x", ImpactChurnRate, 1.5)}, 0, 50},
		{"NameDemand", AttributionName, []Variable{fixed("Demand", ImpactCosts, 1.5)}, 150, 50},
		{"NameExpense", AttributionName, []Variable{fixed("expense_ratio", ImpactRevenue, 0.5)}, 100, 25},
		{"NameUnmatched", AttributionName, []Variable{fixed("churn", ImpactChurnRate, 0.5)}, 100, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := SimulatePath(rand.New(rand.NewPCG(3, 4)), referenceBaseline, 2, tc.vars, m, tc.attr)
			if err != nil {
				t.Fatalf("SimulatePath() error = %v", err)
			}
			if math.Abs(path[0].Revenue-tc.wantRevenue) > 1e-9 {
				t.Errorf("Revenue = %f, want %f", path[0].Revenue, tc.wantRevenue)
			}
			if math.Abs(path[0].Cost-tc.wantCost) > 1e-9 {
				t.Errorf("Cost = %f, want %f", path[0].Cost, tc.wantCost)
			}
			if want := -referenceBaseline.InitialInvestment + path[0].Profit; path[0].CumulativeProfit != want {
				t.Errorf("CumulativeProfit = %f, want %f", path[0].CumulativeProfit, want)
			}
		})
	}
}

func TestSimulatePath_Growth(t *testing.T) {
	m, _ := LookupScenario(ScenarioOptimistic)
	path, err := SimulatePath(rand.New(rand.NewPCG(0, 0)), referenceBaseline, 3, nil, m, AttributionImpact)
	if err != nil {
		t.Fatalf("SimulatePath() error = %v", err)
	}
	ratio := path[2].Revenue / path[1].Revenue
	if math.Abs(ratio-1.075) > 1e-9 {
		t.Errorf("Monthly revenue growth = %f, want 1.075", ratio)
	}
	if c := path[1].Cost / path[0].Cost; math.Abs(c-1.02) > 1e-9 {
		t.Errorf("Monthly cost growth = %f, want 1.02", c)
	}
	for i, pt := range path {
		if pt.Month != i+1 {
			t.Errorf("path[%d].Month = %d", i, pt.Month)
		}
	}
}

func TestLookupScenario(t *testing.T) {
	for _, name := range ScenarioNames() {
		if _, err := LookupScenario(name); err != nil {
			t.Errorf("LookupScenario(%s) error = %v", name, err)
		}
	}
	if _, err := LookupScenario("Realistic"); err == nil {
		t.Error("Expected scenario lookup to be case sensitive")
	}
}
