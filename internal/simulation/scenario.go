package simulation

import "fmt"

// Multipliers is the macro stance applied uniformly to every iteration of a scenario.
type Multipliers struct {
	MarketGrowth      float64 `json:"marketGrowth"`
	AdoptionRate      float64 `json:"adoptionRate"`
	CostEfficiency    float64 `json:"costEfficiency"`
	CompetitionImpact float64 `json:"competitionImpact"`
}

const (
	ScenarioOptimistic  = "optimistic"
	ScenarioRealistic   = "realistic"
	ScenarioPessimistic = "pessimistic"
)

// Revenue-side multipliers are non-increasing and cost-side ones non-decreasing
// from optimistic to pessimistic, so outcomes are ordered path by path.
var scenarioTable = map[string]Multipliers{
	ScenarioOptimistic:  {MarketGrowth: 1.5, AdoptionRate: 1.3, CostEfficiency: 0.9, CompetitionImpact: 0.8},
	ScenarioRealistic:   {MarketGrowth: 1.0, AdoptionRate: 1.0, CostEfficiency: 1.0, CompetitionImpact: 1.0},
	ScenarioPessimistic: {MarketGrowth: 0.6, AdoptionRate: 0.7, CostEfficiency: 1.2, CompetitionImpact: 1.3},
}

// ScenarioNames lists the known scenarios from best to worst.
func ScenarioNames() []string {
	return []string{ScenarioOptimistic, ScenarioRealistic, ScenarioPessimistic}
}

// LookupScenario returns a copy of the multipliers for name.
func LookupScenario(name string) (Multipliers, error) {
	m, ok := scenarioTable[name]
	if !ok {
		return Multipliers{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return m, nil
}
