package insight

import (
	"context"
	"fmt"
	"strings"

	"scenario-sim/internal/simulation"
)

// ScenarioDigest is the part of a scenario result shown to the narrative generator.
type ScenarioDigest struct {
	Scenario    string                 `json:"scenario"`
	Statistics  simulation.Statistics  `json:"statistics"`
	RiskMetrics simulation.RiskMetrics `json:"riskMetrics"`
}

// Input is the numeric outcome a narrative is written about.
type Input struct {
	IdeaTitle   string                         `json:"ideaTitle"`
	TimeHorizon int                            `json:"timeHorizon"`
	Scenarios   []ScenarioDigest               `json:"scenarios"`
	Sensitivity []simulation.SensitivityResult `json:"sensitivityAnalysis"`
}

// NewInput digests results in the order of scenarios.
func NewInput(title string, horizon int, scenarios []string, results map[string]simulation.Result, sensitivity []simulation.SensitivityResult) Input {
	in := Input{IdeaTitle: title, TimeHorizon: horizon, Sensitivity: sensitivity}
	for _, name := range scenarios {
		r, ok := results[name]
		if !ok {
			continue
		}
		in.Scenarios = append(in.Scenarios, ScenarioDigest{Scenario: name, Statistics: r.Statistics, RiskMetrics: r.RiskMetrics})
	}
	return in
}

// Generator writes a free-text summary of simulation results. Output is advisory only.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// Summarize produces a deterministic plain-text summary without any external call.
func Summarize(in Input) string {
	var sb strings.Builder
	title := in.IdeaTitle
	if title == "" {
		title = "The idea"
	}
	sb.WriteString(fmt.Sprintf("%s was simulated over %d months.", title, in.TimeHorizon))

	for _, s := range in.Scenarios {
		sb.WriteString(fmt.Sprintf(" In the %s scenario the expected final cumulative profit is %.2f (P5 %.2f, P95 %.2f) with a %.1f%% probability of loss; ",
			s.Scenario, s.Statistics.Mean, s.Statistics.Percentiles.P5, s.Statistics.Percentiles.P95, s.RiskMetrics.ProbabilityOfLoss*100))
		if be := s.RiskMetrics.BreakEvenMonth; be != nil {
			sb.WriteString(fmt.Sprintf("break-even is typically reached in month %d.", *be))
		} else {
			sb.WriteString("break-even is not reached within the horizon.")
		}
	}

	if name := simulation.MostSensitive(in.Sensitivity); name != "" {
		for _, r := range in.Sensitivity {
			if r.Variable == name {
				sb.WriteString(fmt.Sprintf(" The outcome is most sensitive to %s (elasticity %.2f).", name, r.Correlation))
				break
			}
		}
	}
	return sb.String()
}

// Local is a Generator backed by Summarize.
type Local struct{}

func (Local) Generate(_ context.Context, in Input) (string, error) {
	return Summarize(in), nil
}
