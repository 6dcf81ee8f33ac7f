package mcp

import (
	"strings"

	"scenario-sim/internal/assembler"
	"scenario-sim/internal/simulation"
	"scenario-sim/internal/visuals"
)

// renderCharts draws the realistic scenario, or the first returned one when realistic was not requested.
func renderCharts(resp *assembler.Response) string {
	name := ""
	for _, candidate := range []string{simulation.ScenarioRealistic, simulation.ScenarioOptimistic, simulation.ScenarioPessimistic} {
		if _, ok := resp.Results[candidate]; ok {
			name = candidate
			break
		}
	}
	if name == "" {
		return ""
	}
	res := resp.Results[name]

	parts := []string{
		visuals.GenerateProjectionChart(name, res.Projections),
		visuals.GenerateOutcomeHistogram(res.Distribution),
		visuals.GeneratePercentileChart(res.Statistics),
		visuals.GenerateLossPie(res.RiskMetrics),
	}
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
