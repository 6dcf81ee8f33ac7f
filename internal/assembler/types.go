package assembler

import (
	"time"

	"scenario-sim/internal/simulation"
)

// IdeaData describes the business idea. Absent economics fall back to DefaultBaseline.
type IdeaData struct {
	Title             string   `json:"title" jsonschema:"Name of the business idea"`
	Pricing           *float64 `json:"pricing,omitempty" jsonschema:"Monthly revenue at launch"`
	MonthlyCosts      *float64 `json:"monthly_costs,omitempty" jsonschema:"Monthly operating cost at launch"`
	InitialInvestment *float64 `json:"initial_investment,omitempty" jsonschema:"Up-front investment, deducted before month 1"`
}

// SimulationParams configures the Monte-Carlo run.
type SimulationParams struct {
	TimeHorizon     int                   `json:"timeHorizon" jsonschema:"Number of simulated months"`
	Iterations      int                   `json:"iterations" jsonschema:"Number of trajectories per scenario"`
	ConfidenceLevel float64               `json:"confidenceLevel" jsonschema:"Confidence level as a fraction (0.95) or a percentage (95)"`
	Variables       []simulation.Variable `json:"variables,omitempty" jsonschema:"Uncertain inputs with their distributions"`
	Seed            *uint64               `json:"seed,omitempty" jsonschema:"Optional seed for reproducible results"`
}

// SimulationRequest is the body of a simulation call.
type SimulationRequest struct {
	IdeaData         IdeaData         `json:"ideaData"`
	SimulationParams SimulationParams `json:"simulationParams"`
	ScenarioTypes    []string         `json:"scenarioTypes" jsonschema:"Scenarios to run: optimistic, realistic, pessimistic"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	SimulationID      string                 `json:"simulationId"`
	TotalIterations   int                    `json:"totalIterations"`
	TimeHorizon       int                    `json:"timeHorizon"`
	ConfidenceLevel   float64                `json:"confidenceLevel"`
	Seed              uint64                 `json:"seed"`
	FactorAttribution simulation.Attribution `json:"factorAttribution"`
	DurationMs        int64                  `json:"durationMs"`
}

// Response is the assembled simulation payload.
type Response struct {
	IdeaTitle             string                         `json:"ideaTitle"`
	SimulationParams      SimulationParams               `json:"simulationParams"`
	Results               map[string]simulation.Result   `json:"results"`
	SensitivityAnalysis   []simulation.SensitivityResult `json:"sensitivityAnalysis"`
	MostSensitiveVariable string                         `json:"mostSensitiveVariable,omitempty"`
	Insights              string                         `json:"insights"`
	GeneratedAt           time.Time                      `json:"generatedAt"`
	Metadata              Metadata                       `json:"metadata"`
}

// ErrorResponse is the body returned when a request cannot be served.
type ErrorResponse struct {
	Error   string `json:"error"`
	Results any    `json:"results"`
}
