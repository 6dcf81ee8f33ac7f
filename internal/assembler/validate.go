package assembler

import (
	"errors"
	"fmt"
	"math"

	"scenario-sim/internal/simulation"
)

// DefaultBaseline is used for economics the caller leaves out.
var DefaultBaseline = simulation.Baseline{Price: 100, MonthlyCost: 50, InitialInvestment: 10000}

// ValidationError reports a request that cannot be simulated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// plan is a validated request in engine terms.
type plan struct {
	title     string
	baseline  simulation.Baseline
	params    simulation.Params
	scenarios []string
	echo      SimulationParams
}

// Limits bounds the work a single request may ask for.
type Limits struct {
	MaxIterations  int
	MaxTimeHorizon int
}

// Validate checks req and normalises it. The returned error is a *ValidationError.
func Validate(req SimulationRequest, limits Limits) error {
	_, err := buildPlan(req, limits)
	return err
}

func buildPlan(req SimulationRequest, limits Limits) (*plan, error) {
	p := req.SimulationParams

	if p.TimeHorizon <= 0 {
		return nil, invalid("simulationParams.timeHorizon", "must be positive, got %d", p.TimeHorizon)
	}
	if limits.MaxTimeHorizon > 0 && p.TimeHorizon > limits.MaxTimeHorizon {
		return nil, invalid("simulationParams.timeHorizon", "must not exceed %d, got %d", limits.MaxTimeHorizon, p.TimeHorizon)
	}
	if p.Iterations <= 0 {
		return nil, invalid("simulationParams.iterations", "must be positive, got %d", p.Iterations)
	}
	if limits.MaxIterations > 0 && p.Iterations > limits.MaxIterations {
		return nil, invalid("simulationParams.iterations", "must not exceed %d, got %d", limits.MaxIterations, p.Iterations)
	}
	confidence, err := normalizeConfidence(p.ConfidenceLevel)
	if err != nil {
		return nil, err
	}

	scenarios, err := normalizeScenarios(req.ScenarioTypes)
	if err != nil {
		return nil, err
	}

	variables := p.Variables
	if variables == nil {
		variables = []simulation.Variable{}
	}
	seen := make(map[string]bool, len(variables))
	for i, v := range variables {
		field := fmt.Sprintf("simulationParams.variables[%d]", i)
		if err := v.Validate(); err != nil {
			var pe *simulation.ParameterError
			if errors.As(err, &pe) {
				return nil, invalid(field, "%s", pe.Error())
			}
			return nil, invalid(field, "%v", err)
		}
		if seen[v.Name] {
			return nil, invalid(field, "duplicate variable name %q", v.Name)
		}
		seen[v.Name] = true
	}

	baseline, err := baselineFrom(req.IdeaData)
	if err != nil {
		return nil, err
	}

	var seed uint64
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed = simulation.NewSeed()
	}

	echo := SimulationParams{
		TimeHorizon:     p.TimeHorizon,
		Iterations:      p.Iterations,
		ConfidenceLevel: confidence,
		Variables:       variables,
		Seed:            &seed,
	}
	return &plan{
		title:    req.IdeaData.Title,
		baseline: baseline,
		params: simulation.Params{
			TimeHorizon:     p.TimeHorizon,
			Iterations:      p.Iterations,
			ConfidenceLevel: confidence,
			Variables:       variables,
			Seed:            seed,
		},
		scenarios: scenarios,
		echo:      echo,
	}, nil
}

// normalizeConfidence accepts a fraction in (0, 1] or a percentage in (1, 100].
func normalizeConfidence(c float64) (float64, error) {
	switch {
	case math.IsNaN(c) || c <= 0 || c > 100:
		return 0, invalid("simulationParams.confidenceLevel", "must be in (0, 100], got %v", c)
	case c > 1:
		return c / 100, nil
	}
	return c, nil
}

// normalizeScenarios rejects unknown names and drops duplicates, keeping request order.
func normalizeScenarios(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, invalid("scenarioTypes", "at least one scenario is required")
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := simulation.LookupScenario(name); err != nil {
			return nil, invalid("scenarioTypes", "unknown scenario %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func baselineFrom(idea IdeaData) (simulation.Baseline, error) {
	b := DefaultBaseline
	fields := []struct {
		name string
		in   *float64
		out  *float64
	}{
		{"ideaData.pricing", idea.Pricing, &b.Price},
		{"ideaData.monthly_costs", idea.MonthlyCosts, &b.MonthlyCost},
		{"ideaData.initial_investment", idea.InitialInvestment, &b.InitialInvestment},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		if math.IsNaN(*f.in) || math.IsInf(*f.in, 0) || *f.in < 0 {
			return simulation.Baseline{}, invalid(f.name, "must be a finite non-negative number, got %v", *f.in)
		}
		*f.out = *f.in
	}
	return b, nil
}
