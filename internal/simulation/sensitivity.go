package simulation

import (
	"context"
	"fmt"
	"math"
)

// perturbation is the relative change applied to a variable's central value.
const perturbation = 0.10

// baseCase is the unmodified run every variable is compared against.
type baseCase struct {
	mean      float64
	breakEven *int
	finals    []float64
	meanDraws [][]float64
}

// AnalyzeSensitivity perturbs each declared variable in turn by +10% under the
// given multipliers and reports its marginal effect. The base case is run once.
func (e *Engine) AnalyzeSensitivity(ctx context.Context, b Baseline, p Params, m Multipliers) ([]SensitivityResult, error) {
	if len(p.Variables) == 0 {
		return []SensitivityResult{}, nil
	}
	base, err := e.runBase(ctx, b, p, m)
	if err != nil {
		return nil, err
	}

	out := make([]SensitivityResult, 0, len(p.Variables))
	for idx := range p.Variables {
		res, err := e.analyzeAgainst(ctx, b, p, idx, m, base)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Analyze reports the sensitivity of the outcome to a single variable of p.
func (e *Engine) Analyze(ctx context.Context, b Baseline, p Params, variable string, m Multipliers) (SensitivityResult, error) {
	idx := -1
	for i, v := range p.Variables {
		if v.Name == variable {
			idx = i
			break
		}
	}
	if idx < 0 {
		return SensitivityResult{}, fmt.Errorf("variable %q is not declared", variable)
	}
	base, err := e.runBase(ctx, b, p, m)
	if err != nil {
		return SensitivityResult{}, err
	}
	return e.analyzeAgainst(ctx, b, p, idx, m, base)
}

func (e *Engine) runBase(ctx context.Context, b Baseline, p Params, m Multipliers) (*baseCase, error) {
	agg, err := e.run(ctx, b, p, m, true)
	if err != nil {
		return nil, fmt.Errorf("sensitivity base case: %w", err)
	}
	mean := agg.mean()
	if !finite(mean) {
		return nil, &NonFiniteError{Variables: variableNames(p.Variables)}
	}
	return &baseCase{
		mean:      mean,
		breakEven: agg.breakEvenMonth(),
		finals:    agg.finals,
		meanDraws: agg.meanDraws,
	}, nil
}

func (e *Engine) analyzeAgainst(ctx context.Context, b Baseline, p Params, idx int, m Multipliers, base *baseCase) (SensitivityResult, error) {
	v := p.Variables[idx]

	perturbed := p
	perturbed.Variables = make([]Variable, len(p.Variables))
	copy(perturbed.Variables, p.Variables)
	perturbed.Variables[idx] = v.Perturbed(perturbation)

	agg, err := e.run(ctx, b, perturbed, m, false)
	if err != nil {
		return SensitivityResult{}, fmt.Errorf("sensitivity for %s: %w", v.Name, err)
	}
	pertMean := agg.mean()

	res := SensitivityResult{
		Variable:          v.Name,
		ImpactOnOutcome:   pertMean - base.mean,
		ImpactOnBreakEven: e.breakEvenDelta(agg.breakEvenMonth(), base.breakEven),
	}
	if base.mean != 0 {
		// Divided by |baseMean| so the sign follows the outcome change when the base mean is negative.
		res.Correlation = ((pertMean - base.mean) / math.Abs(base.mean)) * 100 / (perturbation * 100)
	}
	if idx < len(base.meanDraws) {
		res.Pearson = CalculateCorrelation(base.meanDraws[idx], base.finals)
	}
	if !finite(res.ImpactOnOutcome, res.Correlation, res.Pearson) {
		return SensitivityResult{}, &NonFiniteError{Variables: []string{v.Name}}
	}
	return res, nil
}

// breakEvenDelta is nil when either side never breaks even. Name attribution keeps
// the historic behaviour of counting a missing month as 0.
func (e *Engine) breakEvenDelta(perturbed, base *int) *int {
	if e.attribution == AttributionName {
		d := valueOrZero(perturbed) - valueOrZero(base)
		return &d
	}
	if perturbed == nil || base == nil {
		return nil
	}
	d := *perturbed - *base
	return &d
}

func valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
