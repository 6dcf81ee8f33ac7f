package simulation

import (
	"math"
	"math/rand/v2"
	"strings"
)

const (
	revenueGrowthPerUnit = 0.05 // monthly revenue growth per unit of MarketGrowth
	costInflation        = 0.02 // monthly cost growth
)

type factorRole int

const (
	roleNone factorRole = iota
	roleRevenue
	roleCost
	roleChurn
)

// compiledVariable is a validated variable with its parameters resolved for the hot loop.
type compiledVariable struct {
	name   string
	dist   Distribution
	role   factorRole
	mean   float64
	stdDev float64
	minV   float64
	maxV   float64
	mode   float64
}

func compileVariable(v Variable, attr Attribution) (compiledVariable, error) {
	if err := v.Validate(); err != nil {
		return compiledVariable{}, err
	}
	cv := compiledVariable{name: v.Name, dist: v.Distribution, role: roleFor(v, attr)}
	p := v.Parameters
	cv.mean = deref(p.Mean)
	cv.stdDev = deref(p.StdDev)
	cv.minV = deref(p.Min)
	cv.maxV = deref(p.Max)
	cv.mode = deref(p.Mode)
	return cv, nil
}

func (c *compiledVariable) draw(r *rand.Rand) float64 {
	switch c.dist {
	case Normal:
		return SampleNormal(r, c.mean, c.stdDev)
	case Uniform:
		return SampleUniform(r, c.minV, c.maxV)
	case Triangular:
		return SampleTriangular(r, c.minV, c.maxV, c.mode)
	case LogNormal:
		return SampleLogNormal(r, c.mean, c.stdDev)
	default:
		return c.mean
	}
}

func roleFor(v Variable, attr Attribution) factorRole {
	if attr == AttributionName {
		return roleForName(v.Name)
	}
	switch v.Impact {
	case ImpactRevenue, ImpactGrowthRate, ImpactMarketShare:
		return roleRevenue
	case ImpactCosts:
		return roleCost
	case ImpactChurnRate:
		return roleChurn
	}
	return roleNone
}

func roleForName(name string) factorRole {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "revenue"), strings.Contains(n, "demand"):
		return roleRevenue
	case strings.Contains(n, "cost"), strings.Contains(n, "expense"):
		return roleCost
	}
	return roleNone
}

// defaultFactors substitutes the scenario multipliers as named constant factors.
// Only name attribution routes them; "costEfficiency" lands on the cost side.
func defaultFactors(m Multipliers) []compiledVariable {
	named := []struct {
		name  string
		value float64
	}{
		{"marketGrowth", m.MarketGrowth},
		{"adoptionRate", m.AdoptionRate},
		{"costEfficiency", m.CostEfficiency},
		{"competitionImpact", m.CompetitionImpact},
	}
	out := make([]compiledVariable, 0, len(named))
	for _, f := range named {
		out = append(out, compiledVariable{name: f.name, dist: constant, mean: f.value, role: roleForName(f.name)})
	}
	return out
}

// pathSimulator advances single trajectories for a fixed baseline, horizon and scenario.
type pathSimulator struct {
	baseline Baseline
	horizon  int
	m        Multipliers
	factors  []compiledVariable
}

func newPathSimulator(b Baseline, horizon int, vars []Variable, m Multipliers, attr Attribution) (*pathSimulator, error) {
	factors := make([]compiledVariable, 0, len(vars))
	for _, v := range vars {
		cv, err := compileVariable(v, attr)
		if err != nil {
			return nil, err
		}
		factors = append(factors, cv)
	}
	if len(vars) == 0 && attr == AttributionName {
		factors = defaultFactors(m)
	}
	return &pathSimulator{baseline: b, horizon: horizon, m: m, factors: factors}, nil
}

// run fills out[0:horizon]. When drawSums is non-nil it accumulates every draw per factor.
func (ps *pathSimulator) run(r *rand.Rand, out []MonthPoint, drawSums []float64) {
	growth := 1 + revenueGrowthPerUnit*ps.m.MarketGrowth
	revenueBase := ps.baseline.Price
	costBase := ps.baseline.MonthlyCost
	cumulative := -ps.baseline.InitialInvestment

	for i := 0; i < ps.horizon; i++ {
		if i > 0 {
			revenueBase *= growth
			costBase *= 1 + costInflation
		}

		revenue := revenueBase
		cost := costBase
		for j := range ps.factors {
			f := &ps.factors[j]
			x := f.draw(r)
			if drawSums != nil {
				drawSums[j] += x
			}
			switch f.role {
			case roleRevenue:
				revenue *= x
			case roleCost:
				cost *= x
			case roleChurn:
				revenue *= 1 - clamp(x, 0, 1)
			}
		}

		revenue = math.Max(0, revenue*ps.m.AdoptionRate/ps.m.CompetitionImpact)
		cost = math.Max(0, cost*ps.m.CostEfficiency)
		profit := revenue - cost
		cumulative += profit

		out[i] = MonthPoint{
			Month:            i + 1,
			Revenue:          revenue,
			Cost:             cost,
			Profit:           profit,
			CumulativeProfit: cumulative,
		}
	}
}

// SimulatePath runs one stochastic trajectory over horizon months.
func SimulatePath(r *rand.Rand, b Baseline, horizon int, vars []Variable, m Multipliers, attr Attribution) ([]MonthPoint, error) {
	ps, err := newPathSimulator(b, horizon, vars, m, attr)
	if err != nil {
		return nil, err
	}
	out := make([]MonthPoint, horizon)
	ps.run(r, out, nil)
	return out, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
