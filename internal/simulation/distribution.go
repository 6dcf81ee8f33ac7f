package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Sample draws one value from the named distribution.
// Missing parameters are reported as a *ParameterError rather than defaulted.
func Sample(r *rand.Rand, d Distribution, p Parameters) (float64, error) {
	v := Variable{Name: string(d), Distribution: d, Parameters: p, Impact: ImpactRevenue}
	cv, err := compileVariable(v, AttributionImpact)
	if err != nil {
		return 0, err
	}
	return cv.draw(r), nil
}

// SampleNormal uses the Box-Muller transform with u1, u2 in (0,1].
func SampleNormal(r *rand.Rand, mean, stdDev float64) float64 {
	u1 := 1 - r.Float64()
	u2 := 1 - r.Float64()
	return mean + stdDev*math.Sqrt(-2*math.Log(u1))*math.Cos(2*math.Pi*u2)
}

func SampleUniform(r *rand.Rand, minV, maxV float64) float64 {
	return minV + r.Float64()*(maxV-minV)
}

// SampleTriangular inverts the piecewise triangular CDF.
func SampleTriangular(r *rand.Rand, minV, maxV, mode float64) float64 {
	u := r.Float64()
	span := maxV - minV
	f := (mode - minV) / span
	if u < f {
		return minV + math.Sqrt(u*span*(mode-minV))
	}
	return maxV - math.Sqrt((1-u)*span*(maxV-mode))
}

func SampleLogNormal(r *rand.Rand, mean, stdDev float64) float64 {
	return math.Exp(SampleNormal(r, mean, stdDev))
}

// Validate checks that the variable names a known distribution and impact, and
// that every parameter its distribution requires is present and consistent.
func (v Variable) Validate() error {
	if v.Name == "" {
		return &ParameterError{Variable: v.Name, Message: "name is required"}
	}
	switch v.Impact {
	case ImpactRevenue, ImpactCosts, ImpactGrowthRate, ImpactMarketShare, ImpactChurnRate:
	default:
		return &ParameterError{Variable: v.Name, Message: fmt.Sprintf("unknown impact %q", v.Impact)}
	}

	p := v.Parameters
	switch v.Distribution {
	case Normal, LogNormal:
		if p.Mean == nil || p.StdDev == nil {
			return &ParameterError{Variable: v.Name, Message: fmt.Sprintf("%s distribution requires mean and stdDev", v.Distribution)}
		}
		if *p.StdDev < 0 || !finite(*p.Mean, *p.StdDev) {
			return &ParameterError{Variable: v.Name, Message: "stdDev must be a finite non-negative number"}
		}
	case Uniform:
		if p.Min == nil || p.Max == nil {
			return &ParameterError{Variable: v.Name, Message: "uniform distribution requires min and max"}
		}
		if !finite(*p.Min, *p.Max) || *p.Max <= *p.Min {
			return &ParameterError{Variable: v.Name, Message: "uniform distribution requires min < max"}
		}
	case Triangular:
		if p.Min == nil || p.Max == nil || p.Mode == nil {
			return &ParameterError{Variable: v.Name, Message: "triangular distribution requires min, max and mode"}
		}
		if !finite(*p.Min, *p.Max, *p.Mode) || *p.Max <= *p.Min {
			return &ParameterError{Variable: v.Name, Message: "triangular distribution requires min < max"}
		}
		if *p.Mode < *p.Min || *p.Mode > *p.Max {
			return &ParameterError{Variable: v.Name, Message: "triangular mode must lie within [min, max]"}
		}
	default:
		return &ParameterError{Variable: v.Name, Message: fmt.Sprintf("%v %q", ErrUnknownDistribution, v.Distribution)}
	}
	return nil
}

// Perturbed returns a copy with its central value raised by pct (0.10 = +10%).
// Normal shifts the mean, log-normal shifts the log-mean so the median factor
// moves by pct, and uniform/triangular scale their whole support.
func (v Variable) Perturbed(pct float64) Variable {
	out := v
	p := v.Parameters
	scale := func(f *float64) *float64 {
		if f == nil {
			return nil
		}
		x := *f * (1 + pct)
		return &x
	}
	clone := func(f *float64) *float64 {
		if f == nil {
			return nil
		}
		x := *f
		return &x
	}

	out.Parameters = Parameters{
		Mean:   clone(p.Mean),
		StdDev: clone(p.StdDev),
		Min:    clone(p.Min),
		Max:    clone(p.Max),
		Mode:   clone(p.Mode),
	}

	switch v.Distribution {
	case Normal:
		out.Parameters.Mean = scale(p.Mean)
	case LogNormal:
		if p.Mean != nil {
			x := *p.Mean + math.Log1p(pct)
			out.Parameters.Mean = &x
		}
	case Uniform, Triangular:
		out.Parameters.Min = scale(p.Min)
		out.Parameters.Max = scale(p.Max)
		out.Parameters.Mode = scale(p.Mode)
	}
	return out
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
