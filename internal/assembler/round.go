package assembler

import (
	"math"

	"scenario-sim/internal/simulation"

	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2
	ratioPlaces = 4
)

// round leaves NaN and ±Inf untouched; decimal cannot represent them.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func money(v float64) float64 { return round(v, moneyPlaces) }
func ratio(v float64) float64 { return round(v, ratioPlaces) }

// roundResult returns a copy of r with currency in cents and shares in basis points.
func roundResult(r simulation.Result) simulation.Result {
	out := r
	s := r.Statistics
	out.Statistics = simulation.Statistics{
		Mean:   money(s.Mean),
		Median: money(s.Median),
		StdDev: money(s.StdDev),
		Min:    money(s.Min),
		Max:    money(s.Max),
		Percentiles: simulation.Percentiles{
			P5:  money(s.Percentiles.P5),
			P25: money(s.Percentiles.P25),
			P75: money(s.Percentiles.P75),
			P95: money(s.Percentiles.P95),
		},
	}

	out.Projections = make([]simulation.MonthlyProjection, len(r.Projections))
	for i, p := range r.Projections {
		out.Projections[i] = simulation.MonthlyProjection{
			Month:                p.Month,
			Revenue:              money(p.Revenue),
			Costs:                money(p.Costs),
			Profit:               money(p.Profit),
			CumulativeProfit:     money(p.CumulativeProfit),
			BreakEvenProbability: ratio(p.BreakEvenProbability),
		}
	}

	rm := r.RiskMetrics
	out.RiskMetrics = simulation.RiskMetrics{
		ProbabilityOfLoss:             ratio(rm.ProbabilityOfLoss),
		ValueAtRisk95:                 money(rm.ValueAtRisk95),
		ExpectedShortfall:             money(rm.ExpectedShortfall),
		BreakEvenMonth:                rm.BreakEvenMonth,
		ValueAtRisk:                   money(rm.ValueAtRisk),
		ExpectedShortfallAtConfidence: money(rm.ExpectedShortfallAtConfidence),
	}

	out.Distribution = make([]simulation.Bucket, len(r.Distribution))
	for i, b := range r.Distribution {
		out.Distribution[i] = simulation.Bucket{
			Lower: money(b.Lower),
			Upper: money(b.Upper),
			Count: b.Count,
			Share: ratio(b.Share),
		}
	}
	return out
}

func roundSensitivity(rows []simulation.SensitivityResult) []simulation.SensitivityResult {
	out := make([]simulation.SensitivityResult, len(rows))
	for i, r := range rows {
		out[i] = simulation.SensitivityResult{
			Variable:          r.Variable,
			Correlation:       ratio(r.Correlation),
			ImpactOnOutcome:   money(r.ImpactOnOutcome),
			ImpactOnBreakEven: r.ImpactOnBreakEven,
			Pearson:           ratio(r.Pearson),
		}
	}
	return out
}
