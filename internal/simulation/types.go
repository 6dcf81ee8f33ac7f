package simulation

import (
	"errors"
	"fmt"
	"strings"
)

// Distribution names a supported probability distribution.
type Distribution string

const (
	Normal     Distribution = "normal"
	Uniform    Distribution = "uniform"
	Triangular Distribution = "triangular"
	LogNormal  Distribution = "lognormal"

	// constant is used internally for substituted default factors.
	constant Distribution = "constant"
)

// Impact declares which part of the cash-flow model a variable perturbs.
type Impact string

const (
	ImpactRevenue     Impact = "revenue"
	ImpactCosts       Impact = "costs"
	ImpactGrowthRate  Impact = "growth_rate"
	ImpactMarketShare Impact = "market_share"
	ImpactChurnRate   Impact = "churn_rate"
)

// Attribution selects how sampled factors are routed into the cash-flow model.
type Attribution string

const (
	// AttributionImpact dispatches on the declared Impact field.
	AttributionImpact Attribution = "impact"
	// AttributionName matches variable names ("revenue"/"demand", "cost"/"expense")
	// and reproduces historic results, including null break-even treated as month 0.
	AttributionName Attribution = "name"
)

var (
	ErrUnknownDistribution = errors.New("unknown distribution")
	ErrUnknownScenario     = errors.New("unknown scenario")
)

// ParameterError reports an invalid or incomplete variable definition.
type ParameterError struct {
	Variable string
	Message  string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Variable, e.Message)
}

// NonFiniteError reports a run whose cash flows overflowed to an infinite or NaN value.
// Variables lists the declared variables that fed the run.
type NonFiniteError struct {
	Scenario  string
	Variables []string
}

func (e *NonFiniteError) Error() string {
	msg := "simulated values are not finite"
	if e.Scenario != "" {
		msg = "scenario " + e.Scenario + ": " + msg
	}
	if len(e.Variables) > 0 {
		msg += ", check variables " + strings.Join(e.Variables, ", ")
	}
	return msg
}

// Parameters holds the distribution-specific fields. Absent fields are nil.
type Parameters struct {
	Mean   *float64 `json:"mean,omitempty"`
	StdDev *float64 `json:"stdDev,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mode   *float64 `json:"mode,omitempty"`
}

// Variable is one uncertain input of the simulation.
type Variable struct {
	Name         string       `json:"name"`
	Distribution Distribution `json:"type"`
	Parameters   Parameters   `json:"parameters"`
	Impact       Impact       `json:"impact"`
}

// Baseline carries the idea's deterministic economics.
type Baseline struct {
	Price             float64 `json:"price"`
	MonthlyCost       float64 `json:"monthlyCost"`
	InitialInvestment float64 `json:"initialInvestment"`
}

// Params configures one Monte-Carlo run.
type Params struct {
	TimeHorizon     int
	Iterations      int
	ConfidenceLevel float64
	Variables       []Variable
	Seed            uint64
}

// MonthPoint is one month of a single simulated trajectory.
type MonthPoint struct {
	Month            int
	Revenue          float64
	Cost             float64
	Profit           float64
	CumulativeProfit float64
}

// Percentiles of the terminal outcome distribution.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// Statistics summarises the final cumulative profit across iterations.
type Statistics struct {
	Mean        float64     `json:"mean"`
	Median      float64     `json:"median"`
	StdDev      float64     `json:"stdDev"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Percentiles Percentiles `json:"percentiles"`
}

// MonthlyProjection is a cross-iteration average for one month.
type MonthlyProjection struct {
	Month                int     `json:"month"`
	Revenue              float64 `json:"revenue"`
	Costs                float64 `json:"costs"`
	Profit               float64 `json:"profit"`
	CumulativeProfit     float64 `json:"cumulativeProfit"`
	BreakEvenProbability float64 `json:"breakEvenProbability"`
}

// RiskMetrics holds downside measures of the terminal outcome.
type RiskMetrics struct {
	ProbabilityOfLoss float64 `json:"probabilityOfLoss"`
	ValueAtRisk95     float64 `json:"valueAtRisk95"`
	ExpectedShortfall float64 `json:"expectedShortfall"`
	BreakEvenMonth    *int    `json:"breakEvenMonth"`

	// Cuts at the requested confidence level.
	ValueAtRisk                   float64 `json:"valueAtRisk"`
	ExpectedShortfallAtConfidence float64 `json:"expectedShortfallAtConfidence"`
}

// Bucket is one bin of the terminal outcome histogram.
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Result holds the aggregated outcome of one scenario.
type Result struct {
	Scenario     string              `json:"scenario"`
	Statistics   Statistics          `json:"statistics"`
	Projections  []MonthlyProjection `json:"projections"`
	RiskMetrics  RiskMetrics         `json:"riskMetrics"`
	Distribution []Bucket            `json:"distribution"`
}

// SensitivityResult captures the marginal effect of one variable.
type SensitivityResult struct {
	Variable          string  `json:"variable"`
	Correlation       float64 `json:"correlation"`
	ImpactOnOutcome   float64 `json:"impact_on_npv"`
	ImpactOnBreakEven *int    `json:"impact_on_break_even"`
	Pearson           float64 `json:"pearson"`
}
