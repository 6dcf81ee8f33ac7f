package visuals

import (
	"strings"
	"testing"

	"scenario-sim/internal/simulation"
)

func TestGenerateProjectionChart(t *testing.T) {
	if got := GenerateProjectionChart("realistic", nil); got != "" {
		t.Errorf("Expected empty chart for no projections, got %q", got)
	}

	projections := make([]simulation.MonthlyProjection, 120)
	for i := range projections {
		projections[i] = simulation.MonthlyProjection{Month: i + 1, CumulativeProfit: float64(i*100 - 5000)}
	}
	chart := GenerateProjectionChart("realistic", projections)

	for _, want := range []string{"```mermaid", "xychart-beta", "Cumulative Profit (realistic)", "\"M1\"", "\"M120\"", "-5500 -->"} {
		if !strings.Contains(chart, want) {
			t.Errorf("Expected chart to contain %q\n%s", want, chart)
		}
	}

	// 120 months are subsampled to every second month plus the last one.
	axis := ""
	for _, line := range strings.Split(chart, "\n") {
		if strings.Contains(line, "x-axis") {
			axis = line
		}
	}
	if n := strings.Count(axis, "\"M"); n != 61 {
		t.Errorf("Expected 61 axis labels, got %d", n)
	}
}

func TestGenerateOutcomeHistogram(t *testing.T) {
	buckets := []simulation.Bucket{{Lower: -10, Upper: 0, Count: 3}, {Lower: 0, Upper: 10, Count: 7}}
	chart := GenerateOutcomeHistogram(buckets)
	if !strings.Contains(chart, "bar [3, 7]") {
		t.Errorf("Expected bar counts, got\n%s", chart)
	}
	if !strings.Contains(chart, "\"-5\", \"5\"") {
		t.Errorf("Expected bucket midpoints as labels, got\n%s", chart)
	}
	if GenerateOutcomeHistogram(nil) != "" {
		t.Error("Expected empty chart for no buckets")
	}
}

func TestGeneratePercentileChartAndPie(t *testing.T) {
	s := simulation.Statistics{Median: 10, Percentiles: simulation.Percentiles{P5: -20, P25: 0, P75: 30, P95: 50}}
	chart := GeneratePercentileChart(s)
	if !strings.Contains(chart, "bar [-20, 0, 10, 30, 50]") {
		t.Errorf("Unexpected percentile chart\n%s", chart)
	}

	pie := GenerateLossPie(simulation.RiskMetrics{ProbabilityOfLoss: 0.25})
	if !strings.Contains(pie, "\"Loss\" : 25.0") || !strings.Contains(pie, "\"Profit\" : 75.0") {
		t.Errorf("Unexpected pie chart\n%s", pie)
	}
}
