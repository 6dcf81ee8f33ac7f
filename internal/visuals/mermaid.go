package visuals

import (
	"fmt"
	"math"
	"strings"

	"scenario-sim/internal/simulation"
)

// maxPoints is where Mermaid's xychart layout starts overlapping labels.
const maxPoints = 60

// GenerateProjectionChart creates a Mermaid xychart-beta of the average cumulative profit per month.
func GenerateProjectionChart(scenario string, projections []simulation.MonthlyProjection) string {
	if len(projections) == 0 {
		return ""
	}

	subsampleRate := 1
	if len(projections) > maxPoints {
		subsampleRate = int(math.Ceil(float64(len(projections)) / float64(maxPoints)))
	}

	var labels []string
	var cumulative []string
	var zero []string
	minY, maxY := 0.0, 0.0
	for i, p := range projections {
		minY = math.Min(minY, p.CumulativeProfit)
		maxY = math.Max(maxY, p.CumulativeProfit)
		if i%subsampleRate == 0 || i == len(projections)-1 {
			labels = append(labels, fmt.Sprintf("\"M%d\"", p.Month))
			cumulative = append(cumulative, fmt.Sprintf("%.0f", p.CumulativeProfit))
			zero = append(zero, "0")
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Cumulative Profit (%s)\"\n", scenario))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Cumulative Profit\" %d --> %d\n", padDown(minY), padUp(maxY)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(cumulative, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(zero, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateOutcomeHistogram creates a Mermaid bar chart of the terminal outcome distribution.
func GenerateOutcomeHistogram(buckets []simulation.Bucket) string {
	if len(buckets) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, b := range buckets {
		labels = append(labels, fmt.Sprintf("\"%.0f\"", (b.Lower+b.Upper)/2))
		values = append(values, fmt.Sprintf("%d", b.Count))
		if b.Count > maxVal {
			maxVal = b.Count
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Outcome Distribution (Final Cumulative Profit)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Iterations\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePercentileChart creates a Mermaid bar chart of the outcome percentiles of a scenario.
func GeneratePercentileChart(s simulation.Statistics) string {
	labels := []string{
		"\"P5 (Downside)\"",
		"\"P25\"",
		"\"P50 (Median)\"",
		"\"P75\"",
		"\"P95 (Upside)\"",
	}
	raw := []float64{s.Percentiles.P5, s.Percentiles.P25, s.Median, s.Percentiles.P75, s.Percentiles.P95}

	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = fmt.Sprintf("%.0f", v)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Outcome Percentiles\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Final Cumulative Profit\" %d --> %d\n", padDown(math.Min(0, raw[0])), padUp(math.Max(0, raw[4]))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateLossPie creates a Mermaid pie chart of the share of iterations ending in a loss.
func GenerateLossPie(risk simulation.RiskMetrics) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Probability of Loss\n")
	sb.WriteString(fmt.Sprintf("    \"Loss\" : %.1f\n", risk.ProbabilityOfLoss*100))
	sb.WriteString(fmt.Sprintf("    \"Profit\" : %.1f\n", (1-risk.ProbabilityOfLoss)*100))
	sb.WriteString("```")
	return sb.String()
}

// padDown and padUp widen an axis bound by 10% of its magnitude.
func padDown(v float64) int {
	return int(math.Floor(v - math.Abs(v)*0.1))
}

func padUp(v float64) int {
	up := int(math.Ceil(v + math.Abs(v)*0.1))
	if up == 0 {
		return 1
	}
	return up
}
