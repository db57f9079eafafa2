package visuals

import (
	"fmt"
	"math"
	"strings"

	"crewopt/internal/genetic"
	"crewopt/internal/simulation"
	"crewopt/internal/taguchi"
)

// Text charts stay readable up to this many categories.
const maxCategories = 20

// GenerateDurationChart creates a Mermaid xychart-beta comparing optimized
// durations (bars) against the filtered historical means (line).
func GenerateDurationChart(res taguchi.Result) string {
	if len(res.Order) == 0 {
		return ""
	}

	var labels, optimized, historical []string
	maxY := 0.0
	for i, code := range res.Order {
		if i == maxCategories {
			break
		}
		d, ok := res.Get(code)
		if !ok {
			continue
		}
		hist := d.Duration
		if d.Historical != nil {
			hist = d.Historical.Mean
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", code))
		optimized = append(optimized, fmt.Sprintf("%.1f", d.Duration))
		historical = append(historical, fmt.Sprintf("%.1f", hist))
		maxY = math.Max(maxY, math.Max(d.Duration, hist))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Optimized Durations (%s)\"\n", res.Method))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Duration\" 0 --> %d\n", int(math.Ceil(maxY*1.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(optimized, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(historical, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateEffectChart plots the main effect of one task's duration levels.
func GenerateEffectChart(effect taguchi.Effect, levels []float64) string {
	if len(effect.LevelSNR) == 0 {
		return ""
	}

	var labels, values []string
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, snr := range effect.LevelSNR {
		label := fmt.Sprintf("L%d", i+1)
		if i < len(levels) {
			label = fmt.Sprintf("%.1f", levels[i])
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", label))
		values = append(values, fmt.Sprintf("%.2f", snr))
		minY = math.Min(minY, snr)
		maxY = math.Max(maxY, snr)
	}
	pad := math.Max(1, (maxY-minY)*0.2)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Main Effect %s\"\n", effect.TaskCode))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"SNR (dB)\" %d --> %d\n", int(math.Floor(minY-pad)), int(math.Ceil(maxY+pad))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateRiskChart shows risk (bars) and delay probability (line) per worker, in percent.
func GenerateRiskChart(outcomes simulation.Outcomes) string {
	ids := outcomes.WorkerIDs()
	if len(ids) == 0 {
		return ""
	}
	if len(ids) > maxCategories {
		ids = ids[:maxCategories]
	}

	var labels, risks, delays []string
	for _, id := range ids {
		o := outcomes[id]
		labels = append(labels, fmt.Sprintf("\"%s\"", id))
		risks = append(risks, fmt.Sprintf("%.1f", o.RiskScore*100))
		delays = append(delays, fmt.Sprintf("%.1f", o.DelayProbability*100))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Assignment Risk\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Probability (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(risks, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(delays, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateTeamChart shows the individual fitness of the assigned team.
func GenerateTeamChart(res genetic.Result) string {
	if len(res.Assigned) == 0 {
		return ""
	}

	var labels, values []string
	for _, a := range res.Assigned {
		labels = append(labels, fmt.Sprintf("\"%s (%s)\"", a.WorkerID, a.Role))
		values = append(values, fmt.Sprintf("%.1f", a.Score))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Team %s (%s)\"\n", res.TaskCode, res.Scenario))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Fitness\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
