package analysis

import (
	"fmt"
	"math"
	"strings"
)

// ChangePercent computes a percentage change that never yields NaN or
// Infinity: 0 when both values are zero, 100 when the baseline is zero and
// the new value is not.
func ChangePercent(before, after float64) float64 {
	if before == 0 && after == 0 {
		return 0
	}
	if before == 0 {
		return 100
	}
	return (after - before) / before * 100
}

// Compare produces a structured diff of two completed analyses. It never
// triggers analysis itself; both inputs must be fully built.
func Compare(first, second *TraceAnalysisResult) *ComparisonResult {
	result := &ComparisonResult{
		First:  comparisonSummary(first),
		Second: comparisonSummary(second),
	}

	result.Metrics = []MetricDelta{
		metricDelta("calls", float64(first.Summary.TotalCalls), float64(second.Summary.TotalCalls)),
		metricDelta("gas", float64(first.Summary.TotalGas), float64(second.Summary.TotalGas)),
		metricDelta("contracts", float64(first.Summary.UniqueContracts), float64(second.Summary.UniqueContracts)),
		metricDelta("maxDepth", float64(first.Summary.MaxDepth), float64(second.Summary.MaxDepth)),
		metricDelta("errors", float64(first.Summary.ErrorCount), float64(second.Summary.ErrorCount)),
	}

	result.Differences = deriveDifferences(first, second)
	result.Recommendations = deriveRecommendations(result.Differences)

	return result
}

func comparisonSummary(r *TraceAnalysisResult) ComparisonSummary {
	return ComparisonSummary{
		TxHash:           r.TxHash,
		Pattern:          r.Pattern.Primary.Type,
		TotalCalls:       r.Summary.TotalCalls,
		TotalGas:         r.Summary.TotalGas,
		UniqueContracts:  r.Summary.UniqueContracts,
		MaxDepth:         r.Summary.MaxDepth,
		ErrorCount:       r.Summary.ErrorCount,
		SecurityConcerns: len(r.Security.Concerns),
		ComplexityScore:  r.Summary.ComplexityScore,
	}
}

func metricDelta(name string, before, after float64) MetricDelta {
	return MetricDelta{
		Metric:        name,
		Before:        before,
		After:         after,
		Delta:         after - before,
		ChangePercent: ChangePercent(before, after),
	}
}

func deriveDifferences(first, second *TraceAnalysisResult) []ComparisonDifference {
	diffs := make([]ComparisonDifference, 0)

	if first.Pattern.Primary.Type != second.Pattern.Primary.Type {
		diffs = append(diffs, ComparisonDifference{
			Category: "pattern",
			Description: fmt.Sprintf("Transaction pattern changed from %s to %s",
				first.Pattern.Primary.Type, second.Pattern.Primary.Type),
			Impact: RiskMedium,
		})
	}

	gasChange := ChangePercent(float64(first.Summary.TotalGas), float64(second.Summary.TotalGas))
	if math.Abs(gasChange) > 10 {
		impact := RiskMedium
		if math.Abs(gasChange) > 25 {
			impact = RiskHigh
		}
		diffs = append(diffs, ComparisonDifference{
			Category:    "gas",
			Description: fmt.Sprintf("Gas usage changed by %.1f%%", gasChange),
			Impact:      impact,
		})
	}

	firstConcerns := len(first.Security.Concerns)
	secondConcerns := len(second.Security.Concerns)
	if secondConcerns > firstConcerns {
		diffs = append(diffs, ComparisonDifference{
			Category:    "security",
			Description: fmt.Sprintf("Security concerns increased from %d to %d", firstConcerns, secondConcerns),
			Impact:      RiskHigh,
		})
	} else if secondConcerns < firstConcerns {
		diffs = append(diffs, ComparisonDifference{
			Category:    "security",
			Description: fmt.Sprintf("Security concerns decreased from %d to %d", firstConcerns, secondConcerns),
			Impact:      RiskLow,
		})
	}

	added, removed := interactionTargetDiff(first, second)
	if len(added) > 0 {
		diffs = append(diffs, ComparisonDifference{
			Category:    "interactions",
			Description: fmt.Sprintf("Interacts with %d new contract(s)", len(added)),
			Impact:      RiskMedium,
		})
	}
	if len(removed) > 0 {
		diffs = append(diffs, ComparisonDifference{
			Category:    "interactions",
			Description: fmt.Sprintf("No longer interacts with %d contract(s)", len(removed)),
			Impact:      RiskMedium,
		})
	}

	return diffs
}

// interactionTargetDiff computes the set difference of interaction targets
// by target address
func interactionTargetDiff(first, second *TraceAnalysisResult) (added, removed []string) {
	firstTargets := make(map[string]bool)
	for _, edge := range first.Interactions {
		firstTargets[strings.ToLower(edge.To)] = true
	}
	secondTargets := make(map[string]bool)
	for _, edge := range second.Interactions {
		secondTargets[strings.ToLower(edge.To)] = true
	}

	for target := range secondTargets {
		if !firstTargets[target] {
			added = append(added, target)
		}
	}
	for target := range firstTargets {
		if !secondTargets[target] {
			removed = append(removed, target)
		}
	}
	return added, removed
}

// deriveRecommendations maps triggered differences onto fixed templates
func deriveRecommendations(diffs []ComparisonDifference) []string {
	recommendations := make([]string, 0, len(diffs))

	for _, diff := range diffs {
		switch diff.Category {
		case "pattern":
			recommendations = append(recommendations,
				"The transactions follow different behavioral patterns; verify both match the intended operation")
		case "gas":
			if diff.Impact == RiskHigh {
				recommendations = append(recommendations,
					"Gas usage diverged significantly; review the costlier transaction for avoidable work")
			} else {
				recommendations = append(recommendations,
					"Gas usage changed moderately; confirm the difference is expected")
			}
		case "security":
			if diff.Impact == RiskHigh {
				recommendations = append(recommendations,
					"The newer transaction raised more security concerns; review them before relying on it")
			} else {
				recommendations = append(recommendations,
					"Security posture improved between the two transactions")
			}
		case "interactions":
			recommendations = append(recommendations,
				"The contract interaction set changed; verify every new counterparty contract")
		}
	}

	return recommendations
}
