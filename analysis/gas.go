package analysis

import (
	"fmt"
	"sort"
)

// Gas category boundaries, shared with the MEV gas indicators and the
// comparative analyzer.
const (
	gasLowBound      = 100_000
	gasModerateBound = 500_000
	gasHighBound     = 1_000_000
)

// Efficiency rating thresholds on the actual/benchmark ratio
const (
	ratioExcellent = 0.8
	ratioGood      = 1.1
	ratioAverage   = 1.5
)

// CategorizeGas buckets a total gas figure
func CategorizeGas(totalGas uint64) string {
	switch {
	case totalGas < gasLowBound:
		return GasCategoryLow
	case totalGas < gasModerateBound:
		return GasCategoryModerate
	case totalGas < gasHighBound:
		return GasCategoryHigh
	default:
		return GasCategoryVeryHigh
	}
}

// AnalyzeGas partitions gas by contract and function, rates per-function
// efficiency against the static benchmark table and derives optimization
// suggestions. Pure aggregation.
func AnalyzeGas(registry *Registry, nodes []ProcessedCallNode) GasAnalysis {
	byContract := make(map[string]uint64)
	byFunction := make(map[string]uint64)
	callsByFunction := make(map[string]int)
	totalGas := uint64(0)
	approvals := 0
	errors := 0

	for i := range nodes {
		node := &nodes[i]
		totalGas += node.GasUsed
		if node.To != "" {
			byContract[node.To] += node.GasUsed
		}
		if node.Function.Name != "" {
			byFunction[node.Function.Name] += node.GasUsed
			callsByFunction[node.Function.Name]++
		}
		if node.Function.Category == CategoryApproval {
			approvals++
		}
		if node.Failed() {
			errors++
		}
	}

	efficiency := make([]FunctionEfficiency, 0, len(byFunction))
	for name, gas := range byFunction {
		benchmark, ok := registry.BenchmarkFor(name)
		if !ok {
			continue
		}
		calls := callsByFunction[name]
		avg := gas / uint64(calls)
		ratio := float64(avg) / float64(benchmark)
		efficiency = append(efficiency, FunctionEfficiency{
			Function:  name,
			Calls:     calls,
			TotalGas:  gas,
			AvgGas:    avg,
			Benchmark: benchmark,
			Ratio:     ratio,
			Rating:    efficiencyRating(ratio),
		})
	}
	sort.Slice(efficiency, func(i, j int) bool {
		return efficiency[i].TotalGas > efficiency[j].TotalGas
	})

	return GasAnalysis{
		TotalGas:    totalGas,
		Category:    CategorizeGas(totalGas),
		ByContract:  byContract,
		ByFunction:  byFunction,
		Efficiency:  efficiency,
		Suggestions: gasSuggestions(totalGas, len(nodes), approvals, errors),
	}
}

func efficiencyRating(ratio float64) string {
	switch {
	case ratio < ratioExcellent:
		return "excellent"
	case ratio <= ratioGood:
		return "good"
	case ratio <= ratioAverage:
		return "average"
	default:
		return "poor"
	}
}

// gasSuggestions generates optimization suggestions from fixed thresholds
func gasSuggestions(totalGas uint64, callCount, approvals, errors int) []string {
	suggestions := make([]string, 0, 4)

	switch CategorizeGas(totalGas) {
	case GasCategoryVeryHigh:
		suggestions = append(suggestions, "Gas usage is very high; consider splitting the operation across transactions")
	case GasCategoryHigh:
		suggestions = append(suggestions, "Gas usage is high; batching repeated operations could reduce overhead")
	}

	if callCount > 15 {
		suggestions = append(suggestions, fmt.Sprintf("%d calls in one transaction; reducing external calls lowers gas cost", callCount))
	}

	if approvals > 0 {
		suggestions = append(suggestions, "Prefer exact approval amounts over unlimited approvals")
	}

	if errors > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d failed calls still consumed gas; guard calls with preconditions", errors))
	}

	return suggestions
}
