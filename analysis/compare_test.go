package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePercent(t *testing.T) {
	assert.Zero(t, ChangePercent(0, 0))
	assert.Equal(t, 100.0, ChangePercent(0, 5))
	assert.Equal(t, 100.0, ChangePercent(0, 0.001))
	assert.Equal(t, 50.0, ChangePercent(100, 150))
	assert.Equal(t, -50.0, ChangePercent(100, 50))
}

func TestChangePercentNeverNaNOrInf(t *testing.T) {
	values := []float64{0, 0.001, 1, 100, 1e12}
	for _, before := range values {
		for _, after := range values {
			got := ChangePercent(before, after)
			assert.False(t, math.IsNaN(got), "NaN for (%v, %v)", before, after)
			assert.False(t, math.IsInf(got, 0), "Inf for (%v, %v)", before, after)
		}
	}
}

func resultFixture(txHash, pattern string, totalGas uint64, concerns int) *TraceAnalysisResult {
	securityConcerns := make([]SecurityConcern, concerns)
	for i := range securityConcerns {
		securityConcerns[i] = SecurityConcern{Severity: RiskMedium, Description: "fixture concern"}
	}
	return &TraceAnalysisResult{
		TxHash: txHash,
		Summary: AnalysisSummary{
			TotalCalls:      3,
			TotalGas:        totalGas,
			UniqueContracts: 2,
			MaxDepth:        1,
		},
		Pattern:  TransactionPattern{Primary: PatternMatch{Type: pattern}},
		Security: SecurityAnalysis{Concerns: securityConcerns},
	}
}

func TestCompareGasAndPatternChange(t *testing.T) {
	first := resultFixture("0xaa", "simple_transfer", 100_000, 0)
	second := resultFixture("0xbb", "swap_operation", 160_000, 0)

	result := Compare(first, second)

	var gasDelta *MetricDelta
	for i := range result.Metrics {
		if result.Metrics[i].Metric == "gas" {
			gasDelta = &result.Metrics[i]
		}
	}
	require.NotNil(t, gasDelta)
	assert.Equal(t, 60_000.0, gasDelta.Delta)
	assert.InDelta(t, 60.0, gasDelta.ChangePercent, 1e-9)

	categories := make(map[string]string)
	for _, diff := range result.Differences {
		categories[diff.Category] = diff.Impact
	}
	assert.Equal(t, RiskHigh, categories["gas"], "a 60%% swing rates high impact")
	assert.Equal(t, RiskMedium, categories["pattern"])
	assert.NotEmpty(t, result.Recommendations)
}

func TestCompareModerateGasChange(t *testing.T) {
	first := resultFixture("0xaa", "simple_transfer", 100_000, 0)
	second := resultFixture("0xbb", "simple_transfer", 115_000, 0)

	result := Compare(first, second)
	for _, diff := range result.Differences {
		if diff.Category == "gas" {
			assert.Equal(t, RiskMedium, diff.Impact)
			return
		}
	}
	t.Fatal("expected a gas difference")
}

func TestCompareIdenticalResults(t *testing.T) {
	first := resultFixture("0xaa", "simple_transfer", 100_000, 0)
	second := resultFixture("0xbb", "simple_transfer", 100_000, 0)

	result := Compare(first, second)
	assert.Empty(t, result.Differences)
	assert.Empty(t, result.Recommendations)
}

func TestCompareSecurityConcernDelta(t *testing.T) {
	first := resultFixture("0xaa", "simple_transfer", 100_000, 0)
	second := resultFixture("0xbb", "simple_transfer", 100_000, 2)

	result := Compare(first, second)
	require.Len(t, result.Differences, 1)
	assert.Equal(t, "security", result.Differences[0].Category)
	assert.Equal(t, RiskHigh, result.Differences[0].Impact)

	// improvement is the low-impact direction
	reversed := Compare(second, first)
	require.Len(t, reversed.Differences, 1)
	assert.Equal(t, RiskLow, reversed.Differences[0].Impact)
}

func TestCompareInteractionTargets(t *testing.T) {
	first := resultFixture("0xaa", "simple_transfer", 100_000, 0)
	first.Interactions = []ContractInteractionEdge{{From: alice, To: routerA}}
	second := resultFixture("0xbb", "simple_transfer", 100_000, 0)
	second.Interactions = []ContractInteractionEdge{{From: alice, To: routerB}}

	result := Compare(first, second)

	added, removed := 0, 0
	for _, diff := range result.Differences {
		require.Equal(t, "interactions", diff.Category)
		assert.Equal(t, RiskMedium, diff.Impact)
		if diff.Description == "Interacts with 1 new contract(s)" {
			added++
		}
		if diff.Description == "No longer interacts with 1 contract(s)" {
			removed++
		}
	}
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}
