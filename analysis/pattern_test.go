package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, records ...RawCallRecord) TransactionPattern {
	t.Helper()
	nodes := normalize(t, records...)
	transfers := ExtractTransfers(nodes, 18)
	return ClassifyPattern(nodes, transfers)
}

func TestClassifySimpleTransfer(t *testing.T) {
	pattern := classify(t, callRecord(alice, trackedToken, transferInput(bob, tokens(5)), 51_000, nil))

	assert.Equal(t, "simple_transfer", pattern.Primary.Type)
	assert.Equal(t, 0.90, pattern.Primary.Confidence)
}

func TestClassifyMultiTransfer(t *testing.T) {
	pattern := classify(t,
		callRecord(alice, trackedToken, transferInput(bob, tokens(1)), 51_000, nil),
		callRecord(alice, trackedToken, transferInput(routerA, tokens(2)), 51_000, []int{0}),
	)

	assert.Equal(t, "multi_transfer", pattern.Primary.Type)
	assert.Equal(t, 0.80, pattern.Primary.Confidence)
}

func TestClassifyApprovalFlow(t *testing.T) {
	pattern := classify(t, callRecord(alice, trackedToken, approveInput(routerA, tokens(100)), 46_000, nil))

	assert.Equal(t, "approval_flow", pattern.Primary.Type)
	assert.Equal(t, 0.85, pattern.Primary.Confidence)
}

func TestClassifySupplyChangeWinsOverTransfer(t *testing.T) {
	// mint (0.95) outranks the simultaneous transfer rules
	pattern := classify(t,
		callRecord(alice, trackedToken, mintInput(bob, tokens(10)), 70_000, nil),
		callRecord(alice, trackedToken, transferInput(bob, tokens(1)), 51_000, []int{0}),
	)

	assert.Equal(t, "supply_change", pattern.Primary.Type)
	assert.Equal(t, 0.95, pattern.Primary.Confidence)
}

func TestClassifySwapOperation(t *testing.T) {
	pattern := classify(t,
		callRecord(alice, routerA, "0xdeadbeef", 30_000, nil),
		callRecord(routerA, routerB, "0xdeadbeef", 30_000, []int{0}),
		callRecord(routerB, lendingPool, "0xdeadbeef", 30_000, []int{0, 0}),
		callRecord(lendingPool, trackedToken, transferFromInput(alice, bob, tokens(1)), 65_000, []int{0, 0, 0}),
	)

	assert.Equal(t, "swap_operation", pattern.Primary.Type)
	assert.Equal(t, 0.70, pattern.Primary.Confidence)
}

func TestClassifyBridgeAndLiquidityTieBreak(t *testing.T) {
	// one transfer, a tracked mint and >500k total gas trigger supply_change,
	// liquidity_provision and bridge_operation together; the equal-confidence
	// pair keeps declaration order
	pattern := classify(t,
		callRecord(alice, trackedToken, mintInput(bob, tokens(10)), 400_000, nil),
		callRecord(alice, trackedToken, transferInput(bob, tokens(1)), 200_000, []int{0}),
	)

	require.True(t, len(pattern.Matches) >= 3)
	assert.Equal(t, "supply_change", pattern.Primary.Type)

	var sixties []string
	for _, match := range pattern.Matches {
		if match.Confidence == 0.60 {
			sixties = append(sixties, match.Type)
		}
	}
	require.Len(t, sixties, 2)
	assert.Equal(t, "liquidity_provision", sixties[0])
	assert.Equal(t, "bridge_operation", sixties[1])
}

func TestClassifyUnknownFallback(t *testing.T) {
	pattern := classify(t, callRecord(alice, routerA, "0x", 21_000, nil))

	assert.Equal(t, "unknown", pattern.Primary.Type)
	assert.Zero(t, pattern.Primary.Confidence)
	assert.Empty(t, pattern.Matches)
}

func TestClassifyMatchesSortedByConfidence(t *testing.T) {
	pattern := classify(t,
		callRecord(alice, trackedToken, mintInput(bob, tokens(10)), 300_000, nil),
		callRecord(alice, trackedToken, transferInput(bob, tokens(1)), 300_000, []int{0}),
		callRecord(alice, trackedToken, approveInput(routerA, tokens(1)), 46_000, []int{1}),
	)

	for i := 1; i < len(pattern.Matches); i++ {
		assert.GreaterOrEqual(t, pattern.Matches[i-1].Confidence, pattern.Matches[i].Confidence)
	}
}

func TestComplexityScoreBounds(t *testing.T) {
	assert.Zero(t, ComplexityScore(nil))
	assert.Zero(t, ComplexityScore([]ProcessedCallNode{}))

	// saturate every factor
	nodes := make([]ProcessedCallNode, 0, 40)
	for i := 0; i < 40; i++ {
		nodes = append(nodes, ProcessedCallNode{
			Index:    i,
			Depth:    8,
			To:       string(rune('a'+i%26)) + "contract",
			GasUsed:  500_000,
			Error:    "reverted",
			CallType: "CALL",
		})
	}
	score := ComplexityScore(nodes)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
	assert.Equal(t, ComplexityVeryHigh, ComplexityLevel(score))
}

func TestComplexityLowForSingleTransfer(t *testing.T) {
	nodes := normalize(t, callRecord(alice, trackedToken, transferInput(bob, tokens(5)), 51_000, nil))
	score := ComplexityScore(nodes)

	assert.Less(t, score, 20.0)
	assert.Equal(t, ComplexityLow, ComplexityLevel(score))
}

func TestComplexityLevelBuckets(t *testing.T) {
	assert.Equal(t, ComplexityLow, ComplexityLevel(0))
	assert.Equal(t, ComplexityLow, ComplexityLevel(19.9))
	assert.Equal(t, ComplexityMedium, ComplexityLevel(20))
	assert.Equal(t, ComplexityHigh, ComplexityLevel(40))
	assert.Equal(t, ComplexityVeryHigh, ComplexityLevel(70))
	assert.Equal(t, ComplexityVeryHigh, ComplexityLevel(100))
}
