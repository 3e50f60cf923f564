package analysis

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxApproval() *big.Int {
	// 2^256 - 1, the conventional unlimited approval
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

func TestSecurityCleanTransferHasNoConcerns(t *testing.T) {
	nodes := normalize(t, callRecord(alice, trackedToken, transferInput(bob, tokens(5)), 51_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)
	assert.Empty(t, security.Concerns)
	assert.Empty(t, security.HighRisk)
	assert.Equal(t, RiskLow, security.RiskLevel)
}

func TestSecurityInfiniteApproval(t *testing.T) {
	nodes := normalize(t, callRecord(alice, trackedToken, approveInput(routerA, maxApproval()), 46_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)

	require.Len(t, security.Concerns, 1)
	assert.Equal(t, RiskMedium, security.Concerns[0].Severity)
	assert.Contains(t, security.Concerns[0].Description, "Infinite token approval")

	// the same finding surfaces through the independent high-risk lens
	require.Len(t, security.HighRisk, 1)
	assert.Equal(t, "approve", security.HighRisk[0].Function)
	assert.Equal(t, RiskMedium, security.RiskLevel)
}

func TestSecurityLargeApprovalIsLowSeverity(t *testing.T) {
	nodes := normalize(t, callRecord(alice, trackedToken, approveInput(routerA, tokens(2_000_000)), 46_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)

	require.Len(t, security.Concerns, 1)
	assert.Equal(t, RiskLow, security.Concerns[0].Severity)
	assert.Contains(t, security.Concerns[0].Description, "Large token approval")
	// low-severity findings stay out of the high-risk list
	assert.Empty(t, security.HighRisk)
	assert.Equal(t, RiskLow, security.RiskLevel)
}

func TestSecurityModestApprovalIsClean(t *testing.T) {
	nodes := normalize(t, callRecord(alice, trackedToken, approveInput(routerA, tokens(100)), 46_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)
	assert.Empty(t, security.Concerns)
}

func TestSecurityOwnershipTransfer(t *testing.T) {
	input := "0xf2fde38b" + addressWord(bob)
	nodes := normalize(t, callRecord(alice, trackedToken, input, 30_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)

	require.NotEmpty(t, security.Concerns)
	assert.Equal(t, RiskHigh, security.Concerns[0].Severity)
	assert.Equal(t, RiskHigh, security.RiskLevel)
	require.NotEmpty(t, security.HighRisk)
	assert.Equal(t, "transferOwnership", security.HighRisk[0].Function)
}

func TestSecurityFailedCallConcern(t *testing.T) {
	record := callRecord(alice, trackedToken, transferInput(bob, tokens(1)), 51_000, nil)
	record.Error = "Reverted"

	nodes, _ := NewNormalizer(DefaultRegistry()).Normalize(rawTrace(t, record))
	security := AnalyzeSecurity(DefaultRegistry(), nodes)

	require.Len(t, security.Concerns, 1)
	assert.Equal(t, RiskMedium, security.Concerns[0].Severity)
	assert.Contains(t, security.Concerns[0].Description, "Call failed: Reverted")
}

func TestSecurityGasExhaustionAntiPattern(t *testing.T) {
	nodes := normalize(t, callRecord(alice, routerA, "0xdeadbeef", 600_000, nil))

	security := AnalyzeSecurity(DefaultRegistry(), nodes)
	require.Len(t, security.Concerns, 1)
	assert.Contains(t, security.Concerns[0].Description, "risking exhaustion")
}

func TestSecurityReentrancyOrderingAntiPattern(t *testing.T) {
	nodes := normalize(t,
		callRecord(alice, routerA, "0xdeadbeef", 40_000, nil),
		callRecord(routerA, trackedToken, transferInput(bob, tokens(1)), 51_000, []int{0}),
	)

	security := AnalyzeSecurity(DefaultRegistry(), nodes)
	require.Len(t, security.Concerns, 1)
	assert.Equal(t, RiskMedium, security.Concerns[0].Severity)
	assert.Contains(t, security.Concerns[0].Description, "reentrancy ordering")
}

func TestSecurityApprovalRatioAntiPattern(t *testing.T) {
	nodes := normalize(t,
		callRecord(alice, trackedToken, approveInput(routerA, tokens(1)), 46_000, nil),
		callRecord(alice, trackedToken, approveInput(routerB, tokens(1)), 46_000, []int{0}),
		callRecord(alice, trackedToken, approveInput(lendingPool, tokens(1)), 46_000, []int{1}),
	)

	security := AnalyzeSecurity(DefaultRegistry(), nodes)
	require.Len(t, security.Concerns, 1)
	assert.Equal(t, RiskLow, security.Concerns[0].Severity)
	assert.Contains(t, security.Concerns[0].Description, "approval-to-transfer ratio")
}

func TestSecurityOverallRiskEscalation(t *testing.T) {
	// three medium concerns push the overall level to medium
	records := make([]RawCallRecord, 0, 3)
	paths := [][]int{nil, {0}, {1}}
	for i := 0; i < 3; i++ {
		record := callRecord(alice, routerA, "0x", 21_000, paths[i])
		record.Error = "Out of gas"
		records = append(records, record)
	}

	nodes, _ := NewNormalizer(DefaultRegistry()).Normalize(rawTrace(t, records...))
	security := AnalyzeSecurity(DefaultRegistry(), nodes)

	assert.Len(t, security.Concerns, 3)
	assert.Equal(t, RiskMedium, security.RiskLevel)
}

func TestAssessCallRiskAdminTable(t *testing.T) {
	registry := DefaultRegistry()
	node := ProcessedCallNode{Function: DecodedFunction{Name: "upgradeTo"}}

	findings := assessCallRisk(registry, &node, registry.Decimals())
	require.Len(t, findings, 1)
	assert.Equal(t, RiskCritical, findings[0].severity)
}
