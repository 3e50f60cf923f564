package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractInteractionsMergesEdges(t *testing.T) {
	nodes := normalize(t,
		callRecord(alice, routerA, "0x", 21_000, nil),
		callRecord(alice, routerA, "0x", 9_000, []int{0}),
		callRecord(routerA, trackedToken, transferInput(bob, tokens(1)), 51_000, []int{1}),
	)

	edges := ExtractInteractions(nodes)
	require.Len(t, edges, 2)

	assert.Equal(t, alice, edges[0].From)
	assert.Equal(t, routerA, edges[0].To)
	assert.Equal(t, 2, edges[0].CallCount)
	assert.Equal(t, uint64(30_000), edges[0].TotalGas)

	assert.Equal(t, routerA, edges[1].From)
	assert.Equal(t, trackedToken, edges[1].To)
	assert.Equal(t, 1, edges[1].CallCount)
}

func TestExtractInteractionsSkipsSelfAndIncomplete(t *testing.T) {
	selfCall := callRecord(routerA, routerA, "0x", 5_000, nil)
	missingTo := RawCallRecord{
		Type:         "call",
		Action:       RawCallAction{CallType: "call", From: alice},
		TraceAddress: []int{0},
	}

	nodes, _ := NewNormalizer(DefaultRegistry()).Normalize(rawTrace(t, selfCall, missingTo))
	edges := ExtractInteractions(nodes)
	assert.Empty(t, edges)
}

func TestExtractInteractionsCallCountBound(t *testing.T) {
	nodes := normalize(t,
		callRecord(alice, routerA, "0x", 1_000, nil),
		callRecord(routerA, routerA, "0x", 1_000, []int{0}),
		callRecord(routerA, routerB, "0x", 1_000, []int{1}),
	)

	edges := ExtractInteractions(nodes)
	total := 0
	for _, edge := range edges {
		assert.NotEqual(t, edge.From, edge.To)
		total += edge.CallCount
	}
	assert.LessOrEqual(t, total, len(nodes))
}

func TestExtractTransfersFourShapes(t *testing.T) {
	nodes := normalize(t,
		callRecord(alice, trackedToken, transferInput(bob, tokens(5)), 51_000, nil),
		callRecord(routerA, trackedToken, transferFromInput(alice, bob, tokens(3)), 65_000, []int{0}),
		callRecord(alice, trackedToken, mintInput(bob, tokens(10)), 70_000, []int{1}),
		callRecord(alice, trackedToken, burnInput(tokens(2)), 60_000, []int{2}),
	)

	transfers := ExtractTransfers(nodes, 18)
	require.Len(t, transfers, 4)

	assert.Equal(t, "transfer", transfers[0].Kind)
	assert.Equal(t, alice, transfers[0].From)
	assert.Equal(t, bob, transfers[0].To)
	assert.InDelta(t, 5.0, transfers[0].Amount, 1e-9)

	assert.Equal(t, "transferFrom", transfers[1].Kind)
	assert.Equal(t, alice, transfers[1].From)
	assert.Equal(t, bob, transfers[1].To)

	assert.Equal(t, "mint", transfers[2].Kind)
	assert.Equal(t, ZeroAddress, transfers[2].From)
	assert.InDelta(t, 10.0, transfers[2].Amount, 1e-9)

	assert.Equal(t, "burn", transfers[3].Kind)
	assert.Equal(t, alice, transfers[3].From)
	assert.Equal(t, ZeroAddress, transfers[3].To)

	for _, transfer := range transfers {
		assert.Equal(t, trackedToken, transfer.Token)
	}
}

func TestExtractTransfersIgnoresUntrackedAndOther(t *testing.T) {
	nodes := normalize(t,
		// same selector on an untracked contract
		callRecord(alice, routerA, transferInput(bob, tokens(5)), 51_000, nil),
		// approval on the tracked contract is not transfer shaped
		callRecord(alice, trackedToken, approveInput(routerA, tokens(5)), 46_000, []int{0}),
	)

	transfers := ExtractTransfers(nodes, 18)
	assert.Empty(t, transfers)
}

func TestExtractTransfersExcludesUndecodedParams(t *testing.T) {
	// selector matches but calldata is truncated, so params are nil
	nodes := normalize(t, callRecord(alice, trackedToken, SelectorTransfer+"00", 51_000, nil))

	transfers := ExtractTransfers(nodes, 18)
	assert.Empty(t, transfers)
}
