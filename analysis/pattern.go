package analysis

import (
	"sort"
	"strings"
)

// traceStats is the shared per-transaction feature set the rule tables
// evaluate over.
type traceStats struct {
	totalCalls      int
	trackedCalls    int
	trackedTargets  map[string]int
	fnNames         map[string]int
	trackedFnNames  map[string]int
	categories      map[string]int
	transferCount   int
	externalCalls   int
	totalGas        uint64
	trackedGas      uint64
	errorCount      int
	maxDepth        int
	uniqueContracts int
}

func computeStats(nodes []ProcessedCallNode, transfers []TokenTransferEvent) traceStats {
	stats := traceStats{
		trackedTargets: make(map[string]int),
		fnNames:        make(map[string]int),
		trackedFnNames: make(map[string]int),
		categories:     make(map[string]int),
		transferCount:  len(transfers),
	}

	contracts := make(map[string]struct{})
	for i := range nodes {
		node := &nodes[i]
		stats.totalCalls++
		stats.totalGas += node.GasUsed
		if node.Failed() {
			stats.errorCount++
		}
		if node.Depth > stats.maxDepth {
			stats.maxDepth = node.Depth
		}
		if node.To != "" {
			contracts[strings.ToLower(node.To)] = struct{}{}
		}

		stats.fnNames[node.Function.Name]++
		stats.categories[node.Function.Category]++

		if node.IsTracked {
			stats.trackedCalls++
			stats.trackedGas += node.GasUsed
			stats.trackedTargets[strings.ToLower(node.To)]++
			stats.trackedFnNames[node.Function.Name]++
		} else if callLikeKinds[node.CallType] {
			stats.externalCalls++
		}
	}
	stats.uniqueContracts = len(contracts)

	return stats
}

// hasTrackedFnContaining reports whether any tracked call's function name
// contains the given substring (case-insensitive).
func (s traceStats) hasTrackedFnContaining(sub string) bool {
	for name, count := range s.trackedFnNames {
		if count > 0 && strings.Contains(strings.ToLower(name), sub) {
			return true
		}
	}
	return false
}

// patternRule is one independently evaluable classification rule.
// Declaration order is the tie-break order for equal confidence.
type patternRule struct {
	name        string
	confidence  float64
	description string
	when        func(s traceStats) bool
}

var patternRules = []patternRule{
	{
		name:        "simple_transfer",
		confidence:  0.90,
		description: "Single token transfer on a tracked contract",
		when: func(s traceStats) bool {
			return s.transferCount == 1 && len(s.trackedTargets) <= 1 && s.fnNames["transfer"] == 1
		},
	},
	{
		name:        "multi_transfer",
		confidence:  0.80,
		description: "Multiple token transfers in one transaction",
		when: func(s traceStats) bool {
			return s.transferCount > 1 && s.fnNames["transfer"] > 1
		},
	},
	{
		name:        "approval_flow",
		confidence:  0.85,
		description: "Token approval granted or adjusted",
		when: func(s traceStats) bool {
			return s.categories[CategoryApproval] >= 1
		},
	},
	{
		name:        "supply_change",
		confidence:  0.95,
		description: "Token supply changed via mint or burn",
		when: func(s traceStats) bool {
			return s.categories[CategoryMint] >= 1 || s.categories[CategoryBurn] >= 1
		},
	},
	{
		name:        "swap_operation",
		confidence:  0.70,
		description: "Token transfer routed through external contracts",
		when: func(s traceStats) bool {
			return s.transferCount >= 1 && s.externalCalls >= 3
		},
	},
	{
		name:        "liquidity_provision",
		confidence:  0.60,
		description: "Transfer combined with a tracked mint call",
		when: func(s traceStats) bool {
			return s.transferCount >= 1 && s.hasTrackedFnContaining("mint")
		},
	},
	{
		name:        "bridge_operation",
		confidence:  0.60,
		description: "Transfer with gas usage typical for bridging",
		when: func(s traceStats) bool {
			return s.transferCount >= 1 && s.totalGas > 500_000
		},
	},
}

// ClassifyPattern evaluates the rule table and returns the ranked matches.
// Deterministic and total: every input yields exactly one primary pattern,
// falling back to "unknown" with confidence 0.
func ClassifyPattern(nodes []ProcessedCallNode, transfers []TokenTransferEvent) TransactionPattern {
	stats := computeStats(nodes, transfers)
	return classifyWithStats(stats)
}

func classifyWithStats(stats traceStats) TransactionPattern {
	matches := make([]PatternMatch, 0, len(patternRules))
	for _, rule := range patternRules {
		if rule.when(stats) {
			matches = append(matches, PatternMatch{
				Type:        rule.name,
				Confidence:  rule.confidence,
				Description: rule.description,
			})
		}
	}

	// Stable sort keeps declaration order for equal confidence
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	if len(matches) == 0 {
		unknown := PatternMatch{Type: "unknown", Confidence: 0, Description: "No behavioral pattern matched"}
		return TransactionPattern{Primary: unknown, Matches: []PatternMatch{}}
	}

	return TransactionPattern{Primary: matches[0], Matches: matches}
}

// Complexity weights and caps. The weighted factor sum is normalized against
// the weighted caps so the score spans the full [0,100] range; the error-rate
// factor is uncapped and nominally weighted against a full-failure baseline.
const (
	depthFactorCap     = 50.0
	contractsFactorCap = 30.0
	callsFactorCap     = 40.0
	gasFactorCap       = 20.0
	errorFactorNominal = 100.0

	depthWeight     = 0.30
	contractsWeight = 0.25
	callsWeight     = 0.20
	gasWeight       = 0.15
	errorWeight     = 0.10
)

// ComplexityScore computes the weighted multi-factor complexity score,
// always in [0,100]. The empty node list scores 0.
func ComplexityScore(nodes []ProcessedCallNode) float64 {
	if len(nodes) == 0 {
		return 0
	}
	stats := computeStats(nodes, nil)
	return complexityFromStats(stats)
}

func complexityFromStats(stats traceStats) float64 {
	if stats.totalCalls == 0 {
		return 0
	}

	depthFactor := capFloat(float64(stats.maxDepth)*10, depthFactorCap)
	contractsFactor := capFloat(float64(stats.uniqueContracts)*5, contractsFactorCap)
	callsFactor := capFloat(float64(stats.totalCalls)*2, callsFactorCap)
	gasFactor := capFloat(float64(stats.totalGas)/100_000, gasFactorCap)

	errorRate := float64(stats.errorCount) / float64(stats.totalCalls) * 100
	errorFactor := errorRate * 2 // uncapped

	weighted := depthFactor*depthWeight +
		contractsFactor*contractsWeight +
		callsFactor*callsWeight +
		gasFactor*gasWeight +
		errorFactor*errorWeight

	ceiling := depthFactorCap*depthWeight +
		contractsFactorCap*contractsWeight +
		callsFactorCap*callsWeight +
		gasFactorCap*gasWeight +
		errorFactorNominal*errorWeight

	score := weighted / ceiling * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ComplexityLevel buckets a complexity score
func ComplexityLevel(score float64) string {
	switch {
	case score < 20:
		return ComplexityLow
	case score < 40:
		return ComplexityMedium
	case score < 70:
		return ComplexityHigh
	default:
		return ComplexityVeryHigh
	}
}

func capFloat(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
