package analysis

import "strings"

// MEV indicator and pattern type labels
const (
	MevSandwichTarget   = "potential_sandwich_target"
	MevArbitrageHint    = "potential_arbitrage"
	MevComplexOperation = "complex_operation"
	MevHighGasUsage     = "high_gas_usage"

	MevPatternSandwich     = "sandwich"
	MevPatternArbitrage    = "arbitrage"
	MevPatternFrontRunning = "front_running"
	MevPatternLiquidation  = "liquidation_mev"
)

// isSwapShaped reports whether a node looks like a DEX swap call
func isSwapShaped(node *ProcessedCallNode) bool {
	if node.Function.Category == CategorySwap {
		return true
	}
	return strings.Contains(strings.ToLower(node.Function.Name), "swap")
}

// isDexShaped covers swaps plus tracked-token interactions, the surface a
// sandwich attack manipulates
func isDexShaped(node *ProcessedCallNode) bool {
	return node.IsTracked || isSwapShaped(node)
}

func isLiquidationShaped(node *ProcessedCallNode) bool {
	name := strings.ToLower(node.Function.Name)
	return strings.Contains(name, "liquidat") ||
		strings.Contains(name, "seize") ||
		strings.Contains(name, "repay")
}

func isFlashLoanShaped(node *ProcessedCallNode) bool {
	name := strings.ToLower(node.Function.Name)
	return strings.Contains(name, "flashloan") ||
		strings.Contains(name, "borrow") ||
		strings.Contains(name, "repay")
}

// DetectBasicMev runs the cheap single-pass indicator checks. The
// highest-confidence indicator, if any, is the reported basic finding.
func DetectBasicMev(nodes []ProcessedCallNode, transfers []TokenTransferEvent) []MevIndicator {
	stats := computeStats(nodes, transfers)
	indicators := make([]MevIndicator, 0, 4)

	swapCalls := 0
	transferOrSwap := 0
	transferOrSwapTargets := make(map[string]struct{})
	for i := range nodes {
		node := &nodes[i]
		if isSwapShaped(node) {
			swapCalls++
		}
		if isSwapShaped(node) || node.Function.Category == CategoryTransfer {
			transferOrSwap++
			if node.To != "" {
				transferOrSwapTargets[strings.ToLower(node.To)] = struct{}{}
			}
		}
	}

	if swapCalls >= 1 && stats.externalCalls > 3 {
		indicators = append(indicators, MevIndicator{
			Type:        MevSandwichTarget,
			Confidence:  0.6,
			Description: "Swap call surrounded by many external contract calls",
			Evidence: map[string]interface{}{
				"swapCalls":     swapCalls,
				"externalCalls": stats.externalCalls,
			},
		})
	}

	if transferOrSwap >= 3 && len(transferOrSwapTargets) >= 3 {
		indicators = append(indicators, MevIndicator{
			Type:        MevArbitrageHint,
			Confidence:  0.7,
			Description: "Transfer or swap shaped calls across multiple contracts",
			Evidence: map[string]interface{}{
				"calls":   transferOrSwap,
				"targets": len(transferOrSwapTargets),
			},
		})
	}

	if stats.totalCalls > 20 && stats.uniqueContracts > 5 {
		indicators = append(indicators, MevIndicator{
			Type:        MevComplexOperation,
			Confidence:  0.5,
			Description: "Unusually complex call structure",
			Evidence: map[string]interface{}{
				"calls":     stats.totalCalls,
				"contracts": stats.uniqueContracts,
			},
		})
	}

	if stats.totalGas > 1_000_000 {
		indicators = append(indicators, MevIndicator{
			Type:        MevHighGasUsage,
			Confidence:  0.4,
			Description: "Total gas usage above the MEV attention threshold",
			Evidence: map[string]interface{}{
				"totalGas": stats.totalGas,
			},
		})
	}

	return indicators
}

// AnalyzeMev runs the basic tier and, when enabled, the four advanced
// detectors, then aggregates score and risk level.
func AnalyzeMev(registry *Registry, nodes []ProcessedCallNode, transfers []TokenTransferEvent, advanced bool) MevAnalysis {
	indicators := DetectBasicMev(nodes, transfers)
	primary := highestConfidence(indicators)

	patterns := make([]MevPattern, 0, 4)
	if advanced {
		detectors := []advancedDetector{
			detectSandwich,
			detectArbitrage,
			func(n []ProcessedCallNode, t []TokenTransferEvent) ([]MevIndicator, *MevPattern) {
				return detectFrontRunning(registry, n, t)
			},
			detectLiquidationMev,
		}
		for _, detect := range detectors {
			inds, pattern := detect(nodes, transfers)
			indicators = append(indicators, inds...)
			if pattern != nil {
				patterns = append(patterns, *pattern)
			}
		}
	}

	score := aggregateMevScore(indicators, patterns)

	return MevAnalysis{
		Detected:   len(indicators) > 0 || len(patterns) > 0,
		Primary:    primary,
		Indicators: indicators,
		Patterns:   patterns,
		Score:      score,
		RiskLevel:  mevRiskLevel(score, patterns),
	}
}

type advancedDetector func([]ProcessedCallNode, []TokenTransferEvent) ([]MevIndicator, *MevPattern)

func highestConfidence(indicators []MevIndicator) *MevIndicator {
	var best *MevIndicator
	for i := range indicators {
		if best == nil || indicators[i].Confidence > best.Confidence {
			best = &indicators[i]
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}

// aggregateMevScore averages the mean indicator confidence with the mean
// pattern confidence
func aggregateMevScore(indicators []MevIndicator, patterns []MevPattern) float64 {
	indicatorMean := 0.0
	if len(indicators) > 0 {
		sum := 0.0
		for _, ind := range indicators {
			sum += ind.Confidence
		}
		indicatorMean = sum / float64(len(indicators))
	}

	patternMean := 0.0
	if len(patterns) > 0 {
		sum := 0.0
		for _, pattern := range patterns {
			sum += pattern.Confidence
		}
		patternMean = sum / float64(len(patterns))
	}

	if len(indicators) == 0 && len(patterns) == 0 {
		return 0
	}
	return (indicatorMean + patternMean) / 2
}

func mevRiskLevel(score float64, patterns []MevPattern) string {
	for _, pattern := range patterns {
		if pattern.Severity == RiskHigh {
			return RiskCritical
		}
	}
	switch {
	case score > 0.8:
		return RiskCritical
	case score > 0.6:
		return RiskHigh
	case score > 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}
