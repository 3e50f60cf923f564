package analysis

import "strings"

// Advanced-tier indicator confidences. Hand-tuned constants; changing one is
// a behavior change, not a bug fix.
const (
	confSandwichPriceImpact = 0.7
	confSandwichMultiDex    = 0.6
	confSandwichBot         = 0.65

	confArbCrossVenue = 0.7
	confArbFlashLoan  = 0.8
	confArbAtomic     = 0.6

	confFrontGasAggressive = 0.65
	confFrontQuickShape    = 0.6
	confFrontElevatedGas   = 0.5

	confLiqBonus     = 0.75
	confLiqFlashLoan = 0.8
)

// Value heuristics: arbitrage profit is a fraction of flow, not the flow
// itself; the same reasoning discounts front-running and liquidation value.
const (
	arbitrageValueShare   = 0.10
	frontRunValueShare    = 0.05
	liquidationValueShare = 0.15
)

// detectSandwich looks for the deep, multi-venue shape of a sandwich attack.
// Requires max call depth >3 and more than one DEX-shaped call; the pattern
// is declared only when at least two indicators corroborate.
func detectSandwich(nodes []ProcessedCallNode, transfers []TokenTransferEvent) ([]MevIndicator, *MevPattern) {
	maxDepth := 0
	dexCalls := 0
	deepCalls := 0
	nearZeroGas := false
	swapValue := 0.0
	impactedSwaps := 0
	swapVenues := make(map[string]struct{})

	for i := range nodes {
		node := &nodes[i]
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
		if node.Depth > 2 {
			deepCalls++
		}
		if node.GasUsed > 0 && node.GasUsed < 1_000 {
			nearZeroGas = true
		}
		if isDexShaped(node) {
			dexCalls++
		}
		if isSwapShaped(node) {
			swapValue += node.ValueEther
			if node.ValueEther > 10 {
				impactedSwaps++
			}
			if node.To != "" {
				swapVenues[strings.ToLower(node.To)] = struct{}{}
			}
		}
	}

	if maxDepth <= 3 || dexCalls <= 1 {
		return nil, nil
	}

	indicators := make([]MevIndicator, 0, 3)

	if impactedSwaps > 0 {
		indicators = append(indicators, MevIndicator{
			Type:        "price_impact",
			Confidence:  confSandwichPriceImpact,
			Description: "High-value swaps able to move pool price",
			Evidence:    map[string]interface{}{"impactedSwaps": impactedSwaps, "swapValue": swapValue},
		})
	}

	if len(swapVenues) >= 2 {
		indicators = append(indicators, MevIndicator{
			Type:        "multiple_dex_interactions",
			Confidence:  confSandwichMultiDex,
			Description: "Swaps routed through multiple venues",
			Evidence:    map[string]interface{}{"venues": len(swapVenues)},
		})
	}

	if deepCalls > 5 && nearZeroGas {
		indicators = append(indicators, MevIndicator{
			Type:        "bot_signature",
			Confidence:  confSandwichBot,
			Description: "Deep call chain with near-zero-gas probes",
			Evidence:    map[string]interface{}{"deepCalls": deepCalls},
		})
	}

	if len(indicators) < 2 {
		return indicators, nil
	}

	return indicators, &MevPattern{
		Type:           MevPatternSandwich,
		Confidence:     meanConfidence(indicators),
		Severity:       RiskHigh,
		Description:    "Execution shape consistent with a sandwich attack",
		Indicators:     indicators,
		EstimatedValue: swapValue,
	}
}

// detectArbitrage looks for multi-venue swap flow. Requires at least two
// distinct DEX-shaped targets; the pattern needs two corroborating
// indicators.
func detectArbitrage(nodes []ProcessedCallNode, transfers []TokenTransferEvent) ([]MevIndicator, *MevPattern) {
	swapCalls := 0
	swapValue := 0.0
	flashLoan := false
	errorCount := 0
	venues := make(map[string]struct{})

	for i := range nodes {
		node := &nodes[i]
		if node.Failed() {
			errorCount++
		}
		if isFlashLoanShaped(node) {
			flashLoan = true
		}
		if isSwapShaped(node) {
			swapCalls++
			swapValue += node.ValueEther
			if node.To != "" {
				venues[strings.ToLower(node.To)] = struct{}{}
			}
		}
	}

	if len(venues) < 2 {
		return nil, nil
	}

	indicators := make([]MevIndicator, 0, 3)

	if swapCalls >= 2 {
		indicators = append(indicators, MevIndicator{
			Type:        "cross_venue_discrepancy",
			Confidence:  confArbCrossVenue,
			Description: "Swaps executed against multiple venues in one transaction",
			Evidence:    map[string]interface{}{"swaps": swapCalls, "venues": len(venues)},
		})
	}

	if flashLoan {
		indicators = append(indicators, MevIndicator{
			Type:        "flash_loan_usage",
			Confidence:  confArbFlashLoan,
			Description: "Flash-loan shaped call funding the operation",
		})
	}

	if errorCount == 0 && len(nodes) > 10 {
		indicators = append(indicators, MevIndicator{
			Type:        "atomic_execution",
			Confidence:  confArbAtomic,
			Description: "Long call chain completed without a single revert",
			Evidence:    map[string]interface{}{"calls": len(nodes)},
		})
	}

	if len(indicators) < 2 {
		return indicators, nil
	}

	return indicators, &MevPattern{
		Type:           MevPatternArbitrage,
		Confidence:     meanConfidence(indicators),
		Severity:       RiskMedium,
		Description:    "Execution shape consistent with cross-venue arbitrage",
		Indicators:     indicators,
		EstimatedValue: swapValue * arbitrageValueShare,
	}
}

// detectFrontRunning flags execution tuned to land ahead of a target. Only
// evaluated when the transaction touches a swap venue; a single indicator is
// enough to declare the pattern.
func detectFrontRunning(registry *Registry, nodes []ProcessedCallNode, transfers []TokenTransferEvent) ([]MevIndicator, *MevPattern) {
	swapPresent := false
	totalGas := uint64(0)
	totalValue := 0.0
	benchmark := uint64(0)
	allNonZeroGas := len(nodes) > 0

	for i := range nodes {
		node := &nodes[i]
		if isSwapShaped(node) {
			swapPresent = true
		}
		totalGas += node.GasUsed
		totalValue += node.ValueEther
		if node.GasUsed == 0 {
			allNonZeroGas = false
		}
		if b, ok := registry.BenchmarkFor(node.Function.Name); ok {
			benchmark += b
		} else {
			benchmark += 21_000
		}
	}

	if !swapPresent {
		return nil, nil
	}

	indicators := make([]MevIndicator, 0, 3)

	if benchmark > 0 && float64(totalGas) > 1.5*float64(benchmark) {
		indicators = append(indicators, MevIndicator{
			Type:        "aggressive_gas",
			Confidence:  confFrontGasAggressive,
			Description: "Gas usage well above the benchmark for the called functions",
			Evidence:    map[string]interface{}{"totalGas": totalGas, "benchmark": benchmark},
		})
	}

	if len(nodes) < 5 && allNonZeroGas {
		indicators = append(indicators, MevIndicator{
			Type:        "quick_execution",
			Confidence:  confFrontQuickShape,
			Description: "Short, gas-efficient execution shape",
			Evidence:    map[string]interface{}{"calls": len(nodes)},
		})
	}

	if totalGas > 100_000 {
		indicators = append(indicators, MevIndicator{
			Type:        "elevated_gas",
			Confidence:  confFrontElevatedGas,
			Description: "Absolute gas usage above the front-running threshold",
			Evidence:    map[string]interface{}{"totalGas": totalGas},
		})
	}

	if len(indicators) < 1 {
		return indicators, nil
	}

	return indicators, &MevPattern{
		Type:           MevPatternFrontRunning,
		Confidence:     meanConfidence(indicators),
		Severity:       RiskHigh,
		Description:    "Execution tuned to land ahead of a target transaction",
		Indicators:     indicators,
		EstimatedValue: totalValue * frontRunValueShare,
	}
}

// detectLiquidationMev flags liquidation extraction. Requires at least one
// liquidation-shaped call; a single indicator declares the pattern.
func detectLiquidationMev(nodes []ProcessedCallNode, transfers []TokenTransferEvent) ([]MevIndicator, *MevPattern) {
	liquidationCalls := 0
	liquidationValue := 0.0
	flashLoan := false

	for i := range nodes {
		node := &nodes[i]
		if isLiquidationShaped(node) {
			liquidationCalls++
			liquidationValue += node.ValueEther
		}
		if strings.Contains(strings.ToLower(node.Function.Name), "flashloan") {
			flashLoan = true
		}
	}

	if liquidationCalls == 0 {
		return nil, nil
	}

	indicators := make([]MevIndicator, 0, 2)

	indicators = append(indicators, MevIndicator{
		Type:        "liquidation_bonus",
		Confidence:  confLiqBonus,
		Description: "Liquidation call extracting the protocol bonus",
		Evidence:    map[string]interface{}{"liquidationCalls": liquidationCalls, "value": liquidationValue},
	})

	if flashLoan {
		indicators = append(indicators, MevIndicator{
			Type:        "flash_loan_liquidation",
			Confidence:  confLiqFlashLoan,
			Description: "Flash loan funding the liquidation",
		})
	}

	return indicators, &MevPattern{
		Type:           MevPatternLiquidation,
		Confidence:     meanConfidence(indicators),
		Severity:       RiskMedium,
		Description:    "Liquidation executed for MEV extraction",
		Indicators:     indicators,
		EstimatedValue: liquidationValue * liquidationValueShare,
	}
}

func meanConfidence(indicators []MevIndicator) float64 {
	if len(indicators) == 0 {
		return 0
	}
	sum := 0.0
	for _, ind := range indicators {
		sum += ind.Confidence
	}
	return sum / float64(len(indicators))
}
