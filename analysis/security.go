package analysis

import (
	"fmt"
	"math/big"
	"strings"
)

// infiniteApprovalThreshold marks approvals at or above 2^255 as effectively
// unlimited.
var infiniteApprovalThreshold = new(big.Int).Lsh(big.NewInt(1), 255)

// largeApprovalUnits is the decimal-adjusted amount above which an approval
// is still worth a note.
const largeApprovalUnits = 1_000_000.0

// riskFinding is one per-call risk assessment outcome
type riskFinding struct {
	severity    string
	description string
}

var transferShapedSelectors = map[string]bool{
	SelectorTransfer:     true,
	SelectorTransferFrom: true,
	SelectorMint:         true,
	SelectorBurn:         true,
}

// assessCallRisk evaluates one call against the per-call risk rules. All
// triggered rules are returned; nothing short-circuits. The same function
// backs both the concern accumulation and the high-risk-operation list.
func assessCallRisk(registry *Registry, node *ProcessedCallNode, decimals int) []riskFinding {
	findings := make([]riskFinding, 0, 2)
	name := node.Function.Name
	lower := strings.ToLower(name)

	if level, ok := registry.RiskLevelFor(name); ok {
		findings = append(findings, riskFinding{
			severity:    level,
			description: fmt.Sprintf("Administrative function %s carries elevated risk", name),
		})
	}

	if node.Function.Category == CategoryApproval {
		if finding, ok := assessApproval(node, decimals); ok {
			findings = append(findings, finding)
		}
	}

	if strings.Contains(lower, "selfdestruct") {
		findings = append(findings, riskFinding{
			severity:    RiskCritical,
			description: "Self-destruct capable call",
		})
	}

	if name == "transferOwnership" {
		findings = append(findings, riskFinding{
			severity:    RiskHigh,
			description: "Contract ownership transfer",
		})
	}

	if name == "pause" || name == "unpause" {
		findings = append(findings, riskFinding{
			severity:    RiskMedium,
			description: "Contract pause state change",
		})
	}

	return findings
}

func assessApproval(node *ProcessedCallNode, decimals int) (riskFinding, bool) {
	amount, ok := paramBig(node.Function.Params, "amount")
	if !ok {
		// increase/decreaseAllowance use different parameter names
		if amount, ok = paramBig(node.Function.Params, "addedValue"); !ok {
			return riskFinding{}, false
		}
	}

	if amount.Cmp(infiniteApprovalThreshold) >= 0 {
		return riskFinding{
			severity:    RiskMedium,
			description: "Infinite token approval granted",
		}, true
	}

	if adjustedAmount(amount, decimalDivisor(decimals)) >= largeApprovalUnits {
		return riskFinding{
			severity:    RiskLow,
			description: "Large token approval granted",
		}, true
	}

	return riskFinding{}, false
}

// AnalyzeSecurity accumulates per-call concerns, runs the anti-pattern scan
// and computes the overall risk level. The high-risk-operation list is built
// independently by re-scoring every node; the two views are deliberately not
// reconciled against each other.
func AnalyzeSecurity(registry *Registry, nodes []ProcessedCallNode) SecurityAnalysis {
	decimals := registry.Decimals()
	concerns := make([]SecurityConcern, 0)
	highRisk := make([]HighRiskOperation, 0)

	for i := range nodes {
		node := &nodes[i]

		for _, finding := range assessCallRisk(registry, node, decimals) {
			concerns = append(concerns, SecurityConcern{
				Severity:    finding.severity,
				Description: finding.description,
				Contract:    node.To,
				Caller:      node.From,
			})
		}

		if node.Failed() {
			concerns = append(concerns, SecurityConcern{
				Severity:    RiskMedium,
				Description: fmt.Sprintf("Call failed: %s", node.Error),
				Contract:    node.To,
				Caller:      node.From,
			})
		}
	}

	concerns = append(concerns, scanAntiPatterns(nodes)...)

	// Independent high-risk lens over the same assessment function
	for i := range nodes {
		node := &nodes[i]
		for _, finding := range assessCallRisk(registry, node, decimals) {
			if finding.severity == RiskLow {
				continue
			}
			highRisk = append(highRisk, HighRiskOperation{
				Function:    node.Function.Name,
				Contract:    node.To,
				Caller:      node.From,
				Severity:    finding.severity,
				Description: finding.description,
			})
		}
	}

	return SecurityAnalysis{
		Concerns:  concerns,
		HighRisk:  highRisk,
		RiskLevel: overallRiskLevel(concerns, highRisk),
	}
}

// scanAntiPatterns runs the structural checks over the whole node list
func scanAntiPatterns(nodes []ProcessedCallNode) []SecurityConcern {
	concerns := make([]SecurityConcern, 0)

	approvals := 0
	transfers := 0
	for i := range nodes {
		node := &nodes[i]
		switch node.Function.Category {
		case CategoryApproval:
			approvals++
		case CategoryTransfer:
			transfers++
		}

		if node.GasUsed > 500_000 {
			concerns = append(concerns, SecurityConcern{
				Severity:    RiskMedium,
				Description: fmt.Sprintf("Call to %s consumed %d gas, risking exhaustion", node.Function.Name, node.GasUsed),
				Contract:    node.To,
				Caller:      node.From,
			})
		}

		if i == 0 {
			continue
		}
		prev := &nodes[i-1]
		if !prev.IsTracked && callLikeKinds[prev.CallType] &&
			node.IsTracked && transferShapedSelectors[node.Function.Selector] {
			concerns = append(concerns, SecurityConcern{
				Severity:    RiskMedium,
				Description: "External call immediately followed by a token transfer, possible reentrancy ordering",
				Contract:    node.To,
				Caller:      node.From,
			})
		}
	}

	if approvals > transfers && approvals > 2 {
		concerns = append(concerns, SecurityConcern{
			Severity:    RiskLow,
			Description: fmt.Sprintf("Unusual approval-to-transfer ratio (%d approvals, %d transfers)", approvals, transfers),
		})
	}

	return concerns
}

func overallRiskLevel(concerns []SecurityConcern, highRisk []HighRiskOperation) string {
	mediums := 0
	for _, concern := range concerns {
		switch concern.Severity {
		case RiskCritical:
			return RiskCritical
		case RiskMedium:
			mediums++
		}
	}
	for _, concern := range concerns {
		if concern.Severity == RiskHigh {
			return RiskHigh
		}
	}
	if mediums > 2 || len(highRisk) > 0 {
		return RiskMedium
	}
	return RiskLow
}
