package analysis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExtractInteractions aggregates contract-to-contract call edges from the
// processed node list. Self-calls and nodes missing an endpoint are skipped;
// edges merge by (from, to) exactly as given. Pure function of the input.
func ExtractInteractions(nodes []ProcessedCallNode) []ContractInteractionEdge {
	edges := make([]ContractInteractionEdge, 0)
	index := make(map[string]int)

	for i := range nodes {
		node := &nodes[i]
		if node.From == "" || node.To == "" || node.From == node.To {
			continue
		}

		key := node.From + "->" + node.To
		if at, ok := index[key]; ok {
			edges[at].CallCount++
			edges[at].TotalGas += node.GasUsed
			continue
		}

		index[key] = len(edges)
		edges = append(edges, ContractInteractionEdge{
			From:      node.From,
			To:        node.To,
			CallCount: 1,
			TotalGas:  node.GasUsed,
		})
	}

	return edges
}

// ExtractTransfers derives structured token-transfer events from
// tracked-contract calls matching one of the four recognized transfer-shaped
// selectors. A call missing a required decoded parameter is silently
// excluded. Pure function of the input.
func ExtractTransfers(nodes []ProcessedCallNode, decimals int) []TokenTransferEvent {
	transfers := make([]TokenTransferEvent, 0)
	divisor := decimalDivisor(decimals)

	for i := range nodes {
		node := &nodes[i]
		if !node.IsTracked {
			continue
		}

		var event TokenTransferEvent
		var ok bool

		switch node.Function.Selector {
		case SelectorTransfer:
			event, ok = transferEvent(node, "transfer", node.From, "to")
		case SelectorTransferFrom:
			event, ok = transferFromEvent(node)
		case SelectorMint:
			event, ok = transferEvent(node, "mint", ZeroAddress, "to")
		case SelectorBurn:
			event, ok = burnEvent(node)
		default:
			continue
		}

		if !ok {
			continue
		}

		event.Token = node.To
		event.Amount = adjustedAmount(event.RawAmount, divisor)
		event.TraceAddress = append([]int(nil), node.TraceAddress...)
		transfers = append(transfers, event)
	}

	return transfers
}

// transferEvent handles the amount/to shaped selectors (direct transfer and
// mint, the latter with the zero address as synthetic sender).
func transferEvent(node *ProcessedCallNode, kind, from, toParam string) (TokenTransferEvent, bool) {
	to, ok := paramAddress(node.Function.Params, toParam)
	if !ok {
		return TokenTransferEvent{}, false
	}
	amount, ok := paramBig(node.Function.Params, "amount")
	if !ok {
		return TokenTransferEvent{}, false
	}
	return TokenTransferEvent{Kind: kind, From: from, To: to, RawAmount: amount}, true
}

func transferFromEvent(node *ProcessedCallNode) (TokenTransferEvent, bool) {
	from, ok := paramAddress(node.Function.Params, "from")
	if !ok {
		return TokenTransferEvent{}, false
	}
	to, ok := paramAddress(node.Function.Params, "to")
	if !ok {
		return TokenTransferEvent{}, false
	}
	amount, ok := paramBig(node.Function.Params, "amount")
	if !ok {
		return TokenTransferEvent{}, false
	}
	return TokenTransferEvent{Kind: "transferFrom", From: from, To: to, RawAmount: amount}, true
}

func burnEvent(node *ProcessedCallNode) (TokenTransferEvent, bool) {
	amount, ok := paramBig(node.Function.Params, "amount")
	if !ok {
		return TokenTransferEvent{}, false
	}
	return TokenTransferEvent{Kind: "burn", From: node.From, To: ZeroAddress, RawAmount: amount}, true
}

func paramAddress(params map[string]interface{}, name string) (string, bool) {
	if params == nil {
		return "", false
	}
	addr, ok := params[name].(common.Address)
	if !ok {
		return "", false
	}
	return addr.Hex(), true
}

func paramBig(params map[string]interface{}, name string) (*big.Int, bool) {
	if params == nil {
		return nil, false
	}
	amount, ok := params[name].(*big.Int)
	if !ok || amount == nil {
		return nil, false
	}
	return amount, true
}

func decimalDivisor(decimals int) *big.Float {
	divisor := new(big.Float).SetInt64(1)
	ten := new(big.Float).SetInt64(10)
	for i := 0; i < decimals; i++ {
		divisor.Mul(divisor, ten)
	}
	return divisor
}

func adjustedAmount(raw *big.Int, divisor *big.Float) float64 {
	if raw == nil || raw.Sign() == 0 {
		return 0
	}
	adjusted, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), divisor).Float64()
	return adjusted
}
