package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildGraphs projects already-computed analysis data into three
// visualization-ready node/edge lists. Pure re-shaping, no inference.
func BuildGraphs(nodes []ProcessedCallNode, edges []ContractInteractionEdge, transfers []TokenTransferEvent) *AnalysisGraphs {
	return &AnalysisGraphs{
		CallGraph:        buildCallGraph(nodes),
		InteractionGraph: buildInteractionGraph(edges),
		TokenFlowGraph:   buildTokenFlowGraph(transfers),
	}
}

// buildCallGraph derives parent/child edges by trace-address prefix: a
// node's parent is the node whose path equals its path minus the last
// element. No live parent pointers are kept.
func buildCallGraph(nodes []ProcessedCallNode) Graph {
	graph := Graph{
		Nodes: make([]GraphNode, 0, len(nodes)),
		Edges: make([]GraphEdge, 0, len(nodes)),
	}

	byPath := make(map[string]int, len(nodes))
	for i := range nodes {
		byPath[pathKey(nodes[i].TraceAddress)] = i
	}

	for i := range nodes {
		node := &nodes[i]
		id := callNodeID(node.Index)
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    id,
			Label: fmt.Sprintf("%s %s", node.CallType, node.Function.Name),
			Kind:  node.Function.Category,
		})

		if node.Depth == 0 {
			continue
		}
		parentPath := pathKey(node.TraceAddress[:len(node.TraceAddress)-1])
		if parentIdx, ok := byPath[parentPath]; ok {
			graph.Edges = append(graph.Edges, GraphEdge{
				From:   callNodeID(nodes[parentIdx].Index),
				To:     id,
				Weight: float64(node.GasUsed),
			})
		}
	}

	return graph
}

func buildInteractionGraph(edges []ContractInteractionEdge) Graph {
	graph := Graph{Nodes: make([]GraphNode, 0), Edges: make([]GraphEdge, 0, len(edges))}
	seen := make(map[string]bool)

	addNode := func(addr string) {
		key := strings.ToLower(addr)
		if seen[key] {
			return
		}
		seen[key] = true
		graph.Nodes = append(graph.Nodes, GraphNode{ID: key, Label: shortAddress(addr), Kind: "contract"})
	}

	for _, edge := range edges {
		addNode(edge.From)
		addNode(edge.To)
		graph.Edges = append(graph.Edges, GraphEdge{
			From:   strings.ToLower(edge.From),
			To:     strings.ToLower(edge.To),
			Label:  fmt.Sprintf("%d calls", edge.CallCount),
			Weight: float64(edge.TotalGas),
		})
	}

	return graph
}

func buildTokenFlowGraph(transfers []TokenTransferEvent) Graph {
	graph := Graph{Nodes: make([]GraphNode, 0), Edges: make([]GraphEdge, 0, len(transfers))}
	seen := make(map[string]bool)

	addNode := func(addr string) {
		key := strings.ToLower(addr)
		if seen[key] {
			return
		}
		seen[key] = true
		kind := "account"
		if key == ZeroAddress {
			kind = "zero"
		}
		graph.Nodes = append(graph.Nodes, GraphNode{ID: key, Label: shortAddress(addr), Kind: kind})
	}

	for _, transfer := range transfers {
		addNode(transfer.From)
		addNode(transfer.To)
		graph.Edges = append(graph.Edges, GraphEdge{
			From:   strings.ToLower(transfer.From),
			To:     strings.ToLower(transfer.To),
			Label:  transfer.Kind,
			Weight: transfer.Amount,
		})
	}

	return graph
}

func callNodeID(index int) string {
	return "call-" + strconv.Itoa(index)
}

func pathKey(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + ".." + addr[len(addr)-4:]
}
