package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/chainsight/txlens/analysis/utils"
)

const hexPreviewLen = 66 // "0x" + 32 bytes

var weiPerEther = new(big.Float).SetFloat64(1e18)

// normalizedKinds is the accepted call-kind vocabulary. Anything else
// normalizes to UNKNOWN.
var normalizedKinds = map[string]bool{
	"CALL":         true,
	"DELEGATECALL": true,
	"STATICCALL":   true,
	"CALLCODE":     true,
	"CREATE":       true,
	"CREATE2":      true,
	"SELFDESTRUCT": true,
}

var callLikeKinds = map[string]bool{
	"CALL":         true,
	"DELEGATECALL": true,
	"STATICCALL":   true,
	"CALLCODE":     true,
}

// Normalizer turns raw heterogeneous trace records into a flat, ordered list
// of typed call nodes. Input records are never mutated; output ordering
// equals input ordering.
type Normalizer struct {
	registry *Registry
}

// NewNormalizer creates a normalizer over the given registry
func NewNormalizer(registry *Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Normalize processes raw records in order. A record that is not a
// well-formed object is logged and skipped; the skip count is returned so
// callers can observe it. The batch is never aborted.
func (n *Normalizer) Normalize(records []json.RawMessage) ([]ProcessedCallNode, int) {
	nodes := make([]ProcessedCallNode, 0, len(records))
	skipped := 0

	for i, raw := range records {
		record, err := decodeRecord(raw, i)
		if err != nil {
			log.Warn("skipping trace record", "position", i, "err", err)
			skipped++
			continue
		}

		nodes = append(nodes, n.processRecord(record, len(nodes)))
	}

	return nodes, skipped
}

// decodeRecord parses one raw trace record. Failures come back as typed
// decoding errors carrying the record position.
func decodeRecord(raw json.RawMessage, position int) (*RawCallRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, utils.NewDecodingError("trace record is not an object", nil).
			AddContext("position", position)
	}

	var record RawCallRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, utils.NewDecodingError("undecodable trace record", err).
			AddContext("position", position)
	}
	return &record, nil
}

// processRecord builds one ProcessedCallNode. The sequence index equals the
// surviving trace order and the depth equals the trace-address path length.
func (n *Normalizer) processRecord(record *RawCallRecord, index int) ProcessedCallNode {
	kind := normalizeKind(record)

	to := record.Action.To
	if to == "" && record.Result != nil {
		// Contract creation reports the new address on the result side
		to = record.Result.Address
	}

	value := parseHexBig(record.Action.Value)

	var gasUsed uint64
	var output string
	if record.Result != nil {
		gasUsed = parseHexUint(record.Result.GasUsed)
		output = record.Result.Output
	}

	input := record.Action.Input
	if input == "" {
		input = record.Action.Init
	}

	tracked := n.registry.IsTracked(to)

	return ProcessedCallNode{
		Index:         index,
		Depth:         len(record.TraceAddress),
		TraceAddress:  append([]int(nil), record.TraceAddress...),
		CallType:      kind,
		From:          record.Action.From,
		To:            to,
		Value:         value,
		ValueEther:    weiToEther(value),
		GasUsed:       gasUsed,
		Error:         record.Error,
		Function:      n.decodeFunction(kind, to, input, tracked),
		IsTracked:     tracked,
		InputPreview:  truncateHex(input),
		OutputPreview: truncateHex(output),
	}
}

// decodeFunction resolves the call's function identity. Full decoding only
// happens for non-empty input on call-like kinds targeting a tracked
// contract; everything else keeps the raw selector as differentiator.
func (n *Normalizer) decodeFunction(kind, to, input string, tracked bool) DecodedFunction {
	if kind == "CREATE" || kind == "CREATE2" {
		return DecodedFunction{Name: "Constructor", Category: CategoryCreation}
	}

	if !callLikeKinds[kind] {
		return DecodedFunction{Name: strings.ToLower(kind), Category: CategoryOther}
	}

	if len(input) < 10 {
		return DecodedFunction{Name: "Native Transfer", Category: CategoryOther}
	}

	selector := strings.ToLower(input[:10])

	if tracked {
		if sig, ok := n.registry.Lookup(to, selector); ok {
			return DecodedFunction{
				Name:     sig.Name,
				Category: sig.Category,
				Selector: selector,
				Params:   decodeParams(sig, input),
			}
		}
	}

	if sig, ok := n.registry.KnownSelector(selector); ok {
		return DecodedFunction{Name: sig.Name, Category: sig.Category, Selector: selector}
	}

	return DecodedFunction{
		Name:     fmt.Sprintf("Contract Interaction (%s)", selector),
		Category: CategoryOther,
		Selector: selector,
	}
}

// decodeParams unpacks named parameters for a tracked-contract signature.
// Returns nil on any decoding failure; the call still surfaces with its
// selector and name.
func decodeParams(sig FunctionSig, input string) map[string]interface{} {
	if len(sig.Args) == 0 {
		return nil
	}

	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4 {
		return nil
	}

	values, err := sig.Args.Unpack(data[4:])
	if err != nil || len(values) != len(sig.Args) {
		return nil
	}

	params := make(map[string]interface{}, len(values))
	for i, arg := range sig.Args {
		params[arg.Name] = values[i]
	}
	return params
}

func normalizeKind(record *RawCallRecord) string {
	kind := record.Action.CallType
	if kind == "" {
		kind = record.Type
	}
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if kind == "SUICIDE" {
		kind = "SELFDESTRUCT"
	}
	if !normalizedKinds[kind] {
		return "UNKNOWN"
	}
	return kind
}

// parseHexBig decodes a hex quantity, treating "0x", missing or malformed
// input as zero. It never fails.
func parseHexBig(s string) *big.Int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return new(big.Int)
	}
	return v
}

func parseHexUint(s string) uint64 {
	v := parseHexBig(s)
	if !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func weiToEther(wei *big.Int) float64 {
	if wei == nil || wei.Sign() == 0 {
		return 0
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther).Float64()
	return ether
}

func truncateHex(s string) string {
	if len(s) <= hexPreviewLen {
		return s
	}
	return s[:hexPreviewLen] + "..."
}
