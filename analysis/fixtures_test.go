package analysis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"testing"
)

// Fixture addresses. trackedToken is part of DefaultTrackedContracts.
const (
	trackedToken = "0x9967407a5B9177E234d7B493AF8ff4A46771BEdf"
	alice        = "0x1111111111111111111111111111111111111111"
	bob          = "0x2222222222222222222222222222222222222222"
	routerA      = "0x3333333333333333333333333333333333333333"
	routerB      = "0x4444444444444444444444444444444444444444"
	lendingPool  = "0x5555555555555555555555555555555555555555"
)

func pad64(s string) string {
	return strings.Repeat("0", 64-len(s)) + s
}

func addressWord(addr string) string {
	return pad64(strings.ToLower(strings.TrimPrefix(addr, "0x")))
}

func amountWord(amount *big.Int) string {
	return pad64(amount.Text(16))
}

func transferInput(to string, amount *big.Int) string {
	return SelectorTransfer + addressWord(to) + amountWord(amount)
}

func transferFromInput(from, to string, amount *big.Int) string {
	return SelectorTransferFrom + addressWord(from) + addressWord(to) + amountWord(amount)
}

func mintInput(to string, amount *big.Int) string {
	return SelectorMint + addressWord(to) + amountWord(amount)
}

func burnInput(amount *big.Int) string {
	return SelectorBurn + amountWord(amount)
}

func approveInput(spender string, amount *big.Int) string {
	return SelectorApprove + addressWord(spender) + amountWord(amount)
}

// tokens converts whole token units into the raw 18-decimal amount
func tokens(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func callRecord(from, to, input string, gasUsed uint64, path []int) RawCallRecord {
	return RawCallRecord{
		Type: "call",
		Action: RawCallAction{
			CallType: "call",
			From:     from,
			To:       to,
			Input:    input,
		},
		Result:       &RawCallResult{GasUsed: fmt.Sprintf("0x%x", gasUsed)},
		TraceAddress: path,
	}
}

func rawTrace(t *testing.T, records ...RawCallRecord) []json.RawMessage {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal fixture record: %v", err)
		}
		raw = append(raw, data)
	}
	return raw
}

func normalize(t *testing.T, records ...RawCallRecord) []ProcessedCallNode {
	t.Helper()
	nodes, skipped := NewNormalizer(DefaultRegistry()).Normalize(rawTrace(t, records...))
	if skipped != 0 {
		t.Fatalf("fixture trace skipped %d records", skipped)
	}
	return nodes
}
