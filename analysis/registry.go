package analysis

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the synthetic endpoint for mint sources and burn destinations
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Selectors of the four recognized transfer-shaped calls
const (
	SelectorTransfer     = "0xa9059cbb" // transfer(address,uint256)
	SelectorTransferFrom = "0x23b872dd" // transferFrom(address,address,uint256)
	SelectorMint         = "0x40c10f19" // mint(address,uint256)
	SelectorBurn         = "0x42966c68" // burn(uint256)
	SelectorApprove      = "0x095ea7b3" // approve(address,uint256)
)

// Function categories produced by decoding
const (
	CategoryTransfer = "transfer"
	CategoryApproval = "approval"
	CategoryMint     = "mint"
	CategoryBurn     = "burn"
	CategorySwap     = "swap"
	CategoryLending  = "lending"
	CategoryAdmin    = "admin"
	CategoryView     = "view"
	CategoryCreation = "creation"
	CategoryOther    = "other"
)

// FunctionSig describes one decodable function: canonical name, category tag
// and named parameter layout.
type FunctionSig struct {
	Name     string
	Category string
	Args     abi.Arguments
}

var (
	typeAddress = mustType("address")
	typeUint256 = mustType("uint256")
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic("abi: bad static type " + t)
	}
	return typ
}

func args(pairs ...interface{}) abi.Arguments {
	out := make(abi.Arguments, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, abi.Argument{
			Name: pairs[i].(string),
			Type: pairs[i+1].(abi.Type),
		})
	}
	return out
}

// trackedSignatures is the selector-indexed decode table applied to every
// tracked contract.
var trackedSignatures = map[string]FunctionSig{
	SelectorTransfer:     {Name: "transfer", Category: CategoryTransfer, Args: args("to", typeAddress, "amount", typeUint256)},
	SelectorTransferFrom: {Name: "transferFrom", Category: CategoryTransfer, Args: args("from", typeAddress, "to", typeAddress, "amount", typeUint256)},
	SelectorMint:         {Name: "mint", Category: CategoryMint, Args: args("to", typeAddress, "amount", typeUint256)},
	SelectorBurn:         {Name: "burn", Category: CategoryBurn, Args: args("amount", typeUint256)},
	SelectorApprove:      {Name: "approve", Category: CategoryApproval, Args: args("spender", typeAddress, "amount", typeUint256)},
	"0x39509351":         {Name: "increaseAllowance", Category: CategoryApproval, Args: args("spender", typeAddress, "addedValue", typeUint256)},
	"0xa457c2d7":         {Name: "decreaseAllowance", Category: CategoryApproval, Args: args("spender", typeAddress, "subtractedValue", typeUint256)},
	"0x70a08231":         {Name: "balanceOf", Category: CategoryView, Args: args("account", typeAddress)},
	"0xdd62ed3e":         {Name: "allowance", Category: CategoryView, Args: args("owner", typeAddress, "spender", typeAddress)},
	"0xf2fde38b":         {Name: "transferOwnership", Category: CategoryAdmin, Args: args("newOwner", typeAddress)},
	"0x8456cb59":         {Name: "pause", Category: CategoryAdmin},
	"0x3f4ba83a":         {Name: "unpause", Category: CategoryAdmin},
}

// knownSelectors resolves well-known protocol selectors on non-tracked
// contracts to a name and category only; parameters stay undecoded.
var knownSelectors = map[string]FunctionSig{
	"0x38ed1739": {Name: "swapExactTokensForTokens", Category: CategorySwap},
	"0x7ff36ab5": {Name: "swapExactETHForTokens", Category: CategorySwap},
	"0x18cbafe5": {Name: "swapExactTokensForETH", Category: CategorySwap},
	"0x022c0d9f": {Name: "swap", Category: CategorySwap},
	"0x128acb08": {Name: "swap", Category: CategorySwap},
	"0xab9c4b5d": {Name: "flashLoan", Category: CategoryLending},
	"0x5cffe9de": {Name: "flashLoan", Category: CategoryLending},
	"0xc5ebeaec": {Name: "borrow", Category: CategoryLending},
	"0xa415bcad": {Name: "borrow", Category: CategoryLending},
	"0x573ade81": {Name: "repay", Category: CategoryLending},
	"0x0e752702": {Name: "repayBorrow", Category: CategoryLending},
	"0xf5e3c462": {Name: "liquidateBorrow", Category: CategoryLending},
	"0xb2a02ff1": {Name: "seize", Category: CategoryLending},
	"0xd0e30db0": {Name: "deposit", Category: CategoryOther},
	"0x2e1a7d4d": {Name: "withdraw", Category: CategoryOther},
}

// functionRiskTable maps administrative function names to a fixed risk level.
// selfdestruct, transferOwnership and pause/unpause have dedicated rules in
// the security analyzer and are intentionally absent here.
var functionRiskTable = map[string]string{
	"upgradeTo":        RiskCritical,
	"upgradeToAndCall": RiskCritical,
	"setOwner":         RiskHigh,
	"renounceOwnership": RiskHigh,
	"grantRole":        RiskHigh,
	"blacklist":        RiskHigh,
	"revokeRole":       RiskMedium,
	"setFeeTo":         RiskMedium,
	"mint":             RiskMedium,
	"burn":             RiskMedium,
}

// gasBenchmarks holds the static per-function gas expectation table
var gasBenchmarks = map[string]uint64{
	"transfer":                 51000,
	"transferFrom":             65000,
	"approve":                  46000,
	"increaseAllowance":        48000,
	"decreaseAllowance":        48000,
	"mint":                     70000,
	"burn":                     60000,
	"swap":                     120000,
	"swapExactTokensForTokens": 150000,
	"swapExactETHForTokens":    140000,
	"swapExactTokensForETH":    140000,
	"flashLoan":                200000,
	"borrow":                   250000,
	"repay":                    180000,
	"liquidateBorrow":          300000,
	"deposit":                  48000,
	"withdraw":                 55000,
}

// DefaultTrackedContracts is the default set of contracts the engine has a
// full signature table for.
var DefaultTrackedContracts = []common.Address{
	common.HexToAddress("0x9967407a5B9177E234d7B493AF8ff4A46771BEdf"),
	common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"),
}

// Registry bundles the static decode, risk and benchmark tables consumed by
// the pipeline stages. All tables are data; the stages share one generic
// lookup path.
type Registry struct {
	tracked  map[string]map[string]FunctionSig
	decimals int
}

// NewRegistry builds a registry for the given tracked contract set
func NewRegistry(tracked []common.Address) *Registry {
	r := &Registry{
		tracked:  make(map[string]map[string]FunctionSig, len(tracked)),
		decimals: 18,
	}
	for _, addr := range tracked {
		r.tracked[strings.ToLower(addr.Hex())] = trackedSignatures
	}
	return r
}

// DefaultRegistry builds a registry over DefaultTrackedContracts
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTrackedContracts)
}

// IsTracked reports whether addr is one of the tracked contracts
func (r *Registry) IsTracked(addr string) bool {
	if addr == "" {
		return false
	}
	_, ok := r.tracked[strings.ToLower(addr)]
	return ok
}

// Lookup resolves a selector on a tracked contract
func (r *Registry) Lookup(addr, selector string) (FunctionSig, bool) {
	table, ok := r.tracked[strings.ToLower(addr)]
	if !ok {
		return FunctionSig{}, false
	}
	sig, ok := table[strings.ToLower(selector)]
	return sig, ok
}

// KnownSelector resolves a well-known selector independent of the target
func (r *Registry) KnownSelector(selector string) (FunctionSig, bool) {
	sig, ok := knownSelectors[strings.ToLower(selector)]
	return sig, ok
}

// RiskLevelFor looks a function name up in the static risk table
func (r *Registry) RiskLevelFor(name string) (string, bool) {
	level, ok := functionRiskTable[name]
	return level, ok
}

// BenchmarkFor returns the static gas benchmark for a function name
func (r *Registry) BenchmarkFor(name string) (uint64, bool) {
	benchmark, ok := gasBenchmarks[name]
	return benchmark, ok
}

// Decimals returns the decimal adjustment applied to token amounts
func (r *Registry) Decimals() int {
	return r.decimals
}
