package analysis

import (
	"math/big"
	"time"
)

// RawCallRecord mirrors a single entry of a flat trace_transaction response.
// Records arrive in pre-order traversal sequence; TraceAddress locates the
// call within the tree and its length is the call depth.
type RawCallRecord struct {
	Type         string         `json:"type"`
	Action       RawCallAction  `json:"action"`
	Result       *RawCallResult `json:"result,omitempty"`
	TraceAddress []int          `json:"traceAddress"`
	Subtraces    int            `json:"subtraces,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// RawCallAction carries the initiating side of a call record
type RawCallAction struct {
	CallType string `json:"callType,omitempty"`
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value,omitempty"`
	Input    string `json:"input,omitempty"`
	Init     string `json:"init,omitempty"`
	Gas      string `json:"gas,omitempty"`
}

// RawCallResult carries the completion side of a call record.
// Address is only set for contract creations.
type RawCallResult struct {
	GasUsed string `json:"gasUsed,omitempty"`
	Output  string `json:"output,omitempty"`
	Address string `json:"address,omitempty"`
}

// DecodedFunction is the resolved function identity of a call
type DecodedFunction struct {
	Name     string                 `json:"name"`
	Category string                 `json:"category"`
	Selector string                 `json:"selector,omitempty"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

// ProcessedCallNode is one normalized call. Index is strictly increasing and
// equals the original trace order of surviving records; Depth equals the
// trace-address path length.
type ProcessedCallNode struct {
	Index         int             `json:"index"`
	Depth         int             `json:"depth"`
	TraceAddress  []int           `json:"traceAddress"`
	CallType      string          `json:"callType"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Value         *big.Int        `json:"value"`
	ValueEther    float64         `json:"valueEther"`
	GasUsed       uint64          `json:"gasUsed"`
	Error         string          `json:"error,omitempty"`
	Function      DecodedFunction `json:"function"`
	IsTracked     bool            `json:"isTracked"`
	InputPreview  string          `json:"inputPreview,omitempty"`
	OutputPreview string          `json:"outputPreview,omitempty"`
}

// Failed reports whether the call carried an error string
func (n *ProcessedCallNode) Failed() bool {
	return n.Error != ""
}

// ContractInteractionEdge is an aggregate keyed by (from, to), excluding
// self-calls. Built once per analysis, never mutated afterward.
type ContractInteractionEdge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	CallCount int    `json:"callCount"`
	TotalGas  uint64 `json:"totalGas"`
}

// TokenTransferEvent is produced when a tracked-contract call matches one of
// the four recognized transfer-shaped selectors. The zero address stands in
// for the mint source and burn destination.
type TokenTransferEvent struct {
	Token        string   `json:"token"`
	Kind         string   `json:"kind"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	RawAmount    *big.Int `json:"rawAmount"`
	Amount       float64  `json:"amount"`
	TraceAddress []int    `json:"traceAddress"`
}

// AnalysisSummary is a denormalized rollup, derived and never independently
// mutated.
type AnalysisSummary struct {
	TotalCalls        int     `json:"totalCalls"`
	TotalGas          uint64  `json:"totalGas"`
	ErrorCount        int     `json:"errorCount"`
	TrackedCalls      int     `json:"trackedCalls"`
	TrackedGas        uint64  `json:"trackedGas"`
	TrackedGasPercent float64 `json:"trackedGasPercent"`
	TransferCount     int     `json:"transferCount"`
	UniqueContracts   int     `json:"uniqueContracts"`
	MaxDepth          int     `json:"maxDepth"`
	ComplexityScore   float64 `json:"complexityScore"`
	ComplexityLevel   string  `json:"complexityLevel"`
	SkippedRecords    int     `json:"skippedRecords"`
}

// PatternMatch is one triggered behavioral pattern rule
type PatternMatch struct {
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// TransactionPattern is the highest-confidence match plus the full ranked
// list, sorted by non-increasing confidence.
type TransactionPattern struct {
	Primary PatternMatch   `json:"primary"`
	Matches []PatternMatch `json:"matches"`
}

// MevIndicator is a single triggered MEV heuristic
type MevIndicator struct {
	Type        string                 `json:"type"`
	Confidence  float64                `json:"confidence"`
	Description string                 `json:"description"`
	Evidence    map[string]interface{} `json:"evidence,omitempty"`
}

// MevPattern is a composite finding backed by corroborating indicators
type MevPattern struct {
	Type           string         `json:"type"`
	Confidence     float64        `json:"confidence"`
	Severity       string         `json:"severity"`
	Description    string         `json:"description"`
	Indicators     []MevIndicator `json:"indicators"`
	EstimatedValue float64        `json:"estimatedValue"`
}

// MevAnalysis aggregates the basic and advanced detector tiers
type MevAnalysis struct {
	Detected   bool           `json:"detected"`
	Primary    *MevIndicator  `json:"primary,omitempty"`
	Indicators []MevIndicator `json:"indicators"`
	Patterns   []MevPattern   `json:"patterns"`
	Score      float64        `json:"score"`
	RiskLevel  string         `json:"riskLevel"`
}

// SecurityConcern is one accumulated per-call or anti-pattern finding
type SecurityConcern struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Contract    string `json:"contract,omitempty"`
	Caller      string `json:"caller,omitempty"`
}

// HighRiskOperation names a call flagged by the single-call risk assessment.
// The list is built independently of the concern list; the two views are not
// reconciled against each other.
type HighRiskOperation struct {
	Function    string `json:"function"`
	Contract    string `json:"contract"`
	Caller      string `json:"caller"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// SecurityAnalysis is the security analyzer output
type SecurityAnalysis struct {
	Concerns  []SecurityConcern   `json:"concerns"`
	HighRisk  []HighRiskOperation `json:"highRiskOperations"`
	RiskLevel string              `json:"riskLevel"`
}

// FunctionEfficiency rates one function's gas use against its benchmark
type FunctionEfficiency struct {
	Function  string  `json:"function"`
	Calls     int     `json:"calls"`
	TotalGas  uint64  `json:"totalGas"`
	AvgGas    uint64  `json:"avgGas"`
	Benchmark uint64  `json:"benchmark"`
	Ratio     float64 `json:"ratio"`
	Rating    string  `json:"rating"`
}

// GasAnalysis is the gas analyzer output
type GasAnalysis struct {
	TotalGas    uint64               `json:"totalGas"`
	Category    string               `json:"category"`
	ByContract  map[string]uint64    `json:"byContract"`
	ByFunction  map[string]uint64    `json:"byFunction"`
	Efficiency  []FunctionEfficiency `json:"efficiency"`
	Suggestions []string             `json:"suggestions"`
}

// MetricDelta is the per-metric numeric diff between two analyses
type MetricDelta struct {
	Metric        string  `json:"metric"`
	Before        float64 `json:"before"`
	After         float64 `json:"after"`
	Delta         float64 `json:"delta"`
	ChangePercent float64 `json:"changePercent"`
}

// ComparisonDifference is one categorized qualitative difference
type ComparisonDifference struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// ComparisonSummary is the per-transaction rollup inside a comparison
type ComparisonSummary struct {
	TxHash           string  `json:"txHash"`
	Pattern          string  `json:"pattern"`
	TotalCalls       int     `json:"totalCalls"`
	TotalGas         uint64  `json:"totalGas"`
	UniqueContracts  int     `json:"uniqueContracts"`
	MaxDepth         int     `json:"maxDepth"`
	ErrorCount       int     `json:"errorCount"`
	SecurityConcerns int     `json:"securityConcerns"`
	ComplexityScore  float64 `json:"complexityScore"`
}

// ComparisonResult is the structured diff of two completed analyses.
// Built once, read-only thereafter.
type ComparisonResult struct {
	First           ComparisonSummary      `json:"first"`
	Second          ComparisonSummary      `json:"second"`
	Metrics         []MetricDelta          `json:"metrics"`
	Differences     []ComparisonDifference `json:"differences"`
	Recommendations []string               `json:"recommendations"`
}

// GraphNode is one node of a visualization-ready graph projection
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// GraphEdge is one edge of a visualization-ready graph projection
type GraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// Graph is a plain node/edge list projection
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// AnalysisGraphs bundles the three graph projections
type AnalysisGraphs struct {
	CallGraph        Graph `json:"callGraph"`
	InteractionGraph Graph `json:"interactionGraph"`
	TokenFlowGraph   Graph `json:"tokenFlowGraph"`
}

// Options selects optional analysis behavior. The cache key includes the
// serialized option set.
type Options struct {
	AdvancedMev  bool `json:"advancedMev"`
	IncludeGraph bool `json:"includeGraph"`
}

// DefaultOptions returns the default analysis options
func DefaultOptions() Options {
	return Options{AdvancedMev: true, IncludeGraph: true}
}

// TraceAnalysisResult is the full outbound aggregate for one transaction.
// All fields are plain, serializable data with no behavior.
type TraceAnalysisResult struct {
	TxHash       string                    `json:"txHash"`
	Empty        bool                      `json:"empty"`
	Summary      AnalysisSummary           `json:"summary"`
	Nodes        []ProcessedCallNode       `json:"nodes"`
	Interactions []ContractInteractionEdge `json:"interactions"`
	Transfers    []TokenTransferEvent      `json:"transfers"`
	Pattern      TransactionPattern        `json:"pattern"`
	Mev          MevAnalysis               `json:"mev"`
	Security     SecurityAnalysis          `json:"security"`
	Gas          GasAnalysis               `json:"gas"`
	Graphs       *AnalysisGraphs           `json:"graphs,omitempty"`
	AnalyzedAt   time.Time                 `json:"analyzedAt"`
}

// Severity and level buckets shared across analyzers
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"

	ComplexityLow      = "low"
	ComplexityMedium   = "medium"
	ComplexityHigh     = "high"
	ComplexityVeryHigh = "very_high"

	GasCategoryLow      = "low"
	GasCategoryModerate = "moderate"
	GasCategoryHigh     = "high"
	GasCategoryVeryHigh = "very_high"
)
