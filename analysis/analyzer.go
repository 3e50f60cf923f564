package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/chainsight/txlens/analysis/utils"
)

// TraceSource is the inbound trace-fetch boundary. A failed fetch must be
// surfaced, never masked as an empty result.
type TraceSource interface {
	TraceTransaction(ctx context.Context, txHash common.Hash) ([]json.RawMessage, error)
}

// Analyzer is the top-level orchestrator. Each analysis invocation is
// synchronous and single-threaded; the stages are pure functions run to
// completion in order. The injected cache is the only shared mutable state
// and is read and written exclusively here, never by the stages.
type Analyzer struct {
	source     TraceSource
	registry   *Registry
	cache      *Cache
	normalizer *Normalizer
	metrics    *utils.MetricsCollector
}

// NewAnalyzer wires an analyzer. A nil cache or metrics collector gets a
// default instance.
func NewAnalyzer(source TraceSource, registry *Registry, cache *Cache, metrics *utils.MetricsCollector) *Analyzer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if cache == nil {
		cache = NewCache(DefaultCacheTTL)
	}
	if metrics == nil {
		metrics = utils.NewMetricsCollector()
	}
	return &Analyzer{
		source:     source,
		registry:   registry,
		cache:      cache,
		normalizer: NewNormalizer(registry),
		metrics:    metrics,
	}
}

// Registry exposes the static tables the analyzer was built with
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// Metrics exposes the metrics collector
func (a *Analyzer) Metrics() *utils.MetricsCollector {
	return a.metrics
}

// ValidateTxHash rejects identifiers failing the 66-character, 0x-prefixed
// hex format contract before any fetch is attempted.
func ValidateTxHash(txHash string) error {
	if len(txHash) != 66 {
		return utils.NewValidationError("transaction hash must be 66 characters", "txHash").
			AddContext("length", len(txHash))
	}
	if txHash[0] != '0' || (txHash[1] != 'x' && txHash[1] != 'X') {
		return utils.NewValidationError("transaction hash must be 0x-prefixed", "txHash")
	}
	for _, c := range txHash[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return utils.NewValidationError("transaction hash must be hexadecimal", "txHash")
		}
	}
	return nil
}

// AnalyzeTransaction validates the hash, consults the cache, fetches the
// trace once in full and runs the pipeline. Transport failures propagate as
// a single explicit error.
func (a *Analyzer) AnalyzeTransaction(ctx context.Context, txHash string, opts Options) (*TraceAnalysisResult, error) {
	if err := ValidateTxHash(txHash); err != nil {
		return nil, err
	}

	if cached, ok := a.cache.Get(txHash, opts); ok {
		a.metrics.RecordCacheLookup(true)
		log.Debug("analysis cache hit", "txHash", txHash)
		return cached, nil
	}
	a.metrics.RecordCacheLookup(false)

	fetchStart := time.Now()
	records, err := a.source.TraceTransaction(ctx, common.HexToHash(txHash))
	if err != nil {
		a.metrics.RecordAnalysis(time.Since(fetchStart), false)
		if errors.Is(err, ethereum.NotFound) {
			return nil, utils.NewNotFoundError("no trace for transaction", txHash)
		}
		return nil, utils.NewTransportError("trace fetch failed", err).
			AddContext("tx_hash", txHash)
	}
	a.metrics.RecordFetch(time.Since(fetchStart))

	start := time.Now()
	result := a.AnalyzeRecords(txHash, records, opts)
	a.metrics.RecordAnalysis(time.Since(start), true)

	a.cache.Set(txHash, opts, result)
	return result, nil
}

// AnalyzeRecords runs the full pipeline over an already-fetched record list.
// Pure apart from metrics bookkeeping; performs no I/O. An empty or fully
// skipped trace yields a defined empty analysis, not an error.
func (a *Analyzer) AnalyzeRecords(txHash string, records []json.RawMessage, opts Options) *TraceAnalysisResult {
	nodes, skipped := a.timedNormalize(records)
	a.metrics.RecordNormalization(len(nodes), skipped)

	var edges []ContractInteractionEdge
	a.timed("extract_interactions", func() { edges = ExtractInteractions(nodes) })

	var transfers []TokenTransferEvent
	a.timed("extract_transfers", func() { transfers = ExtractTransfers(nodes, a.registry.Decimals()) })

	stats := computeStats(nodes, transfers)

	var pattern TransactionPattern
	a.timed("classify_pattern", func() { pattern = classifyWithStats(stats) })

	var mev MevAnalysis
	a.timed("mev_detection", func() {
		mev = AnalyzeMev(a.registry, nodes, transfers, opts.AdvancedMev)
	})

	var security SecurityAnalysis
	a.timed("security_analysis", func() {
		security = AnalyzeSecurity(a.registry, nodes)
	})

	var gas GasAnalysis
	a.timed("gas_analysis", func() {
		gas = AnalyzeGas(a.registry, nodes)
	})

	complexity := complexityFromStats(stats)

	result := &TraceAnalysisResult{
		TxHash:       txHash,
		Empty:        len(nodes) == 0,
		Summary:      buildSummary(stats, complexity, skipped),
		Nodes:        nodes,
		Interactions: edges,
		Transfers:    transfers,
		Pattern:      pattern,
		Mev:          mev,
		Security:     security,
		Gas:          gas,
		AnalyzedAt:   time.Now(),
	}

	if opts.IncludeGraph {
		a.timed("graph_projection", func() {
			result.Graphs = BuildGraphs(nodes, edges, transfers)
		})
	}

	return result
}

// Compare diffs two completed analyses. Both must already be built; this
// never triggers analysis.
func (a *Analyzer) Compare(first, second *TraceAnalysisResult) *ComparisonResult {
	return Compare(first, second)
}

func buildSummary(stats traceStats, complexity float64, skipped int) AnalysisSummary {
	trackedPercent := 0.0
	if stats.totalGas > 0 {
		trackedPercent = float64(stats.trackedGas) / float64(stats.totalGas) * 100
	}
	return AnalysisSummary{
		TotalCalls:        stats.totalCalls,
		TotalGas:          stats.totalGas,
		ErrorCount:        stats.errorCount,
		TrackedCalls:      stats.trackedCalls,
		TrackedGas:        stats.trackedGas,
		TrackedGasPercent: trackedPercent,
		TransferCount:     stats.transferCount,
		UniqueContracts:   stats.uniqueContracts,
		MaxDepth:          stats.maxDepth,
		ComplexityScore:   complexity,
		ComplexityLevel:   ComplexityLevel(complexity),
		SkippedRecords:    skipped,
	}
}

func (a *Analyzer) timedNormalize(records []json.RawMessage) ([]ProcessedCallNode, int) {
	start := time.Now()
	nodes, skipped := a.normalizer.Normalize(records)
	a.metrics.RecordStage("normalize", time.Since(start))
	return nodes, skipped
}

func (a *Analyzer) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	a.metrics.RecordStage(stage, time.Since(start))
}
