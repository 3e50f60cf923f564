package txlens

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/chainsight/txlens/analysis"
	"github.com/chainsight/txlens/analysis/utils"
	"github.com/chainsight/txlens/config"
	"github.com/chainsight/txlens/database"
	"github.com/chainsight/txlens/database/analyses"
	"github.com/chainsight/txlens/node"
)

// BatchConcurrency caps how many transactions are analyzed at once in a batch.
const BatchConcurrency = 8

// TxLens wires the chain client, the analysis engine and the optional
// archive database into one service.
type TxLens struct {
	client   node.EthClient
	db       *database.DB
	analyzer *analysis.Analyzer
	metrics  *utils.MetricsCollector
	recovery *utils.ErrorRecovery
	opts     analysis.Options
	stopped  atomic.Bool
}

func NewTxLens(ctx context.Context, cfg *config.Config) (*TxLens, error) {
	ethClient, err := node.DialEthClient(ctx, cfg.Chain.ChainRpcUrl)
	if err != nil {
		log.Error("new eth client fail", "err", err)
		return nil, err
	}

	var db *database.DB
	if cfg.MasterDB.Enabled() {
		db, err = database.NewDB(ctx, cfg.MasterDB)
		if err != nil {
			log.Error("new database fail", "err", err)
			return nil, err
		}
	}

	registry := analysis.DefaultRegistry()
	if len(cfg.Chain.TrackedContracts) > 0 {
		registry = analysis.NewRegistry(cfg.Chain.TrackedContracts)
	}

	metrics := utils.NewMetricsCollector()
	cache := analysis.NewCache(cfg.Analysis.CacheTTL)
	analyzer := analysis.NewAnalyzer(ethClient, registry, cache, metrics)

	lens := &TxLens{
		client:   ethClient,
		db:       db,
		analyzer: analyzer,
		metrics:  metrics,
		recovery: utils.NewErrorRecovery(),
		opts: analysis.Options{
			AdvancedMev:  cfg.Analysis.AdvancedMev,
			IncludeGraph: cfg.Analysis.IncludeGraph,
		},
	}
	return lens, nil
}

// Analyzer exposes the underlying engine for callers that manage their own
// options and caching.
func (t *TxLens) Analyzer() *analysis.Analyzer {
	return t.analyzer
}

func (t *TxLens) Metrics() *utils.MetricsCollector {
	return t.metrics
}

// TxContext is the on-chain confirmation of a transaction about to be
// analyzed, assembled from its receipt, block header and raw transaction.
type TxContext struct {
	BlockNumber       *big.Int
	BlockTime         uint64
	Status            uint64
	ReceiptGasUsed    uint64
	EffectiveGasPrice *big.Int
	Nonce             uint64
}

// ConfirmTransaction verifies the transaction exists on chain before any
// trace is fetched and collects its receipt-level context.
func (t *TxLens) ConfirmTransaction(txHash string) (*TxContext, error) {
	hash := common.HexToHash(txHash)

	receipt, err := t.client.TxReceiptByHash(hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, utils.NewNotFoundError("transaction not found", txHash)
		}
		return nil, utils.NewTransportError("receipt fetch failed", err)
	}

	header, err := t.client.BlockHeaderByNumber(receipt.BlockNumber)
	if err != nil {
		return nil, utils.NewTransportError("block header fetch failed", err)
	}

	tx, err := t.client.TxByHash(hash)
	if err != nil {
		return nil, utils.NewTransportError("transaction fetch failed", err)
	}

	return &TxContext{
		BlockNumber:       receipt.BlockNumber,
		BlockTime:         header.Time,
		Status:            receipt.Status,
		ReceiptGasUsed:    receipt.GasUsed,
		EffectiveGasPrice: receipt.EffectiveGasPrice,
		Nonce:             tx.Nonce(),
	}, nil
}

// AnalyzeTransaction confirms the transaction on chain, analyzes its trace
// retrying transient transport failures, and archives the result when a
// database is configured.
func (t *TxLens) AnalyzeTransaction(ctx context.Context, txHash string) (*analysis.TraceAnalysisResult, error) {
	if err := analysis.ValidateTxHash(txHash); err != nil {
		return nil, err
	}

	txCtx, err := t.ConfirmTransaction(txHash)
	if err != nil {
		return nil, err
	}
	if txCtx.Status == 0 {
		log.Warn("analyzing reverted transaction", "txHash", txHash, "block", txCtx.BlockNumber)
	}
	log.Debug("transaction confirmed",
		"txHash", txHash, "block", txCtx.BlockNumber, "gasUsed", txCtx.ReceiptGasUsed, "nonce", txCtx.Nonce)

	var result *analysis.TraceAnalysisResult

	err = t.recovery.RetryWithRecovery(func() error {
		var analyzeErr error
		result, analyzeErr = t.analyzer.AnalyzeTransaction(ctx, txHash, t.opts)
		return analyzeErr
	})
	if err != nil {
		return nil, err
	}

	if err := t.archive(result); err != nil {
		log.Warn("failed to archive analysis", "txHash", txHash, "err", err)
	}
	return result, nil
}

// CompareTransactions analyzes both transactions concurrently and diffs the
// results.
func (t *TxLens) CompareTransactions(ctx context.Context, firstHash, secondHash string) (*analysis.ComparisonResult, error) {
	var first, second *analysis.TraceAnalysisResult

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		first, err = t.AnalyzeTransaction(groupCtx, firstHash)
		return err
	})
	group.Go(func() error {
		var err error
		second, err = t.AnalyzeTransaction(groupCtx, secondHash)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return t.analyzer.Compare(first, second), nil
}

// AnalyzeBatch analyzes a set of transactions with bounded concurrency. A
// failed transaction fails the batch; cached results for the others survive
// for a retry.
func (t *TxLens) AnalyzeBatch(ctx context.Context, txHashes []string) ([]*analysis.TraceAnalysisResult, error) {
	results := make([]*analysis.TraceAnalysisResult, len(txHashes))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(BatchConcurrency)
	for i, txHash := range txHashes {
		group.Go(func() error {
			result, err := t.AnalyzeTransaction(groupCtx, txHash)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (t *TxLens) archive(result *analysis.TraceAnalysisResult) error {
	if t.db == nil || result.Empty {
		return nil
	}
	record, err := analyses.NewAnalysisRecord(result)
	if err != nil {
		return err
	}
	return t.db.Analyses.StoreAnalysis(record)
}

func (t *TxLens) Start(ctx context.Context) error {
	log.Info("txlens service started", "advancedMev", t.opts.AdvancedMev, "graphs", t.opts.IncludeGraph)
	return nil
}

func (t *TxLens) Stop(ctx context.Context) error {
	t.client.Close()
	if t.db != nil {
		if err := t.db.Close(); err != nil {
			return err
		}
	}
	t.stopped.Store(true)
	log.Info("txlens service stopped")
	return nil
}

func (t *TxLens) Stopped() bool {
	return t.stopped.Load()
}
