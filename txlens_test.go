package txlens

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight/txlens/analysis"
	"github.com/chainsight/txlens/analysis/utils"
)

const testTxHash = "0xcccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"

type stubEthClient struct {
	trace        []json.RawMessage
	receipt      *types.Receipt
	receiptErr   error
	header       *types.Header
	tx           *types.Transaction
	traceCalls   int
	receiptCalls int
	closed       bool
}

func (s *stubEthClient) TraceTransaction(ctx context.Context, hash common.Hash) ([]json.RawMessage, error) {
	s.traceCalls++
	if s.trace == nil {
		return nil, ethereum.NotFound
	}
	return s.trace, nil
}

func (s *stubEthClient) TxByHash(hash common.Hash) (*types.Transaction, error) {
	if s.tx == nil {
		return nil, ethereum.NotFound
	}
	return s.tx, nil
}

func (s *stubEthClient) TxReceiptByHash(hash common.Hash) (*types.Receipt, error) {
	s.receiptCalls++
	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	return s.receipt, nil
}

func (s *stubEthClient) BlockHeaderByNumber(number *big.Int) (*types.Header, error) {
	if s.header == nil {
		return nil, ethereum.NotFound
	}
	return s.header, nil
}

func (s *stubEthClient) Close() {
	s.closed = true
}

func newConfirmedClient() *stubEthClient {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	return &stubEthClient{
		trace: []json.RawMessage{json.RawMessage(
			`{"type":"call","action":{"callType":"call","from":"0x1111111111111111111111111111111111111111","to":"0x2222222222222222222222222222222222222222","value":"0x0","input":"0x"},"result":{"gasUsed":"0x5208"},"traceAddress":[]}`,
		)},
		receipt: &types.Receipt{
			Status:            types.ReceiptStatusSuccessful,
			BlockNumber:       big.NewInt(123),
			GasUsed:           21_000,
			EffectiveGasPrice: big.NewInt(30_000_000_000),
		},
		header: &types.Header{Time: 1_700_000_000},
		tx:     types.NewTx(&types.LegacyTx{Nonce: 7, To: &to, Gas: 21_000, GasPrice: big.NewInt(1)}),
	}
}

func newTestLens(client *stubEthClient) *TxLens {
	metrics := utils.NewMetricsCollector()
	return &TxLens{
		client:   client,
		analyzer: analysis.NewAnalyzer(client, nil, nil, metrics),
		metrics:  metrics,
		recovery: utils.NewErrorRecovery(),
		opts:     analysis.DefaultOptions(),
	}
}

func TestConfirmTransaction(t *testing.T) {
	lens := newTestLens(newConfirmedClient())

	txCtx, err := lens.ConfirmTransaction(testTxHash)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(123), txCtx.BlockNumber)
	assert.Equal(t, uint64(1_700_000_000), txCtx.BlockTime)
	assert.Equal(t, types.ReceiptStatusSuccessful, txCtx.Status)
	assert.Equal(t, uint64(21_000), txCtx.ReceiptGasUsed)
	assert.Equal(t, big.NewInt(30_000_000_000), txCtx.EffectiveGasPrice)
	assert.Equal(t, uint64(7), txCtx.Nonce)
}

func TestConfirmTransactionNotFound(t *testing.T) {
	client := newConfirmedClient()
	client.receiptErr = ethereum.NotFound
	lens := newTestLens(client)

	_, err := lens.ConfirmTransaction(testTxHash)
	require.Error(t, err)

	var analysisErr *utils.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, utils.ErrorTypeNotFound, analysisErr.Type)
	assert.Equal(t, testTxHash, analysisErr.Context["tx_hash"])
}

func TestAnalyzeTransactionConfirmsBeforeTracing(t *testing.T) {
	client := newConfirmedClient()
	lens := newTestLens(client)

	result, err := lens.AnalyzeTransaction(context.Background(), testTxHash)
	require.NoError(t, err)

	assert.Equal(t, testTxHash, result.TxHash)
	assert.Equal(t, 1, result.Summary.TotalCalls)
	assert.Equal(t, 1, client.receiptCalls)
	assert.Equal(t, 1, client.traceCalls)
}

func TestAnalyzeTransactionUnknownTransaction(t *testing.T) {
	client := newConfirmedClient()
	client.receiptErr = ethereum.NotFound
	lens := newTestLens(client)

	_, err := lens.AnalyzeTransaction(context.Background(), testTxHash)
	require.Error(t, err)

	var analysisErr *utils.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, utils.ErrorTypeNotFound, analysisErr.Type)
	assert.Zero(t, client.traceCalls, "no trace fetch may happen for an unknown transaction")
}

func TestAnalyzeTransactionRejectsBadHash(t *testing.T) {
	client := newConfirmedClient()
	lens := newTestLens(client)

	_, err := lens.AnalyzeTransaction(context.Background(), "0x1234")
	require.Error(t, err)
	assert.Zero(t, client.receiptCalls)
	assert.Zero(t, client.traceCalls)
}

func TestStopClosesClient(t *testing.T) {
	client := newConfirmedClient()
	lens := newTestLens(client)

	require.NoError(t, lens.Stop(context.Background()))
	assert.True(t, client.closed)
	assert.True(t, lens.Stopped())
}
