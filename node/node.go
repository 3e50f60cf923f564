package node

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	defaultDialTimeout = 5 * time.Second

	defaultRequestTimeout = 100 * time.Second
)

type client struct {
	rpc RPC
}

// TraceTransaction fetches the flat call trace for one transaction. Each
// record stays raw JSON so malformed entries can be skipped individually
// downstream; a missing trace surfaces as ethereum.NotFound.
func (c *client) TraceTransaction(ctx context.Context, hash common.Hash) ([]json.RawMessage, error) {
	ctxwt, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	var records []json.RawMessage
	if err := c.rpc.CallContext(ctxwt, &records, "trace_transaction", hash); err != nil {
		return nil, err
	}
	if records == nil {
		log.Error("no trace found", "txHash", hash.Hex())
		return nil, ethereum.NotFound
	}
	return records, nil
}

func (c *client) TxByHash(hash common.Hash) (*types.Transaction, error) {
	ctxwt, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	var tx *types.Transaction
	err := c.rpc.CallContext(ctxwt, &tx, "eth_getTransactionByHash", hash)
	if err != nil {
		return nil, err
	} else if tx == nil {
		return nil, ethereum.NotFound
	}

	return tx, nil
}

func (c *client) TxReceiptByHash(hash common.Hash) (*types.Receipt, error) {
	ctxwt, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	var receipt *types.Receipt
	err := c.rpc.CallContext(ctxwt, &receipt, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	} else if receipt == nil {
		return nil, ethereum.NotFound
	}

	return receipt, nil
}

func (c *client) BlockHeaderByNumber(b *big.Int) (*types.Header, error) {
	ctxwt, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	var header *types.Header
	err := c.rpc.CallContext(ctxwt, &header, "eth_getBlockByNumber", toBlockNumArg(b), false)
	if err != nil {
		log.Error("failed to fetch block header", "err", err)
		return nil, err
	} else if header == nil {
		return nil, ethereum.NotFound
	}
	return header, nil
}

func (c *client) Close() {
	c.rpc.Close()
}

// RPC is the thin wrapper over a JSON-RPC connection
type RPC interface {
	Close()
	CallContext(ctx context.Context, result any, method string, args ...any) error
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// EthClient is the node-facing surface the engine consumes
type EthClient interface {
	TraceTransaction(ctx context.Context, hash common.Hash) ([]json.RawMessage, error)
	TxByHash(hash common.Hash) (*types.Transaction, error)
	TxReceiptByHash(hash common.Hash) (*types.Receipt, error)
	BlockHeaderByNumber(*big.Int) (*types.Header, error)
	Close()
}

// DialEthClient connects to the archive node serving trace data
func DialEthClient(ctx context.Context, rpcUrl string) (EthClient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial address (%s): %w", rpcUrl, err)
	}

	return &client{
		rpc: NewRPC(rpcClient),
	}, nil
}

type rpcClient struct {
	rpc *rpc.Client
}

// NewRPC wraps a raw rpc.Client behind the RPC interface
func NewRPC(c *rpc.Client) RPC {
	return &rpcClient{c}
}

func (c *rpcClient) Close() {
	c.rpc.Close()
}

func (c *rpcClient) CallContext(ctx context.Context, result any, method string, args ...any) error {
	return c.rpc.CallContext(ctx, result, method, args...)
}

func (c *rpcClient) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	return c.rpc.BatchCallContext(ctx, b)
}

func toBlockNumArg(b *big.Int) string {
	if b == nil {
		return "latest"
	}
	if b.Sign() >= 0 {
		return hexutil.EncodeBig(b)
	}
	return rpc.BlockNumber(b.Int64()).String()
}
