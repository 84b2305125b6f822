package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/dex"
)

// LogSource serves log queries. *chain.Client implements it.
type LogSource interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Chain is everything the swap pipeline reads from a node.
type Chain interface {
	LogSource
	dex.ContractCaller
	ChainID(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}
