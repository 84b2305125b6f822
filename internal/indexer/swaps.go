package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/chain"
	"poolScope/internal/dex"
	"poolScope/internal/model"
	"poolScope/internal/storage"
)

const swapCheckpointKey = "swaps"

// SwapDecodeConfig holds runtime settings for swap decoding.
type SwapDecodeConfig struct {
	FromBlock      uint64
	ToBlock        uint64
	Pools          []common.Address
	BatchSize      uint64
	Concurrency    int
	MaxRetries     int
	RetryBackoff   time.Duration
	WithDecimals   bool
	WithTimestamps bool
}

// SwapDecodeStats summarizes a decode run.
type SwapDecodeStats struct {
	Logs    int
	Swaps   int
	Skipped int
}

// SwapDecoder fetches swap logs of every registered protocol and writes
// normalized swap records.
type SwapDecoder struct {
	cfg         SwapDecodeConfig
	chain       Chain
	registry    *dex.Registry
	decimals    dex.DecimalsSource
	swaps       storage.SwapSink
	errors      storage.DecodeErrorSink
	checkpoints CheckpointStore
	logger      *zap.Logger
}

// NewSwapDecoder builds a SwapDecoder. decimals is only used with
// WithDecimals; errs and checkpoints may be nil.
func NewSwapDecoder(
	cfg SwapDecodeConfig,
	chainClient Chain,
	registry *dex.Registry,
	decimals dex.DecimalsSource,
	swaps storage.SwapSink,
	errs storage.DecodeErrorSink,
	checkpoints CheckpointStore,
	logger *zap.Logger,
) *SwapDecoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapDecoder{
		cfg:         cfg,
		chain:       chainClient,
		registry:    registry,
		decimals:    decimals,
		swaps:       swaps,
		errors:      errs,
		checkpoints: checkpoints,
		logger:      logger,
	}
}

type decodedSwap struct {
	record model.SwapRecord
	failed *model.DecodeError
}

func (d *SwapDecoder) Run(ctx context.Context) (SwapDecodeStats, error) {
	var stats SwapDecodeStats
	if d.chain == nil {
		return stats, fmt.Errorf("chain client is nil")
	}
	if d.registry == nil {
		return stats, fmt.Errorf("registry is nil")
	}
	if d.swaps == nil {
		return stats, fmt.Errorf("swap sink is nil")
	}
	if d.cfg.WithDecimals && d.decimals == nil {
		return stats, fmt.Errorf("decimals source is nil")
	}
	if d.cfg.BatchSize == 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}

	chainID, err := d.chain.ChainID(ctx)
	if err != nil {
		return stats, fmt.Errorf("get chain id: %w", err)
	}

	to := d.cfg.ToBlock
	if to == 0 {
		latest, err := d.chain.LatestBlockNumber(ctx)
		if err != nil {
			return stats, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	from, err := resumeFrom(ctx, d.checkpoints, swapCheckpointKey, d.cfg.FromBlock)
	if err != nil {
		return stats, err
	}
	if from > to {
		d.logger.Info("nothing to decode", zap.Uint64("from", from), zap.Uint64("to", to))
		return stats, nil
	}

	ranges, err := SplitRange(from, to, d.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	topics := d.registry.SwapTopics()
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		d.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		query := chain.RangeQuery(blockRange.From, blockRange.To, d.cfg.Pools, topics)
		logs, err := filterLogsWithRetry(ctx, d.chain, query, d.cfg.MaxRetries, d.cfg.RetryBackoff, d.logger)
		if err != nil {
			return stats, fmt.Errorf("filter logs %s: %w", blockRange, err)
		}
		stats.Logs += len(logs)

		results, err := d.decodeBatch(ctx, chainID, logs)
		if err != nil {
			return stats, err
		}

		records := make([]model.SwapRecord, 0, len(results))
		failures := make([]model.DecodeError, 0)
		for _, res := range results {
			if res.failed != nil {
				failures = append(failures, *res.failed)
				continue
			}
			records = append(records, res.record)
		}

		if err := d.swaps.PutSwaps(ctx, records); err != nil {
			return stats, fmt.Errorf("store swaps: %w", err)
		}
		if d.errors != nil {
			if err := d.errors.PutDecodeErrors(ctx, failures); err != nil {
				return stats, fmt.Errorf("store decode errors: %w", err)
			}
		}
		stats.Swaps += len(records)
		stats.Skipped += len(failures)

		if d.checkpoints != nil {
			if err := d.checkpoints.Save(ctx, swapCheckpointKey, blockRange.To); err != nil {
				return stats, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		d.logger.Info("batch complete",
			zap.Int("logs", len(logs)),
			zap.Int("swaps", len(records)),
			zap.Int("skipped", len(failures)),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}

	d.logger.Info("swap decode complete",
		zap.Int("logs", stats.Logs),
		zap.Int("swaps", stats.Swaps),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// decodeBatch decodes logs concurrently. Logs that fail for a non-network
// reason become decode errors; network failures abort the batch.
func (d *SwapDecoder) decodeBatch(ctx context.Context, chainID uint64, logs []types.Log) ([]decodedSwap, error) {
	results := make([]decodedSwap, len(logs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency())
	for i, lg := range logs {
		i, lg := i, lg
		if lg.Removed {
			continue
		}
		g.Go(func() error {
			res, err := d.decodeOne(gctx, chainID, lg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]decodedSwap, 0, len(results))
	for i, res := range results {
		if logs[i].Removed {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (d *SwapDecoder) decodeOne(ctx context.Context, chainID uint64, lg types.Log) (decodedSwap, error) {
	var swap model.SwapEvent
	err := withRetryIf(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, model.IsRetryable, func(ctx context.Context) error {
		var err error
		swap, err = d.registry.DecodeSwapLog(ctx, lg, d.chain)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrRPC) || ctx.Err() != nil {
			return decodedSwap{}, fmt.Errorf("decode swap %s:%d: %w", lg.TxHash.Hex(), lg.Index, err)
		}
		d.logger.Warn("skip swap log",
			zap.Uint64("block_number", lg.BlockNumber),
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.Uint("log_index", lg.Index),
			zap.Error(err),
		)
		rec := model.NewDecodeError(chainID, lg, err)
		return decodedSwap{failed: &rec}, nil
	}

	record := model.NewSwapRecord(chainID, lg, swap)

	if d.cfg.WithTimestamps {
		err := withRetry(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, func(ctx context.Context) error {
			ts, err := d.chain.BlockTimestamp(ctx, lg.BlockNumber)
			if err != nil {
				return err
			}
			record.Timestamp = ts
			return nil
		})
		if err != nil {
			return decodedSwap{}, fmt.Errorf("block timestamp %d: %w", lg.BlockNumber, err)
		}
	}

	if d.cfg.WithDecimals {
		in, err := d.resolveAll(ctx, swap.CoinsIn)
		if err != nil {
			return decodedSwap{}, err
		}
		out, err := d.resolveAll(ctx, swap.CoinsOut)
		if err != nil {
			return decodedSwap{}, err
		}
		record.SetValues(swap, in, out)
	}

	return decodedSwap{record: record}, nil
}

func (d *SwapDecoder) resolveAll(ctx context.Context, tokens []common.Address) ([]uint8, error) {
	out := make([]uint8, 0, len(tokens))
	for _, token := range tokens {
		var decimals uint8
		err := withRetryIf(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, model.IsRetryable, func(ctx context.Context) error {
			var err error
			decimals, err = d.decimals.Decimals(ctx, token)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("decimals %s: %w", token.Hex(), err)
		}
		out = append(out, decimals)
	}
	return out, nil
}

func (d *SwapDecoder) concurrency() int {
	if d.cfg.Concurrency <= 0 {
		return 1
	}
	return d.cfg.Concurrency
}
