package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/dex"
	"poolScope/internal/model"
	"poolScope/internal/storage"
)

// PoolSyncConfig holds runtime settings for pool discovery.
type PoolSyncConfig struct {
	Protocols    []model.Protocol
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	// KnownPools are already stored and are skipped without decimals reads.
	KnownPools []common.Address
}

// PoolSyncStats summarizes a sync run.
type PoolSyncStats struct {
	Logs    int
	Skipped int
	Pools   int
}

// PoolSyncer walks factory creation logs and stores the resulting pools.
type PoolSyncer struct {
	cfg         PoolSyncConfig
	source      LogSource
	registry    *dex.Registry
	decimals    dex.DecimalsSource
	sink        storage.PoolSink
	checkpoints CheckpointStore
	logger      *zap.Logger
	seen        map[common.Address]struct{}
}

func NewPoolSyncer(
	cfg PoolSyncConfig,
	source LogSource,
	registry *dex.Registry,
	decimals dex.DecimalsSource,
	sink storage.PoolSink,
	checkpoints CheckpointStore,
	logger *zap.Logger,
) *PoolSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := make(map[common.Address]struct{}, len(cfg.KnownPools))
	for _, addr := range cfg.KnownPools {
		seen[addr] = struct{}{}
	}
	return &PoolSyncer{
		cfg:         cfg,
		source:      source,
		registry:    registry,
		decimals:    decimals,
		sink:        sink,
		checkpoints: checkpoints,
		logger:      logger,
		seen:        seen,
	}
}

func poolCheckpointKey(p model.Protocol) string {
	return "pools:" + p.String()
}

// Run syncs every configured protocol up to ToBlock, or the chain head when
// ToBlock is zero.
func (s *PoolSyncer) Run(ctx context.Context) (PoolSyncStats, error) {
	var stats PoolSyncStats
	if s.source == nil {
		return stats, fmt.Errorf("log source is nil")
	}
	if s.registry == nil {
		return stats, fmt.Errorf("registry is nil")
	}
	if s.decimals == nil {
		return stats, fmt.Errorf("decimals source is nil")
	}
	if s.sink == nil {
		return stats, fmt.Errorf("pool sink is nil")
	}
	if s.cfg.BatchSize == 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}

	protocols := s.cfg.Protocols
	if len(protocols) == 0 {
		protocols = s.registry.Protocols()
	}

	to := s.cfg.ToBlock
	if to == 0 {
		latest, err := s.source.LatestBlockNumber(ctx)
		if err != nil {
			return stats, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	for _, protocol := range protocols {
		if err := s.syncProtocol(ctx, protocol, to, &stats); err != nil {
			return stats, fmt.Errorf("sync %s: %w", protocol, err)
		}
	}

	s.logger.Info("pool sync complete",
		zap.Int("logs", stats.Logs),
		zap.Int("skipped", stats.Skipped),
		zap.Int("pools", stats.Pools),
	)
	return stats, nil
}

func (s *PoolSyncer) syncProtocol(ctx context.Context, protocol model.Protocol, to uint64, stats *PoolSyncStats) error {
	key := poolCheckpointKey(protocol)
	from, err := resumeFrom(ctx, s.checkpoints, key, s.cfg.FromBlock)
	if err != nil {
		return err
	}
	if from > to {
		s.logger.Info("nothing to sync", zap.Stringer("protocol", protocol), zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	filter, err := s.registry.EventFilter(protocol, from)
	if err != nil {
		return err
	}

	ranges, err := SplitRange(from, to, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.logger.Info("fetch logs", zap.Stringer("protocol", protocol), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		query := filter.WithFrom(blockRange.From).RangeQuery(blockRange.To)
		logs, err := s.filterLogsWithRetry(ctx, query)
		if err != nil {
			return fmt.Errorf("filter logs %s: %w", blockRange, err)
		}
		stats.Logs += len(logs)

		events := s.decodeCreations(logs, stats)
		pools, err := s.toPools(ctx, events)
		if err != nil {
			return err
		}

		if err := s.sink.PutPools(ctx, pools); err != nil {
			return fmt.Errorf("store pools: %w", err)
		}
		stats.Pools += len(pools)

		if s.checkpoints != nil {
			if err := s.checkpoints.Save(ctx, key, blockRange.To); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}

		s.logger.Info("batch complete",
			zap.Stringer("protocol", protocol),
			zap.Int("logs", len(logs)),
			zap.Int("pools", len(pools)),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}
	return nil
}

// decodeCreations skips logs that cannot be decoded and pools already seen.
func (s *PoolSyncer) decodeCreations(logs []types.Log, stats *PoolSyncStats) []dex.CreationEvent {
	events := make([]dex.CreationEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		event, err := s.registry.DecodeCreationLog(lg)
		if err != nil {
			stats.Skipped++
			s.logger.Warn("skip creation log",
				zap.Uint64("block_number", lg.BlockNumber),
				zap.String("tx_hash", lg.TxHash.Hex()),
				zap.Uint("log_index", lg.Index),
				zap.Error(err),
			)
			continue
		}
		addr := event.PoolAddress()
		if _, ok := s.seen[addr]; ok {
			continue
		}
		s.seen[addr] = struct{}{}
		events = append(events, event)
	}
	return events
}

// toPools resolves token decimals for each event concurrently, keeping order.
func (s *PoolSyncer) toPools(ctx context.Context, events []dex.CreationEvent) ([]model.Pool, error) {
	pools := make([]model.Pool, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, event := range events {
		i, event := i, event
		g.Go(func() error {
			return withRetryIf(gctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, model.IsRetryable, func(ctx context.Context) error {
				p, err := s.registry.CreationEventToPool(ctx, event, s.decimals)
				if err != nil {
					if errors.Is(err, model.ErrRPC) {
						s.logger.Warn("resolve pool failed", zap.String("pool", event.PoolAddress().Hex()), zap.Error(err))
					}
					return err
				}
				pools[i] = p
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		for _, event := range events {
			delete(s.seen, event.PoolAddress())
		}
		return nil, fmt.Errorf("resolve pools: %w", err)
	}
	return pools, nil
}

func (s *PoolSyncer) concurrency() int {
	if s.cfg.Concurrency <= 0 {
		return 1
	}
	return s.cfg.Concurrency
}

func (s *PoolSyncer) filterLogsWithRetry(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return filterLogsWithRetry(ctx, s.source, query, s.cfg.MaxRetries, s.cfg.RetryBackoff, s.logger)
}

func filterLogsWithRetry(ctx context.Context, source LogSource, query ethereum.FilterQuery, maxRetries int, backoff time.Duration, logger *zap.Logger) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, maxRetries, backoff, func(ctx context.Context) error {
		var err error
		logs, err = source.FilterLogs(ctx, query)
		if err != nil {
			logger.Warn("filter logs failed", zap.Error(err), zap.Stringer("from", query.FromBlock), zap.Stringer("to", query.ToBlock))
		}
		return err
	})
	return logs, err
}
