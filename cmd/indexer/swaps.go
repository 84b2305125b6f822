package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/dex"
	"poolScope/internal/indexer"
	"poolScope/internal/storage"
	"poolScope/internal/storage/postgres"
)

func runSwaps(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSwaps(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	pools, err := indexer.ParseAddresses(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	registry, err := buildRegistry(cfg.Common)
	if err != nil {
		return err
	}

	var resolver dex.DecimalsSource
	if cfg.WithDecimals {
		r, closeResolver, err := buildResolver(ctx, cfg.Common, chainClient, logger)
		if err != nil {
			return err
		}
		defer closeResolver()
		resolver = r
	}

	var (
		sink        storage.SwapSink
		checkpoints indexer.CheckpointStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink, checkpoints = store, store
	} else {
		if cfg.Out == "" {
			return fmt.Errorf("output path is required")
		}
		sink = storage.NewJsonlStorage(cfg.Out)
		if cfg.CheckpointDir != "" {
			checkpoints = indexer.NewFileCheckpointStore(cfg.CheckpointDir)
		}
	}

	decoder := indexer.NewSwapDecoder(indexer.SwapDecodeConfig{
		FromBlock:      cfg.FromBlock,
		ToBlock:        cfg.ToBlock,
		Pools:          pools,
		BatchSize:      cfg.BatchSize,
		Concurrency:    cfg.Concurrency,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		WithDecimals:   cfg.WithDecimals,
		WithTimestamps: cfg.WithTimestamps,
	}, chainClient, registry, resolver, sink, storage.NewJsonlStorage(cfg.Errors), checkpoints, logger)

	logger.Info("swap decode start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("pools", len(pools)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("errors", cfg.Errors),
		zap.Bool("with_decimals", cfg.WithDecimals),
		zap.Bool("with_timestamps", cfg.WithTimestamps),
	)

	stats, err := decoder.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("swap decode done",
		zap.Int("logs", stats.Logs),
		zap.Int("swaps", stats.Swaps),
		zap.Int("skipped", stats.Skipped),
	)
	return nil
}
