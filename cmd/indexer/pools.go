package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/dex"
	"poolScope/internal/indexer"
	"poolScope/internal/model"
	"poolScope/internal/storage"
	"poolScope/internal/storage/postgres"
)

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPools(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	resolver, closeResolver, err := buildResolver(ctx, cfg.Common, chainClient, logger)
	if err != nil {
		return err
	}
	defer closeResolver()

	var (
		sink        storage.PoolSink
		checkpoints indexer.CheckpointStore
		known       []common.Address
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
		stored, err := store.LoadPools(ctx)
		if err != nil {
			return err
		}
		for _, p := range stored {
			known = append(known, p.Address)
		}
		logger.Info("pool registry loaded", zap.String("source", "postgres"), zap.Int("pools", len(stored)))
		sink, checkpoints = store, store
	} else {
		poolFile, err := storage.OpenPoolFile(cfg.Out)
		if err != nil {
			return err
		}
		logger.Info("pool registry loaded", zap.String("path", cfg.Out), zap.Int("pools", poolFile.Len()))
		sink = poolFile
		if cfg.CheckpointDir != "" {
			checkpoints = indexer.NewFileCheckpointStore(cfg.CheckpointDir)
		}
	}

	syncer := indexer.NewPoolSyncer(indexer.PoolSyncConfig{
		Protocols:    cfg.Protocols,
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		BatchSize:    cfg.BatchSize,
		Concurrency:  cfg.Concurrency,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		KnownPools:   known,
	}, chainClient, registry, resolver, sink, checkpoints, logger)

	logger.Info("pool sync start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Strings("factories", protocolFactories(cfg.Protocols, registry)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	_, err = syncer.Run(ctx)
	return err
}

func protocolFactories(protocols []model.Protocol, registry *dex.Registry) []string {
	if len(protocols) == 0 {
		protocols = registry.Protocols()
	}
	factories := registry.Factories()
	out := make([]string, 0, len(protocols))
	for _, p := range protocols {
		out = append(out, p.String()+"@"+factories[p].Hex())
	}
	return out
}
