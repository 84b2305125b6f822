package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolScope/internal/cache"
	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/dex"
)

func optionalAddress(value string) common.Address {
	if value == "" {
		return common.Address{}
	}
	return common.HexToAddress(value)
}

func buildRegistry(cfg config.Common) (*dex.Registry, error) {
	return dex.NewDefaultRegistry(dex.RegistryConfig{
		UniswapV2Factory: optionalAddress(cfg.UniswapV2Factory),
		UniswapV3Factory: optionalAddress(cfg.UniswapV3Factory),
	})
}

// buildResolver wires the decimals resolver. The returned closer releases the
// Redis connection when one was opened.
func buildResolver(ctx context.Context, cfg config.Common, client *chain.Client, logger *zap.Logger) (*dex.DecimalsResolver, func(), error) {
	opts := []dex.ResolverOption{dex.WithResolverLogger(logger)}
	if cfg.WrappedNative != "" {
		opts = append(opts, dex.WithWrappedNative(common.HexToAddress(cfg.WrappedNative)))
	}
	if cfg.DecimalsCacheSize > 0 {
		lru, err := cache.NewLRU(cfg.DecimalsCacheSize)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, dex.WithDecimalsCache(lru))
	}

	closer := func() {}
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		opts = append(opts, dex.WithDecimalsStore(store))
		closer = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
		}
	}

	return dex.NewDecimalsResolver(client, opts...), closer, nil
}
