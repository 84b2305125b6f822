package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Uniswap pool registry and swap decoder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Discover pools from factory creation logs",
		RunE:  runPools,
	}

	addCommonFlags(poolsCmd.Flags())
	poolsCmd.Flags().StringSlice("protocols", nil, "protocols to sync (uniswapv2, uniswapv3), empty means all")
	poolsCmd.Flags().String("out", "./data/pools.txt", "pool registry file, one canonical pool per line")

	root.AddCommand(poolsCmd)

	swapsCmd := &cobra.Command{
		Use:   "swaps",
		Short: "Decode swap logs into normalized swap records",
		RunE:  runSwaps,
	}

	addCommonFlags(swapsCmd.Flags())
	swapsCmd.Flags().StringSlice("pool", nil, "pool addresses to filter (comma-separated), empty means all")
	swapsCmd.Flags().String("out", "./data/swaps.jsonl", "output swaps JSONL")
	swapsCmd.Flags().String("errors", "./data/swap_errors.jsonl", "decode errors JSONL")
	swapsCmd.Flags().Bool("with-decimals", false, "attach decimal-scaled amounts")
	swapsCmd.Flags().Bool("with-timestamps", false, "attach block timestamps")

	root.AddCommand(swapsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Ethereum RPC URL")
	flags.Uint64("from", 0, "start block (inclusive)")
	flags.Uint64("to", 0, "end block (inclusive), 0 means latest")
	flags.Uint64("batch-size", 2000, "blocks per batch")
	flags.Int("concurrency", 8, "parallel RPC reads")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("checkpoint-dir", "./data/checkpoints", "checkpoint directory")
	flags.String("uniswapv2-factory", "", "UniswapV2 factory address override")
	flags.String("uniswapv3-factory", "", "UniswapV3 factory address override")
	flags.String("wrapped-native", "", "wrapped native token address override")
	flags.Int("decimals-cache-size", 0, "bounded decimals cache size, 0 means unbounded")
	flags.String("redis-url", "", "optional Redis URL for shared token decimals")
	flags.Duration("redis-ttl", 0, "Redis decimals TTL, 0 means no expiry")
	flags.String("pg-dsn", "", "optional Postgres DSN, replaces file output and checkpoints")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
