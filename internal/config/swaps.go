package config

import (
	"github.com/spf13/pflag"
)

// SwapsConfig holds configuration for the swaps command.
type SwapsConfig struct {
	Common
	FromBlock      uint64
	ToBlock        uint64
	Pools          []string
	Out            string
	Errors         string
	CheckpointDir  string
	WithDecimals   bool
	WithTimestamps bool
}

// LoadSwaps merges config file, environment variables, and flags into SwapsConfig.
func LoadSwaps(cfgFile string, flags *pflag.FlagSet) (SwapsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":             "./data/swaps.jsonl",
		"errors":          "./data/swap_errors.jsonl",
		"checkpoint-dir":  "./data/checkpoints",
		"with-decimals":   false,
		"with-timestamps": false,
	})
	if err != nil {
		return SwapsConfig{}, err
	}

	common, err := loadCommon(v)
	if err != nil {
		return SwapsConfig{}, err
	}

	cfg := SwapsConfig{
		Common:         common,
		FromBlock:      v.GetUint64("from"),
		ToBlock:        v.GetUint64("to"),
		Pools:          getStringSlice(v, "pool"),
		Out:            v.GetString("out"),
		Errors:         v.GetString("errors"),
		CheckpointDir:  v.GetString("checkpoint-dir"),
		WithDecimals:   v.GetBool("with-decimals"),
		WithTimestamps: v.GetBool("with-timestamps"),
	}
	if err := checkRange(cfg.FromBlock, cfg.ToBlock); err != nil {
		return SwapsConfig{}, err
	}
	return cfg, nil
}
