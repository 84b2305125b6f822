package config

import (
	"github.com/spf13/pflag"

	"poolScope/internal/model"
)

// PoolsConfig holds configuration for the pools command.
type PoolsConfig struct {
	Common
	FromBlock     uint64
	ToBlock       uint64
	Protocols     []model.Protocol
	Out           string
	CheckpointDir string
}

// LoadPools merges config file, environment variables, and flags into PoolsConfig.
func LoadPools(cfgFile string, flags *pflag.FlagSet) (PoolsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":            "./data/pools.txt",
		"checkpoint-dir": "./data/checkpoints",
	})
	if err != nil {
		return PoolsConfig{}, err
	}

	common, err := loadCommon(v)
	if err != nil {
		return PoolsConfig{}, err
	}

	protocols, err := model.ParseProtocols(getStringSlice(v, "protocols"))
	if err != nil {
		return PoolsConfig{}, err
	}

	cfg := PoolsConfig{
		Common:        common,
		FromBlock:     v.GetUint64("from"),
		ToBlock:       v.GetUint64("to"),
		Protocols:     protocols,
		Out:           v.GetString("out"),
		CheckpointDir: v.GetString("checkpoint-dir"),
	}
	if err := checkRange(cfg.FromBlock, cfg.ToBlock); err != nil {
		return PoolsConfig{}, err
	}
	return cfg, nil
}
