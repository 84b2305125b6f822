package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Common holds the settings shared by every command.
type Common struct {
	RPCURL            string
	BatchSize         uint64
	Concurrency       int
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
	UniswapV2Factory  string
	UniswapV3Factory  string
	WrappedNative     string
	DecimalsCacheSize int
	RedisURL          string
	RedisTTL          time.Duration
	PGDSN             string
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("concurrency", 8)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("decimals-cache-size", 0)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) (Common, error) {
	c := Common{
		RPCURL:            v.GetString("rpc"),
		BatchSize:         v.GetUint64("batch-size"),
		Concurrency:       v.GetInt("concurrency"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
		UniswapV2Factory:  strings.TrimSpace(v.GetString("uniswapv2-factory")),
		UniswapV3Factory:  strings.TrimSpace(v.GetString("uniswapv3-factory")),
		WrappedNative:     strings.TrimSpace(v.GetString("wrapped-native")),
		DecimalsCacheSize: v.GetInt("decimals-cache-size"),
		RedisURL:          v.GetString("redis-url"),
		RedisTTL:          v.GetDuration("redis-ttl"),
		PGDSN:             v.GetString("pg-dsn"),
	}
	return c, c.validate()
}

func (c Common) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch-size must be greater than zero")
	}
	if c.DecimalsCacheSize < 0 {
		return fmt.Errorf("decimals-cache-size must not be negative")
	}
	for name, value := range map[string]string{
		"uniswapv2-factory": c.UniswapV2Factory,
		"uniswapv3-factory": c.UniswapV3Factory,
		"wrapped-native":    c.WrappedNative,
	} {
		if value != "" && !common.IsHexAddress(value) {
			return fmt.Errorf("%s: invalid address %q", name, value)
		}
	}
	return nil
}

func checkRange(from, to uint64) error {
	if to != 0 && to < from {
		return fmt.Errorf("to block %d is before from block %d", to, from)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
