package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/dex"
	"poolScope/internal/model"
)

func v2SwapLog(block uint64, index uint, pool common.Address, amounts ...int64) types.Log {
	words := make([][]byte, 0, len(amounts))
	for _, a := range amounts {
		words = append(words, signedWord(a))
	}
	return types.Log{
		Address:     pool,
		Topics:      []common.Hash{dex.UniswapV2SwapTopic, addressTopic(usdc), addressTopic(dai)},
		Data:        concat(words...),
		BlockNumber: block,
		TxHash:      common.BigToHash(common.Big1),
		Index:       index,
	}
}

func v3SwapLog(block uint64, index uint, pool common.Address, amount0, amount1 int64) types.Log {
	return types.Log{
		Address: pool,
		Topics:  []common.Hash{dex.UniswapV3SwapTopic, addressTopic(usdc), addressTopic(dai)},
		Data: concat(
			signedWord(amount0),
			signedWord(amount1),
			signedWord(1<<48),
			signedWord(1_000_000),
			signedWord(-200),
		),
		BlockNumber: block,
		TxHash:      common.BigToHash(common.Big2),
		Index:       index,
	}
}

func newTestSwapDecoder(t *testing.T, fc *fakeChain, sink *memorySwapSink, cfg SwapDecodeConfig) *SwapDecoder {
	t.Helper()
	registry, err := dex.NewDefaultRegistry(dex.RegistryConfig{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg.BatchSize = 10
	cfg.Concurrency = 4
	cfg.MaxRetries = 1
	cfg.RetryBackoff = time.Millisecond
	return NewSwapDecoder(cfg, fc, registry, dex.NewDecimalsResolver(fc), sink, sink, nil, nil)
}

func TestSwapDecoderRun(t *testing.T) {
	fc := newFakeChain(30)
	malformed := v3SwapLog(22, 3, v3Pool, 1, -1)
	malformed.Data = malformed.Data[:64]
	fc.logs = []types.Log{
		v2SwapLog(20, 0, v2Pair, 0, 2_000_000, 1_000_000_000_000_000_000, 0),
		v3SwapLog(21, 1, v3Pool, -500_000, 250_000_000_000_000_000),
		malformed,
	}
	fc.withPoolTokens(v2Pair, usdc, dex.DefaultWrappedNative)
	fc.withPoolTokens(v3Pool, usdc, dex.DefaultWrappedNative)
	fc.withDecimals(usdc, 6)

	sink := &memorySwapSink{}
	decoder := newTestSwapDecoder(t, fc, sink, SwapDecodeConfig{FromBlock: 15, WithDecimals: true, WithTimestamps: true})

	stats, err := decoder.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Logs != 3 || stats.Swaps != 2 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(sink.swaps) != 2 || len(sink.errors) != 1 {
		t.Fatalf("unexpected output: %d swaps, %d errors", len(sink.swaps), len(sink.errors))
	}

	v2 := sink.swaps[0]
	if v2.Protocol != model.ProtocolUniswapV2 || v2.Pool != v2Pair.Hex() {
		t.Fatalf("unexpected v2 swap: %+v", v2)
	}
	if v2.TokensIn[0] != dex.DefaultWrappedNative.Hex() || v2.AmountsIn[0] != "2000000" {
		t.Fatalf("unexpected v2 input: %+v", v2)
	}
	if v2.ValuesOut[0] != "1000000000000" {
		t.Fatalf("unexpected v2 output value: %v", v2.ValuesOut)
	}
	if v2.Timestamp != 1_700_000_020 {
		t.Fatalf("unexpected timestamp: %d", v2.Timestamp)
	}

	v3 := sink.swaps[1]
	if v3.Protocol != model.ProtocolUniswapV3 || v3.TokensIn[0] != dex.DefaultWrappedNative.Hex() || v3.TokensOut[0] != usdc.Hex() {
		t.Fatalf("unexpected v3 legs: %+v", v3)
	}
	if v3.ValuesIn[0] != "0.25" || v3.ValuesOut[0] != "0.5" {
		t.Fatalf("unexpected v3 values: %v %v", v3.ValuesIn, v3.ValuesOut)
	}

	failed := sink.errors[0]
	if failed.LogIndex != 3 || failed.Topic0 != dex.UniswapV3SwapTopic.Hex() {
		t.Fatalf("unexpected decode error record: %+v", failed)
	}
}

func TestSwapDecoderRPCFailureAborts(t *testing.T) {
	fc := newFakeChain(10)
	fc.logs = []types.Log{v3SwapLog(5, 0, v3Pool, 10, -20)}
	fc.callErr = errors.New("429 too many requests")

	sink := &memorySwapSink{}
	decoder := newTestSwapDecoder(t, fc, sink, SwapDecodeConfig{FromBlock: 1})

	_, err := decoder.Run(context.Background())
	if !errors.Is(err, model.ErrRPC) {
		t.Fatalf("expected rpc error, got %v", err)
	}
	if len(sink.swaps) != 0 || len(sink.errors) != 0 {
		t.Fatalf("nothing should be written for an aborted batch")
	}
}

func TestSwapDecoderPoolFilter(t *testing.T) {
	fc := newFakeChain(10)
	fc.logs = []types.Log{
		v2SwapLog(2, 0, v2Pair, 1, 0, 0, 1),
		v3SwapLog(3, 0, v3Pool, 10, -20),
	}
	fc.withPoolTokens(v3Pool, usdc, dai)

	sink := &memorySwapSink{}
	decoder := newTestSwapDecoder(t, fc, sink, SwapDecodeConfig{FromBlock: 1, ToBlock: 10, Pools: []common.Address{v3Pool}})

	stats, err := decoder.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Swaps != 1 || sink.swaps[0].Pool != v3Pool.Hex() {
		t.Fatalf("expected only the v3 pool swap: %+v", sink.swaps)
	}
	if sink.swaps[0].ValuesIn != nil {
		t.Fatalf("values should be omitted without decimals")
	}
}
