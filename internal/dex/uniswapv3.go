package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/model"
)

// UniswapV3PoolCreated is a decoded factory PoolCreated log.
type UniswapV3PoolCreated struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint64
	TickSpacing int32
	Pool        common.Address
	BlockNumber uint64
}

func (e UniswapV3PoolCreated) Protocol() model.Protocol { return model.ProtocolUniswapV3 }
func (e UniswapV3PoolCreated) PoolAddress() common.Address { return e.Pool }
func (e UniswapV3PoolCreated) Block() uint64 { return e.BlockNumber }
func (e UniswapV3PoolCreated) TokenAddresses() []common.Address {
	return []common.Address{e.Token0, e.Token1}
}

// UniswapV3 decodes UniswapV3 factory and pool logs.
type UniswapV3 struct {
	factory common.Address
}

func NewUniswapV3(factory common.Address) *UniswapV3 {
	return &UniswapV3{factory: factory}
}

func (d *UniswapV3) Protocol() model.Protocol { return model.ProtocolUniswapV3 }
func (d *UniswapV3) CreationTopic() common.Hash { return UniswapV3PoolCreatedTopic }
func (d *UniswapV3) SwapTopic() common.Hash { return UniswapV3SwapTopic }
func (d *UniswapV3) Factory() common.Address { return d.factory }

func (d *UniswapV3) EventFilter(fromBlock uint64) FilterSpec {
	return FilterSpec{Address: d.factory, Topic: UniswapV3PoolCreatedTopic, FromBlock: fromBlock}
}

// ParseCreationLog decodes PoolCreated. The fee is the uint24 packed in the
// last three bytes of topic 3; the pool is the second data word. Tick spacing
// is read from the low three bytes of the first word.
func (d *UniswapV3) ParseCreationLog(lg types.Log) (CreationEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", model.ErrMalformedLog)
	}
	if lg.Topics[0] != UniswapV3PoolCreatedTopic {
		return nil, fmt.Errorf("%w: %s is not PoolCreated", model.ErrUnexpectedEventSignature, lg.Topics[0].Hex())
	}
	if len(lg.Topics) < 4 {
		return nil, fmt.Errorf("%w: PoolCreated needs 4 topics, got %d", model.ErrMalformedLog, len(lg.Topics))
	}
	if len(lg.Data) < 64 {
		return nil, fmt.Errorf("%w: PoolCreated data is %d bytes", model.ErrMalformedLog, len(lg.Data))
	}

	feeTopic := lg.Topics[3].Bytes()
	fee := new(big.Int).SetBytes(feeTopic[29:32]).Uint64()

	return UniswapV3PoolCreated{
		Token0:      wordAddress(lg.Topics[1].Bytes()),
		Token1:      wordAddress(lg.Topics[2].Bytes()),
		Fee:         fee,
		TickSpacing: wordInt24(lg.Data[:32]),
		Pool:        wordAddress(lg.Data[32:64]),
		BlockNumber: lg.BlockNumber,
	}, nil
}

// DecodeSwap decodes a pool Swap log and normalizes the signed pool deltas:
// a positive amount0 means token0 was paid in and token1 paid out, otherwise
// the roles are reversed. Amounts are emitted as magnitudes.
func (d *UniswapV3) DecodeSwap(ctx context.Context, lg types.Log, caller ContractCaller) (model.UniswapV3SwapEvent, error) {
	if len(lg.Topics) == 0 {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: no topics", model.ErrMalformedLog)
	}
	if lg.Topics[0] != UniswapV3SwapTopic {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: %s is not a UniswapV3 Swap", model.ErrUnexpectedEventSignature, lg.Topics[0].Hex())
	}
	if len(lg.Data) < 5*32 {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: Swap data is %d bytes", model.ErrMalformedLog, len(lg.Data))
	}

	values, err := uniswapV3PoolABI.Events["Swap"].Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: unpack Swap: %v", model.ErrMalformedLog, err)
	}
	if len(values) != 5 {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: unexpected swap values: %d", model.ErrMalformedLog, len(values))
	}
	ints := make([]*big.Int, 5)
	for i, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: %v", model.ErrMalformedLog, err)
		}
		ints[i] = n
	}
	amount0, amount1 := ints[0], ints[1]
	tick, err := int24FromBig(ints[4])
	if err != nil {
		return model.UniswapV3SwapEvent{}, fmt.Errorf("%w: tick: %v", model.ErrMalformedLog, err)
	}

	token0, token1, err := readTokenPair(ctx, caller, lg.Address, uniswapV3PoolABI)
	if err != nil {
		return model.UniswapV3SwapEvent{}, err
	}

	event := model.UniswapV3SwapEvent{
		Pool:         lg.Address,
		Token0:       token0,
		Token1:       token1,
		SqrtPriceX96: ints[2],
		Liquidity:    ints[3],
		Tick:         tick,
	}
	if amount0.Sign() > 0 {
		event.ZeroForOne = true
		event.TokenIn, event.TokenOut = token0, token1
		event.AmountIn = new(big.Int).Abs(amount0)
		event.AmountOut = new(big.Int).Abs(amount1)
	} else {
		event.TokenIn, event.TokenOut = token1, token0
		event.AmountIn = new(big.Int).Abs(amount1)
		event.AmountOut = new(big.Int).Abs(amount0)
	}
	return event, nil
}

func (d *UniswapV3) ParseSwapLog(ctx context.Context, lg types.Log, caller ContractCaller) (model.SwapEvent, error) {
	event, err := d.DecodeSwap(ctx, lg, caller)
	if err != nil {
		return model.SwapEvent{}, err
	}
	return event.ToSwapEvent(), nil
}

func (d *UniswapV3) CreationEventToPool(ctx context.Context, event CreationEvent, decimals DecimalsSource) (model.Pool, error) {
	created, ok := event.(UniswapV3PoolCreated)
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %T is not a PoolCreated event", model.ErrUnexpectedEventSignature, event)
	}
	tokens, err := resolveTokens(ctx, decimals, created.Token0, created.Token1)
	if err != nil {
		return model.Pool{}, err
	}
	return model.Pool{
		Protocol: model.ProtocolUniswapV3,
		Address:  created.Pool,
		Tokens:   tokens,
		Extra:    model.NewUniswapV3Extra(created.Fee),
	}, nil
}
