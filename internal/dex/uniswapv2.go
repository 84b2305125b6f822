package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/model"
)

// UniswapV2Fee is the fixed 0.3% swap fee, in hundredths of a bip.
const UniswapV2Fee uint64 = 3000

// UniswapV2PairCreated is a decoded factory PairCreated log.
type UniswapV2PairCreated struct {
	Token0      common.Address
	Token1      common.Address
	Pair        common.Address
	PairIndex   *big.Int
	BlockNumber uint64
}

func (e UniswapV2PairCreated) Protocol() model.Protocol { return model.ProtocolUniswapV2 }
func (e UniswapV2PairCreated) PoolAddress() common.Address { return e.Pair }
func (e UniswapV2PairCreated) Block() uint64 { return e.BlockNumber }
func (e UniswapV2PairCreated) TokenAddresses() []common.Address {
	return []common.Address{e.Token0, e.Token1}
}

// UniswapV2 decodes UniswapV2 factory and pair logs.
type UniswapV2 struct {
	factory common.Address
}

// NewUniswapV2 returns a decoder for the factory at the given address.
func NewUniswapV2(factory common.Address) *UniswapV2 {
	return &UniswapV2{factory: factory}
}

func (d *UniswapV2) Protocol() model.Protocol { return model.ProtocolUniswapV2 }
func (d *UniswapV2) CreationTopic() common.Hash { return UniswapV2PairCreatedTopic }
func (d *UniswapV2) SwapTopic() common.Hash { return UniswapV2SwapTopic }
func (d *UniswapV2) Factory() common.Address { return d.factory }

func (d *UniswapV2) EventFilter(fromBlock uint64) FilterSpec {
	return FilterSpec{Address: d.factory, Topic: UniswapV2PairCreatedTopic, FromBlock: fromBlock}
}

// ParseCreationLog reads token0 and token1 from topics 1 and 2 and the pair
// from the first data word.
func (d *UniswapV2) ParseCreationLog(lg types.Log) (CreationEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", model.ErrMalformedLog)
	}
	if lg.Topics[0] != UniswapV2PairCreatedTopic {
		return nil, fmt.Errorf("%w: %s is not PairCreated", model.ErrUnexpectedEventSignature, lg.Topics[0].Hex())
	}
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("%w: PairCreated needs 3 topics, got %d", model.ErrMalformedLog, len(lg.Topics))
	}
	if len(lg.Data) < 32 {
		return nil, fmt.Errorf("%w: PairCreated data is %d bytes", model.ErrMalformedLog, len(lg.Data))
	}

	event := UniswapV2PairCreated{
		Token0:      wordAddress(lg.Topics[1].Bytes()),
		Token1:      wordAddress(lg.Topics[2].Bytes()),
		Pair:        wordAddress(lg.Data[:32]),
		BlockNumber: lg.BlockNumber,
	}
	if len(lg.Data) >= 64 {
		event.PairIndex = new(big.Int).SetBytes(lg.Data[32:64])
	}
	return event, nil
}

// DecodeSwap decodes a pair Swap log and reads the pair tokens from chain.
func (d *UniswapV2) DecodeSwap(ctx context.Context, lg types.Log, caller ContractCaller) (model.UniswapV2SwapEvent, error) {
	if len(lg.Topics) == 0 {
		return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: no topics", model.ErrMalformedLog)
	}
	if lg.Topics[0] != UniswapV2SwapTopic {
		return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: %s is not a UniswapV2 Swap", model.ErrUnexpectedEventSignature, lg.Topics[0].Hex())
	}
	if len(lg.Data) < 4*32 {
		return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: Swap data is %d bytes", model.ErrMalformedLog, len(lg.Data))
	}

	values, err := uniswapV2PairABI.Events["Swap"].Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: unpack Swap: %v", model.ErrMalformedLog, err)
	}
	if len(values) != 4 {
		return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: unexpected swap values: %d", model.ErrMalformedLog, len(values))
	}
	amounts := make([]*big.Int, 4)
	for i, v := range values {
		amount, err := asBigInt(v)
		if err != nil {
			return model.UniswapV2SwapEvent{}, fmt.Errorf("%w: %v", model.ErrMalformedLog, err)
		}
		amounts[i] = amount
	}

	token0, token1, err := readTokenPair(ctx, caller, lg.Address, uniswapV2PairABI)
	if err != nil {
		return model.UniswapV2SwapEvent{}, err
	}

	return model.UniswapV2SwapEvent{
		Pool:       lg.Address,
		Token0:     token0,
		Token1:     token1,
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
	}, nil
}

func (d *UniswapV2) ParseSwapLog(ctx context.Context, lg types.Log, caller ContractCaller) (model.SwapEvent, error) {
	event, err := d.DecodeSwap(ctx, lg, caller)
	if err != nil {
		return model.SwapEvent{}, err
	}
	return event.ToSwapEvent(), nil
}

func (d *UniswapV2) CreationEventToPool(ctx context.Context, event CreationEvent, decimals DecimalsSource) (model.Pool, error) {
	created, ok := event.(UniswapV2PairCreated)
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %T is not a PairCreated event", model.ErrUnexpectedEventSignature, event)
	}
	tokens, err := resolveTokens(ctx, decimals, created.Token0, created.Token1)
	if err != nil {
		return model.Pool{}, err
	}
	return model.Pool{
		Protocol: model.ProtocolUniswapV2,
		Address:  created.Pair,
		Tokens:   tokens,
		Extra:    model.NewUniswapV2Extra(UniswapV2Fee),
	}, nil
}
