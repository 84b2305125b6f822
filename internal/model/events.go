package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapEvent is the protocol agnostic view of a swap: which coins entered the
// pool and which left it, with non-negative amounts.
type SwapEvent struct {
	Protocol   Protocol
	Pool       common.Address
	CoinsIn    []common.Address
	CoinsOut   []common.Address
	AmountsIn  []*big.Int
	AmountsOut []*big.Int
}

// UniswapV2SwapEvent is a decoded UniswapV2 pair Swap log.
type UniswapV2SwapEvent struct {
	Pool       common.Address
	Token0     common.Address
	Token1     common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
}

// ToSwapEvent keeps the legs with a non-zero amount.
func (e UniswapV2SwapEvent) ToSwapEvent() SwapEvent {
	out := SwapEvent{Protocol: ProtocolUniswapV2, Pool: e.Pool}
	if e.Amount0In != nil && e.Amount0In.Sign() > 0 {
		out.CoinsIn = append(out.CoinsIn, e.Token0)
		out.AmountsIn = append(out.AmountsIn, new(big.Int).Set(e.Amount0In))
	}
	if e.Amount1In != nil && e.Amount1In.Sign() > 0 {
		out.CoinsIn = append(out.CoinsIn, e.Token1)
		out.AmountsIn = append(out.AmountsIn, new(big.Int).Set(e.Amount1In))
	}
	if e.Amount0Out != nil && e.Amount0Out.Sign() > 0 {
		out.CoinsOut = append(out.CoinsOut, e.Token0)
		out.AmountsOut = append(out.AmountsOut, new(big.Int).Set(e.Amount0Out))
	}
	if e.Amount1Out != nil && e.Amount1Out.Sign() > 0 {
		out.CoinsOut = append(out.CoinsOut, e.Token1)
		out.AmountsOut = append(out.AmountsOut, new(big.Int).Set(e.Amount1Out))
	}
	return out
}

// UniswapV3SwapEvent is a decoded UniswapV3 pool Swap log with the signed
// pool deltas already turned into an input leg and an output leg.
type UniswapV3SwapEvent struct {
	Pool         common.Address
	Token0       common.Address
	Token1       common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	AmountOut    *big.Int
	ZeroForOne   bool
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

func (e UniswapV3SwapEvent) ToSwapEvent() SwapEvent {
	return SwapEvent{
		Protocol:   ProtocolUniswapV3,
		Pool:       e.Pool,
		CoinsIn:    []common.Address{e.TokenIn},
		CoinsOut:   []common.Address{e.TokenOut},
		AmountsIn:  []*big.Int{new(big.Int).Set(e.AmountIn)},
		AmountsOut: []*big.Int{new(big.Int).Set(e.AmountOut)},
	}
}
