package dex

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/model"
)

// DecimalsSource returns the decimal precision of a token.
type DecimalsSource interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// CreationEvent is a decoded pool creation log.
type CreationEvent interface {
	Protocol() model.Protocol
	PoolAddress() common.Address
	TokenAddresses() []common.Address
	Block() uint64
}

// ProtocolDecoder decodes the creation and swap logs of one AMM protocol.
// Parsing is pure; only ParseSwapLog and CreationEventToPool touch the network.
type ProtocolDecoder interface {
	Protocol() model.Protocol
	CreationTopic() common.Hash
	SwapTopic() common.Hash
	Factory() common.Address
	EventFilter(fromBlock uint64) FilterSpec
	ParseCreationLog(lg types.Log) (CreationEvent, error)
	ParseSwapLog(ctx context.Context, lg types.Log, caller ContractCaller) (model.SwapEvent, error)
	CreationEventToPool(ctx context.Context, event CreationEvent, decimals DecimalsSource) (model.Pool, error)
}

func resolveTokens(ctx context.Context, decimals DecimalsSource, addresses ...common.Address) ([]model.Token, error) {
	tokens := make([]model.Token, 0, len(addresses))
	for _, addr := range addresses {
		d, err := decimals.Decimals(ctx, addr)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, model.NewToken(addr, d))
	}
	return tokens, nil
}
