package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Ethereum mainnet deployments.
var (
	DefaultUniswapV2Factory = mustAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	DefaultUniswapV3Factory = mustAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	DefaultWrappedNative    = mustAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

// FilterSpec selects the creation logs of one factory from FromBlock onwards.
type FilterSpec struct {
	Address   common.Address
	Topic     common.Hash
	FromBlock uint64
}

// Query returns an open-ended log query.
func (f FilterSpec) Query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(f.FromBlock),
		Addresses: []common.Address{f.Address},
		Topics:    [][]common.Hash{{f.Topic}},
	}
}

// RangeQuery bounds the query to [FromBlock, to].
func (f FilterSpec) RangeQuery(to uint64) ethereum.FilterQuery {
	q := f.Query()
	q.ToBlock = new(big.Int).SetUint64(to)
	return q
}

// WithFrom returns a copy starting at from.
func (f FilterSpec) WithFrom(from uint64) FilterSpec {
	f.FromBlock = from
	return f
}

func mustAddress(hex string) common.Address {
	if !common.IsHexAddress(hex) {
		panic(fmt.Sprintf("invalid address constant %q", hex))
	}
	return common.HexToAddress(hex)
}
