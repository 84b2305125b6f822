package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"poolScope/internal/model"
)

// ContractCaller executes read-only contract calls. *chain.Client and
// ethclient.Client both satisfy it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// callMethod calls a no-argument view method at the latest block. Call and
// unpack failures come back as *model.RPCError.
func callMethod(ctx context.Context, caller ContractCaller, contract common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	if caller == nil {
		return nil, &model.RPCError{Address: contract, Call: method, Err: fmt.Errorf("contract caller is nil")}
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, &model.RPCError{Address: contract, Call: method, Err: err}
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, &model.RPCError{Address: contract, Call: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(values) == 0 {
		return nil, &model.RPCError{Address: contract, Call: method, Err: fmt.Errorf("empty result")}
	}
	return values, nil
}

// readTokenPair reads token0() and token1() from a pool contract.
func readTokenPair(ctx context.Context, caller ContractCaller, pool common.Address, parsed abi.ABI) (common.Address, common.Address, error) {
	values, err := callMethod(ctx, caller, pool, parsed, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, &model.RPCError{Address: pool, Call: "token0", Err: err}
	}

	values, err = callMethod(ctx, caller, pool, parsed, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, &model.RPCError{Address: pool, Call: "token1", Err: err}
	}
	return token0, token1, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v.String())
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}

// wordInt24 sign-extends the low three bytes of a 32-byte word.
func wordInt24(word []byte) int32 {
	v := int32(word[29])<<16 | int32(word[30])<<8 | int32(word[31])
	if v&0x800000 != 0 {
		v -= 1 << 24
	}
	return v
}

// wordAddress returns the low 20 bytes of a 32-byte word.
func wordAddress(word []byte) common.Address {
	return common.BytesToAddress(word[12:32])
}
