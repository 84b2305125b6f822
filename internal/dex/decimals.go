package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"poolScope/internal/cache"
	"poolScope/internal/model"
)

const nativeDecimals uint8 = 18

// DecimalsCache is the in-process memo. Add must keep the first value.
type DecimalsCache interface {
	Get(address common.Address) (uint8, bool)
	Add(address common.Address, decimals uint8)
}

// DecimalsStore is an optional shared tier consulted before the chain.
type DecimalsStore interface {
	GetDecimals(ctx context.Context, address common.Address) (uint8, bool, error)
	SetDecimals(ctx context.Context, address common.Address, decimals uint8) error
}

// DecimalsResolver resolves and memoizes ERC20 decimals. Concurrent lookups
// of the same uncached token share one chain read. Failures are not cached.
type DecimalsResolver struct {
	caller        ContractCaller
	wrappedNative common.Address
	cache         DecimalsCache
	store         DecimalsStore
	logger        *zap.Logger
	group         singleflight.Group
}

type ResolverOption func(*DecimalsResolver)

func WithDecimalsCache(c DecimalsCache) ResolverOption {
	return func(r *DecimalsResolver) { r.cache = c }
}

func WithDecimalsStore(s DecimalsStore) ResolverOption {
	return func(r *DecimalsResolver) { r.store = s }
}

func WithWrappedNative(address common.Address) ResolverOption {
	return func(r *DecimalsResolver) { r.wrappedNative = address }
}

// WithResolverLogger sets the logger used for shared store failures.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *DecimalsResolver) { r.logger = logger }
}

func NewDecimalsResolver(caller ContractCaller, opts ...ResolverOption) *DecimalsResolver {
	r := &DecimalsResolver{
		caller:        caller,
		wrappedNative: DefaultWrappedNative,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewMap()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Decimals returns the token's decimals. The zero address and the wrapped
// native token are 18 without a chain read.
func (r *DecimalsResolver) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	if token == (common.Address{}) || token == r.wrappedNative {
		return nativeDecimals, nil
	}
	if d, ok := r.cache.Get(token); ok {
		return d, nil
	}

	v, err, _ := r.group.Do(token.Hex(), func() (interface{}, error) {
		if d, ok := r.cache.Get(token); ok {
			return d, nil
		}
		if d, ok := r.fromStore(ctx, token); ok {
			r.cache.Add(token, d)
			return d, nil
		}

		d, err := r.fetch(ctx, token)
		if err != nil {
			return uint8(0), err
		}
		r.cache.Add(token, d)
		if r.store != nil {
			if err := r.store.SetDecimals(ctx, token, d); err != nil {
				r.logger.Warn("store decimals failed", zap.String("token", token.Hex()), zap.Error(err))
			}
		}
		return d, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint8), nil
}

func (r *DecimalsResolver) fromStore(ctx context.Context, token common.Address) (uint8, bool) {
	if r.store == nil {
		return 0, false
	}
	d, ok, err := r.store.GetDecimals(ctx, token)
	if err != nil {
		r.logger.Warn("load decimals failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}
	return d, ok
}

func (r *DecimalsResolver) fetch(ctx context.Context, token common.Address) (uint8, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, r.caller, token, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	d, err := asUint8(values[0])
	if err != nil {
		return 0, &model.RPCError{Address: token, Call: "decimals", Err: err}
	}
	return d, nil
}
