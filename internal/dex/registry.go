package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/model"
)

// Registry dispatches logs to protocol decoders by signature topic.
type Registry struct {
	bySwapTopic     map[common.Hash]ProtocolDecoder
	byCreationTopic map[common.Hash]ProtocolDecoder
	byProtocol      map[model.Protocol]ProtocolDecoder
	order           []model.Protocol
}

// RegistryConfig overrides the default deployment addresses.
type RegistryConfig struct {
	UniswapV2Factory common.Address
	UniswapV3Factory common.Address
}

// NewRegistry registers decoders. Two decoders may not share a protocol or
// any signature topic.
func NewRegistry(decoders ...ProtocolDecoder) (*Registry, error) {
	r := &Registry{
		bySwapTopic:     make(map[common.Hash]ProtocolDecoder, len(decoders)),
		byCreationTopic: make(map[common.Hash]ProtocolDecoder, len(decoders)),
		byProtocol:      make(map[model.Protocol]ProtocolDecoder, len(decoders)),
	}
	for _, d := range decoders {
		if d == nil {
			return nil, fmt.Errorf("nil decoder")
		}
		protocol := d.Protocol()
		if _, ok := r.byProtocol[protocol]; ok {
			return nil, fmt.Errorf("protocol %s registered twice", protocol)
		}
		creation, swap := d.CreationTopic(), d.SwapTopic()
		if creation == swap {
			return nil, fmt.Errorf("protocol %s uses %s for both creation and swap", protocol, swap.Hex())
		}
		for _, topic := range []common.Hash{creation, swap} {
			if other := r.claimedBy(topic); other != nil {
				return nil, fmt.Errorf("signature %s claimed by %s and %s", topic.Hex(), other.Protocol(), protocol)
			}
		}
		r.byCreationTopic[creation] = d
		r.bySwapTopic[swap] = d
		r.byProtocol[protocol] = d
		r.order = append(r.order, protocol)
	}
	return r, nil
}

// NewDefaultRegistry registers every supported protocol. Zero addresses in
// cfg fall back to the mainnet factories.
func NewDefaultRegistry(cfg RegistryConfig) (*Registry, error) {
	v2 := cfg.UniswapV2Factory
	if v2 == (common.Address{}) {
		v2 = DefaultUniswapV2Factory
	}
	v3 := cfg.UniswapV3Factory
	if v3 == (common.Address{}) {
		v3 = DefaultUniswapV3Factory
	}
	return NewRegistry(NewUniswapV2(v2), NewUniswapV3(v3))
}

// Protocols returns the registered protocols in registration order.
func (r *Registry) Protocols() []model.Protocol {
	out := make([]model.Protocol, len(r.order))
	copy(out, r.order)
	return out
}

// SwapTopics returns every registered swap signature.
func (r *Registry) SwapTopics() []common.Hash {
	out := make([]common.Hash, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.byProtocol[p].SwapTopic())
	}
	return out
}

// Factories maps each registered protocol to the factory it watches.
func (r *Registry) Factories() map[model.Protocol]common.Address {
	out := make(map[model.Protocol]common.Address, len(r.order))
	for _, p := range r.order {
		out[p] = r.byProtocol[p].Factory()
	}
	return out
}

func (r *Registry) Decoder(protocol model.Protocol) (ProtocolDecoder, error) {
	d, ok := r.byProtocol[protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedProtocol, protocol)
	}
	return d, nil
}

func (r *Registry) claimedBy(topic common.Hash) ProtocolDecoder {
	if d, ok := r.bySwapTopic[topic]; ok {
		return d
	}
	return r.byCreationTopic[topic]
}

// ProtocolForLog finds the decoder whose swap signature matches the log's
// topic0. Creation signatures do not match.
func (r *Registry) ProtocolForLog(lg types.Log) (ProtocolDecoder, error) {
	return lookupTopic(r.bySwapTopic, lg)
}

func (r *Registry) creationDecoderForLog(lg types.Log) (ProtocolDecoder, error) {
	return lookupTopic(r.byCreationTopic, lg)
}

func lookupTopic(table map[common.Hash]ProtocolDecoder, lg types.Log) (ProtocolDecoder, error) {
	if len(lg.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", model.ErrMalformedLog)
	}
	d, ok := table[lg.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: topic %s", model.ErrUnsupportedProtocol, lg.Topics[0].Hex())
	}
	return d, nil
}

func (r *Registry) EventFilter(protocol model.Protocol, fromBlock uint64) (FilterSpec, error) {
	d, err := r.Decoder(protocol)
	if err != nil {
		return FilterSpec{}, err
	}
	return d.EventFilter(fromBlock), nil
}

// DecodeCreationLog dispatches a factory creation log.
func (r *Registry) DecodeCreationLog(lg types.Log) (CreationEvent, error) {
	d, err := r.creationDecoderForLog(lg)
	if err != nil {
		return nil, err
	}
	return d.ParseCreationLog(lg)
}

// DecodeSwapLog dispatches a pool swap log.
func (r *Registry) DecodeSwapLog(ctx context.Context, lg types.Log, caller ContractCaller) (model.SwapEvent, error) {
	d, err := r.ProtocolForLog(lg)
	if err != nil {
		return model.SwapEvent{}, err
	}
	return d.ParseSwapLog(ctx, lg, caller)
}

func (r *Registry) CreationEventToPool(ctx context.Context, event CreationEvent, decimals DecimalsSource) (model.Pool, error) {
	if event == nil {
		return model.Pool{}, fmt.Errorf("nil creation event")
	}
	d, err := r.Decoder(event.Protocol())
	if err != nil {
		return model.Pool{}, err
	}
	return d.CreationEventToPool(ctx, event, decimals)
}
