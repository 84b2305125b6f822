package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"poolScope/internal/model"
)

var (
	selToken0   = hexutil.Encode(crypto.Keccak256([]byte("token0()"))[:4])
	selToken1   = hexutil.Encode(crypto.Keccak256([]byte("token1()"))[:4])
	selDecimals = hexutil.Encode(crypto.Keccak256([]byte("decimals()"))[:4])
)

// fakeChain serves canned logs and contract reads.
type fakeChain struct {
	mu        sync.Mutex
	logs      []types.Log
	latest    uint64
	responses map[common.Address]map[string][]byte
	callErr   error
	queries   int
	calls     int
}

func newFakeChain(latest uint64) *fakeChain {
	return &fakeChain{latest: latest, responses: make(map[common.Address]map[string][]byte)}
}

func (f *fakeChain) ChainID(ctx context.Context) (uint64, error) { return 1, nil }

func (f *fakeChain) LatestBlockNumber(ctx context.Context) (uint64, error) { return f.latest, nil }

func (f *fakeChain) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	return 1_700_000_000 + number, nil
}

func (f *fakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++

	var out []types.Log
	for _, lg := range f.logs {
		if q.FromBlock != nil && lg.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && lg.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, lg.Address) {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 {
			if len(lg.Topics) == 0 || !containsHash(q.Topics[0], lg.Topics[0]) {
				continue
			}
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	resp, ok := f.responses[*msg.To][hexutil.Encode(msg.Data[:4])]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	return resp, nil
}

func (f *fakeChain) respond(contract common.Address, selector string, word []byte) {
	if f.responses[contract] == nil {
		f.responses[contract] = make(map[string][]byte)
	}
	f.responses[contract][selector] = common.LeftPadBytes(word, 32)
}

func (f *fakeChain) withPoolTokens(pool, token0, token1 common.Address) {
	f.respond(pool, selToken0, token0.Bytes())
	f.respond(pool, selToken1, token1.Bytes())
}

func (f *fakeChain) withDecimals(token common.Address, decimals uint8) {
	f.respond(token, selDecimals, []byte{decimals})
}

func containsAddress(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, h common.Hash) bool {
	for _, x := range list {
		if x == h {
			return true
		}
	}
	return false
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func signedWord(v int64) []byte {
	return math.U256Bytes(big.NewInt(v))
}

func concat(words ...[]byte) []byte {
	var out []byte
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

type memoryPoolSink struct {
	mu    sync.Mutex
	pools []model.Pool
}

func (s *memoryPoolSink) PutPools(ctx context.Context, pools []model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools = append(s.pools, pools...)
	return nil
}

type memorySwapSink struct {
	mu     sync.Mutex
	swaps  []model.SwapRecord
	errors []model.DecodeError
}

func (s *memorySwapSink) PutSwaps(ctx context.Context, swaps []model.SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps = append(s.swaps, swaps...)
	return nil
}

func (s *memorySwapSink) PutDecodeErrors(ctx context.Context, records []model.DecodeError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, records...)
	return nil
}
