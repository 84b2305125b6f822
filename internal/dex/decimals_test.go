package dex

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"poolScope/internal/cache"
	"poolScope/internal/model"
)

type memStore struct {
	mu      sync.Mutex
	data    map[common.Address]uint8
	readErr error
	writes  int
}

func (s *memStore) GetDecimals(ctx context.Context, address common.Address) (uint8, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return 0, false, s.readErr
	}
	d, ok := s.data[address]
	return d, ok, nil
}

func (s *memStore) SetDecimals(ctx context.Context, address common.Address, decimals uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[common.Address]uint8)
	}
	s.data[address] = decimals
	s.writes++
	return nil
}

// missSignalCache reports every cache miss on misses.
type missSignalCache struct {
	*cache.Map
	misses chan struct{}
}

func (c missSignalCache) Get(address common.Address) (uint8, bool) {
	d, ok := c.Map.Get(address)
	if !ok {
		c.misses <- struct{}{}
	}
	return d, ok
}

func TestDecimalsSpecialAddresses(t *testing.T) {
	caller := newFakeCaller()
	r := NewDecimalsResolver(caller)
	ctx := context.Background()

	for _, token := range []common.Address{{}, DefaultWrappedNative} {
		d, err := r.Decimals(ctx, token)
		if err != nil || d != 18 {
			t.Fatalf("%s: expected 18, got %d err=%v", token.Hex(), d, err)
		}
	}
	if caller.callCount() != 0 {
		t.Fatalf("expected no chain reads, got %d", caller.callCount())
	}

	custom := common.HexToAddress("0x4200000000000000000000000000000000000006")
	r = NewDecimalsResolver(caller, WithWrappedNative(custom))
	if d, err := r.Decimals(ctx, custom); err != nil || d != 18 {
		t.Fatalf("custom wrapped native: expected 18, got %d err=%v", d, err)
	}
	if caller.callCount() != 0 {
		t.Fatalf("expected no chain reads, got %d", caller.callCount())
	}
}

func TestDecimalsMemoized(t *testing.T) {
	caller := newFakeCaller().withDecimals(testToken0, 6)
	r := NewDecimalsResolver(caller)

	for i := 0; i < 3; i++ {
		d, err := r.Decimals(context.Background(), testToken0)
		if err != nil || d != 6 {
			t.Fatalf("call %d: expected 6, got %d err=%v", i, d, err)
		}
	}
	if caller.callCount() != 1 {
		t.Fatalf("expected one chain read, got %d", caller.callCount())
	}
}

func TestDecimalsFailureNotCached(t *testing.T) {
	caller := newFakeCaller().withDecimals(testToken0, 8)
	caller.setErr(errors.New("503 service unavailable"))
	r := NewDecimalsResolver(caller)

	_, err := r.Decimals(context.Background(), testToken0)
	var rpcErr *model.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected rpc error, got %v", err)
	}
	if rpcErr.Address != testToken0 || rpcErr.Call != "decimals" {
		t.Fatalf("unexpected rpc error: %+v", rpcErr)
	}

	caller.setErr(nil)
	d, err := r.Decimals(context.Background(), testToken0)
	if err != nil || d != 8 {
		t.Fatalf("expected 8 after recovery, got %d err=%v", d, err)
	}
	if caller.callCount() != 2 {
		t.Fatalf("expected two chain reads, got %d", caller.callCount())
	}
}

func TestDecimalsSingleFlight(t *testing.T) {
	const callers = 4

	caller := newFakeCaller().withDecimals(testToken0, 6)
	caller.entered = make(chan struct{}, 1)
	caller.release = make(chan struct{})
	c := missSignalCache{Map: cache.NewMap(), misses: make(chan struct{}, 4*callers)}
	r := NewDecimalsResolver(caller, WithDecimalsCache(c))

	var (
		wg      sync.WaitGroup
		results [callers]uint8
		errs    [callers]error
	)
	run := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.Decimals(context.Background(), testToken0)
		}()
	}

	// The first caller misses before and inside the flight, then blocks in
	// the chain read.
	run(0)
	<-caller.entered
	<-c.misses
	<-c.misses

	// Every other caller misses the cache while the read is still blocked.
	for i := 1; i < callers; i++ {
		run(i)
	}
	for i := 1; i < callers; i++ {
		<-c.misses
	}
	close(caller.release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil || results[i] != 6 {
			t.Fatalf("caller %d: expected 6, got %d err=%v", i, results[i], errs[i])
		}
	}
	if caller.callCount() != 1 {
		t.Fatalf("expected one chain read, got %d", caller.callCount())
	}
}

func TestDecimalsLRUCache(t *testing.T) {
	lru, err := cache.NewLRU(1)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	caller := newFakeCaller().withDecimals(testToken0, 6).withDecimals(testToken1, 9)
	r := NewDecimalsResolver(caller, WithDecimalsCache(lru))
	ctx := context.Background()

	for _, token := range []common.Address{testToken0, testToken1} {
		if _, err := r.Decimals(ctx, token); err != nil {
			t.Fatalf("decimals %s: %v", token.Hex(), err)
		}
	}
	d, err := r.Decimals(ctx, testToken0)
	if err != nil || d != 6 {
		t.Fatalf("expected 6, got %d err=%v", d, err)
	}
	if caller.callCount() != 3 {
		t.Fatalf("evicted token should be read again, got %d reads", caller.callCount())
	}
}

func TestDecimalsStoreTier(t *testing.T) {
	store := &memStore{data: map[common.Address]uint8{testToken0: 12}}
	caller := newFakeCaller().withDecimals(testToken1, 9)
	r := NewDecimalsResolver(caller, WithDecimalsStore(store))
	ctx := context.Background()

	if d, err := r.Decimals(ctx, testToken0); err != nil || d != 12 {
		t.Fatalf("expected stored 12, got %d err=%v", d, err)
	}
	if caller.callCount() != 0 {
		t.Fatalf("expected no chain reads, got %d", caller.callCount())
	}

	if d, err := r.Decimals(ctx, testToken1); err != nil || d != 9 {
		t.Fatalf("expected 9, got %d err=%v", d, err)
	}
	if store.writes != 1 {
		t.Fatalf("expected one store write, got %d", store.writes)
	}

	store.readErr = errors.New("redis down")
	other := newFakeCaller().withDecimals(testToken0, 6)
	r = NewDecimalsResolver(other, WithDecimalsStore(store))
	if d, err := r.Decimals(ctx, testToken0); err != nil || d != 6 {
		t.Fatalf("store failure should fall back to the chain, got %d err=%v", d, err)
	}
}
