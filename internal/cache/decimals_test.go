package cache

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	tokenB = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestMapFirstWriteWins(t *testing.T) {
	c := NewMap()

	if _, ok := c.Get(tokenA); ok {
		t.Fatalf("expected miss on empty map")
	}

	c.Add(tokenA, 6)
	c.Add(tokenA, 18)
	d, ok := c.Get(tokenA)
	if !ok || d != 6 {
		t.Fatalf("expected first write 6, got %d ok=%v", d, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("unexpected len: %d", c.Len())
	}
}

func TestLRUEvicts(t *testing.T) {
	c, err := NewLRU(1)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}

	c.Add(tokenA, 6)
	c.Add(tokenA, 18)
	d, ok := c.Get(tokenA)
	if !ok || d != 6 {
		t.Fatalf("expected first write 6, got %d ok=%v", d, ok)
	}

	c.Add(tokenB, 18)
	if _, ok := c.Get(tokenA); ok {
		t.Fatalf("oldest entry should be evicted")
	}
	if c.Len() != 1 {
		t.Fatalf("unexpected len: %d", c.Len())
	}
}

func TestNewLRUInvalidSize(t *testing.T) {
	if _, err := NewLRU(0); err == nil {
		t.Fatalf("expected error for size 0")
	}
}

func TestDecimalsKey(t *testing.T) {
	if got := decimalsKey(tokenA); got != "decimals:a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Fatalf("unexpected key: %s", got)
	}
}
