package cache

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// Map is an unbounded in-process decimals cache.
type Map struct {
	mu   sync.RWMutex
	data map[common.Address]uint8
}

func NewMap() *Map {
	return &Map{data: make(map[common.Address]uint8)}
}

func (c *Map) Get(address common.Address) (uint8, bool) {
	c.mu.RLock()
	decimals, ok := c.data[address]
	c.mu.RUnlock()
	return decimals, ok
}

// Add keeps the first value stored for an address.
func (c *Map) Add(address common.Address, decimals uint8) {
	c.mu.Lock()
	if _, ok := c.data[address]; !ok {
		c.data[address] = decimals
	}
	c.mu.Unlock()
}

func (c *Map) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// LRU is a decimals cache bounded to a fixed number of tokens.
type LRU struct {
	lru *lru.Cache
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, fmt.Errorf("lru size must be positive, got %d", size)
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{lru: c}, nil
}

func (c *LRU) Get(address common.Address) (uint8, bool) {
	v, ok := c.lru.Get(address)
	if !ok {
		return 0, false
	}
	decimals, ok := v.(uint8)
	return decimals, ok
}

// Add keeps the first value stored for an address while it stays resident.
func (c *LRU) Add(address common.Address, decimals uint8) {
	c.lru.ContainsOrAdd(address, decimals)
}

func (c *LRU) Len() int {
	return c.lru.Len()
}
