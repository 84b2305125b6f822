package storage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"poolScope/internal/model"
)

// PoolFile stores pools one canonical text line each. Pools already in the
// file are skipped, so a restarted sync does not duplicate lines.
type PoolFile struct {
	path  string
	mu    sync.Mutex
	known map[common.Address]struct{}
}

// OpenPoolFile loads the pools already stored at path.
func OpenPoolFile(path string) (*PoolFile, error) {
	existing, err := LoadPools(path)
	if err != nil {
		return nil, err
	}
	known := make(map[common.Address]struct{}, len(existing))
	for _, p := range existing {
		known[p.Address] = struct{}{}
	}
	return &PoolFile{path: path, known: known}, nil
}

// Len returns the number of pools in the file.
func (f *PoolFile) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.known)
}

func (f *PoolFile) PutPools(ctx context.Context, pools []model.Pool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(pools))
	added := make([]common.Address, 0, len(pools))
	for _, p := range pools {
		if _, ok := f.known[p.Address]; ok {
			continue
		}
		line, err := p.Encode()
		if err != nil {
			return fmt.Errorf("encode pool %s: %w", p.Address.Hex(), err)
		}
		lines = append(lines, line)
		added = append(added, p.Address)
		f.known[p.Address] = struct{}{}
	}
	if len(lines) == 0 {
		return nil
	}

	file, err := openAppend(f.path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			f.forget(added)
			return fmt.Errorf("write pool: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		f.forget(added)
		return fmt.Errorf("flush pools: %w", err)
	}
	return nil
}

func (f *PoolFile) forget(addresses []common.Address) {
	for _, a := range addresses {
		delete(f.known, a)
	}
}

// LoadPools reads a pool file. A missing file is empty.
func LoadPools(path string) ([]model.Pool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open pool file: %w", err)
	}
	defer file.Close()

	var pools []model.Pool
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p, err := model.ParsePool(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		pools = append(pools, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}
	return pools, nil
}
