package indexer

import (
	"context"
	"testing"
)

func TestFileCheckpointStore(t *testing.T) {
	store := NewFileCheckpointStore(t.TempDir())
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "pools:uniswapv3"); err != nil || ok {
		t.Fatalf("expected empty checkpoint, got ok=%v err=%v", ok, err)
	}

	if err := store.Save(ctx, "pools:uniswapv3", 12369700); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "pools:uniswapv2", 10000900); err != nil {
		t.Fatalf("save: %v", err)
	}

	block, ok, err := store.Load(ctx, "pools:uniswapv3")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if block != 12369700 {
		t.Fatalf("unexpected block: %d", block)
	}

	block, _, _ = store.Load(ctx, "pools:uniswapv2")
	if block != 10000900 {
		t.Fatalf("keys should be independent, got %d", block)
	}
}

func TestResumeFrom(t *testing.T) {
	store := NewFileCheckpointStore(t.TempDir())
	ctx := context.Background()

	from, err := resumeFrom(ctx, store, "swaps", 100)
	if err != nil || from != 100 {
		t.Fatalf("expected 100, got %d (%v)", from, err)
	}

	if err := store.Save(ctx, "swaps", 150); err != nil {
		t.Fatalf("save: %v", err)
	}
	if from, _ := resumeFrom(ctx, store, "swaps", 100); from != 151 {
		t.Fatalf("expected 151, got %d", from)
	}
	if from, _ := resumeFrom(ctx, store, "swaps", 200); from != 200 {
		t.Fatalf("explicit start past checkpoint should win, got %d", from)
	}
	if from, _ := resumeFrom(ctx, nil, "swaps", 7); from != 7 {
		t.Fatalf("nil store should keep from, got %d", from)
	}
}
