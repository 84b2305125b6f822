package storage

import (
	"context"

	"poolScope/internal/model"
)

// PoolSink persists discovered pools. Writing a pool that is already stored
// must not create a duplicate.
type PoolSink interface {
	PutPools(ctx context.Context, pools []model.Pool) error
}

// SwapSink persists decoded swaps.
type SwapSink interface {
	PutSwaps(ctx context.Context, swaps []model.SwapRecord) error
}

// DecodeErrorSink records logs that were skipped.
type DecodeErrorSink interface {
	PutDecodeErrors(ctx context.Context, records []model.DecodeError) error
}
