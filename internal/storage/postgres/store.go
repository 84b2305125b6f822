package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address TEXT PRIMARY KEY,
	protocol     TEXT NOT NULL,
	tokens       JSONB NOT NULL,
	extra        JSONB NOT NULL,
	encoded      TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS swaps (
	tx_hash      TEXT NOT NULL,
	log_index    BIGINT NOT NULL,
	chain_id     BIGINT NOT NULL,
	block_number BIGINT NOT NULL,
	protocol     TEXT NOT NULL,
	pool_address TEXT NOT NULL,
	record       JSONB NOT NULL,
	PRIMARY KEY (tx_hash, log_index)
);
CREATE TABLE IF NOT EXISTS indexer_state (
	name                 TEXT PRIMARY KEY,
	last_processed_block BIGINT NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store persists pools, swaps and sync checkpoints in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutPools upserts pools keyed by address.
func (s *Store) PutPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		args, err := poolArgs(p)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO pools (pool_address, protocol, tokens, extra, encoded, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				protocol = EXCLUDED.protocol,
				tokens = EXCLUDED.tokens,
				extra = EXCLUDED.extra,
				encoded = EXCLUDED.encoded,
				updated_at = now()
		`, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert pool: %w", err)
		}
	}
	return nil
}

// LoadPools returns every stored pool.
func (s *Store) LoadPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `SELECT encoded FROM pools ORDER BY created_at, pool_address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.Pool
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, err
		}
		p, err := model.ParsePool(encoded)
		if err != nil {
			return nil, fmt.Errorf("stored pool %q: %w", encoded, err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// PutSwaps inserts swaps, ignoring logs already stored.
func (s *Store) PutSwaps(ctx context.Context, swaps []model.SwapRecord) error {
	if len(swaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, swap := range swaps {
		args, err := swapArgs(swap)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO swaps (tx_hash, log_index, chain_id, block_number, protocol, pool_address, record)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range swaps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert swap: %w", err)
		}
	}
	return nil
}

// Load returns the last processed block for a checkpoint key.
func (s *Store) Load(ctx context.Context, key string) (uint64, bool, error) {
	if key == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, key)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// Save upserts the last processed block for a checkpoint key.
func (s *Store) Save(ctx context.Context, key string, block uint64) error {
	if key == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, key, int64(block))
	return err
}
