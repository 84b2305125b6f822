package postgres

import (
	"encoding/json"
	"fmt"

	"poolScope/internal/model"
)

func poolArgs(p model.Pool) ([]interface{}, error) {
	encoded, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode pool %s: %w", p.Address.Hex(), err)
	}
	tokens, err := json.Marshal(p.Tokens)
	if err != nil {
		return nil, fmt.Errorf("marshal tokens: %w", err)
	}
	extra, err := json.Marshal(p.Extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra: %w", err)
	}
	return []interface{}{
		p.Address.Hex(),
		p.Protocol.String(),
		string(tokens),
		string(extra),
		encoded,
	}, nil
}

func swapArgs(swap model.SwapRecord) ([]interface{}, error) {
	record, err := json.Marshal(swap)
	if err != nil {
		return nil, fmt.Errorf("marshal swap: %w", err)
	}
	return []interface{}{
		swap.TxHash,
		int64(swap.LogIndex),
		int64(swap.ChainID),
		int64(swap.BlockNumber),
		swap.Protocol.String(),
		swap.Pool,
		string(record),
	}, nil
}
