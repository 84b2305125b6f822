package model

import "github.com/ethereum/go-ethereum/core/types"

// DecodeError records a log that was skipped during decoding.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}

func NewDecodeError(chainID uint64, lg types.Log, err error) DecodeError {
	rec := DecodeError{
		ChainID:     chainID,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    uint64(lg.Index),
		Address:     lg.Address.Hex(),
	}
	if len(lg.Topics) > 0 {
		rec.Topic0 = lg.Topics[0].Hex()
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
