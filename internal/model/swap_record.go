package model

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// SwapRecord is the JSONL representation of a decoded swap.
type SwapRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	LogIndex    uint64   `json:"log_index"`
	Timestamp   uint64   `json:"timestamp,omitempty"`
	Protocol    Protocol `json:"protocol"`
	Pool        string   `json:"pool"`
	TokensIn    []string `json:"tokens_in"`
	TokensOut   []string `json:"tokens_out"`
	AmountsIn   []string `json:"amounts_in"`
	AmountsOut  []string `json:"amounts_out"`
	// Human readable amounts, only set when decimals were resolved.
	ValuesIn  []string `json:"values_in,omitempty"`
	ValuesOut []string `json:"values_out,omitempty"`
}

// NewSwapRecord flattens a swap and the log it came from.
func NewSwapRecord(chainID uint64, lg types.Log, swap SwapEvent) SwapRecord {
	rec := SwapRecord{
		ChainID:     chainID,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    uint64(lg.Index),
		Protocol:    swap.Protocol,
		Pool:        swap.Pool.Hex(),
		TokensIn:    make([]string, 0, len(swap.CoinsIn)),
		TokensOut:   make([]string, 0, len(swap.CoinsOut)),
		AmountsIn:   bigStrings(swap.AmountsIn),
		AmountsOut:  bigStrings(swap.AmountsOut),
	}
	for _, c := range swap.CoinsIn {
		rec.TokensIn = append(rec.TokensIn, c.Hex())
	}
	for _, c := range swap.CoinsOut {
		rec.TokensOut = append(rec.TokensOut, c.Hex())
	}
	return rec
}

// SetValues fills the human readable amounts. decimalsIn and decimalsOut must
// line up with the swap legs.
func (r *SwapRecord) SetValues(swap SwapEvent, decimalsIn, decimalsOut []uint8) {
	r.ValuesIn = scaledStrings(swap.AmountsIn, decimalsIn)
	r.ValuesOut = scaledStrings(swap.AmountsOut, decimalsOut)
}

// MarshalJSON keeps empty leg lists as [] rather than null.
func (r SwapRecord) MarshalJSON() ([]byte, error) {
	type alias SwapRecord
	a := alias(r)
	if a.TokensIn == nil {
		a.TokensIn = []string{}
	}
	if a.TokensOut == nil {
		a.TokensOut = []string{}
	}
	if a.AmountsIn == nil {
		a.AmountsIn = []string{}
	}
	if a.AmountsOut == nil {
		a.AmountsOut = []string{}
	}
	return json.Marshal(a)
}

// ScaleAmount converts a raw integer amount to token units.
func ScaleAmount(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

func bigStrings(values []*big.Int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, "0")
			continue
		}
		out = append(out, v.String())
	}
	return out
}

func scaledStrings(values []*big.Int, decimals []uint8) []string {
	if len(values) != len(decimals) {
		return nil
	}
	out := make([]string, 0, len(values))
	for i, v := range values {
		out = append(out, ScaleAmount(v, decimals[i]).String())
	}
	return out
}
