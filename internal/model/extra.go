package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const extraNone = "None"

// UniswapV2Extra holds static UniswapV2 pool parameters.
type UniswapV2Extra struct {
	Fee uint64 `json:"fee"`
}

// UniswapV3Extra holds static UniswapV3 pool parameters.
type UniswapV3Extra struct {
	Fee uint64 `json:"fee"`
}

// PoolExtra carries protocol specific parameters. At most one variant is set;
// none set is the None variant. New protocols add a field.
type PoolExtra struct {
	UniswapV2 *UniswapV2Extra `json:"UniswapV2,omitempty"`
	UniswapV3 *UniswapV3Extra `json:"UniswapV3,omitempty"`
}

// NoExtra returns the None variant.
func NoExtra() PoolExtra {
	return PoolExtra{}
}

func NewUniswapV2Extra(fee uint64) PoolExtra {
	return PoolExtra{UniswapV2: &UniswapV2Extra{Fee: fee}}
}

func NewUniswapV3Extra(fee uint64) PoolExtra {
	return PoolExtra{UniswapV3: &UniswapV3Extra{Fee: fee}}
}

// IsNone reports whether no variant is set.
func (e PoolExtra) IsNone() bool {
	return e.variants() == 0
}

// Fee returns the fee of whichever variant is set.
func (e PoolExtra) Fee() (uint64, bool) {
	switch {
	case e.UniswapV2 != nil:
		return e.UniswapV2.Fee, true
	case e.UniswapV3 != nil:
		return e.UniswapV3.Fee, true
	default:
		return 0, false
	}
}

func (e PoolExtra) variants() int {
	n := 0
	if e.UniswapV2 != nil {
		n++
	}
	if e.UniswapV3 != nil {
		n++
	}
	return n
}

// MarshalJSON encodes None as the bare string "None" and variants as
// single-key objects, e.g. {"UniswapV3":{"fee":3000}}.
func (e PoolExtra) MarshalJSON() ([]byte, error) {
	switch e.variants() {
	case 0:
		return json.Marshal(extraNone)
	case 1:
		type alias PoolExtra
		return json.Marshal(alias(e))
	default:
		return nil, fmt.Errorf("pool extra has %d variants set", e.variants())
	}
}

func (e *PoolExtra) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != extraNone {
			return fmt.Errorf("unknown pool extra variant %q", tag)
		}
		*e = PoolExtra{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("pool extra must have exactly one variant, got %d", len(raw))
	}

	type alias PoolExtra
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a alias
	if err := dec.Decode(&a); err != nil {
		return err
	}
	*e = PoolExtra(a)
	if e.variants() != 1 {
		return fmt.Errorf("pool extra variant is empty")
	}
	return nil
}
