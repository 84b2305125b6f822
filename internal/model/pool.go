package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const poolFieldSep = "|"

// Token is an ERC20 token with its resolved decimal precision.
type Token struct {
	Address  common.Address `json:"token_address"`
	Decimals uint8          `json:"decimals"`
}

func NewToken(address common.Address, decimals uint8) Token {
	return Token{Address: address, Decimals: decimals}
}

// Pool is a liquidity pool normalized across protocols. Tokens keep the
// on-chain token0, token1, ... order. Two pools are the same pool when their
// addresses match, whatever their tokens or extra say.
type Pool struct {
	Protocol Protocol
	Address  common.Address
	Tokens   []Token
	Extra    PoolExtra
}

// Equal compares pools by address only.
func (p Pool) Equal(other Pool) bool {
	return p.Address == other.Address
}

func (p Pool) Token0Type() common.Address {
	if len(p.Tokens) < 1 {
		return common.Address{}
	}
	return p.Tokens[0].Address
}

func (p Pool) Token1Type() common.Address {
	if len(p.Tokens) < 2 {
		return common.Address{}
	}
	return p.Tokens[1].Address
}

func (p Pool) TokenCount() int {
	return len(p.Tokens)
}

// TokenIndex returns the first position of token in the pool.
func (p Pool) TokenIndex(token common.Address) (int, bool) {
	for i, t := range p.Tokens {
		if t.Address == token {
			return i, true
		}
	}
	return -1, false
}

func (p Pool) Token(i int) (Token, bool) {
	if i < 0 || i >= len(p.Tokens) {
		return Token{}, false
	}
	return p.Tokens[i], true
}

// Token01Pairs returns every unordered token pair (i < j) in pool order.
func (p Pool) Token01Pairs() [][2]common.Address {
	n := len(p.Tokens)
	pairs := make([][2]common.Address, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]common.Address{p.Tokens[i].Address, p.Tokens[j].Address})
		}
	}
	return pairs
}

// Encode renders the canonical text form protocol|pool|tokens_json|extra_json.
func (p Pool) Encode() (string, error) {
	protocol, err := p.Protocol.MarshalText()
	if err != nil {
		return "", err
	}
	tokens, err := json.Marshal(p.Tokens)
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	extra, err := json.Marshal(p.Extra)
	if err != nil {
		return "", fmt.Errorf("marshal extra: %w", err)
	}
	return strings.Join([]string{
		string(protocol),
		p.Address.Hex(),
		string(tokens),
		string(extra),
	}, poolFieldSep), nil
}

// String returns the canonical text form, or a diagnostic if the pool cannot be encoded.
func (p Pool) String() string {
	text, err := p.Encode()
	if err != nil {
		return fmt.Sprintf("invalid pool %s: %v", p.Address.Hex(), err)
	}
	return text
}

// ParsePool parses the canonical text form produced by Encode.
func ParsePool(text string) (Pool, error) {
	parts := strings.Split(text, poolFieldSep)
	if len(parts) != 4 {
		return Pool{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidFormat, len(parts))
	}

	protocol, err := ParseProtocol(parts[0])
	if err != nil {
		return Pool{}, err
	}

	if !common.IsHexAddress(parts[1]) {
		return Pool{}, fmt.Errorf("%w: pool address %q", ErrInvalidFormat, parts[1])
	}
	address := common.HexToAddress(parts[1])

	var tokens []Token
	if err := json.Unmarshal([]byte(parts[2]), &tokens); err != nil {
		return Pool{}, fmt.Errorf("%w: tokens: %v", ErrInvalidFormat, err)
	}
	if len(tokens) < 2 {
		return Pool{}, fmt.Errorf("%w: pool needs at least 2 tokens, got %d", ErrInvalidFormat, len(tokens))
	}

	var extra PoolExtra
	if err := json.Unmarshal([]byte(parts[3]), &extra); err != nil {
		return Pool{}, fmt.Errorf("%w: extra: %v", ErrInvalidFormat, err)
	}

	return Pool{
		Protocol: protocol,
		Address:  address,
		Tokens:   tokens,
		Extra:    extra,
	}, nil
}
