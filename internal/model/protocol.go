package model

import (
	"fmt"
	"strings"
)

// Protocol identifies an AMM protocol family.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolUniswapV2
	ProtocolUniswapV3
)

var protocolNames = map[Protocol]string{
	ProtocolUniswapV2: "uniswapv2",
	ProtocolUniswapV3: "uniswapv3",
}

// Protocols lists every known protocol in declaration order.
func Protocols() []Protocol {
	return []Protocol{ProtocolUniswapV2, ProtocolUniswapV3}
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("protocol(%d)", uint8(p))
}

// ParseProtocol parses the display name produced by Protocol.String.
func ParseProtocol(name string) (Protocol, error) {
	for p, n := range protocolNames {
		if n == name {
			return p, nil
		}
	}
	return ProtocolUnknown, fmt.Errorf("%w: %q", ErrUnsupportedProtocolName, name)
}

// ParseProtocols parses a list of names, ignoring case and surrounding spaces.
func ParseProtocols(names []string) ([]Protocol, error) {
	out := make([]Protocol, 0, len(names))
	seen := make(map[Protocol]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		p, err := ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func (p Protocol) MarshalText() ([]byte, error) {
	name, ok := protocolNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedProtocolName, uint8(p))
	}
	return []byte(name), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
