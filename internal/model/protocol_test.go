package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestProtocolNameRoundTrip(t *testing.T) {
	for _, p := range Protocols() {
		parsed, err := ParseProtocol(p.String())
		if err != nil {
			t.Fatalf("parse %s: %v", p, err)
		}
		if parsed != p {
			t.Fatalf("round trip mismatch: %v != %v", parsed, p)
		}
	}
}

func TestProtocolNames(t *testing.T) {
	if ProtocolUniswapV2.String() != "uniswapv2" {
		t.Fatalf("unexpected v2 name: %s", ProtocolUniswapV2)
	}
	if ProtocolUniswapV3.String() != "uniswapv3" {
		t.Fatalf("unexpected v3 name: %s", ProtocolUniswapV3)
	}
}

func TestParseProtocolUnknown(t *testing.T) {
	_, err := ParseProtocol("balancer")
	if !errors.Is(err, ErrUnsupportedProtocolName) {
		t.Fatalf("expected ErrUnsupportedProtocolName, got %v", err)
	}
	if _, err := ParseProtocol("UniswapV2"); err == nil {
		t.Fatalf("display names are case sensitive")
	}
}

func TestParseProtocols(t *testing.T) {
	got, err := ParseProtocols([]string{" UniswapV3 ", "uniswapv2", "", "uniswapv3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Protocol{ProtocolUniswapV3, ProtocolUniswapV2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("protocols mismatch: %v != %v", got, want)
	}

	if _, err := ParseProtocols([]string{"uniswapv2", "sushi"}); err == nil {
		t.Fatalf("expected error for unknown protocol")
	}
}

func TestProtocolJSONText(t *testing.T) {
	data, err := json.Marshal(struct {
		P Protocol `json:"p"`
	}{ProtocolUniswapV3})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"p":"uniswapv3"}` {
		t.Fatalf("unexpected json: %s", data)
	}

	if _, err := ProtocolUnknown.MarshalText(); err == nil {
		t.Fatalf("expected error for unknown protocol")
	}
}
