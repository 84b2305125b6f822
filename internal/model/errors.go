package model

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrMalformedLog marks a log whose topics or data do not have the expected geometry.
	ErrMalformedLog = errors.New("malformed log")
	// ErrUnexpectedEventSignature marks a log handed to a decoder for a different event.
	ErrUnexpectedEventSignature = errors.New("unexpected event signature")
	// ErrUnsupportedProtocol marks a signature topic no registered protocol claims.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	// ErrInvalidFormat marks a pool text line that cannot be parsed.
	ErrInvalidFormat = errors.New("invalid pool format")
	// ErrUnsupportedProtocolName marks an unknown protocol display name.
	ErrUnsupportedProtocolName = errors.New("unsupported protocol name")
	// ErrRPC marks a failed contract read or log query.
	ErrRPC = errors.New("rpc error")
)

// RPCError records a failed contract call against an address.
type RPCError struct {
	Address common.Address
	Call    string
	Err     error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s on %s: %v", e.Call, e.Address.Hex(), e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRPC) match any RPCError.
func (e *RPCError) Is(target error) bool {
	return target == ErrRPC
}

// IsRetryable reports whether err came from the network and may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRPC)
}
