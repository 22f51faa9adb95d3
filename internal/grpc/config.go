// Package grpc serves the settlement service over gRPC.
package grpc

import (
	"errors"
	"fmt"
	"net"
	"time"
)

const defaultMsgSize = 4 << 20

var ErrInvalidConfig = errors.New("invalid grpc server config")

// ServerConfig holds configuration for the gRPC server.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string

	// Message size limits in bytes. Zero keeps the grpc default of 4MB.
	MaxRecvMsgSize int
	MaxSendMsgSize int

	// MaxConcurrentStreams caps in-flight calls per connection.
	MaxConcurrentStreams uint32

	// ConnectionTimeout bounds the handshake of new connections.
	ConnectionTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:              "127.0.0.1:50551",
		MaxRecvMsgSize:       defaultMsgSize,
		MaxSendMsgSize:       defaultMsgSize,
		MaxConcurrentStreams: 64,
		ConnectionTimeout:    10 * time.Second,
	}
}

func (c *ServerConfig) Validate() error {
	host, port, err := net.SplitHostPort(c.Address)
	switch {
	case c.Address == "":
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	case err != nil:
		return fmt.Errorf("%w: address %q: %v", ErrInvalidConfig, c.Address, err)
	case host == "" || port == "":
		return fmt.Errorf("%w: address %q needs a host and a port", ErrInvalidConfig, c.Address)
	case c.MaxRecvMsgSize < 0 || c.MaxSendMsgSize < 0:
		return fmt.Errorf("%w: message size limits must be non-negative", ErrInvalidConfig)
	case c.ConnectionTimeout < 0:
		return fmt.Errorf("%w: connection timeout must be non-negative", ErrInvalidConfig)
	}
	return nil
}
