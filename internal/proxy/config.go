package proxy

import (
	"net"
	"time"

	"sockslite/internal/dialer"
)

type Config struct {
	// NegotiationTimeout bounds the whole handshake, from accept until
	// the reply is written. Zero means no deadline.
	NegotiationTimeout time.Duration

	// IOTimeout bounds the relay after a successful handshake. Zero means
	// connections stay open as long as both sides do.
	IOTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer
}
