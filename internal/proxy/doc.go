package proxy

// Package proxy serves SOCKS5 clients. It owns the accept loop and the
// per-connection lifecycle: handshake via internal/socks5, outbound dial
// via internal/dialer, reply-code selection from the dial outcome, and the
// bidirectional relay that takes over once a success reply is on the wire.
//
// Each accepted connection gets its own goroutine and its own handshake
// endpoint; connections share nothing. A negotiation deadline bounds how
// long a stalled peer can hold the handshake open.
