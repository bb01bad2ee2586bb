package dialer

// Package dialer provides the outbound side of the proxy: a small
// DialContext interface with a direct implementation and one that chains
// through an upstream SOCKS5 proxy.
