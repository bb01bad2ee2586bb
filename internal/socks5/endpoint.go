package socks5

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Handshake phases. Each operation checks the phase on entry, so calling
// the three steps out of order fails with ErrBadSequence instead of
// reading the wrong bytes off the wire.
type phase int

const (
	phaseNew phase = iota
	phaseAuthDone
	phaseRequestDone
	phaseReplied
	phaseFailed
)

// Endpoint drives the server side of one SOCKS5 handshake over an
// already-connected duplex channel. Create one per accepted connection
// and discard it once the handshake concludes.
//
// The three operations must run in order: AcceptAuthentication, then
// ReadRequest, then SendReply. Every multi-byte field is read with
// io.ReadFull, so a stream that ends mid-field surfaces as an I/O error,
// never as a truncated value.
type Endpoint struct {
	rw        io.ReadWriter
	phase     phase
	req       Request
	malformed error
}

// NewEndpoint wraps a duplex channel. The channel can be a TCP
// connection, a TLS stream, or an in-memory pipe; the endpoint only needs
// Read and Write.
func NewEndpoint(rw io.ReadWriter) *Endpoint {
	return &Endpoint{rw: rw}
}

// AcceptAuthentication performs method negotiation. It reads the client's
// method offer and answers with MethodNoAuth when 0x00 was offered,
// returning true, or with MethodNoAcceptable otherwise, returning false.
// On false the caller must close the connection; the rejection byte has
// already been written. An offer of zero methods is a clean rejection,
// not an error.
func (e *Endpoint) AcceptAuthentication() (bool, error) {
	if e.phase != phaseNew {
		return false, ErrBadSequence
	}
	e.phase = phaseFailed

	if err := e.checkVersion(); err != nil {
		return false, err
	}

	n, err := e.readByte()
	if err != nil {
		return false, fmt.Errorf("read method count: %w", err)
	}
	methods := make([]byte, int(n))
	if _, err := io.ReadFull(e.rw, methods); err != nil {
		return false, fmt.Errorf("read methods: %w", err)
	}

	ok := containsMethod(methods, MethodNoAuth)
	choice := MethodNoAcceptable
	if ok {
		choice = MethodNoAuth
	}
	if _, err := e.rw.Write([]byte{Version, choice}); err != nil {
		return false, fmt.Errorf("write method choice: %w", err)
	}

	if ok {
		e.phase = phaseAuthDone
	}
	return ok, nil
}

// ReadRequest parses the connection request that follows a successful
// negotiation. It returns true when the request was well-formed; the
// parsed destination is then available from Request.
//
// A recognized-but-invalid field (unknown command, non-zero reserved
// byte, unknown address type, non-ASCII domain name) returns false with a
// nil error: the caller should answer with DeniedReply and close.
// Malformed reports which field was bad. A returned error means the
// stream itself failed (wrong version, short read) and no reply may be
// sent.
//
// On an unknown address type parsing stops before the port field: the
// address length is unknowable, so the remaining bytes cannot be framed
// and the connection is unsalvageable.
func (e *Endpoint) ReadRequest() (bool, error) {
	if e.phase != phaseAuthDone {
		return false, ErrBadSequence
	}
	e.phase = phaseFailed

	if err := e.checkVersion(); err != nil {
		return false, err
	}

	// cmd, reserved, atyp
	var hdr [3]byte
	if _, err := io.ReadFull(e.rw, hdr[:]); err != nil {
		return false, fmt.Errorf("read request header: %w", err)
	}

	if cmd, ok := ParseCommand(hdr[0]); ok {
		e.req.Cmd = cmd
	} else {
		e.setMalformed(fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, hdr[0]))
	}
	if hdr[1] != 0x00 {
		e.setMalformed(fmt.Errorf("%w: 0x%02x", ErrBadReserved, hdr[1]))
	}

	switch hdr[2] {
	case atypIPv4:
		addr := make([]byte, net.IPv4len)
		if _, err := io.ReadFull(e.rw, addr); err != nil {
			return false, fmt.Errorf("read IPv4 address: %w", err)
		}
		e.req.IP = net.IP(addr)
	case atypDomain:
		n, err := e.readByte()
		if err != nil {
			return false, fmt.Errorf("read domain length: %w", err)
		}
		name := make([]byte, int(n))
		if _, err := io.ReadFull(e.rw, name); err != nil {
			return false, fmt.Errorf("read domain: %w", err)
		}
		if isASCII(name) {
			e.req.Host = string(name)
		} else {
			e.setMalformed(ErrNonASCIIDomain)
		}
	case atypIPv6:
		addr := make([]byte, net.IPv6len)
		if _, err := io.ReadFull(e.rw, addr); err != nil {
			return false, fmt.Errorf("read IPv6 address: %w", err)
		}
		e.req.IP = net.IP(addr)
	default:
		e.setMalformed(fmt.Errorf("%w: 0x%02x", ErrUnknownAddrType, hdr[2]))
		e.phase = phaseRequestDone
		return false, nil
	}

	var port [2]byte
	if _, err := io.ReadFull(e.rw, port[:]); err != nil {
		return false, fmt.Errorf("read port: %w", err)
	}
	e.req.Port = binary.BigEndian.Uint16(port[:])

	e.phase = phaseRequestDone
	return e.malformed == nil, nil
}

// Request returns the destination parsed by ReadRequest. Only meaningful
// after ReadRequest returned true.
func (e *Endpoint) Request() Request {
	return e.req
}

// Malformed reports why ReadRequest returned false, as one of
// ErrUnknownCommand, ErrBadReserved, ErrUnknownAddrType, or
// ErrNonASCIIDomain. When several fields were bad the first one read off
// the wire wins. Nil when the request parsed cleanly.
func (e *Endpoint) Malformed() error {
	return e.malformed
}

// DeniedReply picks the reply code matching the malformed-request cause,
// for the caller to pass to SendReply before closing.
func (e *Endpoint) DeniedReply() ReplyCode {
	switch {
	case errors.Is(e.malformed, ErrUnknownCommand):
		return ReplyCommandNotSupported
	case errors.Is(e.malformed, ErrUnknownAddrType):
		return ReplyAddrTypeNotSupported
	default:
		return ReplyGeneralFailure
	}
}

// SendReply writes the fixed 10-byte reply for code. The bound address is
// always reported as 0.0.0.0:0; with CONNECT-only semantics clients
// ignore that field, and this server never exposes its local socket
// address.
func (e *Endpoint) SendReply(code ReplyCode) error {
	if e.phase != phaseRequestDone {
		return ErrBadSequence
	}

	// VER REP RSV ATYP=IPv4 BND.ADDR=0.0.0.0 BND.PORT=0
	reply := [10]byte{Version, byte(code), 0x00, atypIPv4}
	if _, err := e.rw.Write(reply[:]); err != nil {
		e.phase = phaseFailed
		return fmt.Errorf("write reply: %w", err)
	}

	e.phase = phaseReplied
	return nil
}

func (e *Endpoint) checkVersion() error {
	b, err := e.readByte()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if b != Version {
		return fmt.Errorf("%w: 0x%02x", ErrProtocolVersion, b)
	}
	return nil
}

func (e *Endpoint) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(e.rw, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (e *Endpoint) setMalformed(err error) {
	if e.malformed == nil {
		e.malformed = err
	}
}

func containsMethod(methods []byte, want byte) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}
