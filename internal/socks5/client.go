package socks5

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Client-side encoding of the same wire format Endpoint consumes. Used by
// tests to drive an Endpoint byte-for-byte and by anything that needs to
// speak to a SOCKS5 server over a raw channel.

// WriteMethodOffer writes the negotiation opener offering the given
// authentication methods.
func WriteMethodOffer(w io.Writer, methods ...byte) error {
	if len(methods) > 0xff {
		return errors.New("socks5: too many methods")
	}
	buf := make([]byte, 0, 2+len(methods))
	buf = append(buf, Version, byte(len(methods)))
	buf = append(buf, methods...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write method offer: %w", err)
	}
	return nil
}

// ReadMethodChoice reads the server's negotiation answer and returns the
// chosen method byte, MethodNoAcceptable when the server rejected the
// offer.
func ReadMethodChoice(r io.Reader) (byte, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("read method choice: %w", err)
	}
	if b[0] != Version {
		return 0, fmt.Errorf("%w: 0x%02x", ErrProtocolVersion, b[0])
	}
	return b[1], nil
}

// WriteRequest encodes req as a connection request. The address form
// follows the Request invariant: Host when set, the numeric IP otherwise,
// with 4-byte IPs encoded as IPv4 and 16-byte IPs as IPv6.
func WriteRequest(w io.Writer, req *Request) error {
	buf := make([]byte, 0, 6+net.IPv6len)
	buf = append(buf, Version, byte(req.Cmd), 0x00)

	switch {
	case req.Host != "":
		if len(req.Host) > 0xff {
			return errors.New("socks5: domain name too long")
		}
		if !isASCII([]byte(req.Host)) {
			return ErrNonASCIIDomain
		}
		buf = append(buf, atypDomain, byte(len(req.Host)))
		buf = append(buf, req.Host...)
	case req.IP.To4() != nil:
		buf = append(buf, atypIPv4)
		buf = append(buf, req.IP.To4()...)
	case req.IP.To16() != nil:
		buf = append(buf, atypIPv6)
		buf = append(buf, req.IP.To16()...)
	default:
		return errors.New("socks5: request has no destination address")
	}

	buf = binary.BigEndian.AppendUint16(buf, req.Port)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// ReadReply reads a server reply, consuming the bound address and port it
// carries, and returns the status code.
func ReadReply(r io.Reader) (ReplyCode, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, fmt.Errorf("read reply header: %w", err)
	}
	if hdr[0] != Version {
		return 0, fmt.Errorf("%w: 0x%02x", ErrProtocolVersion, hdr[0])
	}
	code, ok := ParseReplyCode(hdr[1])
	if !ok {
		return 0, fmt.Errorf("socks5: unassigned reply code 0x%02x", hdr[1])
	}

	var addrLen int
	switch hdr[3] {
	case atypIPv4:
		addrLen = net.IPv4len
	case atypDomain:
		var n [1]byte
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return 0, fmt.Errorf("read bound domain length: %w", err)
		}
		addrLen = int(n[0])
	case atypIPv6:
		addrLen = net.IPv6len
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownAddrType, hdr[3])
	}

	rest := make([]byte, addrLen+2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, fmt.Errorf("read bound address: %w", err)
	}
	return code, nil
}
