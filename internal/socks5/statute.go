package socks5

import (
	"errors"
	"fmt"
)

// Version is the protocol version byte every SOCKS5 message starts with.
const Version = 0x05

// Authentication method codes used during negotiation.
const (
	MethodNoAuth       byte = 0x00
	MethodNoAcceptable byte = 0xff
)

// Address type codes. These stay internal; callers see a parsed Request
// with either an IP or a host name, never the raw atyp byte.
const (
	atypIPv4   = 0x01
	atypDomain = 0x03
	atypIPv6   = 0x04
)

// Command is a client request command.
type Command byte

const (
	CmdConnect Command = 0x01
	CmdBind    Command = 0x02
)

// ParseCommand maps a wire byte to a Command. Unknown codes are rejected
// here rather than being passed through silently.
func ParseCommand(b byte) (Command, bool) {
	switch c := Command(b); c {
	case CmdConnect, CmdBind:
		return c, true
	default:
		return 0, false
	}
}

func (c Command) String() string {
	switch c {
	case CmdConnect:
		return "CONNECT"
	case CmdBind:
		return "BIND"
	default:
		return fmt.Sprintf("Command(0x%02x)", byte(c))
	}
}

// ReplyCode is the status byte a server sends after processing a request.
type ReplyCode byte

const (
	ReplySuccess              ReplyCode = 0x00
	ReplyGeneralFailure       ReplyCode = 0x01
	ReplyRulesetDenied        ReplyCode = 0x02
	ReplyNetworkUnreachable   ReplyCode = 0x03
	ReplyHostUnreachable      ReplyCode = 0x04
	ReplyConnectionRefused    ReplyCode = 0x05
	ReplyTTLExpired           ReplyCode = 0x06
	ReplyCommandNotSupported  ReplyCode = 0x07
	ReplyAddrTypeNotSupported ReplyCode = 0x08
)

// ParseReplyCode maps a wire byte to a ReplyCode, rejecting the unassigned
// 0x09-0xff range.
func ParseReplyCode(b byte) (ReplyCode, bool) {
	if b > byte(ReplyAddrTypeNotSupported) {
		return 0, false
	}
	return ReplyCode(b), true
}

func (r ReplyCode) String() string {
	switch r {
	case ReplySuccess:
		return "success"
	case ReplyGeneralFailure:
		return "general failure"
	case ReplyRulesetDenied:
		return "denied by ruleset"
	case ReplyNetworkUnreachable:
		return "network unreachable"
	case ReplyHostUnreachable:
		return "host unreachable"
	case ReplyConnectionRefused:
		return "connection refused"
	case ReplyTTLExpired:
		return "TTL expired"
	case ReplyCommandNotSupported:
		return "command not supported"
	case ReplyAddrTypeNotSupported:
		return "address type not supported"
	default:
		return fmt.Sprintf("ReplyCode(0x%02x)", byte(r))
	}
}

// Fatal handshake errors. Either one ends the connection with no reply
// written.
var (
	// ErrProtocolVersion means a message began with a version byte other
	// than 0x05.
	ErrProtocolVersion = errors.New("socks5: unsupported protocol version")

	// ErrBadSequence means a handshake operation was invoked out of order,
	// or after a previous operation already failed the connection.
	ErrBadSequence = errors.New("socks5: handshake operation out of order")
)

// Malformed-request causes. ReadRequest reports these through
// Endpoint.Malformed rather than as return errors: the byte stream stayed
// readable, so the caller can still answer with a specific ReplyCode
// before hanging up.
var (
	ErrUnknownCommand  = errors.New("socks5: unknown command")
	ErrBadReserved     = errors.New("socks5: non-zero reserved byte")
	ErrUnknownAddrType = errors.New("socks5: unknown address type")
	ErrNonASCIIDomain  = errors.New("socks5: domain name is not ASCII")
)

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 0x7f {
			return false
		}
	}
	return true
}
