//go:build unix

package proxy

import (
	"errors"

	"golang.org/x/sys/unix"

	"sockslite/internal/socks5"
)

// replyForDialError maps the errno behind a failed outbound dial to the
// matching SOCKS5 reply code.
func replyForDialError(err error) socks5.ReplyCode {
	switch {
	case errors.Is(err, unix.ECONNREFUSED):
		return socks5.ReplyConnectionRefused
	case errors.Is(err, unix.ENETUNREACH), errors.Is(err, unix.ENETDOWN):
		return socks5.ReplyNetworkUnreachable
	case errors.Is(err, unix.EHOSTUNREACH):
		return socks5.ReplyHostUnreachable
	case errors.Is(err, unix.ETIMEDOUT):
		return socks5.ReplyTTLExpired
	}
	return replyForGenericDialError(err)
}
