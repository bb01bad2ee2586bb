package proxy

import (
	"errors"
	"net"

	"sockslite/internal/socks5"
)

// replyForGenericDialError classifies dial failures that carry no usable
// errno: resolution failures and timeouts get their specific codes,
// everything else falls back to a general failure.
func replyForGenericDialError(err error) socks5.ReplyCode {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return socks5.ReplyHostUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return socks5.ReplyTTLExpired
	}

	return socks5.ReplyGeneralFailure
}
