//go:build !unix

package proxy

import "sockslite/internal/socks5"

func replyForDialError(err error) socks5.ReplyCode {
	return replyForGenericDialError(err)
}
