package proxy

import (
	"context"
	"log"
	"net"
	"time"

	"sockslite/internal/socks5"
)

// Server accepts SOCKS5 clients and CONNECTs them to their requested
// destination through the configured dialer.
type Server struct {
	ctx     context.Context
	cfg     Config
	verbose bool
}

// NewServer returns a server whose outbound dials are bound to ctx.
// When verbose is set, per-connection handshake failures are logged;
// otherwise they are silently terminal for that connection only.
func NewServer(ctx context.Context, cfg Config, verbose bool) *Server {
	return &Server{ctx: ctx, cfg: cfg, verbose: verbose}
}

// Serve accepts connections until ln fails, handling each in its own
// goroutine.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(c)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if s.cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	ep := socks5.NewEndpoint(conn)

	ok, err := ep.AcceptAuthentication()
	if err != nil {
		s.logf("%s: negotiation: %v", conn.RemoteAddr(), err)
		return
	}
	if !ok {
		// The 0xFF rejection is already on the wire; just hang up.
		s.logf("%s: no acceptable auth method", conn.RemoteAddr())
		return
	}

	correct, err := ep.ReadRequest()
	if err != nil {
		s.logf("%s: request: %v", conn.RemoteAddr(), err)
		return
	}
	if !correct {
		s.logf("%s: malformed request: %v", conn.RemoteAddr(), ep.Malformed())
		_ = ep.SendReply(ep.DeniedReply())
		return
	}

	req := ep.Request()
	if req.Cmd != socks5.CmdConnect {
		s.logf("%s: %s not supported", conn.RemoteAddr(), req.Cmd)
		_ = ep.SendReply(socks5.ReplyCommandNotSupported)
		return
	}

	upstream, err := s.cfg.Dialer.DialContext(s.ctx, "tcp", req.Target())
	if err != nil {
		s.logf("%s: dial %s: %v", conn.RemoteAddr(), req.Target(), err)
		_ = ep.SendReply(replyForDialError(err))
		return
	}
	defer upstream.Close()

	if err := ep.SendReply(socks5.ReplySuccess); err != nil {
		s.logf("%s: reply: %v", conn.RemoteAddr(), err)
		return
	}

	// Handshake done; lift the negotiation deadline before the relay
	// takes over.
	_ = conn.SetDeadline(time.Time{})

	_ = Relay(s.ctx, conn, upstream, s.cfg.IOTimeout)
}

func (s *Server) logf(format string, args ...any) {
	if s.verbose {
		log.Printf(format, args...)
	}
}
