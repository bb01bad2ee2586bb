package socks5

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
)

// duplex glues a scripted input to a captured output so handshake
// operations can run against exact byte sequences.
type duplex struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newDuplex(input []byte) *duplex {
	return &duplex{in: bytes.NewReader(input)}
}

func (d *duplex) Read(b []byte) (int, error)  { return d.in.Read(b) }
func (d *duplex) Write(b []byte) (int, error) { return d.out.Write(b) }

func TestAcceptAuthentication(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     []byte
		wantOK    bool
		wantErr   error
		wantWrite []byte
	}{
		{
			name:      "no_auth offered alone",
			input:     []byte{0x05, 0x01, 0x00},
			wantOK:    true,
			wantWrite: []byte{0x05, 0x00},
		},
		{
			name:      "no_auth among others",
			input:     []byte{0x05, 0x03, 0x02, 0x00, 0x01},
			wantOK:    true,
			wantWrite: []byte{0x05, 0x00},
		},
		{
			name:      "only user_pass offered",
			input:     []byte{0x05, 0x01, 0x02},
			wantOK:    false,
			wantWrite: []byte{0x05, 0xff},
		},
		{
			name:      "zero methods offered",
			input:     []byte{0x05, 0x00},
			wantOK:    false,
			wantWrite: []byte{0x05, 0xff},
		},
		{
			name:    "wrong version",
			input:   []byte{0x04, 0x01, 0x00},
			wantErr: ErrProtocolVersion,
		},
		{
			name:    "stream ends before all methods",
			input:   []byte{0x05, 0x03, 0x00, 0x02},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "empty stream",
			input:   nil,
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDuplex(tt.input)
			ep := NewEndpoint(d)

			ok, err := ep.AcceptAuthentication()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v want %v", err, tt.wantErr)
				}
				if d.out.Len() != 0 {
					t.Fatalf("wrote %x after fatal error", d.out.Bytes())
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok=%v want %v", ok, tt.wantOK)
			}
			if !bytes.Equal(d.out.Bytes(), tt.wantWrite) {
				t.Fatalf("wrote %x want %x", d.out.Bytes(), tt.wantWrite)
			}
		})
	}
}

// authedEndpoint runs method negotiation so the endpoint is ready for
// ReadRequest, leaving input positioned at the start of the request bytes.
func authedEndpoint(t *testing.T, request []byte) (*Endpoint, *duplex) {
	t.Helper()

	input := append([]byte{0x05, 0x01, 0x00}, request...)
	d := newDuplex(input)
	ep := NewEndpoint(d)

	ok, err := ep.AcceptAuthentication()
	if err != nil || !ok {
		t.Fatalf("negotiation: ok=%v err=%v", ok, err)
	}
	d.out.Reset()
	return ep, d
}

func TestReadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         []byte
		wantCorrect   bool
		wantErr       error
		wantMalformed error
		wantDenied    ReplyCode
		wantReq       Request
	}{
		{
			name:        "connect IPv4",
			input:       []byte{0x05, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x01, 0xbb},
			wantCorrect: true,
			wantReq:     Request{Cmd: CmdConnect, IP: net.IPv4(127, 0, 0, 1), Port: 443},
		},
		{
			name: "connect domain localhost",
			input: []byte{
				0x05, 0x01, 0x00, 0x03, 0x09,
				'l', 'o', 'c', 'a', 'l', 'h', 'o', 's', 't',
				0x01, 0xbb,
			},
			wantCorrect: true,
			wantReq:     Request{Cmd: CmdConnect, Host: "localhost", Port: 443},
		},
		{
			name: "connect IPv6 all zeros",
			input: append(append([]byte{0x05, 0x01, 0x00, 0x04},
				make([]byte, 16)...), 0x00, 0x50),
			wantCorrect: true,
			wantReq:     Request{Cmd: CmdConnect, IP: net.IPv6zero, Port: 80},
		},
		{
			name:        "bind is a known command",
			input:       []byte{0x05, 0x02, 0x00, 0x01, 10, 0, 0, 1, 0x00, 0x16},
			wantCorrect: true,
			wantReq:     Request{Cmd: CmdBind, IP: net.IPv4(10, 0, 0, 1), Port: 22},
		},
		{
			name:          "unknown command keeps parsing",
			input:         []byte{0x05, 0x03, 0x00, 0x01, 127, 0, 0, 1, 0x01, 0xbb},
			wantMalformed: ErrUnknownCommand,
			wantDenied:    ReplyCommandNotSupported,
			wantReq:       Request{IP: net.IPv4(127, 0, 0, 1), Port: 443},
		},
		{
			name:          "non-zero reserved byte keeps parsing",
			input:         []byte{0x05, 0x01, 0x01, 0x01, 127, 0, 0, 1, 0x01, 0xbb},
			wantMalformed: ErrBadReserved,
			wantDenied:    ReplyGeneralFailure,
			wantReq:       Request{Cmd: CmdConnect, IP: net.IPv4(127, 0, 0, 1), Port: 443},
		},
		{
			name: "non-ASCII domain",
			input: []byte{
				0x05, 0x01, 0x00, 0x03, 0x04,
				0xc3, 0xa9, 'x', 'y',
				0x01, 0xbb,
			},
			wantMalformed: ErrNonASCIIDomain,
			wantDenied:    ReplyGeneralFailure,
			wantReq:       Request{Cmd: CmdConnect, Port: 443},
		},
		{
			name:    "wrong version",
			input:   []byte{0x04, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x01, 0xbb},
			wantErr: ErrProtocolVersion,
		},
		{
			name:    "stream ends mid IPv4 address",
			input:   []byte{0x05, 0x01, 0x00, 0x01, 127, 0},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "stream ends mid domain",
			input:   []byte{0x05, 0x01, 0x00, 0x03, 0x09, 'l', 'o'},
			wantErr: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ep, _ := authedEndpoint(t, tt.input)

			correct, err := ep.ReadRequest()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if correct != tt.wantCorrect {
				t.Fatalf("correct=%v want %v", correct, tt.wantCorrect)
			}
			if tt.wantMalformed != nil {
				if !errors.Is(ep.Malformed(), tt.wantMalformed) {
					t.Fatalf("malformed=%v want %v", ep.Malformed(), tt.wantMalformed)
				}
				if got := ep.DeniedReply(); got != tt.wantDenied {
					t.Fatalf("denied reply=%v want %v", got, tt.wantDenied)
				}
			} else if ep.Malformed() != nil {
				t.Fatalf("unexpected malformed: %v", ep.Malformed())
			}

			req := ep.Request()
			if req.Cmd != tt.wantReq.Cmd {
				t.Fatalf("cmd=%v want %v", req.Cmd, tt.wantReq.Cmd)
			}
			if req.Host != tt.wantReq.Host {
				t.Fatalf("host=%q want %q", req.Host, tt.wantReq.Host)
			}
			if !req.IP.Equal(tt.wantReq.IP) {
				t.Fatalf("ip=%v want %v", req.IP, tt.wantReq.IP)
			}
			if req.Port != tt.wantReq.Port {
				t.Fatalf("port=%d want %d", req.Port, tt.wantReq.Port)
			}
		})
	}
}

func TestReadRequestUnknownAddrTypeStopsReading(t *testing.T) {
	t.Parallel()

	// The two bytes after the bogus atyp would be misread as the port if
	// parsing kept going; they must remain unconsumed.
	trailing := []byte{0xde, 0xad, 0xbe, 0xef}
	input := append([]byte{0x05, 0x01, 0x00, 0x05}, trailing...)

	ep, d := authedEndpoint(t, input)

	correct, err := ep.ReadRequest()
	if err != nil {
		t.Fatal(err)
	}
	if correct {
		t.Fatal("want correct=false for unknown address type")
	}
	if !errors.Is(ep.Malformed(), ErrUnknownAddrType) {
		t.Fatalf("malformed=%v want %v", ep.Malformed(), ErrUnknownAddrType)
	}
	if got := ep.DeniedReply(); got != ReplyAddrTypeNotSupported {
		t.Fatalf("denied reply=%v want %v", got, ReplyAddrTypeNotSupported)
	}
	if d.in.Len() != len(trailing) {
		t.Fatalf("consumed %d bytes past the atyp, want 0", len(trailing)-d.in.Len())
	}

	// The reply for the denial still goes out.
	if err := ep.SendReply(ep.DeniedReply()); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x05, 0x08, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(d.out.Bytes(), want) {
		t.Fatalf("wrote %x want %x", d.out.Bytes(), want)
	}
}

func TestSendReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code ReplyCode
		want []byte
	}{
		{
			name: "success",
			code: ReplySuccess,
			want: []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "command not supported",
			code: ReplyCommandNotSupported,
			want: []byte{0x05, 0x07, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "connection refused",
			code: ReplyConnectionRefused,
			want: []byte{0x05, 0x05, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
		},
	}

	request := []byte{0x05, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x01, 0xbb}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ep, d := authedEndpoint(t, request)
			if _, err := ep.ReadRequest(); err != nil {
				t.Fatal(err)
			}
			d.out.Reset()

			if err := ep.SendReply(tt.code); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(d.out.Bytes(), tt.want) {
				t.Fatalf("wrote %x want %x", d.out.Bytes(), tt.want)
			}
		})
	}
}

func TestHandshakeSequenceGuards(t *testing.T) {
	t.Parallel()

	t.Run("read request before negotiation", func(t *testing.T) {
		t.Parallel()
		ep := NewEndpoint(newDuplex(nil))
		if _, err := ep.ReadRequest(); !errors.Is(err, ErrBadSequence) {
			t.Fatalf("err=%v want %v", err, ErrBadSequence)
		}
	})

	t.Run("reply before request", func(t *testing.T) {
		t.Parallel()
		ep := NewEndpoint(newDuplex(nil))
		if err := ep.SendReply(ReplySuccess); !errors.Is(err, ErrBadSequence) {
			t.Fatalf("err=%v want %v", err, ErrBadSequence)
		}
	})

	t.Run("negotiation twice", func(t *testing.T) {
		t.Parallel()
		ep, _ := authedEndpoint(t, nil)
		if _, err := ep.AcceptAuthentication(); !errors.Is(err, ErrBadSequence) {
			t.Fatalf("err=%v want %v", err, ErrBadSequence)
		}
	})

	t.Run("read request after rejected negotiation", func(t *testing.T) {
		t.Parallel()
		ep := NewEndpoint(newDuplex([]byte{0x05, 0x01, 0x02}))
		ok, err := ep.AcceptAuthentication()
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if _, err := ep.ReadRequest(); !errors.Is(err, ErrBadSequence) {
			t.Fatalf("err=%v want %v", err, ErrBadSequence)
		}
	})

	t.Run("reply twice", func(t *testing.T) {
		t.Parallel()
		request := []byte{0x05, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x01, 0xbb}
		ep, _ := authedEndpoint(t, request)
		if _, err := ep.ReadRequest(); err != nil {
			t.Fatal(err)
		}
		if err := ep.SendReply(ReplySuccess); err != nil {
			t.Fatal(err)
		}
		if err := ep.SendReply(ReplySuccess); !errors.Is(err, ErrBadSequence) {
			t.Fatalf("err=%v want %v", err, ErrBadSequence)
		}
	})
}
