package socks5

import (
	"net"
	"strconv"
)

// Request is a parsed SOCKS5 connection request. Exactly one of IP and
// Host is set, matching the address type the client sent: IP for the
// numeric IPv4/IPv6 forms, Host for the domain-name form. No resolution
// is performed on Host; picking a resolver is the caller's policy.
type Request struct {
	Cmd  Command
	IP   net.IP
	Host string
	Port uint16
}

// Target formats the destination as a host:port string suitable for
// net.Dial.
func (r *Request) Target() string {
	host := r.Host
	if host == "" {
		host = r.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(int(r.Port)))
}
