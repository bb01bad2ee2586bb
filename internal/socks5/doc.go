package socks5

// Package socks5 implements the server side of the SOCKS5 (RFC 1928)
// handshake: method negotiation, CONNECT/BIND request parsing, and reply
// encoding.
//
// It deliberately covers only the no-authentication method and does not
// relay traffic; once a request has been answered with ReplySuccess, the
// caller hands the underlying channel to whatever moves bytes afterward.
// UDP ASSOCIATE, GSSAPI, and username/password authentication are out of
// scope.
//
// An Endpoint is bound to a single connection and is not safe for
// concurrent use. All operations block on the underlying channel; callers
// bound handshake time by setting deadlines on the connection they pass in.
