package transport

import (
	"net"
)

// NewDatagram creates a UDP transport. The first Send binds the default peer; every line
// then goes out as its own datagram. Nothing acknowledges delivery and dropped
// datagrams are not resent.
func NewDatagram(endpoint Endpoint, opts Options) Transport {
	return newConnTransport(Datagram, endpoint, opts, shutdownDatagram)
}

func shutdownDatagram(conn net.Conn) error {
	return conn.Close()
}
