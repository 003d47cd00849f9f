package transport

import (
	"errors"
	"net"
)

// NewStream creates a TCP transport. Each line is written separately, in order, over a
// single connection that is opened on the first Send.
func NewStream(endpoint Endpoint, opts Options) Transport {
	return newConnTransport(Stream, endpoint, opts, shutdownStream)
}

// shutdownStream half-closes the connection so the backend sees an orderly end of
// stream, then releases it.
func shutdownStream(conn net.Conn) error {
	if cw, ok := conn.(closeWriter); ok {
		// best effort, the peer may be gone already
		_ = cw.CloseWrite()
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
