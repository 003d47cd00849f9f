package metrics

import (
	"net"
	"time"
)

// Hook receives transport lifecycle and I/O events. Implementations must be safe for
// concurrent use and must not block.
type Hook interface {
	// ConnectionOpened reports a successful dial and how long it took.
	ConnectionOpened(latency time.Duration, addr net.Addr)

	// ConnectionClosed reports that a connection was released.
	ConnectionClosed(addr net.Addr)

	// ConnectionFailed reports a failed dial.
	ConnectionFailed(addr net.Addr)

	// LineWritten reports one line handed to the network.
	LineWritten(bytes int, addr net.Addr)

	// WriteFailed reports a failed write.
	WriteFailed(addr net.Addr)
}

type nullHook struct{}

func (nullHook) ConnectionOpened(latency time.Duration, addr net.Addr) {}
func (nullHook) ConnectionClosed(addr net.Addr)                        {}
func (nullHook) ConnectionFailed(addr net.Addr)                        {}
func (nullHook) LineWritten(bytes int, addr net.Addr)                  {}
func (nullHook) WriteFailed(addr net.Addr)                             {}

var NullHook Hook = nullHook{}
