package transport

import (
	"textanon/pkg/protocol"
)

// Conn is the capability handed to the core for one connected client. The
// core never inspects transport internals behind it.
type Conn interface {
	// Send queues one event for delivery. Implementations must not block
	// the caller; on overflow or a closed connection the event is dropped
	// and an error returned.
	Send(ev *protocol.Event) error
	// IsOpen reports whether the underlying link is still usable.
	IsOpen() bool
	// Close tears the link down. Safe to call more than once.
	Close() error
	// RemoteAddr describes the peer for logging.
	RemoteAddr() string
}
