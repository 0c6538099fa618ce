// Package mem provides an in-process transport connection. It stands in for
// a real socket in tests: sent events are recorded instead of serialized.
package mem

import (
	"errors"
	"sync"

	"textanon/pkg/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("mem: connection closed")

// Conn implements transport.Conn and records everything sent through it.
type Conn struct {
	mu     sync.Mutex
	addr   string
	closed bool
	events []*protocol.Event
}

// New returns an open in-memory connection.
func New(addr string) *Conn { return &Conn{addr: addr} }

func (c *Conn) Send(ev *protocol.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) RemoteAddr() string { return c.addr }

// Events returns a snapshot of everything sent so far.
func (c *Conn) Events() []*protocol.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Event, len(c.events))
	copy(out, c.events)
	return out
}

// ByType returns the sent events of one type, oldest first.
func (c *Conn) ByType(t protocol.EventType) []*protocol.Event {
	var out []*protocol.Event
	for _, ev := range c.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recent event of type t, or nil.
func (c *Conn) Last(t protocol.EventType) *protocol.Event {
	evs := c.ByType(t)
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

// Reset discards recorded events.
func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
