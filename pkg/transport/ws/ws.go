// Package ws implements the production WebSocket transport on top of
// gorilla/websocket. Events travel as JSON text frames; outbound traffic is
// funneled through a bounded buffer drained by a single write pump, so a
// slow browser never blocks the caller.
package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"textanon/pkg/protocol"
	"textanon/pkg/protocol/codec"
)

var (
	// ErrClosed is returned by Send after the connection closed.
	ErrClosed = errors.New("ws: connection closed")
	// ErrBufferFull is returned by Send when the outbound buffer is full;
	// the event is dropped.
	ErrBufferFull = errors.New("ws: send buffer full")
)

// Options tunes one WebSocket connection.
type Options struct {
	// SendBuffer is the outbound event buffer size; 64 when zero.
	SendBuffer int
	// WriteTimeout bounds a single frame write; 10s when zero.
	WriteTimeout time.Duration
	// PingInterval is the keepalive ping period; 30s when zero.
	PingInterval time.Duration
	// ReadLimit caps inbound frame size in bytes; 64 KiB when zero.
	ReadLimit int64
}

func (o *Options) defaults() {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// anonymous public service; no origin restriction
	CheckOrigin: func(*http.Request) bool { return true },
}

// Conn is one client's WebSocket session. It implements transport.Conn.
type Conn struct {
	ws   *websocket.Conn
	cdc  codec.Codec
	opts Options
	out  chan []byte

	closeOnce sync.Once
	done      chan struct{}
	log       *zap.Logger
}

// Upgrade performs the HTTP upgrade and starts the write pump.
func Upgrade(w http.ResponseWriter, r *http.Request, opts Options, log *zap.Logger) (*Conn, error) {
	opts.defaults()
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.L()
	}
	c := &Conn{
		ws:   sock,
		cdc:  codec.JSON(),
		opts: opts,
		out:  make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
	go c.writePump()
	return c, nil
}

func (c *Conn) Send(ev *protocol.Event) error {
	b, err := c.cdc.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- b:
		return nil
	default:
		c.log.Warn("outbound buffer full, dropping event",
			zap.String("remote", c.RemoteAddr()), zap.String("type", string(ev.Type)))
		return ErrBufferFull
	}
}

func (c *Conn) IsOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// ReadLoop decodes inbound frames and hands them to handler one at a time,
// preserving per-connection ordering. It returns when the socket closes;
// the caller runs its disconnect handling afterwards.
func (c *Conn) ReadLoop(handler func(raw []byte)) {
	defer c.Close()
	c.ws.SetReadLimit(c.opts.ReadLimit)
	deadline := c.opts.PingInterval * 2
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(deadline))
	})
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", zap.String("remote", c.RemoteAddr()), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
		handler(data)
	}
}

func (c *Conn) writePump() {
	ping := time.NewTicker(c.opts.PingInterval)
	defer ping.Stop()
	for {
		select {
		case b := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.Close()
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
