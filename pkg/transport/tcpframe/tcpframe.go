// Package tcpframe implements the native-client transport: events as
// length-prefixed frames (u32 LE) over a plain TCP connection, with the
// payload format (JSON or CBOR) chosen at listener construction.
package tcpframe

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"textanon/pkg/protocol"
	"textanon/pkg/protocol/codec"
)

// MaxFrame caps a single frame; anything larger is a protocol violation.
const MaxFrame = 1 << 20

var (
	// ErrClosed is returned by Send after the connection closed.
	ErrClosed = errors.New("tcpframe: connection closed")
	// ErrBufferFull is returned by Send when the outbound buffer is full.
	ErrBufferFull = errors.New("tcpframe: send buffer full")
	errFrameSize  = errors.New("tcpframe: invalid frame size")
)

// Options tunes the listener and its connections.
type Options struct {
	// Codec encodes frame payloads; JSON when nil.
	Codec codec.Codec
	// SendBuffer is the outbound event buffer size; 64 when zero.
	SendBuffer int
	// WriteTimeout bounds a single frame write; 10s when zero.
	WriteTimeout time.Duration
}

func (o *Options) defaults() {
	if o.Codec == nil {
		o.Codec = codec.JSON()
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
}

// Listener accepts framed TCP connections.
type Listener struct {
	l    net.Listener
	opts Options
	log  *zap.Logger
}

// Listen starts accepting on address. The listener closes with ctx.
func Listen(ctx context.Context, address string, opts Options, log *zap.Logger) (*Listener, error) {
	opts.defaults()
	if log == nil {
		log = zap.L()
	}
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	tl := &Listener{l: l, opts: opts, log: log}
	go func() { <-ctx.Done(); _ = tl.Close() }()
	return tl, nil
}

// Addr returns the local listening address.
func (tl *Listener) Addr() net.Addr { return tl.l.Addr() }

// Close stops the listener.
func (tl *Listener) Close() error { return tl.l.Close() }

// Accept blocks until the next inbound connection. The returned Conn has its
// write pump running.
func (tl *Listener) Accept() (*Conn, error) {
	c, err := tl.l.Accept()
	if err != nil {
		return nil, err
	}
	return newConn(c, tl.opts, tl.log), nil
}

// Conn is one framed TCP session. It implements transport.Conn.
type Conn struct {
	c    net.Conn
	br   *bufio.Reader
	cdc  codec.Codec
	opts Options
	out  chan []byte

	closeOnce sync.Once
	done      chan struct{}
	log       *zap.Logger
}

func newConn(c net.Conn, opts Options, log *zap.Logger) *Conn {
	fc := &Conn{
		c:    c,
		br:   bufio.NewReader(c),
		cdc:  opts.Codec,
		opts: opts,
		out:  make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
	go fc.writePump()
	return fc
}

// Dial connects to a framed TCP server. Used by native clients and tests.
func Dial(ctx context.Context, address string, opts Options, log *zap.Logger) (*Conn, error) {
	opts.defaults()
	if log == nil {
		log = zap.L()
	}
	d := &net.Dialer{}
	c, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return newConn(c, opts, log), nil
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
		_ = c.c.Close()
	})
	return nil
}

func (c *Conn) RemoteAddr() string { return c.c.RemoteAddr().String() }

// ReadLoop reads frames and hands raw payloads to handler one at a time.
// Returns when the connection closes.
func (c *Conn) ReadLoop(handler func(raw []byte)) {
	defer c.Close()
	for {
		raw, err := c.readFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug("read failed", zap.String("remote", c.RemoteAddr()), zap.Error(err))
			}
			return
		}
		handler(raw)
	}
}

// Recv reads a single frame and decodes it. Client-side convenience.
func (c *Conn) Recv() (*protocol.Event, error) {
	raw, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	var ev protocol.Event
	if err := c.cdc.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Conn) readFrame() ([]byte, error) {
	var lenbuf [4]byte
	if _, err := io.ReadFull(c.br, lenbuf[:]); err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(lenbuf[:]))
	if n <= 0 || n > MaxFrame {
		return nil, errFrameSize
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Conn) writePump() {
	bw := bufio.NewWriter(c.c)
	var lenbuf [4]byte
	for {
		select {
		case b := <-c.out:
			_ = c.c.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(b)))
			if _, err := bw.Write(lenbuf[:]); err != nil {
				c.Close()
				return
			}
			if _, err := bw.Write(b); err != nil {
				c.Close()
				return
			}
			if err := bw.Flush(); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
