package tcpframe

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"textanon/pkg/protocol"
	"textanon/pkg/protocol/codec"
)

func loopback(t *testing.T, opts Options) (server, client *Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l, err := Listen(ctx, "127.0.0.1:0", opts, zap.NewNop())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	accepted := make(chan *Conn, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	client, err = Dial(ctx, l.Addr().String(), opts, zap.NewNop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatalf("accept timed out")
	}
	t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
	return server, client
}

func TestFrameRoundTrip(t *testing.T) {
	server, client := loopback(t, Options{})

	if err := server.Send(protocol.AssignedID("abc")); err != nil {
		t.Fatalf("server send: %v", err)
	}
	ev, err := client.Recv()
	if err != nil {
		t.Fatalf("client recv: %v", err)
	}
	if ev.Type != protocol.EvtAssignedID || ev.ID != "abc" {
		t.Fatalf("recv = %+v", ev)
	}

	if err := client.Send(protocol.Typing(true, "abc")); err != nil {
		t.Fatalf("client send: %v", err)
	}
	ev, err = server.Recv()
	if err != nil {
		t.Fatalf("server recv: %v", err)
	}
	if ev.Type != protocol.EvtTyping || !ev.Active {
		t.Fatalf("recv = %+v", ev)
	}
}

func TestCBORFrames(t *testing.T) {
	cdc, err := codec.ByName("cbor")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	server, client := loopback(t, Options{Codec: cdc})

	if err := server.Send(protocol.SharedKey("deadbeef")); err != nil {
		t.Fatalf("send: %v", err)
	}
	ev, err := client.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if ev.Type != protocol.EvtSharedKey || ev.Key != "deadbeef" {
		t.Fatalf("recv = %+v", ev)
	}
}

func TestReadLoopDeliversFrames(t *testing.T) {
	server, client := loopback(t, Options{})

	got := make(chan []byte, 2)
	go server.ReadLoop(func(raw []byte) { got <- append([]byte(nil), raw...) })

	_ = client.Send(protocol.SystemNotice("one"))
	_ = client.Send(protocol.SystemNotice("two"))

	for _, want := range []string{"one", "two"} {
		select {
		case raw := <-got:
			var ev protocol.Event
			if err := codec.JSON().Unmarshal(raw, &ev); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ev.Text != want {
				t.Fatalf("text = %q, want %q", ev.Text, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %q never arrived", want)
		}
	}
}

func TestSendAfterClose(t *testing.T) {
	server, _ := loopback(t, Options{})
	_ = server.Close()
	if server.IsOpen() {
		t.Fatalf("closed connection reports open")
	}
	if err := server.Send(protocol.Waiting()); err != ErrClosed {
		t.Fatalf("send after close: %v", err)
	}
}

func TestRecvRejectsOversizeFrame(t *testing.T) {
	server, client := loopback(t, Options{})

	// write a frame header promising more than MaxFrame bytes
	hdr := []byte{0xff, 0xff, 0xff, 0xff}
	if _, err := client.c.Write(hdr); err != nil {
		t.Fatalf("raw write: %v", err)
	}
	if _, err := server.Recv(); err == nil {
		t.Fatalf("oversize frame accepted")
	}
}
