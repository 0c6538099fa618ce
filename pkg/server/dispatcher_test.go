package server

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"textanon/pkg/hub"
	"textanon/pkg/moderation"
	"textanon/pkg/protocol"
	"textanon/pkg/protocol/codec"
	"textanon/pkg/transport/mem"
)

func newDispatcher(t *testing.T) (*Dispatcher, *hub.Hub) {
	t.Helper()
	filter, err := moderation.New(moderation.Options{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	h := hub.New(filter, hub.Options{RequeueWithoutPartner: true}, zap.NewNop())
	return NewDispatcher(h, zap.NewNop()), h
}

func frame(t *testing.T, ev *protocol.Event) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestDispatchRegister(t *testing.T) {
	d, h := newDispatcher(t)
	conn := mem.New("test")
	id := h.Connect(conn)

	d.Dispatch(id, conn, frame(t, &protocol.Event{Type: protocol.EvtRegister, Name: "Alice"}), codec.JSON())
	if conn.Last(protocol.EvtWaiting) == nil {
		t.Fatalf("register did not enter matchmaking")
	}
	if h.Waiting() != 1 {
		t.Fatalf("waiting = %d, want 1", h.Waiting())
	}
}

func TestDispatchMalformedFrame(t *testing.T) {
	d, h := newDispatcher(t)
	conn := mem.New("test")
	id := h.Connect(conn)

	d.Dispatch(id, conn, []byte("{truncated"), codec.JSON())
	if conn.Last(protocol.EvtSystemNotice) == nil {
		t.Fatalf("malformed frame produced no notice")
	}
	if h.Waiting() != 0 {
		t.Fatalf("malformed frame changed matchmaking state")
	}
}

func TestDispatchUnknownType(t *testing.T) {
	d, h := newDispatcher(t)
	conn := mem.New("test")
	id := h.Connect(conn)

	d.Dispatch(id, conn, frame(t, &protocol.Event{Type: "teleport"}), codec.JSON())
	if conn.Last(protocol.EvtSystemNotice) == nil {
		t.Fatalf("unknown type produced no notice")
	}
}

func TestDispatchEmptyChatRejected(t *testing.T) {
	d, h := newDispatcher(t)
	conn := mem.New("test")
	id := h.Connect(conn)
	d.Dispatch(id, conn, frame(t, &protocol.Event{Type: protocol.EvtRegister, Name: "A"}), codec.JSON())
	before := len(conn.ByType(protocol.EvtSystemNotice))

	d.Dispatch(id, conn, frame(t, &protocol.Event{Type: protocol.EvtChat}), codec.JSON())
	if len(conn.ByType(protocol.EvtSystemNotice)) != before+1 {
		t.Fatalf("empty chat payload accepted")
	}
}

func TestDispatchSkipAndTyping(t *testing.T) {
	d, h := newDispatcher(t)
	c1 := mem.New("a")
	c2 := mem.New("b")
	id1 := h.Connect(c1)
	id2 := h.Connect(c2)
	d.Dispatch(id1, c1, frame(t, &protocol.Event{Type: protocol.EvtRegister, Name: "A"}), codec.JSON())
	d.Dispatch(id2, c2, frame(t, &protocol.Event{Type: protocol.EvtRegister, Name: "B"}), codec.JSON())

	d.Dispatch(id1, c1, frame(t, &protocol.Event{Type: protocol.EvtTyping, Active: true}), codec.JSON())
	if c2.Last(protocol.EvtTyping) == nil {
		t.Fatalf("typing not routed to partner")
	}

	d.Dispatch(id1, c1, frame(t, &protocol.Event{Type: protocol.EvtSkip}), codec.JSON())
	if c2.Last(protocol.EvtChatEnded) == nil {
		t.Fatalf("skip not routed")
	}
}
