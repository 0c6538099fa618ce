package codec

import (
	"testing"

	"textanon/pkg/protocol"
)

func mustCBOR(t *testing.T) Codec {
	t.Helper()
	c, err := CBOR()
	if err != nil {
		t.Fatalf("cbor codec: %v", err)
	}
	return c
}

func roundTrip(t *testing.T, c Codec) {
	t.Helper()
	in := protocol.ChatMessage("s1", "Alice", "payload==", 42, "m-1")
	raw, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("%s marshal: %v", c.ContentType(), err)
	}
	var out protocol.Event
	if err := c.Unmarshal(raw, &out); err != nil {
		t.Fatalf("%s unmarshal: %v", c.ContentType(), err)
	}
	if out.Type != in.Type || out.SenderID != in.SenderID || out.Ciphertext != in.Ciphertext || out.Timestamp != in.Timestamp {
		t.Fatalf("%s roundtrip mismatch: %+v", c.ContentType(), out)
	}
}

func TestJSONRoundTrip(t *testing.T) { roundTrip(t, JSON()) }

func TestCBORRoundTrip(t *testing.T) { roundTrip(t, mustCBOR(t)) }

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if r.Get(JSON().ContentType()) == nil {
		t.Fatalf("registry missing preloaded JSON codec")
	}
	if r.Get("application/x-unknown") != nil {
		t.Fatalf("unknown content type resolved")
	}
	c := mustCBOR(t)
	r.Register(c)
	if r.Get(c.ContentType()) == nil {
		t.Fatalf("registered codec not found")
	}
}

func TestByName(t *testing.T) {
	c, err := ByName("cbor")
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if c.ContentType() != "application/cbor" {
		t.Fatalf("cbor alias resolved to %s", c.ContentType())
	}
	c, err = ByName("")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if c.ContentType() != "application/json" {
		t.Fatalf("default alias resolved to %s", c.ContentType())
	}
}

func TestJSONDecodeMalformed(t *testing.T) {
	var out protocol.Event
	if err := JSON().Unmarshal([]byte("{not json"), &out); err == nil {
		t.Fatalf("malformed input accepted")
	}
}
