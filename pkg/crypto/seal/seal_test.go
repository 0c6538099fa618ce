package seal

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewKeyFormat(t *testing.T) {
	k := NewKey()
	if len(k) != 64 {
		t.Fatalf("key length = %d, want 64", len(k))
	}
	if k != strings.ToLower(k) {
		t.Fatalf("key not lowercase: %q", k)
	}
	for _, c := range k {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("non-hex rune %q in key", c)
		}
	}
	if NewKey() == k {
		t.Fatalf("two generated keys are identical")
	}
}

func TestRoundTrip(t *testing.T) {
	key := NewKey()
	for _, text := range []string{
		"hello",
		"",
		"exactly sixteen b", // crosses one block boundary
		"unicode: ёжик 🦔 café",
		strings.Repeat("long message ", 100),
	} {
		ct, err := Encrypt(text, key)
		if err != nil {
			t.Fatalf("encrypt %q: %v", text, err)
		}
		got, err := Decrypt(ct, key)
		if err != nil {
			t.Fatalf("decrypt %q: %v", text, err)
		}
		if got != text {
			t.Fatalf("roundtrip mismatch: got %q want %q", got, text)
		}
	}
}

func TestWireFormat(t *testing.T) {
	key := NewKey()
	ct, err := Encrypt("hi", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ct)
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	if len(raw) < 32 || len(raw)%16 != 0 {
		t.Fatalf("payload size %d not IV+blocks", len(raw))
	}
}

func TestFreshIVPerMessage(t *testing.T) {
	key := NewKey()
	a, _ := Encrypt("same text", key)
	b, _ := Encrypt("same text", key)
	if a == b {
		t.Fatalf("two encryptions of the same text are identical (IV reuse)")
	}
}

func TestKeyErrors(t *testing.T) {
	for _, bad := range []string{"", "abcd", strings.Repeat("g", 64), strings.Repeat("ab", 16)} {
		if _, err := Encrypt("x", bad); err == nil {
			t.Fatalf("encrypt accepted bad key %q", bad)
		}
		if _, err := Decrypt("eA==", bad); err == nil {
			t.Fatalf("decrypt accepted bad key %q", bad)
		}
	}
}

func TestCiphertextErrors(t *testing.T) {
	key := NewKey()
	cases := map[string]string{
		"not base64":  "!!!not-base64!!!",
		"too short":   base64.StdEncoding.EncodeToString(make([]byte, 16)),
		"not aligned": base64.StdEncoding.EncodeToString(make([]byte, 40)),
		"empty":       "",
	}
	for name, payload := range cases {
		if _, err := Decrypt(payload, key); err == nil {
			t.Fatalf("%s: decrypt accepted malformed payload", name)
		}
	}
}
