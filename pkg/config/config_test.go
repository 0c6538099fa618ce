package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "textanon.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app_name: textanon-server\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.WSListen != ":8080" || cfg.Server.WSPath != "/ws" {
		t.Fatalf("server defaults: %+v", cfg.Server)
	}
	if cfg.Server.TCPCodec != "json" || cfg.Server.SendBuffer != 64 {
		t.Fatalf("server defaults: %+v", cfg.Server)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
	if cfg.Moderation.Mask != "*" {
		t.Fatalf("moderation defaults: %+v", cfg.Moderation)
	}
	if !cfg.Relay.RequeueWithoutPartner {
		t.Fatalf("relay defaults: %+v", cfg.Relay)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  ws_listen: ":9999"
  tcp_listen: ":7000"
  tcp_codec: cbor
log:
  level: debug
moderation:
  mask: "#"
  words: [zebra]
relay:
  requeue_without_partner: false
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.WSListen != ":9999" || cfg.Server.TCPListen != ":7000" || cfg.Server.TCPCodec != "cbor" {
		t.Fatalf("server overrides lost: %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log override lost: %+v", cfg.Log)
	}
	if cfg.Moderation.Mask != "#" || len(cfg.Moderation.Words) != 1 {
		t.Fatalf("moderation overrides lost: %+v", cfg.Moderation)
	}
	if cfg.Relay.RequeueWithoutPartner {
		t.Fatalf("relay override lost")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TEXTANON_LOG_LEVEL", "warn")
	cfg, err := Load(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("env override lost: %q", cfg.Log.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad level":     "log:\n  level: loud\n",
		"bad codec":     "server:\n  tcp_codec: xml\n",
		"empty listen":  "server:\n  ws_listen: \" \"\n",
		"multirun mask": "moderation:\n  mask: \"**\"\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  tcp_codec: CBOR\n  ws_path: \"\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.TCPCodec != "cbor" {
		t.Fatalf("codec not normalized: %q", cfg.Server.TCPCodec)
	}
	if cfg.Server.WSPath != "/ws" {
		t.Fatalf("empty ws_path not defaulted: %q", cfg.Server.WSPath)
	}
}
