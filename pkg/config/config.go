// Package config provides YAML-based configuration loading for the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name of the process
	AppName string `mapstructure:"app_name"`

	// Server holds listener settings
	Server ServerConfig `mapstructure:"server"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Moderation configures the word filter
	Moderation ModerationConfig `mapstructure:"moderation"`

	// Relay configures relay-pipeline behavior
	Relay RelayConfig `mapstructure:"relay"`
}

// ServerConfig defines listener settings.
type ServerConfig struct {
	// WSListen is the HTTP/WebSocket listen address
	WSListen string `mapstructure:"ws_listen"`
	// WSPath is the WebSocket endpoint path
	WSPath string `mapstructure:"ws_path"`
	// TCPListen enables the framed TCP listener when non-empty
	TCPListen string `mapstructure:"tcp_listen"`
	// TCPCodec: json or cbor (frame payload format on the TCP listener)
	TCPCodec string `mapstructure:"tcp_codec"`

	// SendBuffer is the per-connection outbound event buffer
	SendBuffer int `mapstructure:"send_buffer"`
	// WriteTimeoutMS bounds one frame write
	WriteTimeoutMS int `mapstructure:"write_timeout_ms"`
	// PingIntervalMS is the WebSocket keepalive period
	PingIntervalMS int `mapstructure:"ping_interval_ms"`
	// ReadLimitBytes caps one inbound frame
	ReadLimitBytes int64 `mapstructure:"read_limit_bytes"`
	// ShutdownTimeoutMS bounds graceful shutdown
	ShutdownTimeoutMS int `mapstructure:"shutdown_timeout_ms"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ModerationConfig configures the word filter.
type ModerationConfig struct {
	// Mask is the replacement character for censored words
	Mask string `mapstructure:"mask"`
	// Words are additional dictionary entries
	Words []string `mapstructure:"words"`
	// WordlistFile optionally names a file with one word per line
	WordlistFile string `mapstructure:"wordlist_file"`
}

// RelayConfig configures relay-pipeline behavior.
type RelayConfig struct {
	// RequeueWithoutPartner re-queues a sender whose chat message finds
	// no valid partner, instead of leaving it paired-but-partnerless
	RequeueWithoutPartner bool `mapstructure:"requeue_without_partner"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "textanon-server",
		Server: ServerConfig{
			WSListen:          ":8080",
			WSPath:            "/ws",
			TCPListen:         "",
			TCPCodec:          "json",
			SendBuffer:        64,
			WriteTimeoutMS:    10000,
			PingIntervalMS:    30000,
			ReadLimitBytes:    64 << 10,
			ShutdownTimeoutMS: 5000,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/textanon.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Moderation: ModerationConfig{Mask: "*"},
		Relay:      RelayConfig{RequeueWithoutPartner: true},
	}
}

// Load reads configuration from the provided path (if non-empty), otherwise
// it searches common locations and supports environment overrides.
// Environment variables use the prefix TEXTANON and `.`/`-` are replaced
// with `_`. Example: TEXTANON_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TEXTANON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("server.ws_listen", cfg.Server.WSListen)
	v.SetDefault("server.ws_path", cfg.Server.WSPath)
	v.SetDefault("server.tcp_listen", cfg.Server.TCPListen)
	v.SetDefault("server.tcp_codec", cfg.Server.TCPCodec)
	v.SetDefault("server.send_buffer", cfg.Server.SendBuffer)
	v.SetDefault("server.write_timeout_ms", cfg.Server.WriteTimeoutMS)
	v.SetDefault("server.ping_interval_ms", cfg.Server.PingIntervalMS)
	v.SetDefault("server.read_limit_bytes", cfg.Server.ReadLimitBytes)
	v.SetDefault("server.shutdown_timeout_ms", cfg.Server.ShutdownTimeoutMS)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("moderation.mask", cfg.Moderation.Mask)
	v.SetDefault("moderation.words", cfg.Moderation.Words)
	v.SetDefault("moderation.wordlist_file", cfg.Moderation.WordlistFile)
	v.SetDefault("relay.requeue_without_partner", cfg.Relay.RequeueWithoutPartner)

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("TEXTANON_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `textanon`
		v.SetConfigName("textanon")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".textanon"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	if strings.TrimSpace(c.Server.WSListen) == "" {
		return fmt.Errorf("server.ws_listen must not be empty")
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = "/ws"
	}
	switch strings.ToLower(strings.TrimSpace(c.Server.TCPCodec)) {
	case "", "json":
		c.Server.TCPCodec = "json"
	case "cbor":
		c.Server.TCPCodec = "cbor"
	default:
		return fmt.Errorf("invalid server.tcp_codec: %q", c.Server.TCPCodec)
	}
	if c.Server.SendBuffer <= 0 {
		c.Server.SendBuffer = 64
	}

	if mask := []rune(c.Moderation.Mask); len(mask) > 1 {
		return fmt.Errorf("moderation.mask must be a single character")
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
