package config

import "time"

// Client holds chat client configuration values.
type Client struct {
	ServerURL       string        `mapstructure:"server_url" yaml:"server_url"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	IdentityPath    string        `mapstructure:"identity_path" yaml:"identity_path"`
	ReconnectDelay  time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	TypingTimeout   time.Duration `mapstructure:"typing_timeout" yaml:"typing_timeout"`
	TypingCoalesce  time.Duration `mapstructure:"typing_coalesce" yaml:"typing_coalesce"`
	OutboundBuffer  int           `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// DefaultClient returns client configuration with reasonable starter defaults.
func DefaultClient() Client {
	return Client{
		ServerURL:       "ws://localhost:9000/ws",
		LogLevel:        "info",
		IdentityPath:    "roomchat.db",
		ReconnectDelay:  2 * time.Second,
		TypingTimeout:   3 * time.Second,
		OutboundBuffer:  64,
		MaxMessageBytes: 1 << 20,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Client) UpdateFrom(other Client) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.IdentityPath != "" {
		c.IdentityPath = other.IdentityPath
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.TypingTimeout != 0 {
		c.TypingTimeout = other.TypingTimeout
	}
	if other.TypingCoalesce != 0 {
		c.TypingCoalesce = other.TypingCoalesce
	}
	if other.OutboundBuffer != 0 {
		c.OutboundBuffer = other.OutboundBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
}

// Relay holds reference relay server configuration values.
type Relay struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimit         int           `mapstructure:"rate_limit" yaml:"rate_limit"` // frames per minute per connection, 0 disables
}

// DefaultRelay returns relay configuration with reasonable starter defaults.
func DefaultRelay() Relay {
	return Relay{
		Addr:              ":9000",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   1 << 20,
		RateLimit:         600,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Relay) UpdateFrom(other Relay) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimit != 0 {
		c.RateLimit = other.RateLimit
	}
}
