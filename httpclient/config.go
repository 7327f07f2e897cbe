package httpclient

import (
	"encoding/json"
	"fmt"
	"time"
)

// Default transport timeouts applied when a value is not configured.
var (
	DefaultTimeout               = Timeout(0)
	DefaultTCPDialTimeout        = Timeout(30 * time.Second)
	DefaultTCPKeepAlive          = Timeout(30 * time.Second)
	DefaultTLSHandshakeTimeout   = Timeout(10 * time.Second)
	DefaultResponseHeaderTimeout = Timeout(10 * time.Second)
	DefaultIdleConnTimeout       = Timeout(90 * time.Second)
)

// Timeout wraps time.Duration to support JSON/YAML marshaling of
// human-readable duration strings (e.g. "30s", "5m", "1h").
// Use as a pointer (*Timeout) in config structs so that nil means "not set"
// and a zero value means "explicitly disabled".
type Timeout time.Duration

// NewTimeout creates a pointer to a Timeout set to the given time.Duration.
func NewTimeout(d time.Duration) *Timeout {
	v := Timeout(d)
	return &v
}

// Value returns the underlying time.Duration.
// Returns 0 when called on a nil pointer.
func (d *Timeout) Value() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

func (d Timeout) String() string {
	return time.Duration(d).String()
}

func (d Timeout) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Timeout) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse timeout: %w", err)
	}

	switch value := v.(type) {
	case float64:
		*d = Timeout(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout value %q: must be a duration like 30s, 5m, or nanoseconds number: %w", value, err)
		}
		*d = Timeout(tmp)
		return nil
	default:
		return fmt.Errorf("timeout must be a duration string or nanoseconds number, got %T", v)
	}
}

// Config holds the transport settings shared by every HTTP based loader.
type Config struct {
	// Timeout is the overall request timeout. If not set, it is disabled.
	Timeout *Timeout `json:"timeout,omitempty"`
	// ResponseHeaderTimeout defaults to 10s.
	ResponseHeaderTimeout *Timeout `json:"responseHeaderTimeout,omitempty"`
	// IdleConnTimeout defaults to 90s.
	IdleConnTimeout *Timeout `json:"idleConnTimeout,omitempty"`
	// TCPDialTimeout defaults to 30s.
	TCPDialTimeout *Timeout `json:"tcpDialTimeout,omitempty"`
	// TCPKeepAlive defaults to 30s.
	TCPKeepAlive *Timeout `json:"tcpKeepAlive,omitempty"`
	// TLSHandshakeTimeout defaults to 10s.
	TLSHandshakeTimeout *Timeout `json:"tlsHandshakeTimeout,omitempty"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `json:"userAgent,omitempty"`
	// Retry retries failed requests with backoff.
	Retry bool `json:"retry,omitempty"`
}

// DefaultConfig returns a Config with every timeout set to its default.
func DefaultConfig() *Config {
	return &Config{
		Timeout:               &DefaultTimeout,
		TCPDialTimeout:        &DefaultTCPDialTimeout,
		TCPKeepAlive:          &DefaultTCPKeepAlive,
		TLSHandshakeTimeout:   &DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: &DefaultResponseHeaderTimeout,
		IdleConnTimeout:       &DefaultIdleConnTimeout,
	}
}

// Merge merges the provided configs into a single config.
// The last explicitly set value wins.
func Merge(configs ...*Config) *Config {
	if len(configs) == 0 {
		return nil
	}

	merged := new(Config)
	for _, config := range configs {
		if config == nil {
			continue
		}
		if config.Timeout != nil {
			merged.Timeout = config.Timeout
		}
		if config.TCPDialTimeout != nil {
			merged.TCPDialTimeout = config.TCPDialTimeout
		}
		if config.TCPKeepAlive != nil {
			merged.TCPKeepAlive = config.TCPKeepAlive
		}
		if config.TLSHandshakeTimeout != nil {
			merged.TLSHandshakeTimeout = config.TLSHandshakeTimeout
		}
		if config.ResponseHeaderTimeout != nil {
			merged.ResponseHeaderTimeout = config.ResponseHeaderTimeout
		}
		if config.IdleConnTimeout != nil {
			merged.IdleConnTimeout = config.IdleConnTimeout
		}
		if config.UserAgent != "" {
			merged.UserAgent = config.UserAgent
		}
		if config.Retry {
			merged.Retry = true
		}
	}

	return merged
}
