package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// IdleTime closes ledger connections idle this long; zero keeps the pool default
	IdleTime time.Duration

	// boot knobs, zero picks the defaults below
	ConnectRetries int
	PingTimeout    time.Duration
}

const (
	defaultConnectRetries = 6
	defaultPingTimeout    = 3 * time.Second
)

func (c PGConfig) retries() int {
	if c.ConnectRetries <= 0 {
		return defaultConnectRetries
	}
	return c.ConnectRetries
}

func (c PGConfig) pingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}
