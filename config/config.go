package config

import (
	"fmt"
	"net"
)

// Config holds runtime settings for the probe tool.
type Config struct {
	Addr      string // broker address (host:port)
	LogLevel  string
	MaxFrames int // stop after this many frames; 0 means read until close
}

func Default() Config {
	return Config{
		Addr:     "localhost:5672",
		LogLevel: "info",
	}
}

func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("config: invalid addr %q: %w", c.Addr, err)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("config: max frames must be >= 0, got %d", c.MaxFrames)
	}
	return nil
}
