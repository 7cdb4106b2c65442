package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}

	seen := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels[%d].name is required", i)
		}
		if ch.Address == "" {
			return fmt.Errorf("channels[%d].address is required", i)
		}
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}

	conn := c.Connection
	if conn.ReconnectMultiplier < 1 {
		return fmt.Errorf("connection.reconnect_multiplier must be >= 1, got %g", conn.ReconnectMultiplier)
	}
	if conn.ReconnectMaxDelay < conn.ReconnectBaseDelay {
		return errors.New("connection.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if conn.MaxReconnectAttempts < 1 {
		return errors.New("connection.max_reconnect_attempts must be >= 1")
	}
	if conn.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	return nil
}
