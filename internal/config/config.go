package config

import "time"

// Config is the root configuration for a live-channel watcher instance.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Connection ConnectionConfig `yaml:"connection"`
	Channels   []ChannelConfig  `yaml:"channels"`
}

// InstanceConfig identifies this watcher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ConnectionConfig holds settings shared by every channel client.
type ConnectionConfig struct {
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMultiplier  float64       `yaml:"reconnect_multiplier"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"` // 0 disables pong verification
	PollInterval         time.Duration `yaml:"poll_interval"`
	ReadTimeout          time.Duration `yaml:"read_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
}

// ChannelConfig describes one logical channel to watch.
type ChannelConfig struct {
	Name          string   `yaml:"name"`
	Address       string   `yaml:"address"`
	Subscriptions []string `yaml:"subscriptions"` // message types or categories
}
