// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting read at startup by the server and the historian.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	RedisAddr          string `mapstructure:"redis_addr"`
	RedisDB            int    `mapstructure:"redis_db"`
	HistorianQueueName string `mapstructure:"historian_queue_name"`
	DatabaseURL        string `mapstructure:"database_url"`

	// TokenExpireTime is "never", "0" or a Go duration such as "72h".
	TokenExpireTime string `mapstructure:"token_expire_time"`
	RoomOutBuffer   int    `mapstructure:"room_out_buffer"`

	HistorianBatchSize int `mapstructure:"historian_batch_size"`
	HistorianFlushMS   int `mapstructure:"historian_flush_ms"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("historian_queue_name", "uno_actions")
	v.SetDefault("database_url", "")
	v.SetDefault("token_expire_time", "never")
	v.SetDefault("room_out_buffer", 64)
	v.SetDefault("historian_batch_size", 100)
	v.SetDefault("historian_flush_ms", 500)
}

// Load reads defaults, then the config file at path (if non-empty), then environment variables,
// each layer overriding the previous one. Environment keys are the upper-case setting names.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.RoomOutBuffer < 1 {
		return fmt.Errorf("room_out_buffer must be positive, got %d", c.RoomOutBuffer)
	}
	if c.HistorianBatchSize < 1 {
		return fmt.Errorf("historian_batch_size must be positive, got %d", c.HistorianBatchSize)
	}
	if c.HistorianFlushMS < 1 {
		return fmt.Errorf("historian_flush_ms must be positive, got %d", c.HistorianFlushMS)
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	return nil
}

// TokenTTL parses TokenExpireTime. Zero means tokens never expire.
func (c *Config) TokenTTL() (time.Duration, error) {
	switch c.TokenExpireTime {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(c.TokenExpireTime)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// FlushInterval is HistorianFlushMS as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.HistorianFlushMS) * time.Millisecond
}
