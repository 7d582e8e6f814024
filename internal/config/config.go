package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Redis  Redis  `json:"redis" yaml:"redis"`
	Group  Group  `json:"group" yaml:"group"`
	Serial Serial `json:"serial" yaml:"serial"`
	Retry  Retry  `json:"retry" yaml:"retry"`
	HTTP   HTTP   `json:"http" yaml:"http"`
	Log    Log    `json:"log" yaml:"log"`
}

// Redis describes how to reach the store. More than one address selects a cluster client.
type Redis struct {
	Addrs         []string `json:"addrs" yaml:"addrs"`
	Username      string   `json:"username" yaml:"username"`
	Password      string   `json:"password" yaml:"password"`
	DB            int      `json:"db" yaml:"db"`
	PoolSize      int      `json:"poolSize" yaml:"poolSize"`
	DialTimeoutMs int      `json:"dialTimeoutMs" yaml:"dialTimeoutMs"`
}

// Group is the consumer group configuration source.
type Group struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	// ReadTimeoutMs bounds one blocking XREADGROUP.
	ReadTimeoutMs int `json:"readTimeoutMs" yaml:"readTimeoutMs"`
	// DefaultTTLSec is applied to triggers that do not carry their own TTL.
	DefaultTTLSec     int    `json:"defaultTtlSec" yaml:"defaultTtlSec"`
	Consumers         int    `json:"consumers" yaml:"consumers"`
	ConsumerPrefix    string `json:"consumerPrefix" yaml:"consumerPrefix"`
	ReclaimIdleMs     int    `json:"reclaimIdleMs" yaml:"reclaimIdleMs"`
	ReclaimIntervalMs int    `json:"reclaimIntervalMs" yaml:"reclaimIntervalMs"`
	// Filter is an optional CEL expression; entries it rejects are acked unprocessed.
	Filter string `json:"filter" yaml:"filter"`
	// MaxLen caps the stream with approximate trimming on publish (0 disables).
	MaxLen int64 `json:"maxLen" yaml:"maxLen"`
}

// Serial configures per-key ordering.
type Serial struct {
	// Type is FIFO or LIFO.
	Type        string `json:"type" yaml:"type"`
	QueueTTLSec int    `json:"queueTtlSec" yaml:"queueTtlSec"`
}

// Retry is the per-element retry budget.
type Retry struct {
	MaxTries  int `json:"maxTries" yaml:"maxTries"`
	InitialMs int `json:"initialMs" yaml:"initialMs"`
	MaxMs     int `json:"maxMs" yaml:"maxMs"`
}

// HTTP configures the admin listener.
type HTTP struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Log mirrors pkg/log.Config.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Redis: Redis{
			Addrs:         []string{"127.0.0.1:6379"},
			PoolSize:      16,
			DialTimeoutMs: 3000,
		},
		Group: Group{
			Name:              "serialflo",
			Enabled:           true,
			ReadTimeoutMs:     5000,
			DefaultTTLSec:     300,
			Consumers:         4,
			ConsumerPrefix:    "consumer",
			ReclaimIdleMs:     300_000,
			ReclaimIntervalMs: 60_000,
		},
		Serial: Serial{Type: "FIFO", QueueTTLSec: 300},
		Retry:  Retry{MaxTries: 3, InitialMs: 100, MaxMs: 2000},
		HTTP:   HTTP{Addr: ":8080"},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if len(c.Redis.Addrs) == 0 {
		return errors.New("redis.addrs must not be empty")
	}
	if strings.TrimSpace(c.Group.Name) == "" {
		return errors.New("group.name must not be empty")
	}
	if c.Group.ReadTimeoutMs <= 0 {
		return errors.New("group.readTimeoutMs must be positive")
	}
	if c.Group.DefaultTTLSec <= 0 {
		return errors.New("group.defaultTtlSec must be positive")
	}
	if c.Group.Consumers < 0 {
		return errors.New("group.consumers must not be negative")
	}
	switch strings.ToUpper(c.Serial.Type) {
	case "FIFO", "LIFO":
	default:
		return fmt.Errorf("serial.type must be FIFO or LIFO, got %q", c.Serial.Type)
	}
	return nil
}

// ReadTimeout returns the group read timeout as a duration.
func (g Group) ReadTimeout() time.Duration { return time.Duration(g.ReadTimeoutMs) * time.Millisecond }

// DefaultTTL returns the default trigger TTL as a duration.
func (g Group) DefaultTTL() time.Duration { return time.Duration(g.DefaultTTLSec) * time.Second }

// ReclaimIdle returns the pending idle threshold for reclaim.
func (g Group) ReclaimIdle() time.Duration { return time.Duration(g.ReclaimIdleMs) * time.Millisecond }

// ReclaimInterval returns how often the reclaimer runs.
func (g Group) ReclaimInterval() time.Duration {
	return time.Duration(g.ReclaimIntervalMs) * time.Millisecond
}

// QueueTTL returns the TTL refreshed on per-key lists during a drain.
func (s Serial) QueueTTL() time.Duration { return time.Duration(s.QueueTTLSec) * time.Second }

// DialTimeout returns the connect and initial ping timeout.
func (r Redis) DialTimeout() time.Duration { return time.Duration(r.DialTimeoutMs) * time.Millisecond }

// Initial returns the first retry wait.
func (r Retry) Initial() time.Duration { return time.Duration(r.InitialMs) * time.Millisecond }

// Max returns the retry wait cap.
func (r Retry) Max() time.Duration { return time.Duration(r.MaxMs) * time.Millisecond }
