package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays SERIALFLO_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SERIALFLO_REDIS_ADDRS"); v != "" {
		cfg.Redis.Addrs = splitList(v)
	}
	if v := os.Getenv("SERIALFLO_REDIS_USERNAME"); v != "" {
		cfg.Redis.Username = v
	}
	if v := os.Getenv("SERIALFLO_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	setInt("SERIALFLO_REDIS_DB", &cfg.Redis.DB)
	setInt("SERIALFLO_REDIS_POOL_SIZE", &cfg.Redis.PoolSize)

	if v := os.Getenv("SERIALFLO_GROUP_NAME"); v != "" {
		cfg.Group.Name = v
	}
	if v := os.Getenv("SERIALFLO_GROUP_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Group.Enabled = b
		}
	}
	setInt("SERIALFLO_GROUP_READ_TIMEOUT_MS", &cfg.Group.ReadTimeoutMs)
	setInt("SERIALFLO_GROUP_DEFAULT_TTL_SEC", &cfg.Group.DefaultTTLSec)
	setInt("SERIALFLO_GROUP_CONSUMERS", &cfg.Group.Consumers)
	setInt("SERIALFLO_GROUP_RECLAIM_IDLE_MS", &cfg.Group.ReclaimIdleMs)
	setInt("SERIALFLO_GROUP_RECLAIM_INTERVAL_MS", &cfg.Group.ReclaimIntervalMs)
	if v := os.Getenv("SERIALFLO_GROUP_FILTER"); v != "" {
		cfg.Group.Filter = v
	}

	if v := os.Getenv("SERIALFLO_SERIAL_TYPE"); v != "" {
		cfg.Serial.Type = strings.ToUpper(v)
	}
	setInt("SERIALFLO_SERIAL_QUEUE_TTL_SEC", &cfg.Serial.QueueTTLSec)

	setInt("SERIALFLO_RETRY_MAX_TRIES", &cfg.Retry.MaxTries)
	setInt("SERIALFLO_RETRY_INITIAL_MS", &cfg.Retry.InitialMs)
	setInt("SERIALFLO_RETRY_MAX_MS", &cfg.Retry.MaxMs)

	if v := os.Getenv("SERIALFLO_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("SERIALFLO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SERIALFLO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
