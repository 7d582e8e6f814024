// Package config provides loading and environment overlay for serialflo
// configuration: the Redis connection, the consumer group configuration
// source (enablement, read timeout, default TTL), per-key ordering and the
// admin listener.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/serialflo/config.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
