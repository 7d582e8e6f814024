package redisstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// TechnicalError wraps a connectivity or driver failure with the label of the
// operation that produced it.
type TechnicalError struct {
	Op  string
	Err error
}

func (e *TechnicalError) Error() string { return fmt.Sprintf("redis %s: %v", e.Op, e.Err) }

func (e *TechnicalError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means "key or group absent": a nil reply or
// a "no such key" error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "no such key") || strings.Contains(msg, "NOGROUP")
}

// IsBusyGroup reports whether err is the reply to creating a group that exists.
func IsBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}
