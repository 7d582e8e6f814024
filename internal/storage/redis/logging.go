package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rzbill/serialflo/pkg/log"
)

type driverLogger struct{ l log.Logger }

func (d driverLogger) Printf(_ context.Context, format string, v ...interface{}) {
	d.l.Warn(fmt.Sprintf(format, v...))
}

// RedirectDriverLog routes go-redis internal messages (pool, reconnects) through l.
func RedirectDriverLog(l log.Logger) {
	redis.SetLogger(driverLogger{l: l.With(log.Component("go-redis"))})
}
