package serial

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

const defaultTTL = 5 * time.Minute

// Config holds controller defaults.
type Config struct {
	// Type is the drain order used when a trigger does not choose one. FIFO when unset.
	Type stream.MessageType
	// TTL bounds the list and token lifetime when a trigger does not set one.
	TTL time.Duration
}

// Controller implements the append-then-decide trigger protocol.
type Controller struct {
	runner    redisstore.Runner
	publisher stream.Publisher
	cfg       Config
	logger    log.Logger

	now      func() time.Time
	newToken func() string
}

// NewController returns a controller publishing through publisher.
func NewController(runner redisstore.Runner, publisher stream.Publisher, cfg Config, logger log.Logger) *Controller {
	if cfg.Type == stream.TypeUnspecified {
		cfg.Type = stream.TypeFIFO
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Controller{
		runner:    runner,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With(log.Component("serial")),
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

// Trigger appends payload to the list for key and reports whether a stream
// entry was published. A blank key publishes payload directly.
//
// The append and the decision are separate round trips: two concurrent first
// appends can both publish. Drains tolerate the duplicate entry.
func (c *Controller) Trigger(ctx context.Context, key, payload string, opts ...TriggerOption) (bool, error) {
	o := triggerOptions{ttl: c.cfg.TTL, msgType: c.cfg.Type}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(key) == "" {
		if _, err := c.publisher.Publish(ctx, payload, c.props(o, false)); err != nil {
			return false, err
		}
		return true, nil
	}

	conn, err := c.runner.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var length int64
	if err := conn.Run(ctx, "rpush", func(cmd redis.Cmdable) error {
		var err error
		length, err = cmd.RPush(ctx, key, payload).Result()
		return err
	}); err != nil {
		return false, err
	}

	tokenKey := stream.TokenKey(key)
	if length > 1 {
		err := conn.Run(ctx, "refresh-ttl", func(cmd redis.Cmdable) error {
			if err := cmd.Expire(ctx, tokenKey, o.ttl).Err(); err != nil {
				return err
			}
			return cmd.ExpireNX(ctx, key, o.ttl).Err()
		})
		if err != nil {
			return false, err
		}
		c.logger.Debug("appended to active list", log.Str("key", key), log.Int64("length", length))
		return false, nil
	}

	token := c.newToken()
	if err := conn.Run(ctx, "mint-token", func(cmd redis.Cmdable) error {
		if err := cmd.Set(ctx, tokenKey, token, o.ttl).Err(); err != nil {
			return err
		}
		return cmd.ExpireNX(ctx, key, o.ttl).Err()
	}); err != nil {
		return false, err
	}

	props := c.props(o, true)
	entryID, err := c.publisher.Publish(ctx, key, props)
	if err != nil {
		return false, err
	}
	c.logger.Debug("published drain entry",
		log.Str("key", key),
		log.Str("entry", entryID),
		log.Str("type", o.msgType.String()))
	return true, nil
}

// TriggerJSON marshals v with encoding/json and triggers it.
func (c *Controller) TriggerJSON(ctx context.Context, key string, v any, opts ...TriggerOption) (bool, error) {
	if v == nil {
		return false, fmt.Errorf("%w: payload is nil", stream.ErrInvalidArgument)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("%w: encode payload: %v", stream.ErrInvalidArgument, err)
	}
	return c.Trigger(ctx, key, string(b), opts...)
}

func (c *Controller) props(o triggerOptions, typed bool) map[string]string {
	props := map[string]string{
		stream.FieldTTL: stream.TTLField(c.now(), o.ttl),
	}
	if typed {
		props[stream.FieldMessageType] = o.msgType.String()
	}
	if o.suffix != "" {
		props[stream.FieldCorrelationSuffix] = o.suffix
	}
	return props
}
