package stream

import (
	"context"

	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
)

// Publisher appends an entry whose message field is key and whose remaining
// fields are props.
type Publisher interface {
	Publish(ctx context.Context, key string, props map[string]string) (string, error)
}

// StreamPublisher publishes to a group's stream with XADD.
type StreamPublisher struct {
	runner redisstore.Runner
	key    string
	maxLen int64
}

// NewStreamPublisher publishes to StreamKey(group). maxLen > 0 enables
// approximate trimming.
func NewStreamPublisher(runner redisstore.Runner, group string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{runner: runner, key: StreamKey(group), maxLen: maxLen}
}

// Publish returns the server assigned entry id.
func (p *StreamPublisher) Publish(ctx context.Context, key string, props map[string]string) (string, error) {
	values := make(map[string]interface{}, len(props)+1)
	for k, v := range props {
		values[k] = v
	}
	values[FieldMessage] = key
	var entryID string
	err := p.runner.Run(ctx, "xadd", func(c redis.Cmdable) error {
		var err error
		entryID, err = c.XAdd(ctx, &redis.XAddArgs{
			Stream: p.key,
			MaxLen: p.maxLen,
			Approx: p.maxLen > 0,
			Values: values,
		}).Result()
		return err
	})
	return entryID, err
}
