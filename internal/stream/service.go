package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/pkg/log"
)

var (
	// ErrInvalidArgument marks input validation failures (blank consumer id, nil payload).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGroupDisabled is returned when consumption is requested for a disabled group.
	ErrGroupDisabled = errors.New("consumer group disabled")
)

const defaultReadTimeout = 5 * time.Second

// GroupConfig is the consumer group configuration source.
type GroupConfig struct {
	Group       string
	Enabled     bool
	ReadTimeout time.Duration
	DefaultTTL  time.Duration
}

// Service is the Log Service for one stream/group pair.
type Service struct {
	runner redisstore.Runner
	cfg    GroupConfig
	key    string
	logger log.Logger

	mu      sync.Mutex
	ensured bool
}

// NewService creates a Log Service. A nil logger discards output.
func NewService(runner redisstore.Runner, cfg GroupConfig, logger log.Logger) *Service {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Service{
		runner: runner,
		cfg:    cfg,
		key:    StreamKey(cfg.Group),
		logger: logger.With(log.Str("group", cfg.Group)),
	}
}

// Config returns the group configuration.
func (s *Service) Config() GroupConfig { return s.cfg }

// Key returns the stream key.
func (s *Service) Key() string { return s.key }

// Count returns the number of entries in the stream.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.runner.Run(ctx, "xlen", func(c redis.Cmdable) error {
		var err error
		n, err = c.XLen(ctx, s.key).Result()
		return err
	})
	return n, err
}

// EnsureGroup creates the group, and the stream with it, when absent.
func (s *Service) EnsureGroup(ctx context.Context) error {
	exists, err := s.groupExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		err = s.runner.Run(ctx, "xgroup-create", func(c redis.Cmdable) error {
			return c.XGroupCreateMkStream(ctx, s.key, s.cfg.Group, "0").Err()
		})
		switch {
		case err == nil:
			s.logger.Info("consumer group created", log.Str("stream", s.key))
		case redisstore.IsBusyGroup(err):
			// created concurrently by another member
		default:
			return err
		}
	}
	s.mu.Lock()
	s.ensured = true
	s.mu.Unlock()
	return nil
}

func (s *Service) groupExists(ctx context.Context) (bool, error) {
	var groups []redis.XInfoGroup
	err := s.runner.Run(ctx, "xinfo-groups", func(c redis.Cmdable) error {
		var err error
		groups, err = c.XInfoGroups(ctx, s.key).Result()
		return err
	})
	if redisstore.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g.Name == s.cfg.Group {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) ensureOnce(ctx context.Context) error {
	s.mu.Lock()
	done := s.ensured
	s.mu.Unlock()
	if done {
		return nil
	}
	return s.EnsureGroup(ctx)
}

// ConsumeOne blocks up to the configured read timeout for one new entry.
// It returns (nil, nil) on timeout.
func (s *Service) ConsumeOne(ctx context.Context, consumerID string) (*Entry, error) {
	if strings.TrimSpace(consumerID) == "" {
		return nil, fmt.Errorf("%w: consumer id is blank", ErrInvalidArgument)
	}
	if err := s.ensureOnce(ctx); err != nil {
		return nil, err
	}
	var streams []redis.XStream
	err := s.runner.Run(ctx, "xreadgroup", func(c redis.Cmdable) error {
		var err error
		streams, err = c.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.Group,
			Consumer: consumerID,
			Streams:  []string{s.key, ">"},
			Count:    1,
			Block:    s.cfg.ReadTimeout,
		}).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if redisstore.IsNotFound(err) {
			// stream or group deleted underneath us; recreate on the next call
			s.mu.Lock()
			s.ensured = false
			s.mu.Unlock()
		}
		return nil, err
	}
	for _, st := range streams {
		for _, m := range st.Messages {
			return entryFromValues(m.ID, m.Values)
		}
	}
	return nil, nil
}

// Ack acknowledges an entry and returns how many entries left the pending set.
// An empty id is a no-op.
func (s *Service) Ack(ctx context.Context, entryID string) (int64, error) {
	if entryID == "" {
		return 0, nil
	}
	var n int64
	err := s.runner.Run(ctx, "xack", func(c redis.Cmdable) error {
		var err error
		n, err = c.XAck(ctx, s.key, s.cfg.Group, entryID).Result()
		return err
	})
	return n, err
}
