package stream

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/pkg/id"
	"github.com/rzbill/serialflo/pkg/log"
)

// reclaimBlock is the number of pending entries scanned and acknowledged per round.
const reclaimBlock = 1000

// PendingEntry is an entry delivered but not yet acknowledged.
type PendingEntry struct {
	ID         id.ID
	Consumer   string
	Idle       time.Duration
	RetryCount int64
}

// Pending lists up to limit unacknowledged entries with ids in [from, to].
func (s *Service) Pending(ctx context.Context, limit int64, from, to id.ID) ([]PendingEntry, error) {
	return s.PendingIdle(ctx, limit, from, to, 0)
}

// PendingIdle is Pending restricted to entries idle for at least idle.
// A missing stream or group yields an empty list.
func (s *Service) PendingIdle(ctx context.Context, limit int64, from, to id.ID, idle time.Duration) ([]PendingEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var raw []redis.XPendingExt
	err := s.runner.Run(ctx, "xpending", func(c redis.Cmdable) error {
		var err error
		raw, err = c.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: s.key,
			Group:  s.cfg.Group,
			Idle:   idle,
			Start:  from.String(),
			End:    to.String(),
			Count:  limit,
		}).Result()
		return err
	})
	if redisstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]PendingEntry, 0, len(raw))
	for _, p := range raw {
		pid, err := id.Parse(p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PendingEntry{ID: pid, Consumer: p.Consumer, Idle: p.Idle, RetryCount: p.RetryCount})
	}
	return out, nil
}

// ReclaimExpired acknowledges every pending entry idle for at least idle and
// returns how many were removed. Stale entries are not redelivered: elements
// still in their per-key list stay there until the list TTL lapses.
func (s *Service) ReclaimExpired(ctx context.Context, idle time.Duration) (int64, error) {
	var total int64
	from := id.Min
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		block, err := s.PendingIdle(ctx, reclaimBlock, from, id.Max, idle)
		if err != nil {
			return total, err
		}
		if len(block) > 0 {
			ids := make([]string, len(block))
			for i, p := range block {
				ids[i] = p.ID.String()
			}
			var n int64
			err := s.runner.Run(ctx, "xack", func(c redis.Cmdable) error {
				var err error
				n, err = c.XAck(ctx, s.key, s.cfg.Group, ids...).Result()
				return err
			})
			if err != nil {
				return total, err
			}
			total += n
			from = block[len(block)-1].ID.Next()
		}
		if len(block) < reclaimBlock {
			break
		}
	}
	if total > 0 {
		s.logger.Info("reclaimed stale pending entries", log.Int64("count", total), log.Dur("idle", idle))
	}
	return total, nil
}
