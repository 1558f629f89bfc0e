package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TickQueue carries sync-worker continuation requests. A tick request is
// just the job id: the ledger row decides what the tick actually does, so
// duplicate or lost requests are harmless.
type TickQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	RequeueStale(ctx context.Context, max int64) (int64, error)
}

// redisTickQueue is a reliable Redis list queue.
// Claim: BRPOPLPUSH queue -> processing. Ack: LREM from processing.
// RequeueStale moves claimed-but-unacked ids back (worker died mid-tick).
type redisTickQueue struct {
	rdb           *redis.Client
	queueKey      string
	processingKey string
}

func NewRedisTickQueue(rdb *redis.Client, queueKey, processingKey string) TickQueue {
	return &redisTickQueue{
		rdb:           rdb,
		queueKey:      queueKey,
		processingKey: processingKey,
	}
}

func (q *redisTickQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.queueKey, jobID).Err()
}

// ClaimBlocking waits up to timeout for a tick request. timeout <= 0
// blocks in one-second slots forever, daemon style.
func (q *redisTickQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	forever := timeout <= 0
	deadline := time.Now().Add(timeout)

	slot := 1 * time.Second
	if !forever && timeout < slot {
		slot = timeout
	}

	for {
		wait := slot
		if !forever {
			remain := time.Until(deadline)
			if remain <= 0 {
				return "", redis.Nil
			}
			if remain < wait {
				wait = remain
			}
		}

		id, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, wait).Result()
		if err == nil {
			return id, nil
		}
		if errors.Is(err, redis.Nil) {
			if forever {
				continue
			}
			if time.Now().After(deadline) {
				return "", redis.Nil
			}
			continue
		}
		return "", err
	}
}

func (q *redisTickQueue) Ack(ctx context.Context, jobID string) error {
	return q.rdb.LRem(ctx, q.processingKey, 1, jobID).Err()
}

// RequeueStale moves up to max ids from processing back to the queue.
// At-least-once delivery; the ledger makes replays no-ops.
func (q *redisTickQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	var moved int64
	for i := int64(0); i < max; i++ {
		id, err := q.rdb.RPopLPush(ctx, q.processingKey, q.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return moved, err
		}
		if id != "" {
			moved++
		}
	}
	return moved, nil
}
