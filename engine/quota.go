package engine

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const quotaShardNum = 16

type quotaShard struct {
	mu sync.Mutex
	c  *cache.Cache
}

// QuotaTracker accumulates published bytes per client id for the current
// calendar month. Entries expire at the month boundary (UTC), so a new
// month starts every counter from zero. Each shard's read-modify-write
// runs under its own lock, so concurrent publishes never lose increments.
type QuotaTracker struct {
	shards [quotaShardNum]*quotaShard
	now    func() time.Time
}

func NewQuotaTracker() *QuotaTracker {
	q := &QuotaTracker{now: time.Now}
	for i := range q.shards {
		q.shards[i] = &quotaShard{c: cache.New(cache.NoExpiration, 10*time.Minute)}
	}
	return q
}

func (q *QuotaTracker) shard(clientID string) *quotaShard {
	return q.shards[xxhash.Sum64String(clientID)%quotaShardNum]
}

// RecordAndCheck adds deltaBytes to the client's monthly counter and
// reports whether the client is now throttled. An addition that would
// overflow int64 throttles immediately and keeps the prior counter.
func (q *QuotaTracker) RecordAndCheck(clientID string, deltaBytes, limitBytes int64) bool {
	sh := q.shard(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ttl := time.Until(endOfMonth(q.now()))

	v, found := sh.c.Get(clientID)
	if !found {
		sh.c.Set(clientID, deltaBytes, ttl)
		if deltaBytes >= limitBytes {
			log.Info("client locked until the end of the month, data limit used",
				zap.String("clientID", clientID))
			return true
		}
		return false
	}

	current := v.(int64)
	next := current + deltaBytes
	if next < current {
		// overflow: keep the prior value
		log.Info("quota counter overflow, client locked until the end of the month",
			zap.String("clientID", clientID))
		return true
	}
	sh.c.Set(clientID, next, ttl)
	if next >= limitBytes {
		log.Info("client locked until the end of the month, data limit used",
			zap.String("clientID", clientID))
		return true
	}
	return false
}

// Usage returns the bytes recorded for clientID in the current month.
func (q *QuotaTracker) Usage(clientID string) (int64, bool) {
	sh := q.shard(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, found := sh.c.Get(clientID)
	if !found {
		return 0, false
	}
	return v.(int64), true
}

// endOfMonth returns the last instant of t's calendar month in UTC.
func endOfMonth(t time.Time) time.Time {
	t = t.UTC()
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, 0).Add(-time.Nanosecond)
}
