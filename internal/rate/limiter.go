package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Policy is one named sliding-window budget, e.g. login = 10/15m.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Result is the outcome of a single check. When the store is disabled or
// unreachable, Limited is false and HasMeta is false.
type Result struct {
	Limited   bool
	Remaining int
	Reset     time.Time
	HasMeta   bool
}

// Limiter enforces one sliding-window policy keyed by identifier (client IP).
// The zero limit of a nil redis client disables the limiter entirely.
type Limiter struct {
	redis   redis.UniversalClient
	policy  Policy
	prefix  string
	timeout time.Duration
	now     func() time.Time

	// OnError is invoked on every fail-open store failure. Optional.
	OnError func(policy string, err error)
}

// New creates a Limiter for the given policy. A nil client is valid and means
// the limiter is disabled: every Check short-circuits to not-limited with no
// network call.
func New(client redis.UniversalClient, policy Policy, prefix string, timeout time.Duration) *Limiter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Limiter{
		redis:   client,
		policy:  policy,
		prefix:  prefix,
		timeout: timeout,
		now:     time.Now,
	}
}

// Check records one event for identifier and reports whether the window budget
// is exceeded. Fail-open contract: any store error, including the bounded
// per-call timeout, yields Result{Limited: false} and fires OnError; Check
// never returns an error to the caller.
func (l *Limiter) Check(ctx context.Context, identifier string) Result {
	if l == nil || l.redis == nil {
		return Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	now := l.now()
	key := l.prefix + l.policy.Name + ":" + identifier
	cutoff := strconv.FormatInt(now.Add(-l.policy.Window).UnixMilli(), 10)

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", cutoff)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.policy.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.failOpen(err)
		return Result{}
	}

	count := int(card.Val())
	remaining := l.policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Limited:   count > l.policy.Limit,
		Remaining: remaining,
		Reset:     now.Add(l.policy.Window),
		HasMeta:   true,
	}
}

// Enabled reports whether a backing store is configured.
func (l *Limiter) Enabled() bool {
	return l != nil && l.redis != nil
}

// PolicyName returns the policy this limiter enforces.
func (l *Limiter) PolicyName() string {
	if l == nil {
		return ""
	}
	return l.policy.Name
}

func (l *Limiter) failOpen(err error) {
	if l.OnError == nil {
		return
	}
	l.OnError(l.policy.Name, fmt.Errorf("%w: %v", ErrRedisUnavailable, err))
}
