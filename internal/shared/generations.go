package shared

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Generation identifies one request for a view. Only the latest generation of
// a view may render its result.
type Generation struct {
	key   string
	value int64
}

// Value returns the generation number.
func (g Generation) Value() int64 {
	return g.value
}

// Generations numbers page and fragment loads per session and view in Redis
// so that a slow response for an outdated selection can be discarded.
type Generations struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGenerations constructs a generation counter. A nil client disables the
// check and every generation stays current.
func NewGenerations(client *redis.Client, ttl time.Duration) *Generations {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Generations{client: client, ttl: ttl}
}

// Begin starts a new generation for view, superseding earlier ones.
func (g *Generations) Begin(ctx context.Context, sessionID, view string) (Generation, error) {
	if g == nil || g.client == nil {
		return Generation{}, nil
	}
	key := GenerationKey(sessionID, view)
	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, g.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return Generation{}, err
	}
	return Generation{key: key, value: incr.Val()}, nil
}

// IsCurrent reports whether gen is still the latest generation of its view.
// Lookup failures count as current.
func (g *Generations) IsCurrent(ctx context.Context, gen Generation) bool {
	if g == nil || g.client == nil || gen.key == "" {
		return true
	}
	raw, err := g.client.Get(ctx, gen.key).Result()
	if err != nil {
		return true
	}
	latest, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	return latest == gen.value
}
