package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// defaultOperationTimeout is the timeout for individual Redis operations
	defaultOperationTimeout = 5 * time.Second
)

var ErrDisabled = errors.New("cache disabled")

type Cache struct {
	client  *redis.Client
	enabled bool
}

func NewCache(addr string, enable bool) (*Cache, error) {
	if !enable {
		return &Cache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:  client,
		enabled: true,
	}, nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// operationContext bounds a Redis call by the caller's context and the default timeout.
func (c *Cache) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultOperationTimeout)
}

// AppendIndexed pushes value onto the list at key, refreshes its TTL and
// scores member in the sorted set at indexKey, all in one transaction.
func (c *Cache) AppendIndexed(ctx context.Context, key string, value interface{}, expiration time.Duration, indexKey, member string, score float64) error {
	if !c.Enabled() {
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, jsonData)
	if expiration > 0 {
		pipe.Expire(ctx, key, expiration)
	}
	pipe.ZAdd(ctx, indexKey, &redis.Z{Score: score, Member: member})
	_, err = pipe.Exec(ctx)
	return err
}

// ListJSON returns the raw JSON entries of the list at key.
func (c *Cache) ListJSON(ctx context.Context, key string) ([][]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	values, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(values))
	for i, value := range values {
		out[i] = []byte(value)
	}
	return out, nil
}

func (c *Cache) Count(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.ZCard(ctx, key).Result()
}

// evictBelowScript drops every index member scored below ARGV[1] together
// with the key ARGV[2]..member. It runs as one script so a member re-scored
// by AppendIndexed can never lose its list halfway through a sweep.
var evictBelowScript = redis.NewScript(`
local members = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
for _, member in ipairs(members) do
	redis.call('ZREM', KEYS[1], member)
	redis.call('DEL', ARGV[2] .. member)
end
return members
`)

// EvictBelow atomically removes the members of the sorted set at indexKey
// scored below ceiling and deletes keyPrefix+member for each of them.
func (c *Cache) EvictBelow(ctx context.Context, indexKey string, ceiling float64, keyPrefix string) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	bound := strconv.FormatFloat(ceiling, 'f', -1, 64)
	result, err := evictBelowScript.Run(ctx, c.client, []string{indexKey}, bound, keyPrefix).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
