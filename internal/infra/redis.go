// README: Redis client initialization and the distributed lock used to single-flight sweeper passes.
package infra

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dronebook/internal/types"
)

func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, tokens: map[string]string{}}
}

// Acquire takes key for ttl. It reports false when another holder has it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := types.NewID().String()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// Close releases the underlying client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
