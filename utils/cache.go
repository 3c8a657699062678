package utils

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Content list and detail responses are cached briefly; callers pass their
// own TTL and zero falls back to this.
const defaultCacheTTL = 30 * time.Minute

func redisCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

// CacheGetBytes fetches a cached payload. A false return covers both a miss
// and an unreachable Redis; callers regenerate either way.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := redisCtx()
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// CacheSetBytes stores a payload under key. Failures are logged and
// swallowed; the cache is an accelerator, never a dependency.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := redisCtx()
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// CacheSetJSON marshals v and stores the JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	if b, err := json.Marshal(v); err == nil {
		CacheSetBytes(key, b, ttl)
	}
}

// InvalidateByPrefix removes every key under a prefix via SCAN, bounded so a
// huge keyspace cannot stall a request handler.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var cursor uint64
	for round := 0; round < 10; round++ {
		keys, next, err := rc.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			if err := rc.Del(ctx, keys...).Err(); err != nil && Sugar != nil {
				Sugar.Warnf("cache invalidate failed prefix=%s err=%v", prefix, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// redisGetDel atomically reads and removes a key, preferring GETDEL with a
// Lua fallback for servers older than 6.2. The second return is false when
// Redis could not answer at all.
func redisGetDel(key string) (string, bool) {
	rc := GetRedis()
	if rc == nil {
		return "", false
	}
	ctx, cancel := redisCtx()
	defer cancel()

	val, err := rc.GetDel(ctx, key).Result()
	if err == nil {
		return val, true
	}
	if errors.Is(err, redis.Nil) {
		return "", true
	}

	script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
	res, err := rc.Eval(ctx, script, []string{key}).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		return "", false
	}
	if s, ok := res.(string); ok {
		return s, true
	}
	return "", true
}
