package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ng-locations/internal/location"
	"ng-locations/internal/logger"
	"ng-locations/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// KV：读穿透与清理所需的最小 Redis 能力，*redis.Client 直接满足
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// 文档注释：Redis 读穿透加载器
// 背景：多实例部署时，分区只需从源加载器解析一次，其余实例直接读取 Redis 中的 JSON 副本。
// 约束：Redis 不可用或数据损坏时回退到源加载器，不向上返回 Redis 错误；源加载器的错误原样返回且不写入 Redis。
type RedisLoader struct {
	next   location.Loader
	rc     KV
	ttl    time.Duration
	prefix string
}

// NewRedisLoader：rc 为空时直接返回源加载器
func NewRedisLoader(next location.Loader, rc KV, ttl time.Duration) location.Loader {
	if rc == nil {
		return next
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisLoader{next: next, rc: rc, ttl: ttl, prefix: "locations:"}
}

func readThrough[T any](ctx context.Context, r *RedisLoader, key string, load func(context.Context) (T, error)) (T, error) {
	key = r.prefix + key
	s, err := r.rc.Get(ctx, key).Result()
	switch {
	case err == nil && s != "":
		var v T
		if e := json.Unmarshal([]byte(s), &v); e == nil {
			metrics.RedisHitsTotal.Inc()
			logger.L().Debug("redis_partition_hit", "key", key)
			return v, nil
		}
		logger.L().Warn("redis_partition_decode_error", "key", key)
	case err != nil && !errors.Is(err, redis.Nil):
		logger.L().Warn("redis_get_error", "key", key, "err", err)
	}
	metrics.RedisMissesTotal.Inc()
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if b, e := json.Marshal(v); e == nil {
		if e := r.rc.Set(ctx, key, string(b), r.ttl).Err(); e != nil {
			logger.L().Warn("redis_set_error", "key", key, "err", e)
		}
	}
	return v, nil
}

// 文档注释：删除本加载器写入的全部分区副本
// 背景：Service.ClearCache 会调用此方法，重新分区或重新导入后下一次加载直接读源加载器。
// 约束：按前缀 SCAN 后批量 DEL，不使用 KEYS 阻塞 Redis。
func (r *RedisLoader) Purge(ctx context.Context) error {
	var cursor uint64
	n := 0
	for {
		keys, next, err := r.rc.Scan(ctx, cursor, r.prefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("scan %s*: %w", r.prefix, err)
		}
		if len(keys) > 0 {
			if err := r.rc.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del %s*: %w", r.prefix, err)
			}
			n += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	logger.L().Info("redis_partitions_purged", "prefix", r.prefix, "keys", n)
	return nil
}

func (r *RedisLoader) LoadStates(ctx context.Context) ([]location.State, error) {
	return readThrough(ctx, r, "states", r.next.LoadStates)
}

func (r *RedisLoader) LoadLGAPartition(ctx context.Context) (location.LGAPartition, error) {
	return readThrough(ctx, r, "lgas", r.next.LoadLGAPartition)
}

func (r *RedisLoader) LoadWardPartition(ctx context.Context) (location.WardPartition, error) {
	return readThrough(ctx, r, "wards", r.next.LoadWardPartition)
}

func (r *RedisLoader) LoadPollingPartition(ctx context.Context, state string) (location.PollingPartition, error) {
	return readThrough(ctx, r, "polling:"+state, func(ctx context.Context) (location.PollingPartition, error) {
		return r.next.LoadPollingPartition(ctx, state)
	})
}
