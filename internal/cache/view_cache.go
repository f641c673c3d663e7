package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-social/pkg/logger"
)

// RootPath 首页视图（推荐关注列表展示于此）
const RootPath = "/"

// ViewCache 按 (视图路径, 观看者) 缓存渲染所需数据；Invalidate 使某路径下所有观看者的缓存失效
//
// 每次 Invalidate 都会推进路径的代数。读者在查询数据前取 Generation，
// Set 只在代数未变时写入，避免失效之前读到的旧数据在失效之后回填。
type ViewCache interface {
	Get(ctx context.Context, path, viewer string, dest any) bool
	// Generation 返回路径当前代数；ok 为 false 时调用方不应回填
	Generation(ctx context.Context, path string) (gen int64, ok bool)
	Set(ctx context.Context, path, viewer string, gen int64, v any)
	Invalidate(ctx context.Context, path string)
}

// RedisViewCache 基于 Redis 的实现，key 形如 view:<path>:<viewer>，代数存于 view:gen:<path>
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisViewCache{client: client, ttl: ttl}
}

func viewKey(path, viewer string) string { return fmt.Sprintf("view:%s:%s", path, viewer) }

func genKey(path string) string { return "view:gen:" + path }

// setIfGeneration 比较代数与写入在同一脚本内完成
var setIfGeneration = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
if cur ~= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *RedisViewCache) Get(ctx context.Context, path, viewer string, dest any) bool {
	data, err := c.client.Get(ctx, viewKey(path, viewer)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("view cache get failed", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

func (c *RedisViewCache) Generation(ctx context.Context, path string) (int64, bool) {
	gen, err := c.client.Get(ctx, genKey(path)).Int64()
	switch {
	case err == nil:
		return gen, true
	case err == redis.Nil:
		return 0, true
	default:
		logger.Warn("view cache generation failed", zap.String("path", path), zap.Error(err))
		return 0, false
	}
}

func (c *RedisViewCache) Set(ctx context.Context, path, viewer string, gen int64, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	keys := []string{genKey(path), viewKey(path, viewer)}
	written, err := setIfGeneration.Run(ctx, c.client, keys, gen, payload, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Warn("view cache set failed", zap.String("path", path), zap.Error(err))
		return
	}
	if written == 0 {
		logger.Debug("view cache set skipped, path invalidated", zap.String("path", path), zap.String("viewer", viewer))
	}
}

// Invalidate 先推进代数再扫描删除 view:<path>:*，失败只记日志
func (c *RedisViewCache) Invalidate(ctx context.Context, path string) {
	if err := c.client.Incr(ctx, genKey(path)).Err(); err != nil {
		logger.Warn("view cache generation bump failed", zap.String("path", path), zap.Error(err))
	}
	var cursor uint64
	pattern := viewKey(path, "*")
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			logger.Warn("view cache invalidate failed", zap.String("path", path), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("view cache delete failed", zap.String("path", path), zap.Error(err))
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// NoopViewCache 未启用 Redis 时使用
type NoopViewCache struct{}

func (NoopViewCache) Get(context.Context, string, string, any) bool    { return false }
func (NoopViewCache) Generation(context.Context, string) (int64, bool) { return 0, false }
func (NoopViewCache) Set(context.Context, string, string, int64, any)  {}
func (NoopViewCache) Invalidate(context.Context, string)               {}
