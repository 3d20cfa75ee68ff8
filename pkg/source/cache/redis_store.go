package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"narcheck/pkg/source"

	"github.com/redis/go-redis/v9"
)

// CachedSource 是一个装饰器，它为底层的 source.Source 添加 Redis 存在性缓存
// 只缓存 "某个 narinfo 存在" 这一事实，不缓存文档内容或解析结果。
type CachedSource struct {
	backend source.Source // 被装饰的底层来源 (如 S3)
	client  *redis.Client
	ttl     time.Duration
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 过期时间
}

func NewCachedSource(backend source.Source, cfg Config) (*CachedSource, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newWithClient(backend, client, cfg.TTL), nil
}

func newWithClient(backend source.Source, client *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{backend: backend, client: client, ttl: ttl}
}

// cacheKey 生成 Redis Key，添加前缀防止冲突
func (s *CachedSource) cacheKey(name string) string {
	return "narcheck:has:" + name
}

// Has 优先查 Redis
// closure 检查会对同一个 reference 反复询问，命中缓存可以省掉大量 HEAD 请求
func (s *CachedSource) Has(ctx context.Context, name string) (bool, error) {
	key := s.cacheKey(name)

	// 1. 查 Redis
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// 缓存故障降级：退化为无缓存模式，直接查底层
		slog.Warn("redis unavailable, falling back to backend",
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
	} else if val > 0 {
		return true, nil
	}

	// 2. 缓存未命中，查底层
	found, err := s.backend.Has(ctx, name)
	if err != nil {
		return false, err
	}

	// 3. 缓存回填，只记录存在的对象
	if found {
		// 异步写入，不阻塞主流程；用独立 ctx 保证上层取消后回填仍能完成
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.client.Set(fillCtx, key, "1", s.ttl).Err(); err != nil {
				slog.Debug("redis fill failed", slog.String("name", name), slog.String("err", err.Error()))
			}
		}()
	}

	return found, nil
}

// Get 透传 - 文档内容不缓存
func (s *CachedSource) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, name)
}

// List 透传
func (s *CachedSource) List(ctx context.Context) ([]string, error) {
	return s.backend.List(ctx)
}

func (s *CachedSource) Close() error {
	return s.client.Close()
}
