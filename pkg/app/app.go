// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"

	"narcheck/pkg/checker"
	"narcheck/pkg/narinfo"
	"narcheck/pkg/source"
	"narcheck/pkg/source/cache"
	"narcheck/pkg/source/disk"
	"narcheck/pkg/source/s3"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
type App struct {
	Source  source.Source
	Checker *checker.Checker
	Policy  narinfo.Policy

	closers []func() error
}

// NewApp 按 Viper 配置组装来源、缓存与检查器
// 它不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 文档来源
	src, err := initSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init source: %w", err)
	}

	a := &App{}

	// 2. (可选) Redis 存在性缓存
	if url := viper.GetString("cache.redis_url"); url != "" {
		cached, err := cache.NewCachedSource(src, cache.Config{
			RedisURL: url,
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			// 缓存只是加速，连不上就降级
			slog.Warn("redis cache disabled", slog.String("err", err.Error()))
		} else {
			src = cached
			a.closers = append(a.closers, cached.Close)
		}
	}

	// 3. 解析策略与检查器
	a.Source = src
	a.Policy = PolicyFromConfig()
	a.Checker = checker.New(src,
		checker.WithPolicy(a.Policy),
		checker.WithWorkers(viper.GetInt("check.workers")),
	)
	return a, nil
}

// PolicyFromConfig 读取 parse.* 配置
func PolicyFromConfig() narinfo.Policy {
	return narinfo.Policy{
		DeriverOptional:    viper.GetBool("parse.deriver_optional"),
		AdditiveReferences: viper.GetBool("parse.additive_references"),
	}
}

// initSource 根据 source.type 选择实现
func initSource(ctx context.Context) (source.Source, error) {
	switch t := viper.GetString("source.type"); t {
	case "", "disk":
		path := viper.GetString("source.path")
		if path == "" {
			return nil, fmt.Errorf("source path not set")
		}
		return disk.NewAdapter(path)

	case "s3":
		bucket := viper.GetString("s3.bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3 bucket is required (set s3.bucket)")
		}
		return s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          bucket,
			Prefix:          viper.GetString("s3.prefix"),
			AccessKeyID:     viper.GetString("s3.access_key"),
			SecretAccessKey: viper.GetString("s3.secret_key"),
		})

	default:
		return nil, fmt.Errorf("unsupported source type: %s", t)
	}
}

// Close 释放缓存连接等资源
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
