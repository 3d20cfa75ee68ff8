package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	SetDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 -> ./.narcheck -> ~/.narcheck
		viper.AddConfigPath(".")
		viper.AddConfigPath(".narcheck")
		viper.AddConfigPath(filepath.Join(home, ".narcheck"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// 3. 读取环境变量 (NARCHECK_SOURCE_PATH 等)
	viper.SetEnvPrefix("NARCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，可能全靠环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("no config file found, using defaults/env vars")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	} else {
		slog.Debug("using config file", slog.String("path", viper.ConfigFileUsed()))
	}

	return nil
}

// SetDefaults 写入所有配置项的默认值
func SetDefaults() {
	// 文档来源
	viper.SetDefault("source.type", "disk")
	viper.SetDefault("source.path", ".")

	// S3 / MinIO
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.prefix", "")

	// Redis 存在性缓存，url 为空表示不启用
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", "24h")

	// 解析策略
	viper.SetDefault("parse.deriver_optional", false)
	viper.SetDefault("parse.additive_references", false)

	viper.SetDefault("check.workers", 8)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}
