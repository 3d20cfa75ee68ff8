package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir()) // 确保当前目录没有 config.yaml

	require.NoError(t, Load(""))

	assert.Equal(t, "disk", viper.GetString("source.type"))
	assert.Equal(t, 8, viper.GetInt("check.workers"))
	assert.Equal(t, 24*time.Hour, viper.GetDuration("cache.ttl"))
	assert.False(t, viper.GetBool("parse.deriver_optional"))
	assert.Equal(t, "", viper.GetString("cache.redis_url"))
}

func TestLoad_File(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
source:
  type: s3
s3:
  bucket: nix-cache
parse:
  deriver_optional: true
check:
  workers: 2
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	require.NoError(t, Load(cfgPath))

	assert.Equal(t, "s3", viper.GetString("source.type"))
	assert.Equal(t, "nix-cache", viper.GetString("s3.bucket"))
	assert.True(t, viper.GetBool("parse.deriver_optional"))
	assert.Equal(t, 2, viper.GetInt("check.workers"))
	// 未覆盖的键保持默认
	assert.Equal(t, "us-east-1", viper.GetString("s3.region"))
}

func TestLoad_Env(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("NARCHECK_SOURCE_PATH", "/srv/cache")
	t.Setenv("NARCHECK_PARSE_ADDITIVE_REFERENCES", "true")

	require.NoError(t, Load(""))

	assert.Equal(t, "/srv/cache", viper.GetString("source.path"))
	assert.True(t, viper.GetBool("parse.additive_references"))
}

func TestLoad_BadFile(t *testing.T) {
	viper.Reset()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("source: [unclosed"), 0644))

	err := Load(cfgPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error config file")
}
