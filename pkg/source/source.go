package source

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrNotFound = errors.New("narinfo not found")
)

// Ext 是 binary cache 中元数据文件的后缀
const Ext = ".narinfo"

// Source 是原始 narinfo 文档的只读来源
// 实现可以是本地目录、S3 桶，或者带缓存的装饰器。
// name 一律是 "<hash>.narinfo" 形式的文件名。
type Source interface {
	// Get 读取原始文档
	// 返回 io.ReadCloser，调用方负责 Close
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Has 检查文档是否存在 (用于 closure 检查)
	Has(ctx context.Context, name string) (bool, error)

	// List 返回所有 .narinfo 文件名，按字典序排列
	List(ctx context.Context) ([]string, error)
}

// IsNarInfoName 判断文件名是否是 narinfo
func IsNarInfoName(name string) bool {
	return strings.HasSuffix(name, Ext) && len(name) > len(Ext) && !strings.Contains(name, "/")
}

// NameFor 把 hash 或 hash-name 转成 "<hash>.narinfo"
func NameFor(idOrHash string) string {
	if IsNarInfoName(idOrHash) {
		return idOrHash
	}
	hash, _, _ := strings.Cut(idOrHash, "-")
	return hash + Ext
}

// HashOf 从文件名中取出 hash 部分
func HashOf(name string) string {
	return strings.TrimSuffix(name, Ext)
}
