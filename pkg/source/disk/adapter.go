package disk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"narcheck/pkg/ignore"
	"narcheck/pkg/source"
)

// Adapter 实现了 source.Source 接口
// 对应一个本地 binary cache 目录 (nix copy --to file://...)
type Adapter struct {
	rootPath string // 比如: /var/cache/nix
	matcher  *ignore.Matcher
}

// NewAdapter 创建一个新的磁盘来源
// 与写入型存储不同，这里根目录必须已经存在
func NewAdapter(root string) (*Adapter, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache path is not a directory: %s", root)
	}

	matcher, err := ignore.NewMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ignore.FileName, err)
	}

	return &Adapter{rootPath: root, matcher: matcher}, nil
}

// layout 返回文件名对应的物理路径
// binary cache 是扁平布局: root/<hash>.narinfo
func (s *Adapter) layout(name string) (string, error) {
	if !source.IsNarInfoName(name) {
		return "", fmt.Errorf("invalid narinfo name %q", name)
	}
	return filepath.Join(s.rootPath, name), nil
}

func (s *Adapter) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	targetPath, err := s.layout(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(targetPath)
	if os.IsNotExist(err) {
		return nil, source.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Adapter) Has(ctx context.Context, name string) (bool, error) {
	targetPath, err := s.layout(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(targetPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List 只扫描根目录一层，子目录 (nar/ 等) 不包含 narinfo
func (s *Adapter) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !source.IsNarInfoName(e.Name()) {
			continue
		}
		if s.matcher.Matches(e.Name()) {
			slog.Debug("skipping ignored file", slog.String("name", e.Name()))
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
