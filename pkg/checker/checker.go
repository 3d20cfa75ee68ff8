package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"narcheck/pkg/narinfo"
	"narcheck/pkg/source"
	"narcheck/pkg/types"

	"golang.org/x/sync/errgroup"
)

// MaxDocumentSize narinfo 通常只有几百字节，超过这个大小直接视为损坏
const MaxDocumentSize = 1 << 20

const DefaultWorkers = 8

var (
	ErrNameMismatch = errors.New("file name does not match store path hash")
	ErrTooLarge     = errors.New("document too large")
)

// Result 是单个文档的检查结果
// Info 与 Err 恰有一个非空
type Result struct {
	Name string           `json:"name"`
	Info *narinfo.NarInfo `json:"info,omitempty"`
	Err  error            `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

// Dangling 表示某个有效记录引用了 cache 中不存在的 store path
type Dangling struct {
	From string            `json:"from"`
	Ref  types.StorePathID `json:"ref"`
}

// Checker 从 Source 读取文档并批量校验
type Checker struct {
	src     source.Source
	policy  narinfo.Policy
	workers int
}

type Option func(*Checker)

func WithPolicy(p narinfo.Policy) Option {
	return func(c *Checker) { c.policy = p }
}

// WithWorkers 并发度，<= 0 时使用 DefaultWorkers
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

func New(src source.Source, opts ...Option) *Checker {
	c := &Checker{src: src, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch 读取并解析单个文档
// 解析失败时返回的 error 链中包含 *narinfo.ParseError
func (c *Checker) Fetch(ctx context.Context, name string) (*narinfo.NarInfo, error) {
	// 1. 读取
	rc, err := c.src.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}

	// 2. 解析
	info, err := c.policy.Parse(string(data))
	if err != nil {
		return nil, err
	}

	// 3. 文件名必须与 StorePath 的 hash 一致
	id, err := info.ID()
	if err != nil {
		return nil, fmt.Errorf("StorePath %q: %w", info.StorePath, err)
	}
	if id.NarInfoName() != name {
		return nil, fmt.Errorf("%w: %s holds %s", ErrNameMismatch, name, id)
	}

	return info, nil
}

// Check 并发检查给定文档，结果顺序与输入一致
// 单个文档失败不会中断整体；只有 ctx 被取消时才返回 error
func (c *Checker) Check(ctx context.Context, names []string) ([]Result, error) {
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			info, err := c.Fetch(gctx, name)
			results[i] = Result{Name: name, Info: info, Err: err}

			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Debug("narinfo rejected", slog.String("name", name), slog.String("err", err.Error()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckAll 检查 Source 中的全部文档
func (c *Checker) CheckAll(ctx context.Context) ([]Result, error) {
	names, err := c.src.List(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("checking narinfo documents", slog.Int("count", len(names)), slog.Int("workers", c.workers))
	return c.Check(ctx, names)
}

// Closure 确认每个有效记录的 References 在 Source 中都有对应的 narinfo
// 已经出现在 results 中的文档不再询问 Source。
func (c *Checker) Closure(ctx context.Context, results []Result) ([]Dangling, error) {
	// 1. 已知存在的文档
	present := make(map[string]bool, len(results))
	for _, r := range results {
		present[r.Name] = true
	}

	// 2. 收集需要询问的名字 (去重)
	var unknown []string
	queued := make(map[string]bool)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, ref := range r.Info.References {
			name := ref.NarInfoName()
			if present[name] || queued[name] {
				continue
			}
			queued[name] = true
			unknown = append(unknown, name)
		}
	}

	// 3. 并发询问
	found := make([]bool, len(unknown))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, name := range unknown {
		g.Go(func() error {
			ok, err := c.src.Has(gctx, name)
			if err != nil {
				return fmt.Errorf("has %s: %w", name, err)
			}
			found[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, name := range unknown {
		present[name] = found[i]
	}

	// 4. 按输入顺序报告
	var dangling []Dangling
	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, ref := range r.Info.References {
			if !present[ref.NarInfoName()] {
				dangling = append(dangling, Dangling{From: r.Name, Ref: ref})
			}
		}
	}
	return dangling, nil
}
