package checker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"narcheck/pkg/narinfo"
	"narcheck/pkg/source"
	"narcheck/pkg/source/disk"
	"narcheck/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doc 生成一个合法的 narinfo 文档
func doc(hash, name string, refs ...string) string {
	return fmt.Sprintf(`StorePath: /nix/store/%[1]s-%[2]s
URL: nar/%[1]s.nar.xz
Compression: xz
FileHash: sha256:%[1]s
FileSize: 100
NarHash: sha256:%[1]s
NarSize: 200
References: %[3]s
Deriver: %[1]s-%[2]s.drv
Sig: cache.example.org-1:c2ln
`, hash, name, strings.Join(refs, " "))
}

// setupCache 在临时目录中搭一个 binary cache
func setupCache(t *testing.T, docs map[string]string) source.Source {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	src, err := disk.NewAdapter(dir)
	require.NoError(t, err)
	return src
}

func TestChecker_Fetch(t *testing.T) {
	src := setupCache(t, map[string]string{
		"aaaa.narinfo": doc("aaaa", "foo", "bbbb-bar"),
		"cccc.narinfo": doc("dddd", "wrong"), // 文件名与内容不符
	})
	c := New(src)
	ctx := context.Background()

	info, err := c.Fetch(ctx, "aaaa.narinfo")
	require.NoError(t, err)
	assert.Equal(t, "/nix/store/aaaa-foo", info.StorePath)
	assert.Equal(t, []types.StorePathID{"bbbb-bar"}, info.References)

	_, err = c.Fetch(ctx, "cccc.narinfo")
	assert.ErrorIs(t, err, ErrNameMismatch)

	_, err = c.Fetch(ctx, "ffff.narinfo")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestChecker_FetchPolicy(t *testing.T) {
	noDeriver := strings.Replace(doc("aaaa", "foo"), "Deriver: aaaa-foo.drv\n", "", 1)
	src := setupCache(t, map[string]string{"aaaa.narinfo": noDeriver})
	ctx := context.Background()

	_, err := New(src).Fetch(ctx, "aaaa.narinfo")
	assert.Equal(t, narinfo.KindMissingField, narinfo.KindOf(err))

	lenient := New(src, WithPolicy(narinfo.NewPolicy(narinfo.WithOptionalDeriver())))
	info, err := lenient.Fetch(ctx, "aaaa.narinfo")
	require.NoError(t, err)
	assert.False(t, info.HasDeriver())
}

func TestChecker_CheckAll(t *testing.T) {
	src := setupCache(t, map[string]string{
		"aaaa.narinfo": doc("aaaa", "foo"),
		"bbbb.narinfo": "Compression: x z\n",
		"cccc.narinfo": doc("cccc", "baz"),
		"dddd.narinfo": "",
	})

	results, err := New(src, WithWorkers(2)).CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	// 顺序与 List 一致
	assert.Equal(t, "aaaa.narinfo", results[0].Name)
	assert.True(t, results[0].OK())
	assert.NotNil(t, results[0].Info)

	assert.False(t, results[1].OK())
	assert.Nil(t, results[1].Info)
	assert.Equal(t, narinfo.KindUnexpectedSpace, narinfo.KindOf(results[1].Err))

	assert.True(t, results[2].OK())

	assert.Equal(t, narinfo.KindDocumentEmpty, narinfo.KindOf(results[3].Err))
}

func TestChecker_TooLarge(t *testing.T) {
	big := doc("aaaa", "foo") + strings.Repeat("x", MaxDocumentSize)
	src := setupCache(t, map[string]string{"aaaa.narinfo": big})

	_, err := New(src).Fetch(context.Background(), "aaaa.narinfo")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestChecker_Cancelled(t *testing.T) {
	src := setupCache(t, map[string]string{"aaaa.narinfo": doc("aaaa", "foo")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(src).Check(ctx, []string{"aaaa.narinfo"})
	assert.ErrorIs(t, err, context.Canceled)
}

// countingSource 统计 Has 调用
type countingSource struct {
	source.Source
	has     int32
	extra   map[string]bool
	failHas bool
}

func (s *countingSource) Has(ctx context.Context, name string) (bool, error) {
	atomic.AddInt32(&s.has, 1)
	if s.failHas {
		return false, errors.New("backend down")
	}
	return s.extra[name], nil
}

func TestChecker_Closure(t *testing.T) {
	base := setupCache(t, map[string]string{
		"aaaa.narinfo": doc("aaaa", "foo", "aaaa-foo", "bbbb-bar", "eeee-ext", "ffff-gone"),
		"bbbb.narinfo": doc("bbbb", "bar", "ffff-gone", "eeee-ext"),
		"cccc.narinfo": "broken",
	})
	// eeee 不在本次检查的列表里，但 Source 中存在
	src := &countingSource{Source: base, extra: map[string]bool{"eeee.narinfo": true}}
	c := New(src)
	ctx := context.Background()

	results, err := c.CheckAll(ctx)
	require.NoError(t, err)

	dangling, err := c.Closure(ctx, results)
	require.NoError(t, err)
	assert.Equal(t, []Dangling{
		{From: "aaaa.narinfo", Ref: "ffff-gone"},
		{From: "bbbb.narinfo", Ref: "ffff-gone"},
	}, dangling)

	// aaaa/bbbb 已知，只询问 eeee 和 ffff 各一次
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.has))
}

func TestChecker_ClosureBackendError(t *testing.T) {
	base := setupCache(t, map[string]string{
		"aaaa.narinfo": doc("aaaa", "foo", "ffff-gone"),
	})
	src := &countingSource{Source: base, failHas: true}
	c := New(src)
	ctx := context.Background()

	results, err := c.CheckAll(ctx)
	require.NoError(t, err)

	_, err = c.Closure(ctx, results)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}
