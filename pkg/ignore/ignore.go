package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是 cache 根目录下用户自定义的忽略规则文件
const FileName = ".narcheckignore"

// Matcher 封装了忽略逻辑
// 它负责判断 cache 目录中的某个文件是否应该跳过检查
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 初始化忽略匹配器
// rootPath: cache 根目录（用于查找 .narcheckignore 文件）
func NewMatcher(rootPath string) (*Matcher, error) {
	// 1. 默认规则，始终生效
	defaultRules := []string{
		".git",
		"config.yaml", // 防止把配置当成 cache 内容
		".env",

		// 编辑器/系统垃圾文件
		".DS_Store",
		"Thumbs.db",
		"*.swp",
		"*~",
	}

	var ignorer *gitignore.GitIgnore
	var err error

	// 2. 检查用户是否有 .narcheckignore 文件
	ignoreFilePath := filepath.Join(rootPath, FileName)

	if _, errStat := os.Stat(ignoreFilePath); errStat == nil {
		// 用户文件内容与默认规则合并编译
		ignorer, err = gitignore.CompileIgnoreFileAndLines(ignoreFilePath, defaultRules...)
	} else {
		ignorer = gitignore.CompileIgnoreLines(defaultRules...)
	}

	if err != nil {
		return nil, err
	}

	return &Matcher{ignorer: ignorer}, nil
}

// Matches 检查给定的路径是否匹配忽略规则
// path: 相对于 cache 根目录的路径 (例如 "abc.narinfo")
// 返回: true 表示应该忽略
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(path)
}
