// pkg/types/common.go
package types

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

var (
	ErrEmptyID       = errors.New("identifier is empty")
	ErrIDWhitespace  = errors.New("identifier contains whitespace")
	ErrIDPathSegment = errors.New("identifier contains a path separator")
)

// StorePathID 是 store path 的 hash-name 部分
// 例如: xmxgxig6zxrixicc7905ssgb4yc3lysa-bash-interactive-4.4-p23
// 这是一个“值对象”，构造后不可变。
type StorePathID string

// DerivationID 是 derivation store path 的 hash-name 部分
// 例如: a6xizp18g0sch9z7493p3irq632kzlym-bash-interactive-4.4-p23.drv
// 与 StorePathID 是不同的名义类型，二者不能混用。
type DerivationID string

// validateID 两种标识符共享的校验逻辑
func validateID(s string) error {
	if s == "" {
		return ErrEmptyID
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return ErrIDWhitespace
	}
	// 标识符只是 basename，完整路径 (/nix/store/...) 不合法
	if strings.ContainsRune(s, '/') {
		return ErrIDPathSegment
	}
	return nil
}

// ParseStorePathID 校验并构造 StorePathID
func ParseStorePathID(s string) (StorePathID, error) {
	if err := validateID(s); err != nil {
		return "", err
	}
	return StorePathID(s), nil
}

// StorePathIDFromPath 从完整 store path 中取出 basename
// "/nix/store/xmx...-bash" -> "xmx...-bash"
func StorePathIDFromPath(p string) (StorePathID, error) {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", ErrEmptyID
	}
	return ParseStorePathID(path.Base(p))
}

func (id StorePathID) String() string { return string(id) }
func (id StorePathID) IsZero() bool   { return id == "" }

// HashPart 返回第一个 '-' 之前的哈希部分
func (id StorePathID) HashPart() string { return hashPart(string(id)) }

// Name 返回第一个 '-' 之后的可读名称
func (id StorePathID) Name() string { return namePart(string(id)) }

// NarInfoName 返回该 store path 在 binary cache 中对应的文件名: <hash>.narinfo
func (id StorePathID) NarInfoName() string { return id.HashPart() + ".narinfo" }

// ParseDerivationID 校验并构造 DerivationID
func ParseDerivationID(s string) (DerivationID, error) {
	if err := validateID(s); err != nil {
		return "", err
	}
	return DerivationID(s), nil
}

func (id DerivationID) String() string   { return string(id) }
func (id DerivationID) IsZero() bool     { return id == "" }
func (id DerivationID) HashPart() string { return hashPart(string(id)) }
func (id DerivationID) Name() string     { return namePart(string(id)) }

// IsDrv 是否符合 derivation 的 .drv 后缀约定
func (id DerivationID) IsDrv() bool { return strings.HasSuffix(string(id), ".drv") }

func hashPart(s string) string {
	h, _, _ := strings.Cut(s, "-")
	return h
}

func namePart(s string) string {
	_, n, _ := strings.Cut(s, "-")
	return n
}
