// Package narinfo 解析 binary cache 的 .narinfo 元数据文档
//
// 文档由若干 `Key: Value` 行组成，例如:
//
//	StorePath: /nix/store/xmxgxig6zxrixicc7905ssgb4yc3lysa-bash-interactive-4.4-p23
//	URL: nar/1w1fff338fvdw53sqgamddn1b2xgds473pv6y13gizdbqjv4i5p3.nar.xz
//	Compression: xz
//	FileHash: sha256:1w1fff338fvdw53sqgamddn1b2xgds473pv6y13gizdbqjv4i5p3
//	FileSize: 1234
//	NarHash: sha256:0cbb4y5m8y3i3pr4mmfq3bjmw3z3xazmnkfahbxbcpdrxpmkws0r
//	NarSize: 5678
//	References: xmxgxig6zxrixicc7905ssgb4yc3lysa-bash-interactive-4.4-p23
//	Deriver: a6xizp18g0sch9z7493p3irq632kzlym-bash-interactive-4.4-p23.drv
//	Sig: cache.nixos.org-1:base64signature==
//
// 包内没有任何 I/O，也不持有共享状态，可以被多个 goroutine 并发调用。
package narinfo

import (
	"strings"

	"narcheck/pkg/types"
)

// NarInfo 是组装完成的记录。构造后视为不可变。
type NarInfo struct {
	// NAR 解压后在磁盘上的位置，例如 /nix/store/<hash>-<name>
	StorePath string `json:"storePath"`

	// 相对于 narinfo 自身位置的 NAR 地址，例如 nar/<filehash>.nar.xz
	URL string `json:"url"`

	Compression string `json:"compression"`

	// 压缩后 NAR 的哈希与大小
	FileHash string `json:"fileHash"`
	FileSize uint64 `json:"fileSize"`

	// 解压后 NAR 的哈希与大小
	NarHash string `json:"narHash"`
	NarSize uint64 `json:"narSize"`

	References []types.StorePathID `json:"references"`
	Deriver    types.DerivationID  `json:"deriver,omitempty"`

	// 未解析、未验证的签名串
	Signature string `json:"signature"`
}

// ID 返回 StorePath 的 hash-name 部分
func (n *NarInfo) ID() (types.StorePathID, error) {
	return types.StorePathIDFromPath(n.StorePath)
}

// HasDeriver 仅在 Policy.DeriverOptional 下可能为 false
func (n *NarInfo) HasDeriver() bool { return !n.Deriver.IsZero() }

// Policy 控制上游格式中尚有争议的两条规则
// 零值即最严格的策略：Deriver 必填，References 最多一行。
type Policy struct {
	DeriverOptional    bool
	AdditiveReferences bool
}

type Option func(*Policy)

// WithOptionalDeriver 缺少 Deriver 行不再是 MissingField
func WithOptionalDeriver() Option {
	return func(p *Policy) { p.DeriverOptional = true }
}

// WithAdditiveReferences 多个 References 行按出现顺序拼接，而不是 DuplicateField
func WithAdditiveReferences() Option {
	return func(p *Policy) { p.AdditiveReferences = true }
}

// WithPolicy 整体替换策略 (供配置驱动的调用方使用)
func WithPolicy(policy Policy) Option {
	return func(p *Policy) { *p = policy }
}

// NewPolicy 由选项构造 Policy
func NewPolicy(opts ...Option) Policy {
	var p Policy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Parse 使用给定选项解析整个文档
func Parse(doc string, opts ...Option) (*NarInfo, error) {
	return NewPolicy(opts...).Parse(doc)
}

// ParseBytes 同 Parse，接受 []byte
func ParseBytes(doc []byte, opts ...Option) (*NarInfo, error) {
	return Parse(string(doc), opts...)
}

// Parse 把文档组装成记录
// 遇到第一个坏行立即返回 (fail-fast)；缺失字段则一次性全部报告。
// 出错时不会返回任何部分记录。
func (p Policy) Parse(doc string) (*NarInfo, error) {
	// 1. 空文档
	if strings.TrimSpace(doc) == "" {
		return nil, &ParseError{Kind: KindDocumentEmpty}
	}

	// 2. 按 \n 切行，容忍一个结尾空行
	lines := strings.Split(doc, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var (
		info NarInfo
		seen = make(map[Key]int, len(decoders))
	)

	// 3. 逐行解析并累积
	for i, line := range lines {
		lineNo := i + 1

		d, perr := parseLine(line)
		if perr != nil {
			perr.Line = lineNo
			return nil, perr
		}

		key := d.Key()
		if first, dup := seen[key]; dup {
			if key != KeyReferences || !p.AdditiveReferences {
				// 先报错，后出现的值绝不覆盖已有值
				return nil, &ParseError{
					Kind:       KindDuplicateField,
					Line:       lineNo,
					Key:        key,
					FirstLine:  first,
					SecondLine: lineNo,
				}
			}
		} else {
			seen[key] = lineNo
		}

		apply(&info, d)
	}

	// 4. 必填字段检查
	var missing []Key
	for _, k := range requiredKeys {
		if k == KeyDeriver && p.DeriverOptional {
			continue
		}
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Kind: KindMissingField, Missing: missing}
	}

	if info.References == nil {
		info.References = []types.StorePathID{}
	}

	return &info, nil
}

// apply 把单个 Datum 写进记录
func apply(info *NarInfo, d Datum) {
	switch v := d.(type) {
	case StorePath:
		info.StorePath = string(v)
	case URL:
		info.URL = string(v)
	case Compression:
		info.Compression = string(v)
	case FileHash:
		info.FileHash = string(v)
	case FileSize:
		info.FileSize = uint64(v)
	case NarHash:
		info.NarHash = string(v)
	case NarSize:
		info.NarSize = uint64(v)
	case References:
		info.References = append(info.References, v...)
	case Deriver:
		info.Deriver = types.DerivationID(v)
	case Sig:
		info.Signature = string(v)
	}
}
