package narinfo

import "narcheck/pkg/types"

// Key 是 narinfo 行中冒号之前的字段名，大小写敏感
type Key string

const (
	KeyStorePath   Key = "StorePath"
	KeyURL         Key = "URL"
	KeyCompression Key = "Compression"
	KeyFileHash    Key = "FileHash"
	KeyFileSize    Key = "FileSize"
	KeyNarHash     Key = "NarHash"
	KeyNarSize     Key = "NarSize"
	KeyReferences  Key = "References"
	KeyDeriver     Key = "Deriver"
	KeySig         Key = "Sig"
)

// requiredKeys 必须恰好出现一次的字段，顺序即 MissingField 的报告顺序
var requiredKeys = []Key{
	KeyStorePath,
	KeyURL,
	KeyCompression,
	KeyFileHash,
	KeyFileSize,
	KeyNarHash,
	KeyNarSize,
	KeyDeriver,
	KeySig,
}

func (k Key) String() string { return string(k) }

// Datum 是单行解析的结果，一个封闭的 tagged variant：
// 只有本包内定义的类型能实现它。
type Datum interface {
	Key() Key
	isDatum()
}

type (
	StorePath   string
	URL         string
	Compression string
	FileHash    string
	FileSize    uint64
	NarHash     string
	NarSize     uint64
	References  []types.StorePathID
	Deriver     types.DerivationID
	Sig         string
)

func (StorePath) Key() Key   { return KeyStorePath }
func (URL) Key() Key         { return KeyURL }
func (Compression) Key() Key { return KeyCompression }
func (FileHash) Key() Key    { return KeyFileHash }
func (FileSize) Key() Key    { return KeyFileSize }
func (NarHash) Key() Key     { return KeyNarHash }
func (NarSize) Key() Key     { return KeyNarSize }
func (References) Key() Key  { return KeyReferences }
func (Deriver) Key() Key     { return KeyDeriver }
func (Sig) Key() Key         { return KeySig }

func (StorePath) isDatum()   {}
func (URL) isDatum()         {}
func (Compression) isDatum() {}
func (FileHash) isDatum()    {}
func (FileSize) isDatum()    {}
func (NarHash) isDatum()     {}
func (NarSize) isDatum()     {}
func (References) isDatum()  {}
func (Deriver) isDatum()     {}
func (Sig) isDatum()         {}
