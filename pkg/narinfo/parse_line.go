package narinfo

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"narcheck/pkg/types"
)

// decoder 把已 trim 的值解码成对应的 Datum
type decoder func(key Key, value string) (Datum, *ParseError)

// decoders 是 key 词表与解码规则的唯一分发表
var decoders = map[Key]decoder{
	KeyStorePath: func(k Key, v string) (Datum, *ParseError) {
		if v == "" {
			return nil, &ParseError{Kind: KindEmptyValue, Key: k}
		}
		return StorePath(v), nil
	},
	KeyURL: func(k Key, v string) (Datum, *ParseError) {
		if v == "" {
			return nil, &ParseError{Kind: KindEmptyValue, Key: k}
		}
		return URL(v), nil
	},
	KeyCompression: func(k Key, v string) (Datum, *ParseError) {
		t, perr := decodeToken(k, v)
		if perr != nil {
			return nil, perr
		}
		return Compression(t), nil
	},
	KeyFileHash: func(k Key, v string) (Datum, *ParseError) {
		t, perr := decodeToken(k, v)
		if perr != nil {
			return nil, perr
		}
		return FileHash(t), nil
	},
	KeyFileSize: func(k Key, v string) (Datum, *ParseError) {
		n, perr := decodeUint(k, v)
		if perr != nil {
			return nil, perr
		}
		return FileSize(n), nil
	},
	KeyNarHash: func(k Key, v string) (Datum, *ParseError) {
		t, perr := decodeToken(k, v)
		if perr != nil {
			return nil, perr
		}
		return NarHash(t), nil
	},
	KeyNarSize: func(k Key, v string) (Datum, *ParseError) {
		n, perr := decodeUint(k, v)
		if perr != nil {
			return nil, perr
		}
		return NarSize(n), nil
	},
	KeyReferences: decodeReferences,
	KeyDeriver: func(k Key, v string) (Datum, *ParseError) {
		t, perr := decodeToken(k, v)
		if perr != nil {
			return nil, perr
		}
		id, err := types.ParseDerivationID(t)
		if err != nil {
			return nil, &ParseError{Kind: KindInvalidIdentifier, Key: k, Raw: t, Err: err}
		}
		return Deriver(id), nil
	},
	KeySig: func(_ Key, v string) (Datum, *ParseError) {
		// 签名原样保存，不做任何解析或校验
		return Sig(v), nil
	},
}

// ParseLine 解析形如 `Key: Value` 的单行
// 只在第一个冒号处切分；值两侧的空白在解码前被去掉。
// 失败时返回 *ParseError，其 Line 为 0。
func ParseLine(line string) (Datum, error) {
	d, perr := parseLine(line)
	if perr != nil {
		return nil, perr
	}
	return d, nil
}

func parseLine(line string) (Datum, *ParseError) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil, &ParseError{Kind: KindLineCorruptNoColon, Raw: line}
	}

	dec, known := decoders[Key(key)]
	if !known {
		return nil, &ParseError{Kind: KindLineUnknownKey, Raw: key}
	}

	return dec(Key(key), strings.TrimSpace(value))
}

// decodeToken 要求值非空且不含任何空白
func decodeToken(k Key, v string) (string, *ParseError) {
	if v == "" {
		return "", &ParseError{Kind: KindEmptyValue, Key: k}
	}
	if i := strings.IndexFunc(v, unicode.IsSpace); i >= 0 {
		return "", &ParseError{Kind: KindUnexpectedSpace, Key: k, Raw: v, Offset: i}
	}
	return v, nil
}

// decodeUint 只接受十进制、无符号、无分隔符的 64 位整数，允许前导 0
func decodeUint(k Key, v string) (uint64, *ParseError) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		// 只保留 ErrSyntax / ErrRange，原始文本已经在 Raw 里
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			err = ne.Err
		}
		return 0, &ParseError{Kind: KindInvalidInteger, Key: k, Raw: v, Err: err}
	}
	return n, nil
}

// decodeReferences 空值得到空列表；保持原始顺序，不去重
func decodeReferences(k Key, v string) (Datum, *ParseError) {
	fields := strings.Fields(v)
	refs := make(References, 0, len(fields))
	for _, f := range fields {
		id, err := types.ParseStorePathID(f)
		if err != nil {
			return nil, &ParseError{Kind: KindInvalidIdentifier, Key: k, Raw: f, Err: err}
		}
		refs = append(refs, id)
	}
	return refs, nil
}
