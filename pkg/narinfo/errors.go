package narinfo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 区分解析失败的种类，调用方可以据此做判断而无需匹配字符串
type ErrorKind int

const (
	KindLineCorruptNoColon ErrorKind = iota + 1
	KindLineUnknownKey
	KindUnexpectedSpace
	KindInvalidInteger
	KindDuplicateField
	KindMissingField
	KindDocumentEmpty
	KindEmptyValue
	KindInvalidIdentifier
)

var (
	ErrLineCorruptNoColon = errors.New("line has no key/value separator")
	ErrLineUnknownKey     = errors.New("unknown key")
	ErrUnexpectedSpace    = errors.New("unexpected whitespace")
	ErrInvalidInteger     = errors.New("invalid integer")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrMissingField       = errors.New("missing required field")
	ErrDocumentEmpty      = errors.New("document is empty")
	ErrEmptyValue         = errors.New("empty value")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)

var kindSentinels = map[ErrorKind]error{
	KindLineCorruptNoColon: ErrLineCorruptNoColon,
	KindLineUnknownKey:     ErrLineUnknownKey,
	KindUnexpectedSpace:    ErrUnexpectedSpace,
	KindInvalidInteger:     ErrInvalidInteger,
	KindDuplicateField:     ErrDuplicateField,
	KindMissingField:       ErrMissingField,
	KindDocumentEmpty:      ErrDocumentEmpty,
	KindEmptyValue:         ErrEmptyValue,
	KindInvalidIdentifier:  ErrInvalidIdentifier,
}

func (k ErrorKind) String() string {
	switch k {
	case KindLineCorruptNoColon:
		return "LineCorruptNoColon"
	case KindLineUnknownKey:
		return "LineUnknownKey"
	case KindUnexpectedSpace:
		return "UnexpectedSpace"
	case KindInvalidInteger:
		return "InvalidInteger"
	case KindDuplicateField:
		return "DuplicateField"
	case KindMissingField:
		return "MissingField"
	case KindDocumentEmpty:
		return "DocumentEmpty"
	case KindEmptyValue:
		return "EmptyValue"
	case KindInvalidIdentifier:
		return "InvalidIdentifier"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// MarshalText 让 JSON/CBOR 输出中的 kind 是可读的名字而不是数字
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseError 是所有解析失败的统一结构
// 不同 Kind 只填充与之相关的字段，其余保持零值。
type ParseError struct {
	Kind ErrorKind `json:"kind"`

	// Line 从 1 开始；单独调用 ParseLine 或文档级错误时为 0
	Line int `json:"line,omitempty"`
	Key  Key `json:"key,omitempty"`

	// Raw 是出错的原始文本：
	// NoColon 为整行，UnknownKey 为 key，InvalidInteger/InvalidIdentifier 为值
	Raw string `json:"raw,omitempty"`

	// Offset 是 UnexpectedSpace 中第一个空白字符在(已 trim 的)值中的字节偏移
	Offset int `json:"offset,omitempty"`

	FirstLine  int   `json:"firstLine,omitempty"`
	SecondLine int   `json:"secondLine,omitempty"`
	Missing    []Key `json:"missing,omitempty"`

	// Err 是底层诊断，例如 strconv.ErrRange
	Err error `json:"-"`
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case KindLineCorruptNoColon:
		msg = fmt.Sprintf("no ':' separator in %q", e.Raw)
	case KindLineUnknownKey:
		msg = fmt.Sprintf("unknown key %q", e.Raw)
	case KindUnexpectedSpace:
		msg = fmt.Sprintf("%s: unexpected whitespace at offset %d", e.Key, e.Offset)
	case KindInvalidInteger:
		msg = fmt.Sprintf("%s: invalid integer %q: %v", e.Key, e.Raw, e.Err)
	case KindDuplicateField:
		return fmt.Sprintf("%s: duplicate field (lines %d and %d)", e.Key, e.FirstLine, e.SecondLine)
	case KindMissingField:
		names := make([]string, len(e.Missing))
		for i, k := range e.Missing {
			names[i] = string(k)
		}
		return "missing required fields: " + strings.Join(names, ", ")
	case KindDocumentEmpty:
		return ErrDocumentEmpty.Error()
	case KindEmptyValue:
		msg = fmt.Sprintf("%s: empty value", e.Key)
	case KindInvalidIdentifier:
		msg = fmt.Sprintf("%s: invalid identifier %q: %v", e.Key, e.Raw, e.Err)
	default:
		msg = e.Kind.String()
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// Unwrap 同时暴露 kind 对应的哨兵错误和底层诊断，
// 所以 errors.Is(err, ErrInvalidInteger) 与 errors.Is(err, strconv.ErrRange) 都成立
func (e *ParseError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf 返回 err 链中 ParseError 的 Kind，不是 ParseError 时返回 0
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
