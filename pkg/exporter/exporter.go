package exporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"narcheck/pkg/checker"
	"narcheck/pkg/narinfo"

	"github.com/fxamacker/cbor/v2"
)

// Format 输出格式
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// 确定性的 CBOR 编码选项
var encOptions = cbor.EncOptions{
	// 1. Map Key 排序 (Canonical)，相同报告得到相同字节
	Sort: cbor.SortCanonical,

	// 2. 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,
}

var em, _ = encOptions.EncMode()

// ErrorReport 是错误的可序列化形式
// 解析错误会展开成结构化字段，其它错误只有 Message
type ErrorReport struct {
	Message    string   `json:"message"`
	Kind       string   `json:"kind,omitempty"`
	Line       int      `json:"line,omitempty"`
	Key        string   `json:"key,omitempty"`
	Raw        string   `json:"raw,omitempty"`
	Offset     int      `json:"offset,omitempty"`
	FirstLine  int      `json:"firstLine,omitempty"`
	SecondLine int      `json:"secondLine,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

// NewErrorReport err 为 nil 时返回 nil
func NewErrorReport(err error) *ErrorReport {
	if err == nil {
		return nil
	}
	r := &ErrorReport{Message: err.Error()}

	var pe *narinfo.ParseError
	if errors.As(err, &pe) {
		r.Kind = pe.Kind.String()
		r.Line = pe.Line
		r.Key = string(pe.Key)
		r.Raw = pe.Raw
		r.Offset = pe.Offset
		r.FirstLine = pe.FirstLine
		r.SecondLine = pe.SecondLine
		for _, k := range pe.Missing {
			r.Missing = append(r.Missing, string(k))
		}
	}
	return r
}

type DocumentReport struct {
	Name  string           `json:"name"`
	Info  *narinfo.NarInfo `json:"info,omitempty"`
	Error *ErrorReport     `json:"error,omitempty"`
}

// Report 汇总一次 check 的结果
type Report struct {
	Total     int                `json:"total"`
	Valid     int                `json:"valid"`
	Invalid   int                `json:"invalid"`
	Documents []DocumentReport   `json:"documents"`
	Dangling  []checker.Dangling `json:"dangling,omitempty"`
}

// OK 所有文档有效且没有悬空引用
func (r *Report) OK() bool { return r.Invalid == 0 && len(r.Dangling) == 0 }

func NewReport(results []checker.Result, dangling []checker.Dangling) *Report {
	r := &Report{
		Total:     len(results),
		Documents: make([]DocumentReport, 0, len(results)),
		Dangling:  dangling,
	}
	for _, res := range results {
		if res.OK() {
			r.Valid++
		} else {
			r.Invalid++
		}
		r.Documents = append(r.Documents, DocumentReport{
			Name:  res.Name,
			Info:  res.Info,
			Error: NewErrorReport(res.Err),
		})
	}
	return r
}

// Encode 以机器可读格式写出 v
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatCBOR:
		data, err := em.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("format %q is not a machine-readable encoding", format)
	}
}
