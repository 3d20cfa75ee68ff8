package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"narcheck/pkg/checker"
	"narcheck/pkg/narinfo"
	"narcheck/pkg/types"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInfo() *narinfo.NarInfo {
	return &narinfo.NarInfo{
		StorePath:   "/nix/store/aaaa-foo",
		URL:         "nar/aaaa.nar.xz",
		Compression: "xz",
		FileHash:    "sha256:aaaa",
		FileSize:    1930376,
		NarHash:     "sha256:bbbb",
		NarSize:     512,
		References:  []types.StorePathID{"bbbb-bar", "cccc-baz"},
		Deriver:     "dddd-foo.drv",
		Signature:   "cache.example.org-1:c2ln",
	}
}

func sampleResults() ([]checker.Result, []checker.Dangling) {
	results := []checker.Result{
		{Name: "aaaa.narinfo", Info: sampleInfo()},
		{Name: "eeee.narinfo", Err: &narinfo.ParseError{
			Kind: narinfo.KindUnexpectedSpace, Line: 3, Key: narinfo.KeyCompression, Raw: "x z", Offset: 1,
		}},
		{Name: "ffff.narinfo", Err: errors.New("read ffff.narinfo: permission denied")},
	}
	dangling := []checker.Dangling{{From: "aaaa.narinfo", Ref: "cccc-baz"}}
	return results, dangling
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "json", "cbor"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestNewReport(t *testing.T) {
	r := NewReport(sampleResults())

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Valid)
	assert.Equal(t, 2, r.Invalid)
	assert.False(t, r.OK())

	assert.Nil(t, r.Documents[0].Error)
	assert.Equal(t, &ErrorReport{
		Message: "line 3: Compression: unexpected whitespace at offset 1",
		Kind:    "UnexpectedSpace",
		Line:    3,
		Key:     "Compression",
		Raw:     "x z",
		Offset:  1,
	}, r.Documents[1].Error)
	assert.Equal(t, &ErrorReport{Message: "read ffff.narinfo: permission denied"}, r.Documents[2].Error)

	ok := NewReport([]checker.Result{{Name: "aaaa.narinfo", Info: sampleInfo()}}, nil)
	assert.True(t, ok.OK())
}

func TestNewErrorReport_Missing(t *testing.T) {
	r := NewErrorReport(&narinfo.ParseError{Kind: narinfo.KindMissingField, Missing: []narinfo.Key{narinfo.KeyDeriver}})
	assert.Equal(t, "MissingField", r.Kind)
	assert.Equal(t, []string{"Deriver"}, r.Missing)

	assert.Nil(t, NewErrorReport(nil))
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, NewReport(sampleResults())))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 3, got["total"])

	docs := got["documents"].([]any)
	first := docs[0].(map[string]any)
	info := first["info"].(map[string]any)
	assert.Equal(t, "/nix/store/aaaa-foo", info["storePath"])
	assert.EqualValues(t, 1930376, info["fileSize"])
	assert.Equal(t, []any{"bbbb-bar", "cccc-baz"}, info["references"])
	assert.NotContains(t, first, "error")

	second := docs[1].(map[string]any)
	assert.Equal(t, "UnexpectedSpace", second["error"].(map[string]any)["kind"])
}

func TestEncode_CBOR(t *testing.T) {
	report := NewReport(sampleResults())

	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, FormatCBOR, report))
	require.NoError(t, Encode(&b, FormatCBOR, report))
	// 确定性编码
	assert.Equal(t, a.Bytes(), b.Bytes())

	var decoded Report
	require.NoError(t, cbor.Unmarshal(a.Bytes(), &decoded))
	assert.Equal(t, report.Total, decoded.Total)
	assert.Equal(t, sampleInfo(), decoded.Documents[0].Info)
	assert.Equal(t, report.Documents[1].Error, decoded.Documents[1].Error)
	assert.Equal(t, report.Dangling, decoded.Dangling)
}

func TestEncode_Text(t *testing.T) {
	err := Encode(&bytes.Buffer{}, FormatText, sampleInfo())
	assert.Error(t, err)
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintInfo(&buf, sampleInfo()))
	out := buf.String()

	assert.Contains(t, out, "/nix/store/aaaa-foo")
	assert.Contains(t, out, "1.84MB (1930376)")
	assert.Contains(t, out, "512B (512)")
	assert.Contains(t, out, "dddd-foo.drv")
	assert.Contains(t, out, "References (2):")
	assert.Contains(t, out, "cccc")

	noDeriver := sampleInfo()
	noDeriver.Deriver = ""
	buf.Reset()
	require.NoError(t, PrintInfo(&buf, noDeriver))
	assert.Regexp(t, `Deriver:\s+-`, buf.String())
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintReport(&buf, NewReport(sampleResults())))
	out := buf.String()

	assert.Contains(t, out, "Checked 3 narinfo: 1 valid, 2 invalid")
	assert.Contains(t, out, "eeee.narinfo")
	assert.Contains(t, out, "UnexpectedSpace")
	assert.Contains(t, out, "permission denied")
	assert.Contains(t, out, "Dangling references (1):")
	assert.Contains(t, out, "cccc-baz")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, "x.narinfo", &narinfo.ParseError{Kind: narinfo.KindDocumentEmpty})
	assert.Equal(t, "x.narinfo: [DocumentEmpty] document is empty\n", buf.String())

	buf.Reset()
	PrintError(&buf, "x.narinfo", errors.New("boom"))
	assert.Equal(t, "x.narinfo: boom\n", buf.String())
}

func TestFmtSize(t *testing.T) {
	assert.Equal(t, "0B", fmtSize(0))
	assert.Equal(t, "1.0KB", fmtSize(1024))
	assert.Equal(t, "1.00MB", fmtSize(1024*1024))
	assert.Equal(t, "2.00GB", fmtSize(2*1024*1024*1024))
}
